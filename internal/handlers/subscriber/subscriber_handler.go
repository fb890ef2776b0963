// internal/handlers/subscriber/subscriber_handler.go
package subscriber

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"timesoffice-service/internal/pkg/response"
	"timesoffice-service/internal/service/importer"
	subscriberUsecase "timesoffice-service/internal/service/subscriber"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SubscriberHandler struct {
	service *subscriberUsecase.SubscriberService
	logger  *zap.Logger
}

func NewSubscriberHandler(service *subscriberUsecase.SubscriberService, logger *zap.Logger) *SubscriberHandler {
	return &SubscriberHandler{
		service: service,
		logger:  logger,
	}
}

// List returns every subscriber with a fresh countdown view.
func (h *SubscriberHandler) List(c *gin.Context) {
	rows, err := h.service.List(c.Request.Context(), time.Now())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list subscribers", err)
		return
	}
	response.Success(c, http.StatusOK, "subscribers retrieved", rows)
}

// Search filters subscribers by a free-text term. ?q=term
func (h *SubscriberHandler) Search(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		response.ValidationError(c, "query parameter q is required", nil)
		return
	}

	rows, err := h.service.Search(c.Request.Context(), term, time.Now())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "search failed", err)
		return
	}
	response.Success(c, http.StatusOK, "search results", rows)
}

// StatusSum returns the table-wide valid vs expired card counts.
func (h *SubscriberHandler) StatusSum(c *gin.Context) {
	sum, err := h.service.StatusSum(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to compute status sum", err)
		return
	}
	response.Success(c, http.StatusOK, "status sum computed", sum)
}

// Import ingests an uploaded subscriber sheet. Multipart field: file.
func (h *SubscriberHandler) Import(c *gin.Context) {
	file, err := openUpload(c)
	if err != nil {
		response.ValidationError(c, "file upload is required", err)
		return
	}
	defer file.Close()

	rows, rowErrs, err := importer.ParseSubscriberSheet(file)
	if err != nil {
		response.ValidationError(c, "failed to parse sheet", err)
		return
	}

	result, err := h.service.ImportSubscribers(c.Request.Context(), rows)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "import failed", err)
		return
	}

	response.Success(c, http.StatusCreated, "import finished", gin.H{
		"result":     result,
		"row_errors": rowErrs,
	})
}

// Renew ingests an uploaded payments sheet and renews the matched
// cards.
func (h *SubscriberHandler) Renew(c *gin.Context) {
	file, err := openUpload(c)
	if err != nil {
		response.ValidationError(c, "file upload is required", err)
		return
	}
	defer file.Close()

	rows, rowErrs, err := importer.ParseRenewalSheet(file)
	if err != nil {
		response.ValidationError(c, "failed to parse sheet", err)
		return
	}

	result, err := h.service.RenewSubscribers(c.Request.Context(), rows)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "renewal failed", err)
		return
	}

	response.Success(c, http.StatusOK, "renewal finished", gin.H{
		"result":     result,
		"row_errors": rowErrs,
	})
}

// Replace wipes one agent's cards and re-imports from the uploaded
// sheet.
func (h *SubscriberHandler) Replace(c *gin.Context) {
	agentCode, err := strconv.Atoi(c.Param("agent_code"))
	if err != nil {
		response.ValidationError(c, "invalid agent code", err)
		return
	}

	file, err := openUpload(c)
	if err != nil {
		response.ValidationError(c, "file upload is required", err)
		return
	}
	defer file.Close()

	rows, rowErrs, err := importer.ParseSubscriberSheet(file)
	if err != nil {
		response.ValidationError(c, "failed to parse sheet", err)
		return
	}

	result, err := h.service.ReplaceAgentData(c.Request.Context(), agentCode, rows)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "replace failed", err)
		return
	}

	h.logger.Info("agent data replaced",
		zap.Int("agent_code", agentCode),
		zap.Int("rows", len(rows)),
	)
	response.Success(c, http.StatusOK, "agent data replaced", gin.H{
		"result":     result,
		"row_errors": rowErrs,
	})
}

// Refresh recomputes every subscriber's countdown on demand.
func (h *SubscriberHandler) Refresh(c *gin.Context) {
	updated, err := h.service.RefreshCountdowns(c.Request.Context(), time.Now())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "refresh failed", err)
		return
	}
	response.Success(c, http.StatusOK, "countdowns refreshed", gin.H{
		"updated": updated,
	})
}

func openUpload(c *gin.Context) (multipart.File, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, err
	}
	return header.Open()
}
