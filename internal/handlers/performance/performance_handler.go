// internal/handlers/performance/performance_handler.go
package performance

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"timesoffice-service/internal/pkg/response"
	performanceUsecase "timesoffice-service/internal/service/performance"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PipelineRunner triggers the daily pipeline outside its schedule.
type PipelineRunner interface {
	RunDailyPipeline(ctx context.Context, today time.Time)
}

type PerformanceHandler struct {
	service *performanceUsecase.PerformanceService
	runner  PipelineRunner
	logger  *zap.Logger
}

func NewPerformanceHandler(service *performanceUsecase.PerformanceService, runner PipelineRunner, logger *zap.Logger) *PerformanceHandler {
	return &PerformanceHandler{
		service: service,
		runner:  runner,
		logger:  logger,
	}
}

// Daily returns the snapshot rows of one day. ?date=2024-06-03,
// default today.
func (h *PerformanceHandler) Daily(c *gin.Context) {
	day, err := dateParam(c, "date", time.Now())
	if err != nil {
		response.ValidationError(c, "invalid date", err)
		return
	}

	rows, err := h.service.DailyPerformance(c.Request.Context(), day)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to load daily performance", err)
		return
	}
	response.Success(c, http.StatusOK, "daily performance retrieved", rows)
}

// Monthly returns one summed row per agent for a month.
// ?month=2024-06, default current month.
func (h *PerformanceHandler) Monthly(c *gin.Context) {
	month := time.Now()
	if raw := c.Query("month"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			response.ValidationError(c, "invalid month, expected YYYY-MM", err)
			return
		}
		month = parsed
	}

	rows, err := h.service.MonthlyDetails(c.Request.Context(), month)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to load monthly details", err)
		return
	}
	response.Success(c, http.StatusOK, "monthly details retrieved", rows)
}

// Chart returns the weekly totals of one ISO week. ?week=23&year=2024,
// default the current ISO week.
func (h *PerformanceHandler) Chart(c *gin.Context) {
	year, week := time.Now().ISOWeek()
	var err error
	if raw := c.Query("week"); raw != "" {
		if week, err = strconv.Atoi(raw); err != nil {
			response.ValidationError(c, "invalid week", err)
			return
		}
	}
	if raw := c.Query("year"); raw != "" {
		if year, err = strconv.Atoi(raw); err != nil {
			response.ValidationError(c, "invalid year", err)
			return
		}
	}

	rows, err := h.service.ChartTotals(c.Request.Context(), week, year)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to load chart totals", err)
		return
	}
	response.Success(c, http.StatusOK, "chart totals retrieved", rows)
}

// Range returns the weekly totals between two days, inclusive.
// ?from=2024-06-01&to=2024-06-30
func (h *PerformanceHandler) Range(c *gin.Context) {
	from, err := dateParam(c, "from", time.Time{})
	if err != nil || from.IsZero() {
		response.ValidationError(c, "from is required as YYYY-MM-DD", err)
		return
	}
	to, err := dateParam(c, "to", time.Time{})
	if err != nil || to.IsZero() {
		response.ValidationError(c, "to is required as YYYY-MM-DD", err)
		return
	}

	rows, err := h.service.RangeTotals(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to load range totals", err)
		return
	}
	response.Success(c, http.StatusOK, "range totals retrieved", rows)
}

// Run triggers the daily pipeline immediately. The run happens in the
// background; progress is reported over the event stream.
func (h *PerformanceHandler) Run(c *gin.Context) {
	go h.runner.RunDailyPipeline(context.Background(), time.Now())

	h.logger.Info("manual pipeline run requested")
	response.Success(c, http.StatusAccepted, "pipeline run started", nil)
}

func dateParam(c *gin.Context, name string, fallback time.Time) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return time.Parse("2006-01-02", raw)
}
