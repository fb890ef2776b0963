package subscriber

import (
	"context"
	"sync"
	"testing"
	"time"

	"timesoffice-service/internal/domain/event"
	"timesoffice-service/internal/domain/subscriber"
	"timesoffice-service/internal/pkg/datewindow"
	xerrors "timesoffice-service/internal/pkg/errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fakeStore struct {
	mu       sync.Mutex
	rows     []subscriber.Subscriber
	renewals map[int64]subscriber.Subscriber
	nextID   int64
}

func newFakeStore(rows ...subscriber.Subscriber) *fakeStore {
	return &fakeStore{rows: rows, renewals: make(map[int64]subscriber.Subscriber)}
}

func (f *fakeStore) Insert(_ context.Context, s *subscriber.Subscriber) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.rows {
		if existing.Card == s.Card {
			return xerrors.ErrDuplicateEntry
		}
	}
	f.nextID++
	s.ID = f.nextID
	f.rows = append(f.rows, *s)
	return nil
}

func (f *fakeStore) UpdateCountdown(_ context.Context, id int64, daysRemain int, status subscriber.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].DaysRemain = daysRemain
			f.rows[i].Status = status
			return nil
		}
	}
	return xerrors.ErrNotFound
}

func (f *fakeStore) UpdateRenewal(_ context.Context, card int64, openDate time.Time, duration, daysRemain int, expireDate time.Time, status subscriber.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].Card == card {
			f.rows[i].OpenDate = openDate
			f.rows[i].Duration = duration
			f.rows[i].DaysRemain = daysRemain
			f.rows[i].ExpireDate = expireDate
			f.rows[i].Status = status
			f.renewals[card] = f.rows[i]
			return nil
		}
	}
	return xerrors.ErrNotFound
}

func (f *fakeStore) DeleteByAgentCode(_ context.Context, agentCode int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []subscriber.Subscriber
	var deleted int64
	for _, r := range f.rows {
		if r.AgentCode == agentCode {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept
	return deleted, nil
}

func (f *fakeStore) ListAll(context.Context) ([]subscriber.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]subscriber.Subscriber, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeStore) ListAgentStatus(ctx context.Context) ([]subscriber.Subscriber, error) {
	return f.ListAll(ctx)
}

func (f *fakeStore) Search(ctx context.Context, term string) ([]subscriber.Subscriber, error) {
	return f.ListAll(ctx)
}

func newService(store Store) *SubscriberService {
	return NewSubscriberService(store, event.NopNotifier{}, nil, zap.NewNop())
}

func TestDurationForAmount(t *testing.T) {
	tests := []struct {
		amount int64
		want   int
	}{
		{25, 7},
		{35, 7},
		{20, 30},
		{45, 30},
		{75, 30},
		{90, 60},
		{150, 60},
		{60, 90},
		{135, 90},
		{999, DefaultDuration},
	}
	for _, tt := range tests {
		if got := DurationForAmount(decimal.NewFromInt(tt.amount)); got != tt.want {
			t.Errorf("DurationForAmount(%d) = %d, want %d", tt.amount, got, tt.want)
		}
	}
}

func TestImportSubscribers(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	now := time.Now()

	rows := []subscriber.ImportRow{
		{AgentName: "alice", AgentCode: 1, Card: 100, OpenDate: now, Duration: 30},
		{AgentName: "alice", AgentCode: 1, Card: 101, OpenDate: now, Duration: 7},
		{AgentName: "bob", AgentCode: 2, Card: 100, OpenDate: now, Duration: 30}, // duplicate card
	}

	result, err := svc.ImportSubscribers(context.Background(), rows)
	if err != nil {
		t.Fatalf("ImportSubscribers() error = %v", err)
	}

	if result.Processed != 3 {
		t.Errorf("Processed = %d, want 3", result.Processed)
	}
	if result.Inserted+result.Duplicates != 3 || result.Failed != 0 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", result.Duplicates)
	}

	stored, _ := store.ListAll(context.Background())
	if len(stored) != 2 {
		t.Fatalf("store holds %d rows, want 2", len(stored))
	}
}

func TestImportDerivesExpiryAndStatus(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	now := time.Now()

	rows := []subscriber.ImportRow{
		{AgentName: "alice", AgentCode: 1, Card: 100, OpenDate: now, Duration: 30},
		{AgentName: "alice", AgentCode: 1, Card: 101, OpenDate: now.AddDate(0, 0, -40), Duration: 30},
		{AgentName: "alice", AgentCode: 1, Card: 102, OpenDate: now.AddDate(0, 0, -40)}, // no duration
	}

	if _, err := svc.ImportSubscribers(context.Background(), rows); err != nil {
		t.Fatalf("ImportSubscribers() error = %v", err)
	}

	stored, _ := store.ListAll(context.Background())
	byCard := make(map[int64]subscriber.Subscriber)
	for _, s := range stored {
		byCard[s.Card] = s
	}

	fresh := byCard[100]
	if fresh.Status != subscriber.StatusValid {
		t.Errorf("fresh card status = %s, want VALID", fresh.Status)
	}
	if fresh.DaysRemain != 30 {
		t.Errorf("fresh card days remain = %d, want 30", fresh.DaysRemain)
	}
	wantExpire := datewindow.Truncate(now).AddDate(0, 0, 30)
	if !fresh.ExpireDate.Equal(wantExpire) {
		t.Errorf("fresh card expires %v, want %v", fresh.ExpireDate, wantExpire)
	}

	lapsed := byCard[101]
	if lapsed.Status != subscriber.StatusPunishStop {
		t.Errorf("lapsed card status = %s, want PUNISHSTOP", lapsed.Status)
	}
	if lapsed.DaysRemain != -10 {
		t.Errorf("lapsed card days remain = %d, want -10", lapsed.DaysRemain)
	}

	defaulted := byCard[102]
	if defaulted.Duration != DefaultDuration {
		t.Errorf("defaulted duration = %d, want %d", defaulted.Duration, DefaultDuration)
	}
}

func TestRenewSubscribers(t *testing.T) {
	now := time.Now()
	store := newFakeStore(subscriber.Subscriber{
		ID: 1, Card: 100, AgentName: "alice", AgentCode: 1,
		Status: subscriber.StatusPunishStop, DaysRemain: -5,
	})
	svc := newService(store)

	rows := []subscriber.RenewalRow{
		{Card: 100, OpenDate: now, Amount: decimal.NewFromInt(25)},
		{Card: 999, OpenDate: now, Amount: decimal.NewFromInt(25)}, // unknown card
	}

	result, err := svc.RenewSubscribers(context.Background(), rows)
	if err != nil {
		t.Fatalf("RenewSubscribers() error = %v", err)
	}
	if result.Inserted != 1 || result.Failed != 1 {
		t.Errorf("result = %+v, want 1 renewed 1 failed", result)
	}

	renewed := store.renewals[100]
	if renewed.Duration != 7 {
		t.Errorf("renewed duration = %d, want 7 for amount 25", renewed.Duration)
	}
	if renewed.Status != subscriber.StatusValid {
		t.Errorf("renewed status = %s, want VALID", renewed.Status)
	}
	if renewed.DaysRemain != 7 {
		t.Errorf("renewed days remain = %d, want 7", renewed.DaysRemain)
	}
}

func TestReplaceAgentData(t *testing.T) {
	now := time.Now()
	store := newFakeStore(
		subscriber.Subscriber{ID: 1, Card: 100, AgentCode: 1, AgentName: "alice"},
		subscriber.Subscriber{ID: 2, Card: 200, AgentCode: 2, AgentName: "bob"},
	)
	svc := newService(store)

	rows := []subscriber.ImportRow{
		{AgentName: "alice", AgentCode: 1, Card: 300, OpenDate: now, Duration: 30},
	}

	result, err := svc.ReplaceAgentData(context.Background(), 1, rows)
	if err != nil {
		t.Fatalf("ReplaceAgentData() error = %v", err)
	}
	if result.Inserted != 1 {
		t.Errorf("Inserted = %d, want 1", result.Inserted)
	}

	stored, _ := store.ListAll(context.Background())
	for _, s := range stored {
		if s.Card == 100 {
			t.Error("old agent card 100 should be gone")
		}
	}
	if len(stored) != 2 {
		t.Errorf("store holds %d rows, want 2 (bob untouched + new import)", len(stored))
	}
}

func TestRefreshCountdowns(t *testing.T) {
	now := time.Now()
	store := newFakeStore(
		subscriber.Subscriber{
			ID: 1, Card: 100, AgentCode: 1,
			ExpireDate: datewindow.Truncate(now).AddDate(0, 0, 10),
			Status:     subscriber.StatusValid, DaysRemain: 11,
		},
		subscriber.Subscriber{
			ID: 2, Card: 101, AgentCode: 1,
			ExpireDate: datewindow.Truncate(now).AddDate(0, 0, -2),
			Status:     subscriber.StatusValid, DaysRemain: 1,
		},
	)
	svc := newService(store)

	updated, err := svc.RefreshCountdowns(context.Background(), now)
	if err != nil {
		t.Fatalf("RefreshCountdowns() error = %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2", updated)
	}

	rows, _ := store.ListAll(context.Background())
	byID := make(map[int64]subscriber.Subscriber)
	for _, r := range rows {
		byID[r.ID] = r
	}

	if byID[1].DaysRemain != 10 || byID[1].Status != subscriber.StatusValid {
		t.Errorf("row 1 = days %d status %s, want 10 VALID", byID[1].DaysRemain, byID[1].Status)
	}
	if byID[2].DaysRemain != -2 || byID[2].Status != subscriber.StatusPunishStop {
		t.Errorf("row 2 = days %d status %s, want -2 PUNISHSTOP", byID[2].DaysRemain, byID[2].Status)
	}
}

func TestListRefreshesView(t *testing.T) {
	now := time.Now()
	store := newFakeStore(subscriber.Subscriber{
		ID: 1, Card: 100,
		ExpireDate: datewindow.Truncate(now).AddDate(0, 0, -1),
		Status:     subscriber.StatusValid, DaysRemain: 3, // stale persisted view
	})
	svc := newService(store)

	rows, err := svc.List(context.Background(), now)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if rows[0].DaysRemain != -1 || rows[0].Status != subscriber.StatusPunishStop {
		t.Errorf("view = days %d status %s, want -1 PUNISHSTOP", rows[0].DaysRemain, rows[0].Status)
	}

	// The persisted row must stay untouched.
	stored, _ := store.ListAll(context.Background())
	if stored[0].DaysRemain != 3 {
		t.Errorf("persisted days remain = %d, want 3", stored[0].DaysRemain)
	}
}

func TestStatusSumWithoutCache(t *testing.T) {
	store := newFakeStore(
		subscriber.Subscriber{ID: 1, Card: 1, Status: subscriber.StatusValid},
		subscriber.Subscriber{ID: 2, Card: 2, Status: subscriber.StatusValid},
		subscriber.Subscriber{ID: 3, Card: 3, Status: subscriber.StatusPunishStop},
	)
	svc := newService(store)

	sum, err := svc.StatusSum(context.Background())
	if err != nil {
		t.Fatalf("StatusSum() error = %v", err)
	}
	if sum.Active != 2 || sum.Dormant != 1 {
		t.Errorf("sum = %+v, want active 2 dormant 1", sum)
	}
}
