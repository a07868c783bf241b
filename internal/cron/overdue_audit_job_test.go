package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/toolcrib/toolcrib-backend/internal/clock"
	"github.com/toolcrib/toolcrib-backend/internal/lending"
	"github.com/toolcrib/toolcrib-backend/pkg/db/models"
	"github.com/toolcrib/toolcrib-backend/pkg/logger"
	"github.com/toolcrib/toolcrib-backend/pkg/metrics"
)

type fakeHistory struct {
	open       int64
	overdue    int64
	openErr    error
	overdueErr error
	lastAsOf   time.Time
}

func (f *fakeHistory) WithTx(*gorm.DB) lending.HistoryRepository { return f }

func (f *fakeHistory) Append(context.Context, *models.LoanRecord) error { return nil }

func (f *fakeHistory) FindOldestOpen(context.Context, uuid.UUID, uuid.UUID) (*models.LoanRecord, error) {
	return nil, nil
}

func (f *fakeHistory) Close(context.Context, uuid.UUID, time.Time) (int64, error) { return 0, nil }

func (f *fakeHistory) CountOpen(context.Context) (int64, error) { return f.open, f.openErr }

func (f *fakeHistory) CountOverdue(_ context.Context, asOf time.Time) (int64, error) {
	f.lastAsOf = asOf
	return f.overdue, f.overdueErr
}

func TestOverdueAuditJobCountsAsOfNow(t *testing.T) {
	now := time.Date(2026, 3, 12, 2, 0, 0, 0, time.UTC)
	history := &fakeHistory{open: 4, overdue: 2}

	job, err := NewOverdueAuditJob(OverdueAuditJobParams{
		History: history,
		Clock:   clock.NewFixed(now),
		Logger:  logger.New(logger.Options{ServiceName: "cron-test"}),
	})
	require.NoError(t, err)
	require.Equal(t, "overdue_audit", job.Name())

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), history.lastAsOf)
}

func TestOverdueAuditJobIgnoresLoansDueLaterToday(t *testing.T) {
	dsn := "file:cron_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE loan_records (
  id TEXT PRIMARY KEY,
  borrower_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  borrowed_at DATETIME NOT NULL,
  due_at DATETIME NOT NULL,
  returned_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)

	now := time.Date(2026, 3, 12, 12, 0, 0, 0, time.UTC)
	seed := func(dueAt time.Time) {
		require.NoError(t, db.Create(&models.LoanRecord{
			ID:         uuid.New(),
			BorrowerID: uuid.New(),
			ItemID:     uuid.New(),
			Quantity:   1,
			BorrowedAt: now.AddDate(0, 0, -5),
			DueAt:      dueAt,
		}).Error)
	}
	// Due at 08:00 today: not overdue until tomorrow.
	seed(time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC))
	// Due yesterday.
	seed(time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC))

	reg := prometheus.NewRegistry()
	job, err := NewOverdueAuditJob(OverdueAuditJobParams{
		History: lending.NewHistoryRepository(db),
		Clock:   clock.NewFixed(now),
		Logger:  logger.New(logger.Options{ServiceName: "cron-test"}),
		Metrics: metrics.NewLendingMetrics(reg),
	})
	require.NoError(t, err)
	require.NoError(t, job.Run(context.Background()))

	require.Equal(t, float64(1), gaugeValue(t, reg, "lending_overdue_loans"))
	require.Equal(t, float64(2), gaugeValue(t, reg, "lending_open_loans"))
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			require.Len(t, family.GetMetric(), 1)
			return family.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("gauge %s not registered", name)
	return 0
}

func TestOverdueAuditJobAggregatesCountErrors(t *testing.T) {
	history := &fakeHistory{
		openErr:    errors.New("open query failed"),
		overdueErr: errors.New("overdue query failed"),
	}

	job, err := NewOverdueAuditJob(OverdueAuditJobParams{
		History: history,
		Logger:  logger.New(logger.Options{ServiceName: "cron-test"}),
	})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "open query failed")
	require.Contains(t, err.Error(), "overdue query failed")
}

func TestOverdueAuditJobRequiresHistory(t *testing.T) {
	_, err := NewOverdueAuditJob(OverdueAuditJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
	})
	require.Error(t, err)
}
