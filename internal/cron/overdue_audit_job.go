package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/toolcrib/toolcrib-backend/internal/clock"
	"github.com/toolcrib/toolcrib-backend/internal/lending"
	"github.com/toolcrib/toolcrib-backend/pkg/logger"
	"github.com/toolcrib/toolcrib-backend/pkg/metrics"
)

// OverdueAuditJob recounts open and overdue loans once per cycle and
// publishes the totals as gauges. The counts come from the loan log, so a
// crashed worker never leaves them stale for longer than one interval.
type OverdueAuditJob struct {
	history lending.HistoryRepository
	clock   clock.Clock
	logg    *logger.Logger
	metrics *metrics.LendingMetrics
}

// OverdueAuditJobParams configure the audit job.
type OverdueAuditJobParams struct {
	History lending.HistoryRepository
	Clock   clock.Clock
	Logger  *logger.Logger
	Metrics *metrics.LendingMetrics
}

// NewOverdueAuditJob builds the audit job.
func NewOverdueAuditJob(params OverdueAuditJobParams) (*OverdueAuditJob, error) {
	if params.History == nil {
		return nil, fmt.Errorf("history repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	clk := params.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &OverdueAuditJob{
		history: params.History,
		clock:   clk,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// Name identifies the job in logs and metrics.
func (j *OverdueAuditJob) Name() string { return "overdue_audit" }

// Run counts open and overdue loans. Overdue uses the same boundary as the
// overdue view: due date strictly before today's UTC date, so a loan due
// later today is not yet overdue.
func (j *OverdueAuditJob) Run(ctx context.Context) error {
	now := j.clock.Now().UTC()
	asOf := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var errs error

	open, err := j.history.CountOpen(ctx)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("count open loans: %w", err))
	} else {
		j.metrics.SetOpenLoans(open)
	}

	overdue, err := j.history.CountOverdue(ctx, asOf)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("count overdue loans: %w", err))
	} else {
		j.metrics.SetOverdue(overdue)
	}

	if errs != nil {
		return errs
	}

	auditCtx := j.logg.WithFields(ctx, map[string]any{
		"open_loans":    open,
		"overdue_loans": overdue,
	})
	j.logg.Info(auditCtx, "overdue audit complete")
	return nil
}
