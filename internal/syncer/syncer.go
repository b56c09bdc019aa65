// Package syncer drives batch calendar-provider sync: one create call per
// milestone, serially, with a fixed inter-call delay to respect provider rate
// limits.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bidcal/internal/models"
	"bidcal/internal/schedule"
)

// EventCreator is the per-provider "create calendar event" operation. The
// Google client satisfies it via a thin adapter in cmd.
type EventCreator interface {
	CreateEvent(ctx context.Context, event models.Event, reminderMinutes []int64) error
}

// Syncer uploads a record's milestones to one calendar provider.
type Syncer struct {
	logger  *slog.Logger
	creator EventCreator
	delay   time.Duration
	dryRun  bool
}

// NewSyncer creates a Syncer. delay is the pause between consecutive create
// calls; zero disables it.
func NewSyncer(logger *slog.Logger, creator EventCreator, delay time.Duration, dryRun bool) *Syncer {
	return &Syncer{logger: logger, creator: creator, delay: delay, dryRun: dryRun}
}

// Sync creates one provider event per milestone in the record. A failed
// milestone is logged and the rest still sync. Cancelling the context stops
// further calls from being issued; it does not abort the in-flight one.
// Returns the number of events created and the number of failures.
func (s *Syncer) Sync(ctx context.Context, record models.ProjectRecord, opts models.ExportOptions) (created, failed int, err error) {
	milestones := schedule.List(record, opts.IncludeInternal)
	s.logger.Info("Starting batch sync.", "milestones", len(milestones))

	description := schedule.Description(record)
	reminders := opts.ReminderMinutes()

	for i, m := range milestones {
		if i > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
				return created, failed, ctx.Err()
			case <-time.After(s.delay):
			}
		}
		if ctx.Err() != nil {
			return created, failed, ctx.Err()
		}

		event := models.Event{
			Title:       m.Summary,
			Description: description,
			Location:    record.SiteAddress,
			StartTime:   m.Time,
			EndTime:     m.Time.Add(time.Hour),
			UID:         uuid.New().String(),
		}

		if s.dryRun {
			s.logger.Info("[DRY RUN] Would create event", "title", event.Title, "startTime", event.StartTime)
			created++
			continue
		}

		if err := s.creator.CreateEvent(ctx, event, reminders); err != nil {
			// Continue with the next milestone even if one fails.
			s.logger.Error("Failed to sync milestone", "title", event.Title, "error", err)
			failed++
			continue
		}
		created++
	}

	s.logger.Info("Batch sync finished.", "created", created, "failed", failed)
	if failed > 0 {
		return created, failed, fmt.Errorf("%d of %d milestones failed to sync", failed, len(milestones))
	}
	return created, failed, nil
}
