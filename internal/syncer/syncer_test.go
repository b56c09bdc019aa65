package syncer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"bidcal/internal/models"
	"bidcal/internal/schedule"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRecord() models.ProjectRecord {
	return schedule.DeriveAll(models.ProjectRecord{
		ProjectName: "Lib",
		SiteAddress: "100 Main St",
		BidDueDate:  "2025-01-15T17:00:00.000Z",
		RFIDueDate:  "2025-01-10T17:00:00.000Z",
	}, models.DefaultLeadTimes())
}

type fakeCreator struct {
	calls   []models.Event
	failOn  map[string]error
	onCall  func()
	lastRem []int64
}

func (f *fakeCreator) CreateEvent(ctx context.Context, event models.Event, reminderMinutes []int64) error {
	f.calls = append(f.calls, event)
	f.lastRem = reminderMinutes
	if f.onCall != nil {
		f.onCall()
	}
	if err, ok := f.failOn[event.Title]; ok {
		return err
	}
	return nil
}

func TestSyncCreatesAllMilestones(t *testing.T) {
	creator := &fakeCreator{}
	s := NewSyncer(testLogger(), creator, 0, false)

	created, failed, err := s.Sync(context.Background(), testRecord(), models.ExportOptions{IncludeInternal: true, Remind1Day: true})
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if created != 8 || failed != 0 {
		t.Errorf("created=%d failed=%d, want 8/0", created, failed)
	}
	if len(creator.calls) != 8 {
		t.Fatalf("creator called %d times, want 8", len(creator.calls))
	}

	for _, ev := range creator.calls {
		if ev.EndTime.Sub(ev.StartTime) != time.Hour {
			t.Errorf("event %q is not a 1-hour block", ev.Title)
		}
		if ev.UID == "" {
			t.Errorf("event %q has no UID", ev.Title)
		}
		if ev.Location != "100 Main St" {
			t.Errorf("event %q location = %q", ev.Title, ev.Location)
		}
	}
	if len(creator.lastRem) != 1 || creator.lastRem[0] != 1440 {
		t.Errorf("reminder minutes = %v, want [1440]", creator.lastRem)
	}
}

func TestSyncIsolatesFailures(t *testing.T) {
	creator := &fakeCreator{failOn: map[string]error{
		"[RFI DUE] Lib": errors.New("quota exceeded"),
	}}
	s := NewSyncer(testLogger(), creator, 0, false)

	created, failed, err := s.Sync(context.Background(), testRecord(), models.ExportOptions{})
	if err == nil {
		t.Error("Sync did not report the failed milestone")
	}
	if created != 1 || failed != 1 {
		t.Errorf("created=%d failed=%d, want 1/1", created, failed)
	}
	// The failure must not stop later milestones.
	if len(creator.calls) != 2 {
		t.Errorf("creator called %d times, want 2", len(creator.calls))
	}
}

func TestSyncDryRunMakesNoCalls(t *testing.T) {
	creator := &fakeCreator{}
	s := NewSyncer(testLogger(), creator, 0, true)

	created, failed, err := s.Sync(context.Background(), testRecord(), models.ExportOptions{})
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if created != 2 || failed != 0 {
		t.Errorf("created=%d failed=%d, want 2/0", created, failed)
	}
	if len(creator.calls) != 0 {
		t.Errorf("dry run issued %d create calls", len(creator.calls))
	}
}

func TestSyncStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	creator := &fakeCreator{onCall: cancel}
	s := NewSyncer(testLogger(), creator, time.Millisecond, false)

	_, _, err := s.Sync(ctx, testRecord(), models.ExportOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Sync error = %v, want context.Canceled", err)
	}
	// The in-flight call completes; no further calls are issued.
	if len(creator.calls) != 1 {
		t.Errorf("creator called %d times after cancellation, want 1", len(creator.calls))
	}
}

func TestSyncEmptyRecord(t *testing.T) {
	creator := &fakeCreator{}
	s := NewSyncer(testLogger(), creator, 0, false)

	created, failed, err := s.Sync(context.Background(), models.ProjectRecord{}, models.ExportOptions{IncludeInternal: true})
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if created != 0 || failed != 0 || len(creator.calls) != 0 {
		t.Errorf("empty record produced calls: created=%d failed=%d calls=%d", created, failed, len(creator.calls))
	}
}
