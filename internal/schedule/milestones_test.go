package schedule

import (
	"strings"
	"testing"

	"bidcal/internal/models"
)

func fullRecord() models.ProjectRecord {
	record := models.ProjectRecord{
		ProjectName:        "Library Renovation",
		Agency:             "City of Springfield",
		SiteAddress:        "100 Main St",
		BidDueDate:         "2025-01-15T17:00:00.000Z",
		RFIDueDate:         "2025-01-10T17:00:00.000Z",
		SiteVisitDate:      "2025-01-05T15:00:00.000Z",
		SiteVisitMandatory: true,
		RSVPDeadline:       "2025-01-03T17:00:00.000Z",
	}
	return DeriveAll(record, models.DefaultLeadTimes())
}

func TestListSortedAscending(t *testing.T) {
	got := List(fullRecord(), true)
	if len(got) != 10 {
		t.Fatalf("List returned %d milestones, want 10", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Time.Before(got[i-1].Time) {
			t.Errorf("milestones out of order at %d: %s after %s", i, got[i].Key, got[i-1].Key)
		}
	}
}

func TestListExcludesInternal(t *testing.T) {
	got := List(fullRecord(), false)
	if len(got) != 4 {
		t.Fatalf("List returned %d milestones, want 4 external only", len(got))
	}
	for _, m := range got {
		if m.Internal {
			t.Errorf("milestone %s marked internal in external-only list", m.Key)
		}
	}
}

func TestListSkipsAbsentDates(t *testing.T) {
	record := DeriveAll(models.ProjectRecord{
		ProjectName: "Partial",
		BidDueDate:  "2025-01-15T17:00:00.000Z",
	}, models.DefaultLeadTimes())

	got := List(record, false)
	if len(got) != 1 {
		t.Fatalf("List returned %d milestones, want 1", len(got))
	}
	if got[0].Key != "bid_due" {
		t.Errorf("milestone key = %q, want bid_due", got[0].Key)
	}
}

func TestListEmptyRecord(t *testing.T) {
	if got := List(models.ProjectRecord{}, true); len(got) != 0 {
		t.Errorf("List of empty record returned %d milestones, want 0", len(got))
	}
}

func TestListSummaries(t *testing.T) {
	byKey := make(map[string]models.Milestone)
	for _, m := range List(fullRecord(), true) {
		byKey[m.Key] = m
	}

	tests := []struct {
		key     string
		summary string
	}{
		{"bid_due", "[BID DUE] Library Renovation"},
		{"rfi_due", "[RFI DUE] Library Renovation"},
		{"site_visit", "[MANDATORY SITE VISIT] Library Renovation"},
		{"rsvp", "[RSVP] Site Visit: Library Renovation"},
		{"bond_request", "[INTERNAL] Request Bid Bond: Library Renovation"},
		{"finalize_rfi", "[INTERNAL] Finalize RFI List: Library Renovation"},
	}
	for _, tt := range tests {
		m, ok := byKey[tt.key]
		if !ok {
			t.Errorf("milestone %s missing", tt.key)
			continue
		}
		if m.Summary != tt.summary {
			t.Errorf("summary for %s = %q, want %q", tt.key, m.Summary, tt.summary)
		}
	}
}

func TestListOptionalSiteVisit(t *testing.T) {
	record := fullRecord()
	record.SiteVisitMandatory = false

	for _, m := range List(record, false) {
		if m.Key == "site_visit" {
			if m.Summary != "[SITE VISIT] Library Renovation" {
				t.Errorf("optional site visit summary = %q", m.Summary)
			}
			return
		}
	}
	t.Fatal("site_visit milestone missing")
}

func TestListStableTieBreak(t *testing.T) {
	// Bid due and RFI due share an instant; definition order must hold.
	record := DeriveAll(models.ProjectRecord{
		ProjectName: "Tie",
		BidDueDate:  "2025-01-15T17:00:00.000Z",
		RFIDueDate:  "2025-01-15T17:00:00.000Z",
	}, models.LeadTimeSettings{})

	got := List(record, false)
	if len(got) < 2 {
		t.Fatalf("List returned %d milestones, want at least 2", len(got))
	}
	if got[0].Key != "bid_due" || got[1].Key != "rfi_due" {
		t.Errorf("tie-break order = %s, %s; want bid_due, rfi_due", got[0].Key, got[1].Key)
	}
}

func TestDescription(t *testing.T) {
	record := models.ProjectRecord{
		ProjectName: "Library Renovation",
		Agency:      "City of Springfield",
		BidBond:     "5%",
	}
	got := Description(record)

	for _, want := range []string{
		"Project: Library Renovation",
		"Agency: City of Springfield",
		"Bid Bond: 5%",
		"Generated by bidcal",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("description missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Location:") {
		t.Error("description contains empty Location paragraph")
	}
}

func TestDescriptionEmptyRecord(t *testing.T) {
	got := Description(models.ProjectRecord{})
	if got != "Generated by bidcal" {
		t.Errorf("empty record description = %q, want footer only", got)
	}
}
