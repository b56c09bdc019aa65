package schedule

import (
	"strings"
	"time"

	"bidcal/internal/models"
)

// isoInstant is the canonical encoding for record date fields: UTC, millisecond
// precision, trailing Z.
const isoInstant = "2006-01-02T15:04:05.000Z"

// FormatInstant encodes an instant in the canonical record form.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(isoInstant)
}

// ParseInstant parses a record date field. The second return is false when the
// value is empty or not a valid ISO-8601 instant; callers treat that as
// absence, never as an error.
func ParseInstant(value string) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// DeriveDeadline returns the anchor instant minus daysBefore days, re-encoded
// as an ISO-8601 UTC instant. The subtraction is plain epoch arithmetic, so
// month, year, and DST boundaries need no special handling. Returns "" when
// the anchor is empty or unparseable; never panics.
func DeriveDeadline(anchor string, daysBefore int) string {
	t, ok := ParseInstant(anchor)
	if !ok {
		return ""
	}
	return FormatInstant(t.Add(-time.Duration(daysBefore) * 24 * time.Hour))
}

// DeriveAll returns a copy of the record with every internal deadline
// recomputed from the current anchors and lead times. The bid due date feeds
// bond request, final bid package, subcontractor bids, scope review, and
// addendum check; the RFI due date feeds the finalize-RFI deadline.
//
// The input is never mutated and the function is idempotent, so it is safe to
// call after every anchor edit and after any settings change. Lead times are
// assumed already validated non-negative by the settings layer.
func DeriveAll(record models.ProjectRecord, settings models.LeadTimeSettings) models.ProjectRecord {
	out := record
	out.BidBond = strings.TrimSpace(record.BidBond)

	out.BondRequestDeadline = DeriveDeadline(record.BidDueDate, settings.BondRequestDays)
	out.FinalizeBidPackageDeadline = DeriveDeadline(record.BidDueDate, settings.FinalizeBidPackageDays)
	out.SubcontractorBidDeadline = DeriveDeadline(record.BidDueDate, settings.SubcontractorBidDays)
	out.ScopeReviewDeadline = DeriveDeadline(record.BidDueDate, settings.ScopeReviewDays)
	out.AddendumCheckDeadline = DeriveDeadline(record.BidDueDate, settings.AddendumCheckDays)
	out.FinalizeRFIDeadline = DeriveDeadline(record.RFIDueDate, settings.FinalizeRFIDays)
	return out
}
