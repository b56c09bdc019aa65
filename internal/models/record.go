package models

import "time"

// ProjectRecord is the full bid record for one procurement opportunity.
//
// Date fields hold ISO-8601 UTC instant strings (e.g. "2025-01-15T17:00:00.000Z").
// The empty string means the field is absent; there is no distinction between
// "not yet known" and "not applicable" — absence covers both.
//
// Anchor dates are authoritative: they come from extraction or manual entry and
// are never computed. Derived deadlines are always recomputed from the anchors
// and the current lead-time settings; they must never be edited independently.
type ProjectRecord struct {
	// Identity / free text. BidBond is a human-readable requirement such as
	// "5%" or "$10,000" and is never parsed as a number.
	ProjectName string `json:"projectName"`
	Agency      string `json:"agency"`
	SiteAddress string `json:"siteAddress"`
	Scope       string `json:"scope"`
	Notes       string `json:"notes"`
	BidBond     string `json:"bidBond"`

	// External anchor dates.
	BidDueDate         string `json:"bidDueDate"`
	RFIDueDate         string `json:"rfiDueDate"`
	SiteVisitDate      string `json:"siteVisitDate"`
	SiteVisitMandatory bool   `json:"siteVisitMandatory"`
	RSVPDeadline       string `json:"rsvpDeadline"`

	// Internal derived deadlines.
	BondRequestDeadline        string `json:"bondRequestDeadline"`
	FinalizeRFIDeadline        string `json:"finalizeRfiDeadline"`
	FinalizeBidPackageDeadline string `json:"finalizeBidPackageDeadline"`
	SubcontractorBidDeadline   string `json:"subcontractorBidDeadline"`
	ScopeReviewDeadline        string `json:"scopeReviewDeadline"`
	AddendumCheckDeadline      string `json:"addendumCheckDeadline"`
}

// LeadTimeSettings maps each internal milestone to the number of days it
// precedes its anchor date. Values are validated non-negative at the settings
// boundary before they reach the deriver.
type LeadTimeSettings struct {
	BondRequestDays        int `yaml:"bond_request_days" json:"bondRequestDays"`
	FinalizeRFIDays        int `yaml:"finalize_rfi_days" json:"finalizeRfiDays"`
	FinalizeBidPackageDays int `yaml:"finalize_bid_package_days" json:"finalizeBidPackageDays"`
	SubcontractorBidDays   int `yaml:"subcontractor_bid_days" json:"subcontractorBidDays"`
	ScopeReviewDays        int `yaml:"scope_review_days" json:"scopeReviewDays"`
	AddendumCheckDays      int `yaml:"addendum_check_days" json:"addendumCheckDays"`
}

// DefaultLeadTimes returns the stock lead-time configuration.
func DefaultLeadTimes() LeadTimeSettings {
	return LeadTimeSettings{
		BondRequestDays:        5,
		FinalizeRFIDays:        1,
		FinalizeBidPackageDays: 1,
		SubcontractorBidDays:   7,
		ScopeReviewDays:        10,
		AddendumCheckDays:      3,
	}
}

// ExportOptions controls which milestones and reminders appear in generated
// calendar artifacts.
type ExportOptions struct {
	IncludeInternal bool `yaml:"include_internal" json:"includeInternal"`
	Remind1Hour     bool `yaml:"remind_1_hour" json:"remind1Hour"`
	Remind1Day      bool `yaml:"remind_1_day" json:"remind1Day"`
	Remind3Days     bool `yaml:"remind_3_days" json:"remind3Days"`
	Remind1Week     bool `yaml:"remind_1_week" json:"remind1Week"`
}

// ReminderMinutes returns the enabled reminder lead times in minutes, in the
// fixed order 1 hour, 1 day, 3 days, 1 week. Used for provider-side reminder
// overrides during batch sync.
func (o ExportOptions) ReminderMinutes() []int64 {
	var m []int64
	if o.Remind1Hour {
		m = append(m, 60)
	}
	if o.Remind1Day {
		m = append(m, 24*60)
	}
	if o.Remind3Days {
		m = append(m, 3*24*60)
	}
	if o.Remind1Week {
		m = append(m, 7*24*60)
	}
	return m
}

// Milestone is a display/export projection of one dated item in a record.
// It is recomputed on demand and never persisted.
type Milestone struct {
	Key      string    // stable identifier, e.g. "bid_due"
	Label    string    // short human label, e.g. "Bid Due"
	Summary  string    // full event title including the project name
	Time     time.Time // parsed instant, always UTC
	Color    string    // fixed display color (hex)
	Internal bool      // true for derived deadlines, false for anchors
}
