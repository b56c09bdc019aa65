package schedule

import (
	"fmt"
	"sort"
	"strings"

	"bidcal/internal/models"
)

// Display colors for the review timeline. Anchors get strong colors, internal
// deadlines a muted palette.
const (
	colorBidDue    = "#e74c3c"
	colorRFIDue    = "#e67e22"
	colorSiteVisit = "#2980b9"
	colorRSVP      = "#16a085"
	colorInternal  = "#7f8c8d"
)

type milestoneDef struct {
	key      string
	label    string
	color    string
	internal bool
	date     func(models.ProjectRecord) string
	summary  func(models.ProjectRecord) string
}

func internalSummary(label string) func(models.ProjectRecord) string {
	return func(r models.ProjectRecord) string {
		return fmt.Sprintf("[INTERNAL] %s: %s", label, r.ProjectName)
	}
}

// milestoneDefs fixes the identity, ordering, and titling of every milestone.
// The four external anchors come first; insertion order here is the stable
// tie-break for milestones sharing an instant.
var milestoneDefs = []milestoneDef{
	{
		key:   "bid_due",
		label: "Bid Due",
		color: colorBidDue,
		date:  func(r models.ProjectRecord) string { return r.BidDueDate },
		summary: func(r models.ProjectRecord) string {
			return fmt.Sprintf("[BID DUE] %s", r.ProjectName)
		},
	},
	{
		key:   "rfi_due",
		label: "RFI Due",
		color: colorRFIDue,
		date:  func(r models.ProjectRecord) string { return r.RFIDueDate },
		summary: func(r models.ProjectRecord) string {
			return fmt.Sprintf("[RFI DUE] %s", r.ProjectName)
		},
	},
	{
		key:   "site_visit",
		label: "Site Visit",
		color: colorSiteVisit,
		date:  func(r models.ProjectRecord) string { return r.SiteVisitDate },
		summary: func(r models.ProjectRecord) string {
			if r.SiteVisitMandatory {
				return fmt.Sprintf("[MANDATORY SITE VISIT] %s", r.ProjectName)
			}
			return fmt.Sprintf("[SITE VISIT] %s", r.ProjectName)
		},
	},
	{
		key:   "rsvp",
		label: "RSVP Deadline",
		color: colorRSVP,
		date:  func(r models.ProjectRecord) string { return r.RSVPDeadline },
		summary: func(r models.ProjectRecord) string {
			return fmt.Sprintf("[RSVP] Site Visit: %s", r.ProjectName)
		},
	},
	{
		key:      "bond_request",
		label:    "Request Bid Bond",
		color:    colorInternal,
		internal: true,
		date:     func(r models.ProjectRecord) string { return r.BondRequestDeadline },
		summary:  internalSummary("Request Bid Bond"),
	},
	{
		key:      "finalize_rfi",
		label:    "Finalize RFI List",
		color:    colorInternal,
		internal: true,
		date:     func(r models.ProjectRecord) string { return r.FinalizeRFIDeadline },
		summary:  internalSummary("Finalize RFI List"),
	},
	{
		key:      "finalize_bid_package",
		label:    "Final Bid Package Prep",
		color:    colorInternal,
		internal: true,
		date:     func(r models.ProjectRecord) string { return r.FinalizeBidPackageDeadline },
		summary:  internalSummary("Final Bid Package Prep"),
	},
	{
		key:      "subcontractor_bids",
		label:    "Subcontractor Bids Due",
		color:    colorInternal,
		internal: true,
		date:     func(r models.ProjectRecord) string { return r.SubcontractorBidDeadline },
		summary:  internalSummary("Subcontractor Bids Due"),
	},
	{
		key:      "scope_review",
		label:    "Scope Review",
		color:    colorInternal,
		internal: true,
		date:     func(r models.ProjectRecord) string { return r.ScopeReviewDeadline },
		summary:  internalSummary("Scope Review"),
	},
	{
		key:      "addendum_check",
		label:    "Addendum Check",
		color:    colorInternal,
		internal: true,
		date:     func(r models.ProjectRecord) string { return r.AddendumCheckDeadline },
		summary:  internalSummary("Addendum Check"),
	},
}

// List projects the record into the milestone list used by the review
// timeline, the ICS serializer, and batch sync. Internal deadlines are
// included only when includeInternal is set. Milestones without a parseable
// date are omitted. The result is sorted ascending by instant; equal instants
// keep definition order.
func List(record models.ProjectRecord, includeInternal bool) []models.Milestone {
	out := make([]models.Milestone, 0, len(milestoneDefs))
	for _, def := range milestoneDefs {
		if def.internal && !includeInternal {
			continue
		}
		t, ok := ParseInstant(def.date(record))
		if !ok {
			continue
		}
		out = append(out, models.Milestone{
			Key:      def.key,
			Label:    def.label,
			Summary:  def.summary(record),
			Time:     t,
			Color:    def.color,
			Internal: def.internal,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// Description assembles the shared event body from the record's text fields.
// The ICS serializer, the deep-link builders, and the sync targets all use it
// so every representation of a milestone carries the same text.
func Description(record models.ProjectRecord) string {
	var parts []string
	if record.ProjectName != "" {
		parts = append(parts, "Project: "+record.ProjectName)
	}
	if record.Agency != "" {
		parts = append(parts, "Agency: "+record.Agency)
	}
	if record.SiteAddress != "" {
		parts = append(parts, "Location: "+record.SiteAddress)
	}
	if record.Scope != "" {
		parts = append(parts, "Scope: "+record.Scope)
	}
	if record.BidBond != "" {
		parts = append(parts, "Bid Bond: "+record.BidBond)
	}
	if record.Notes != "" {
		parts = append(parts, "Notes: "+record.Notes)
	}
	parts = append(parts, "Generated by bidcal")
	return strings.Join(parts, "\n\n")
}
