// Package ics renders a project record into an RFC 5545 calendar document.
//
// The emersion/go-ical encoder owns the wire-level contracts: CRLF line
// termination, 75-octet folding, and TEXT escaping (literal newlines become
// the two-character sequence \n). This package decides which events and
// alarms appear and with what values.
package ics

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"bidcal/internal/models"
	"bidcal/internal/schedule"
)

const (
	prodID = "-//bidcal//Bid Schedule Export//EN"

	// MIMEType is the content type for the generated document.
	MIMEType = "text/calendar"

	eventDuration = time.Hour
)

// alarmSpecs fixes the emission order and trigger encoding of the four
// reminder toggles.
var alarmSpecs = []struct {
	enabled func(models.ExportOptions) bool
	trigger string
	label   string
}{
	{func(o models.ExportOptions) bool { return o.Remind1Hour }, "-PT1H", "1 hour"},
	{func(o models.ExportOptions) bool { return o.Remind1Day }, "-P1D", "1 day"},
	{func(o models.ExportOptions) bool { return o.Remind3Days }, "-P3D", "3 days"},
	{func(o models.ExportOptions) bool { return o.Remind1Week }, "-P7D", "1 week"},
}

// Generator builds ICS documents. A failure to build one event is logged and
// that event dropped; the rest of the document is still produced.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator creates a Generator logging per-event failures to logger.
func NewGenerator(logger *slog.Logger) *Generator {
	return &Generator{logger: logger}
}

// Calendar renders the record into a complete ICS document. A record with no
// parseable dates yields a header/footer-only document; bad individual dates
// never fail the whole export.
func (g *Generator) Calendar(record models.ProjectRecord, opts models.ExportOptions) (string, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText(ical.PropMethod, "PUBLISH")

	now := time.Now().UTC()
	description := schedule.Description(record)

	for _, m := range schedule.List(record, opts.IncludeInternal) {
		ve, err := g.buildEvent(m, record, opts, description, now)
		if err != nil {
			g.logger.Error("skipping calendar event", "milestone", m.Key, "error", err)
			continue
		}
		cal.Children = append(cal.Children, ve)
	}

	var buf strings.Builder
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.String(), nil
}

// buildEvent assembles one VEVENT with its alarms. Any panic from property
// assembly is contained here so a single bad field cannot blank the document.
func (g *Generator) buildEvent(m models.Milestone, record models.ProjectRecord, opts models.ExportOptions, description string, now time.Time) (ve *ical.Component, err error) {
	defer func() {
		if r := recover(); r != nil {
			ve = nil
			err = fmt.Errorf("event assembly panicked: %v", r)
		}
	}()

	ve = ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, newUID(now))
	ve.Props.SetDateTime(ical.PropDateTimeStamp, now)
	ve.Props.SetDateTime(ical.PropDateTimeStart, m.Time.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, m.Time.UTC().Add(eventDuration))
	ve.Props.SetText(ical.PropSummary, m.Summary)
	if description != "" {
		ve.Props.SetText(ical.PropDescription, description)
	}
	if record.SiteAddress != "" {
		ve.Props.SetText(ical.PropLocation, record.SiteAddress)
	}

	for _, spec := range alarmSpecs {
		if !spec.enabled(opts) {
			continue
		}
		al := ical.NewComponent(ical.CompAlarm)
		al.Props.SetText(ical.PropAction, "DISPLAY")
		al.Props.SetText(ical.PropDescription, fmt.Sprintf("Reminder: %s in %s", m.Summary, spec.label))
		trigger := ical.NewProp(ical.PropTrigger)
		trigger.Value = spec.trigger
		al.Props.Add(trigger)
		ve.Children = append(ve.Children, al)
	}
	return ve, nil
}

// newUID returns a UID unique across events and repeated generations:
// generation timestamp plus a random token, tagged with the product domain.
func newUID(now time.Time) string {
	return fmt.Sprintf("%d-%s@bidcal", now.UnixMilli(), uuid.New().String())
}

// Filename names the downloadable export: the project name with whitespace
// runs collapsed to underscores, suffixed "_schedule.ics".
func Filename(projectName string) string {
	name := strings.Join(strings.Fields(projectName), "_")
	if name == "" {
		name = "project"
	}
	return name + "_schedule.ics"
}
