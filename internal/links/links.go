// Package links builds "add single event" deep-link URLs for the calendar
// providers' web composers. Both builders assume the same fixed 1-hour event
// duration as the ICS export, so a linked event and an imported one agree.
package links

import (
	"net/url"
	"time"

	"bidcal/internal/schedule"
)

const (
	googleRenderEndpoint   = "https://calendar.google.com/calendar/render"
	outlookComposeEndpoint = "https://outlook.live.com/calendar/0/deeplink/compose"

	// Compact UTC "basic" form required by Google's dates parameter.
	compactUTC = "20060102T150405Z"

	eventDuration = time.Hour
)

// BuildGoogleEventURL returns a Google Calendar event-template URL, or ""
// when the start instant is absent or unparseable. Never returns an error.
func BuildGoogleEventURL(title, startISO, description, location string) string {
	start, ok := schedule.ParseInstant(startISO)
	if !ok {
		return ""
	}
	end := start.Add(eventDuration)

	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", title)
	q.Set("dates", start.Format(compactUTC)+"/"+end.Format(compactUTC))
	q.Set("details", description)
	q.Set("location", location)
	return googleRenderEndpoint + "?" + q.Encode()
}

// BuildOutlookEventURL returns an Outlook compose deep link, or "" when the
// start instant is absent or unparseable. Outlook expects full ISO-8601
// instants in startdt/enddt, unlike Google's compact form.
func BuildOutlookEventURL(title, startISO, description, location string) string {
	start, ok := schedule.ParseInstant(startISO)
	if !ok {
		return ""
	}
	end := start.Add(eventDuration)

	q := url.Values{}
	q.Set("path", "/calendar/action/compose")
	q.Set("rru", "addevent")
	q.Set("subject", title)
	q.Set("startdt", start.Format(time.RFC3339))
	q.Set("enddt", end.Format(time.RFC3339))
	q.Set("body", description)
	q.Set("location", location)
	return outlookComposeEndpoint + "?" + q.Encode()
}
