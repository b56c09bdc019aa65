package models

import "time"

// Event is the provider-agnostic descriptor handed to calendar sync targets.
// It is produced from a Milestone plus record context and is immutable once
// built; sync code may carry it across goroutine boundaries freely.
type Event struct {
	Title       string    // Summary or title of the event
	Description string    // Detailed description of the event
	Location    string    // Location of the event
	StartTime   time.Time // Start time of the event
	EndTime     time.Time // End time, always StartTime + 1 hour
	UID         string    // The iCalendar UID, used for syncing
}
