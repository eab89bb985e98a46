// Package sse implements Server-Sent Events for real-time report and session updates.
package sse

import (
	"time"

	"github.com/espressoapp/espresso-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventReportCreated represents a report creation event.
	EventReportCreated EventType = "report.created"
	// EventReportUpdated represents a report update event.
	EventReportUpdated EventType = "report.updated"
	// EventReportDeleted represents a report deletion event.
	EventReportDeleted EventType = "report.deleted"

	// EventTagsChanged signals that the tag vocabulary changed.
	EventTagsChanged EventType = "tags.changed"

	// EventSessionChanged signals an auth session change. Clients use
	// this to pick up the signed-in user after a federated redirect
	// completes, and to drop state after a sign-out.
	EventSessionChanged EventType = "session.changed"

	// EventNavigate carries a navigation intent from the state store.
	// The UI follows these to move between the listing, detail, and
	// login views after an operation completes.
	EventNavigate EventType = "navigate"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"` // Event-specific data as JSON object
	Type      EventType `json:"type"`
}

// ReportEventData is the data payload for report create/update events.
type ReportEventData struct {
	Report *domain.Report `json:"report"`
}

// ReportDeletedEventData is the data payload for report delete events.
type ReportDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	ReportID  string    `json:"report_id"`
}

// TagsChangedEventData is the data payload for tag vocabulary events.
type TagsChangedEventData struct {
	Tags []string `json:"tags"`
}

// SessionChangedEventData is the data payload for session change events.
// User is nil after a sign-out.
type SessionChangedEventData struct {
	User *domain.User `json:"user"`
}

// NavigateEventData is the data payload for navigation intents.
// ReportID is set only for detail-view targets; Reason is set when
// the UI should explain the redirect (a cleared disallowed session).
type NavigateEventData struct {
	Target   string `json:"target"`
	ReportID string `json:"report_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewReportCreatedEvent creates a report.created event.
func NewReportCreatedEvent(report *domain.Report) Event {
	return Event{
		Type:      EventReportCreated,
		Data:      ReportEventData{Report: report},
		Timestamp: time.Now(),
	}
}

// NewReportUpdatedEvent creates a report.updated event.
func NewReportUpdatedEvent(report *domain.Report) Event {
	return Event{
		Type:      EventReportUpdated,
		Data:      ReportEventData{Report: report},
		Timestamp: time.Now(),
	}
}

// NewReportDeletedEvent creates a report.deleted event.
func NewReportDeletedEvent(reportID string, deletedAt time.Time) Event {
	return Event{
		Type: EventReportDeleted,
		Data: ReportDeletedEventData{
			ReportID:  reportID,
			DeletedAt: deletedAt,
		},
		Timestamp: time.Now(),
	}
}

// NewTagsChangedEvent creates a tags.changed event with the current vocabulary.
func NewTagsChangedEvent(tags []string) Event {
	return Event{
		Type:      EventTagsChanged,
		Data:      TagsChangedEventData{Tags: tags},
		Timestamp: time.Now(),
	}
}

// NewSessionChangedEvent creates a session.changed event.
// Pass nil for a sign-out.
func NewSessionChangedEvent(user *domain.User) Event {
	return Event{
		Type:      EventSessionChanged,
		Data:      SessionChangedEventData{User: user},
		Timestamp: time.Now(),
	}
}

// NewNavigateEvent creates a navigate event.
func NewNavigateEvent(target, reportID, reason string) Event {
	return Event{
		Type: EventNavigate,
		Data: NavigateEventData{
			Target:   target,
			ReportID: reportID,
			Reason:   reason,
		},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
