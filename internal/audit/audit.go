// Package audit captures key domain actions for later review. Events are
// emitted from services, queued on a channel, and drained by a worker into a
// store; the embedded per-asset history timeline is separate and remains the
// canonical record for asset mutations.
package audit

import (
	"context"
	"time"
)

// Category classifies audit events by their primary purpose, enabling
// different retention policies per class.
type Category string

const (
	// CategorySecurity covers events relevant to security monitoring.
	// Examples: auth failures, logins, logouts, forbidden access.
	CategorySecurity Category = "security"

	// CategoryCompliance covers events with record-keeping significance.
	// Examples: ownership changes, purges, directory changes.
	CategoryCompliance Category = "compliance"

	// CategoryOperations covers routine events useful for debugging.
	CategoryOperations Category = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  Category
	Timestamp time.Time
	// ActorID is the authenticated user performing the action; empty for
	// anonymous actions such as failed logins.
	ActorID string
	// Subject identifies the entity acted upon (asset id, user email, ...).
	Subject string
	Action  string
	Details string
	// Device is a human-readable device description captured at login.
	Device string
	// RequestID correlates the event with the HTTP request that caused it.
	RequestID string
}

// Action names. The Category method is the single source of truth for
// routing an action to its category.
type Action string

const (
	ActionLogin                  Action = "login"
	ActionAuthFailed             Action = "auth_failed"
	ActionLogout                 Action = "logout"
	ActionPasswordResetRequested Action = "password_reset_requested"

	ActionUserCreated  Action = "user_created"
	ActionUserUpdated  Action = "user_updated"
	ActionUserDeceased Action = "user_deceased"

	ActionAssetCreated      Action = "asset_created"
	ActionAssetUpdated      Action = "asset_updated"
	ActionAssetArchived     Action = "asset_archived"
	ActionAssetPurged       Action = "asset_purged"
	ActionHistoryAppended   Action = "asset_history_appended"
	ActionValuationRecorded Action = "asset_valuation_recorded"
	ActionDocumentCreated   Action = "document_created"
	ActionDocumentUpdated   Action = "document_updated"
	ActionDocumentDeleted   Action = "document_deleted"
)

var actionCategories = map[Action]Category{
	ActionLogin:                  CategorySecurity,
	ActionAuthFailed:             CategorySecurity,
	ActionLogout:                 CategorySecurity,
	ActionPasswordResetRequested: CategorySecurity,

	ActionUserCreated:  CategoryCompliance,
	ActionUserUpdated:  CategoryCompliance,
	ActionUserDeceased: CategoryCompliance,

	ActionAssetCreated:      CategoryCompliance,
	ActionAssetUpdated:      CategoryCompliance,
	ActionAssetArchived:     CategoryCompliance,
	ActionAssetPurged:       CategoryCompliance,
	ActionHistoryAppended:   CategoryOperations,
	ActionValuationRecorded: CategoryOperations,
	ActionDocumentCreated:   CategoryCompliance,
	ActionDocumentUpdated:   CategoryCompliance,
	ActionDocumentDeleted:   CategoryCompliance,
}

// CategoryOf routes an action to its category, defaulting to operations for
// unknown actions.
func CategoryOf(action Action) Category {
	if c, ok := actionCategories[action]; ok {
		return c
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Publisher queues events for the background worker. Emit never blocks the
// request path: when the inbox is full the event is dropped and the caller's
// request proceeds.
type Publisher struct {
	inbox chan Event
}

func NewPublisher(buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{inbox: make(chan Event, buffer)}
}

// Emit enqueues an event, stamping category and timestamp if unset.
// Returns false if the inbox was full and the event was dropped.
func (p *Publisher) Emit(event Event) bool {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = CategoryOf(Action(event.Action))
	}
	select {
	case p.inbox <- event:
		return true
	default:
		return false
	}
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
