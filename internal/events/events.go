// Package events publishes item and profile lifecycle events.
package events

import (
	"context"
	"time"

	"campusafe/internal/lifecycle"
	"campusafe/internal/model"
)

// Routing keys.
const (
	ItemPosted         = "item.posted"
	ItemClaimSubmitted = "item.claim_submitted"
	ItemClaimApproved  = "item.claim_approved"
	ItemClaimRejected  = "item.claim_rejected"
	ItemCompleted      = "item.completed"
	UserProfileUpdated = "user.profile_updated"
)

// Event is the JSON body of every message.
type Event struct {
	Type       string           `json:"type"`
	ItemID     string           `json:"itemId,omitempty"`
	ItemName   string           `json:"itemName,omitempty"`
	Status     model.ItemStatus `json:"status,omitempty"`
	PostedBy   string           `json:"postedBy,omitempty"`
	Claimant   string           `json:"claimantEmail,omitempty"`
	Email      string           `json:"email,omitempty"`
	OccurredAt time.Time        `json:"occurredAt"`
}

// Publisher sends events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// KeyFor returns the routing key for a transition kind.
func KeyFor(k lifecycle.Kind) string {
	switch k {
	case lifecycle.SubmitClaim:
		return ItemClaimSubmitted
	case lifecycle.ApproveClaim:
		return ItemClaimApproved
	case lifecycle.RejectClaim:
		return ItemClaimRejected
	case lifecycle.CompletePickup:
		return ItemCompleted
	}
	return "item.unknown"
}

// ItemEvent builds an event describing item after a change.
func ItemEvent(eventType string, item *model.Item) Event {
	return Event{
		Type:       eventType,
		ItemID:     item.ID,
		ItemName:   item.Name,
		Status:     item.Status,
		PostedBy:   item.PostedBy,
		Claimant:   item.ClaimantEmail,
		OccurredAt: time.Now().UTC(),
	}
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
