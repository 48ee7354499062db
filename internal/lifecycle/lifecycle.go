// Package lifecycle holds the item status state machine.
//
// Every status change goes through Apply with one of a closed set of transition
// kinds. Apply checks the current status against the kind's allowed sources and
// mutates the item in place; persisting the result is the caller's job.
package lifecycle

import (
	"fmt"
	"strings"

	apperrors "campusafe/internal/errors"
	"campusafe/internal/model"
)

// Kind identifies a transition.
type Kind int

const (
	SubmitClaim Kind = iota + 1
	ApproveClaim
	RejectClaim
	CompletePickup
)

func (k Kind) String() string {
	switch k {
	case SubmitClaim:
		return "submit_claim"
	case ApproveClaim:
		return "approve_claim"
	case RejectClaim:
		return "reject_claim"
	case CompletePickup:
		return "complete_pickup"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// From lists the statuses the transition may start from.
func (k Kind) From() []model.ItemStatus {
	switch k {
	case SubmitClaim:
		return []model.ItemStatus{model.StatusPosted}
	case ApproveClaim, RejectClaim:
		return []model.ItemStatus{model.StatusClaimPending}
	case CompletePickup:
		return []model.ItemStatus{model.StatusReadyForPickup, model.StatusApproved}
	}
	return nil
}

// To is the status the item ends up in.
func (k Kind) To() model.ItemStatus {
	switch k {
	case SubmitClaim:
		return model.StatusClaimPending
	case ApproveClaim:
		return model.StatusReadyForPickup
	case RejectClaim:
		return model.StatusPosted
	case CompletePickup:
		return model.StatusCompleted
	}
	return ""
}

// Allows reports whether the transition may start from s.
func (k Kind) Allows(s model.ItemStatus) bool {
	for _, from := range k.From() {
		if from == s {
			return true
		}
	}
	return false
}

// Claim is what a claimant submits.
type Claim struct {
	Name    string
	Email   string
	Phone   string
	Answer1 string
	Answer2 string
	Answer3 string
	Image   string
}

// Transition is a Kind plus its payload.
type Transition struct {
	Kind           Kind
	Claim          Claim
	PickupLocation string
}

func Submit(c Claim) Transition { return Transition{Kind: SubmitClaim, Claim: c} }

func Approve(pickupLocation string) Transition {
	return Transition{Kind: ApproveClaim, PickupLocation: pickupLocation}
}

func Reject() Transition { return Transition{Kind: RejectClaim} }

func Complete() Transition { return Transition{Kind: CompletePickup} }

// Validate checks the payload without looking at any item.
func (t Transition) Validate() error {
	switch t.Kind {
	case SubmitClaim:
		if strings.TrimSpace(t.Claim.Name) == "" {
			return apperrors.Validationf("claimantName is required")
		}
		if strings.TrimSpace(t.Claim.Email) == "" {
			return apperrors.Validationf("claimantEmail is required")
		}
	case ApproveClaim:
		if strings.TrimSpace(t.PickupLocation) == "" {
			return apperrors.Validationf("pickupLocation is required")
		}
	case RejectClaim, CompletePickup:
	default:
		return apperrors.Validationf("unknown transition %s", t.Kind)
	}
	return nil
}

// Apply moves item along t. The item is left untouched on error.
func Apply(item *model.Item, t Transition) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if !t.Kind.Allows(item.Status) {
		return fmt.Errorf("%w: cannot %s from %q", apperrors.ErrInvalidTransition, t.Kind, item.Status)
	}

	switch t.Kind {
	case SubmitClaim:
		c := t.Claim
		item.ClaimantName = strings.TrimSpace(c.Name)
		item.ClaimantEmail = strings.TrimSpace(c.Email)
		item.ClaimantPhone = strings.TrimSpace(c.Phone)
		item.ClaimAnswer1 = c.Answer1
		item.ClaimAnswer2 = c.Answer2
		item.ClaimAnswer3 = c.Answer3
		item.ClaimImage = c.Image
	case ApproveClaim:
		code, err := NewPickupCode()
		if err != nil {
			return err
		}
		item.PickupCode = code
		item.PickupLocation = strings.TrimSpace(t.PickupLocation)
	case RejectClaim:
		clearClaim(item)
	case CompletePickup:
	}
	item.Status = t.Kind.To()
	return nil
}

func clearClaim(item *model.Item) {
	item.ClaimantName = ""
	item.ClaimantEmail = ""
	item.ClaimantPhone = ""
	item.ClaimAnswer1 = ""
	item.ClaimAnswer2 = ""
	item.ClaimAnswer3 = ""
	item.ClaimImage = ""
	item.PickupCode = ""
	item.PickupLocation = ""
}
