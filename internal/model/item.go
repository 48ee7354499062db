package model

import "time"

// ItemStatus is the lifecycle state of a found item. The values are the exact wire strings.
type ItemStatus string

const (
	StatusPosted         ItemStatus = "Posted"
	StatusClaimPending   ItemStatus = "Claim Pending"
	StatusApproved       ItemStatus = "Approved" // legacy, never produced
	StatusReadyForPickup ItemStatus = "READY_FOR_PICKUP"
	StatusCompleted      ItemStatus = "Completed"
)

// Valid reports whether s is one of the known statuses.
func (s ItemStatus) Valid() bool {
	switch s {
	case StatusPosted, StatusClaimPending, StatusApproved, StatusReadyForPickup, StatusCompleted:
		return true
	}
	return false
}

// Item is a found object reported by a finder.
type Item struct {
	ID          string `json:"id" gorm:"primaryKey;size:36" bson:"_id"`
	Name        string `json:"name" gorm:"size:255;not null" bson:"name"`
	Location    string `json:"location" gorm:"size:255;not null" bson:"location"`
	Date        string `json:"date" gorm:"size:64;not null" bson:"date"`
	Category    string `json:"category" gorm:"size:128;not null;index" bson:"category"`
	Description string `json:"description" gorm:"type:text" bson:"description"`
	Image       string `json:"image,omitempty" gorm:"type:text" bson:"image,omitempty"`

	SecretQuestion1 string `json:"secretQuestion1,omitempty" gorm:"size:512" bson:"secretQuestion1,omitempty"`
	SecretAnswer1   string `json:"secretAnswer1,omitempty" gorm:"size:512" bson:"secretAnswer1,omitempty"`
	SecretQuestion2 string `json:"secretQuestion2,omitempty" gorm:"size:512" bson:"secretQuestion2,omitempty"`
	SecretAnswer2   string `json:"secretAnswer2,omitempty" gorm:"size:512" bson:"secretAnswer2,omitempty"`
	SecretQuestion3 string `json:"secretQuestion3,omitempty" gorm:"size:512" bson:"secretQuestion3,omitempty"`
	SecretAnswer3   string `json:"secretAnswer3,omitempty" gorm:"size:512" bson:"secretAnswer3,omitempty"`

	ClaimantName  string `json:"claimantName,omitempty" gorm:"size:255" bson:"claimantName"`
	ClaimantEmail string `json:"claimantEmail,omitempty" gorm:"size:255" bson:"claimantEmail"`
	ClaimantPhone string `json:"claimantPhone,omitempty" gorm:"size:64" bson:"claimantPhone"`
	ClaimAnswer1  string `json:"claimAnswer1,omitempty" gorm:"size:512" bson:"claimAnswer1"`
	ClaimAnswer2  string `json:"claimAnswer2,omitempty" gorm:"size:512" bson:"claimAnswer2"`
	ClaimAnswer3  string `json:"claimAnswer3,omitempty" gorm:"size:512" bson:"claimAnswer3"`
	ClaimImage    string `json:"claimImage,omitempty" gorm:"type:text" bson:"claimImage"`

	PickupCode     string `json:"pickupCode,omitempty" gorm:"size:6" bson:"pickupCode"`
	PickupLocation string `json:"pickupLocation,omitempty" gorm:"size:255" bson:"pickupLocation"`

	Status   ItemStatus `json:"status" gorm:"size:32;not null;index" bson:"status"`
	PostedBy string     `json:"postedBy,omitempty" gorm:"size:255;index" bson:"postedBy,omitempty"`

	CreatedAt time.Time `json:"createdAt" gorm:"index" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ItemFilter narrows a listing. Zero values match everything.
type ItemFilter struct {
	Status   ItemStatus
	PostedBy string
	Category string
	Query    string
}

// Redacted returns a copy without secret answers and claim answers, for public listings.
func (i Item) Redacted() Item {
	i.SecretAnswer1, i.SecretAnswer2, i.SecretAnswer3 = "", "", ""
	i.ClaimAnswer1, i.ClaimAnswer2, i.ClaimAnswer3 = "", "", ""
	return i
}

// ReviewPair lines up one secret question with the finder's and the claimant's answers.
type ReviewPair struct {
	Question       string `json:"question"`
	ExpectedAnswer string `json:"expectedAnswer"`
	ClaimAnswer    string `json:"claimAnswer"`
}

// ItemReview is what a finder looks at before approving or rejecting a claim.
type ItemReview struct {
	ItemID        string       `json:"itemId"`
	Status        ItemStatus   `json:"status"`
	ClaimantName  string       `json:"claimantName,omitempty"`
	ClaimantEmail string       `json:"claimantEmail,omitempty"`
	ClaimantPhone string       `json:"claimantPhone,omitempty"`
	ClaimImage    string       `json:"claimImage,omitempty"`
	Pairs         []ReviewPair `json:"pairs"`
}

// Review builds the side-by-side view. Questions that were never set are skipped.
func (i Item) Review() ItemReview {
	r := ItemReview{
		ItemID:        i.ID,
		Status:        i.Status,
		ClaimantName:  i.ClaimantName,
		ClaimantEmail: i.ClaimantEmail,
		ClaimantPhone: i.ClaimantPhone,
		ClaimImage:    i.ClaimImage,
		Pairs:         []ReviewPair{},
	}
	qs := [3][3]string{
		{i.SecretQuestion1, i.SecretAnswer1, i.ClaimAnswer1},
		{i.SecretQuestion2, i.SecretAnswer2, i.ClaimAnswer2},
		{i.SecretQuestion3, i.SecretAnswer3, i.ClaimAnswer3},
	}
	for _, q := range qs {
		if q[0] == "" {
			continue
		}
		r.Pairs = append(r.Pairs, ReviewPair{Question: q[0], ExpectedAnswer: q[1], ClaimAnswer: q[2]})
	}
	return r
}
