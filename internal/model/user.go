package model

import "time"

// User is a campus profile keyed by email.
type User struct {
	Email             string    `json:"email" gorm:"primaryKey;size:255" bson:"_id"`
	Name              string    `json:"name,omitempty" gorm:"size:255" bson:"name,omitempty"`
	USN               string    `json:"usn,omitempty" gorm:"column:usn;size:64" bson:"usn,omitempty"`
	Branch            string    `json:"branch,omitempty" gorm:"size:128" bson:"branch,omitempty"`
	Course            string    `json:"course,omitempty" gorm:"size:128" bson:"course,omitempty"`
	Year              int       `json:"year,omitempty" gorm:"not null;default:0" bson:"year,omitempty"`
	ProfilePhoto      string    `json:"profilePhoto,omitempty" gorm:"type:text" bson:"profilePhoto,omitempty"`
	PostsCount        int       `json:"postsCount" gorm:"not null;default:0" bson:"postsCount"`
	ClaimsCount       int       `json:"claimsCount" gorm:"not null;default:0" bson:"claimsCount"`
	IsProfileComplete bool      `json:"isProfileComplete" gorm:"not null;default:false" bson:"isProfileComplete"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ProfileUpdate carries the fields a user may change. Nil fields are left as they are.
type ProfileUpdate struct {
	Name         *string
	USN          *string
	Branch       *string
	Course       *string
	Year         *int
	ProfilePhoto *string
}

// Apply merges the update into u.
func (p ProfileUpdate) Apply(u *User) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.Name, p.Name)
	set(&u.USN, p.USN)
	set(&u.Branch, p.Branch)
	set(&u.Course, p.Course)
	set(&u.ProfilePhoto, p.ProfilePhoto)
	if p.Year != nil {
		u.Year = *p.Year
	}
}
