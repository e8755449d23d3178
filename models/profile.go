package models

import "time"

const (
	// ProfileNameMaxLength bounds the trimmed profile name.
	ProfileNameMaxLength = 50
	// ProfileMinAge and ProfileMaxAge bound the accepted age range.
	ProfileMinAge = 1
	ProfileMaxAge = 120
)

// UserProfile models the single local profile created at onboarding.
type UserProfile struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Age             int       `json:"age"`
	PreferredGenres []int     `json:"preferredGenres"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
