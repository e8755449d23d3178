package collection

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"watchlog/models"
)

// ProfileValidationError aggregates every violated profile rule instead of
// stopping at the first one.
type ProfileValidationError struct {
	Problems []string
}

func (e *ProfileValidationError) Error() string {
	return "invalid profile data: " + strings.Join(e.Problems, "; ")
}

func (e *ProfileValidationError) Unwrap() error { return ErrInvalidProfile }

// validateProfile checks every rule and collects all violations. The profile
// is expected to already carry its system fields (id, timestamps).
func validateProfile(p models.UserProfile) error {
	var problems []string

	name := strings.TrimSpace(p.Name)
	if name == "" {
		problems = append(problems, "name is required")
	} else if utf8.RuneCountInString(name) > models.ProfileNameMaxLength {
		problems = append(problems, fmt.Sprintf("name must be at most %d characters", models.ProfileNameMaxLength))
	}

	if p.Age < models.ProfileMinAge || p.Age > models.ProfileMaxAge {
		problems = append(problems, fmt.Sprintf("age must be between %d and %d", models.ProfileMinAge, models.ProfileMaxAge))
	}

	if len(p.PreferredGenres) == 0 {
		problems = append(problems, "at least one preferred genre is required")
	}

	if p.ID == "" {
		problems = append(problems, "profile id is missing")
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		problems = append(problems, "profile timestamps are missing")
	}

	if len(problems) > 0 {
		return &ProfileValidationError{Problems: problems}
	}
	return nil
}
