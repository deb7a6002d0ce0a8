// Package validation holds the presence checks applied to records before they
// reach the collections.
package validation

import (
	"regexp"
	"strings"
	"time"

	"clubsite/internal/apperrors"
	"clubsite/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateRequired checks that a field is not blank
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.NewValidationError(field, field+" is required")
	}
	return nil
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.NewValidationError("email", "email is required")
	}
	if !emailRegex.MatchString(email) {
		return apperrors.NewValidationError("email", "invalid email format")
	}
	return nil
}

// ValidateDay checks for a calendar day in YYYY-MM-DD form
func ValidateDay(field, value string) error {
	if err := ValidateRequired(field, value); err != nil {
		return err
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return apperrors.NewValidationError(field, field+" must be a date in YYYY-MM-DD format")
	}
	return nil
}

// ValidateSports requires at least one activity, each from the fixed list
func ValidateSports(sports []models.Sport) error {
	if len(sports) == 0 {
		return apperrors.NewValidationError("sports", "select at least one sport")
	}
	return validateSportNames(sports)
}

func validateSportNames(sports []models.Sport) error {
	for _, sport := range sports {
		if !sport.IsValid() {
			return apperrors.NewValidationError("sports", "unknown sport "+string(sport))
		}
	}
	return nil
}

// ValidateMemberInput checks a registration form submission
func ValidateMemberInput(in models.MemberInput) error {
	checks := []error{
		ValidateRequired("firstName", in.FirstName),
		ValidateRequired("lastName", in.LastName),
		ValidateEmail(in.Email),
		ValidateRequired("birthDate", in.BirthDate),
		ValidateSports(in.Sports),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

// ValidateMember checks a member edited from the admin panel. Unlike the
// registration form, an empty sport list is accepted.
func ValidateMember(m models.Member) error {
	checks := []error{
		ValidateRequired("id", m.ID),
		ValidateRequired("firstName", m.FirstName),
		ValidateRequired("lastName", m.LastName),
		ValidateEmail(m.Email),
		ValidateRequired("birthDate", m.BirthDate),
		validateSportNames(m.Sports),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

// ValidateNewsItem checks a news entry
func ValidateNewsItem(n models.NewsItem) error {
	if err := ValidateRequired("id", n.ID); err != nil {
		return err
	}
	if err := ValidateRequired("title", n.Title); err != nil {
		return err
	}
	return ValidateRequired("content", n.Content)
}

// ValidateEvent checks a calendar event
func ValidateEvent(e models.CalendarEvent) error {
	if err := ValidateRequired("id", e.ID); err != nil {
		return err
	}
	if err := ValidateRequired("title", e.Title); err != nil {
		return err
	}
	if err := ValidateDay("date", e.Date); err != nil {
		return err
	}
	return ValidateRequired("description", e.Description)
}
