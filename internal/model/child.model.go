package model

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const BirthDateLayout = "2006-01-02"

var (
	ErrInvalidChildName = errors.New("name must be 2-50 characters of letters, numbers, spaces, hyphens or apostrophes")
	ErrInvalidBirthDate = errors.New("birth date must be a valid past date in YYYY-MM-DD format")
	ErrInvalidGender    = errors.New("gender must be one of: male, female, other, prefer-not-to-say")
)

var childNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-']{2,50}$`)

var genders = map[string]struct{}{
	"male":              {},
	"female":            {},
	"other":             {},
	"prefer-not-to-say": {},
}

// Child is a recipient profile owned by a director.
type Child struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	BirthDate time.Time `json:"birth_date"`
	Gender    *string   `json:"gender,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ChildCreateRequest struct {
	Name      string
	BirthDate time.Time
	Gender    *string
}

func (p ChildCreateRequest) Validate(now time.Time) error {
	if !validChildName(p.Name) {
		return ErrInvalidChildName
	}
	if p.BirthDate.IsZero() || p.BirthDate.After(now) {
		return ErrInvalidBirthDate
	}
	if p.Gender != nil && !validGender(*p.Gender) {
		return ErrInvalidGender
	}
	return nil
}

type ChildUpdateRequest struct {
	Name      *string
	BirthDate *time.Time
	Gender    *string
}

func (p ChildUpdateRequest) Validate(now time.Time) error {
	if p.Name != nil && !validChildName(*p.Name) {
		return ErrInvalidChildName
	}
	if p.BirthDate != nil && (p.BirthDate.IsZero() || p.BirthDate.After(now)) {
		return ErrInvalidBirthDate
	}
	if p.Gender != nil && !validGender(*p.Gender) {
		return ErrInvalidGender
	}
	return nil
}

func validChildName(name string) bool {
	return childNamePattern.MatchString(strings.TrimSpace(name))
}

func validGender(g string) bool {
	_, ok := genders[strings.ToLower(g)]
	return ok
}
