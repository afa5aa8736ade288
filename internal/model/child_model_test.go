package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChildCreateRequest_Validate(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	birth := time.Date(2018, 6, 2, 0, 0, 0, 0, time.UTC)
	str := func(s string) *string { return &s }

	tests := []struct {
		name string
		req  ChildCreateRequest
		want error
	}{
		{"valid", ChildCreateRequest{Name: "Anne-Marie O'Neil", BirthDate: birth}, nil},
		{"gender case insensitive", ChildCreateRequest{Name: "Sam", BirthDate: birth, Gender: str("Prefer-Not-To-Say")}, nil},
		{"name too short", ChildCreateRequest{Name: "A", BirthDate: birth}, ErrInvalidChildName},
		{"name with symbols", ChildCreateRequest{Name: "Sam!", BirthDate: birth}, ErrInvalidChildName},
		{"future birth date", ChildCreateRequest{Name: "Sam", BirthDate: now.AddDate(0, 0, 1)}, ErrInvalidBirthDate},
		{"missing birth date", ChildCreateRequest{Name: "Sam"}, ErrInvalidBirthDate},
		{"unknown gender", ChildCreateRequest{Name: "Sam", BirthDate: birth, Gender: str("robot")}, ErrInvalidGender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(now)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestChildUpdateRequest_Validate(t *testing.T) {
	now := time.Now()
	name := "x"
	assert.ErrorIs(t, ChildUpdateRequest{Name: &name}.Validate(now), ErrInvalidChildName)
	assert.NoError(t, ChildUpdateRequest{}.Validate(now))
}
