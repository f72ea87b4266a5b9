package student

import (
	"strings"
	"time"
)

// Student is a tracked competitive-programming student as served by the tracker API.
type Student struct {
	ID                    string
	Name                  string
	Email                 string
	Phone                 string
	CFHandle              string
	CurrentRating         *int
	MaxRating             *int
	CFDataLastUpdated     *time.Time
	EmailReminderDisabled bool
}

// NeverSynced reports whether the external rating data was never fetched for this student.
func (s Student) NeverSynced() bool {
	return s.CFDataLastUpdated == nil
}

// Fields are the user-editable attributes submitted by the create and edit forms.
type Fields struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	CFHandle string `json:"cfHandle" validate:"required"`
}

// Normalize trims surrounding whitespace so blank input counts as missing.
func (f Fields) Normalize() Fields {
	return Fields{
		Name:     strings.TrimSpace(f.Name),
		Email:    strings.TrimSpace(f.Email),
		Phone:    strings.TrimSpace(f.Phone),
		CFHandle: strings.TrimSpace(f.CFHandle),
	}
}

// FieldsOf extracts the editable fields of an existing record, used to prefill the edit form.
func FieldsOf(s Student) Fields {
	return Fields{
		Name:     s.Name,
		Email:    s.Email,
		Phone:    s.Phone,
		CFHandle: s.CFHandle,
	}
}

func IntPtr(v int) *int {
	return &v
}
