// Package models defines the domain types shared by every layer, together
// with the request payloads the API accepts and their validation.
//
// JSON tags shape API responses; fields tagged `json:"-"` never leave the
// server.
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// User is an account. Students sign up with their university address whose
// local part is the student number; any other address marks an instructor.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	PasswordHash    string    `json:"-"`
	StudentNumber   *string   `json:"student_number"`
	IsInstructor    bool      `json:"is_instructor"`
	ProfileText     *string   `json:"profile_text"`
	ProfileImageURL *string   `json:"profile_image_url"`
	Language        string    `json:"language"`
	CreatedAt       time.Time `json:"created_at"`
}

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// EmailRegex is a deliberately loose address check.
func EmailRegex() *regexp.Regexp {
	return emailRegex
}

// ClassifyEmail derives the student number from an all-digit local part.
// Any other address belongs to an instructor.
func ClassifyEmail(email string) (studentNumber *string, isInstructor bool) {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return nil, true
	}
	for _, ch := range local {
		if ch < '0' || ch > '9' {
			return nil, true
		}
	}
	return &local, false
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

// Validate trims and checks the payload:
//   - Email: required, address format, lower-cased
//   - Password: at least 8 characters
//   - Name: 1-64 characters
func (r *RegisterRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(r.Email) {
		return fmt.Errorf("invalid email format")
	}

	if utf8.RuneCountInString(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	r.Name = strings.TrimSpace(r.Name)
	nameLen := utf8.RuneCountInString(r.Name)
	if nameLen < 1 || nameLen > 64 {
		return fmt.Errorf("name must be between 1 and 64 characters")
	}

	r.Language = strings.TrimSpace(r.Language)
	return nil
}

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// UpdateProfileRequest is a partial update: nil fields stay unchanged.
type UpdateProfileRequest struct {
	Name            *string `json:"name"`
	ProfileText     *string `json:"profile_text"`
	ProfileImageURL *string `json:"profile_image_url"`
	Language        *string `json:"language"`
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
		if n := utf8.RuneCountInString(trimmed); n < 1 || n > 64 {
			return fmt.Errorf("name must be between 1 and 64 characters")
		}
	}
	if r.ProfileText != nil && utf8.RuneCountInString(*r.ProfileText) > 2000 {
		return fmt.Errorf("profile text must be at most 2000 characters")
	}
	if r.ProfileImageURL != nil && len(*r.ProfileImageURL) > 2048 {
		return fmt.Errorf("profile image url is too long")
	}
	return nil
}

// UserProfile is a user together with the circles they are active in.
type UserProfile struct {
	User
	Circles []MemberCircle `json:"circles"`
}
