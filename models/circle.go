package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Circle is a club. Deleted circles are kept with DeletedAt set and are
// invisible to every read path.
type Circle struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Location    string             `json:"location"`
	ImagePath   *string            `json:"image_path"`
	ActivityDay string             `json:"activity_day"`
	Tags        []string           `json:"tags"`
	Instructors []CircleInstructor `json:"instructors"`
	MemberCount int                `json:"member_count"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`

	// Embedding is the semantic vector of EmbeddingText. Empty when no
	// embedding provider is configured.
	Embedding []float32  `json:"-"`
	DeletedAt *time.Time `json:"-"`
}

// CircleInstructor is an instructor attached to a circle.
type CircleInstructor struct {
	UserID          string  `json:"user_id"`
	Name            string  `json:"name"`
	ProfileImageURL *string `json:"profile_image_url"`
}

// EmbeddingText is the text embedded for a circle: name, space-joined
// tags and description, each separated by one space even when empty. The
// layout must stay stable or stored vectors stop matching fresh ones.
func EmbeddingText(name string, tags []string, description string) string {
	return name + " " + strings.Join(tags, " ") + " " + description
}

const (
	maxCircleTags  = 10
	maxTagLength   = 20
	maxCircleName  = 50
	maxDescription = 2000
	maxLocation    = 100
	maxActivityDay = 50
	maxInstructors = 10
)

// CircleRequest is the create / update payload. Tags and InstructorIDs
// replace the current sets.
type CircleRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Location      string   `json:"location"`
	ImagePath     *string  `json:"image_path"`
	ActivityDay   string   `json:"activity_day"`
	Tags          []string `json:"tags"`
	InstructorIDs []string `json:"instructor_ids"`
}

// Validate trims every field and removes blank or duplicate tags and
// instructor ids, keeping first-seen order.
func (r *CircleRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if n := utf8.RuneCountInString(r.Name); n < 1 || n > maxCircleName {
		return fmt.Errorf("name must be between 1 and %d characters", maxCircleName)
	}

	r.Description = strings.TrimSpace(r.Description)
	if utf8.RuneCountInString(r.Description) > maxDescription {
		return fmt.Errorf("description must be at most %d characters", maxDescription)
	}

	r.Location = strings.TrimSpace(r.Location)
	if utf8.RuneCountInString(r.Location) > maxLocation {
		return fmt.Errorf("location must be at most %d characters", maxLocation)
	}

	r.ActivityDay = strings.TrimSpace(r.ActivityDay)
	if utf8.RuneCountInString(r.ActivityDay) > maxActivityDay {
		return fmt.Errorf("activity day must be at most %d characters", maxActivityDay)
	}

	r.Tags = uniqueTrimmed(r.Tags)
	if len(r.Tags) > maxCircleTags {
		return fmt.Errorf("at most %d tags are allowed", maxCircleTags)
	}
	for _, tag := range r.Tags {
		if utf8.RuneCountInString(tag) > maxTagLength {
			return fmt.Errorf("tag %q must be at most %d characters", tag, maxTagLength)
		}
	}

	r.InstructorIDs = uniqueTrimmed(r.InstructorIDs)
	if len(r.InstructorIDs) > maxInstructors {
		return fmt.Errorf("at most %d instructors are allowed", maxInstructors)
	}

	return nil
}

func uniqueTrimmed(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// SetDiff returns the elements of want missing from have (to add) and the
// elements of have missing from want (to remove).
func SetDiff(have, want []string) (add, remove []string) {
	haveSet := make(map[string]bool, len(have))
	for _, h := range have {
		haveSet[h] = true
	}
	wantSet := make(map[string]bool, len(want))
	for _, w := range want {
		wantSet[w] = true
		if !haveSet[w] {
			add = append(add, w)
		}
	}
	for _, h := range have {
		if !wantSet[h] {
			remove = append(remove, h)
		}
	}
	return add, remove
}
