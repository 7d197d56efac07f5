package models

import (
	"fmt"
	"time"
)

// Role is a member's position in a circle. Lower values rank higher.
type Role int

const (
	RoleRepresentative     Role = 0 // one per circle
	RoleViceRepresentative Role = 1
	RoleMember             Role = 2
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r >= RoleRepresentative && r <= RoleMember
}

// IsAdmin reports whether r may manage the circle.
func (r Role) IsAdmin() bool {
	return r == RoleRepresentative || r == RoleViceRepresentative
}

func (r Role) String() string {
	switch r {
	case RoleRepresentative:
		return "representative"
	case RoleViceRepresentative:
		return "vice_representative"
	case RoleMember:
		return "member"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// CircleMember is one membership period. Leaving sets LeaveDate; joining
// again creates a new row.
type CircleMember struct {
	ID         string      `json:"id"`
	CircleID   string      `json:"circle_id"`
	UserID     string      `json:"user_id"`
	Role       Role        `json:"role_id"`
	JoinedDate time.Time   `json:"joined_date"`
	LeaveDate  *time.Time  `json:"leave_date"`
	User       *MemberUser `json:"user,omitempty"`
}

// IsActive reports whether the membership is current.
func (m *CircleMember) IsActive() bool {
	return m.LeaveDate == nil
}

// MemberUser is the public slice of a user shown next to members,
// participants, authors and requesters.
type MemberUser struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	StudentNumber   *string `json:"student_number"`
	ProfileImageURL *string `json:"profile_image_url"`
}

// MemberCircle is a circle as seen from one member's profile.
type MemberCircle struct {
	CircleID   string    `json:"circle_id"`
	Name       string    `json:"name"`
	ImagePath  *string   `json:"image_path"`
	Role       Role      `json:"role_id"`
	JoinedDate time.Time `json:"joined_date"`
}

// ChangeRoleRequest is the role change payload.
type ChangeRoleRequest struct {
	RoleID *int `json:"role_id"`
}

func (r *ChangeRoleRequest) Validate() error {
	if r.RoleID == nil {
		return fmt.Errorf("role_id is required")
	}
	if !Role(*r.RoleID).Valid() {
		return fmt.Errorf("role_id must be 0, 1 or 2")
	}
	return nil
}
