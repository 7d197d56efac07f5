package models

import (
	"fmt"
	"time"
)

// RequestType is what a membership request asks for.
type RequestType string

const (
	RequestTypeJoin       RequestType = "join"
	RequestTypeWithdrawal RequestType = "withdrawal"
)

func (t RequestType) Valid() bool {
	return t == RequestTypeJoin || t == RequestTypeWithdrawal
}

// RequestStatus moves pending -> approved | rejected | canceled and never
// back.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
	RequestStatusCanceled RequestStatus = "canceled"
)

// MembershipRequest is a join or withdrawal request awaiting an admin.
type MembershipRequest struct {
	ID         string        `json:"id"`
	CircleID   string        `json:"circle_id"`
	UserID     string        `json:"user_id"`
	Type       RequestType   `json:"request_type"`
	Status     RequestStatus `json:"status"`
	ResolvedBy *string       `json:"resolved_by"`
	ResolvedAt *time.Time    `json:"resolved_at"`
	CreatedAt  time.Time     `json:"created_at"`
	User       *MemberUser   `json:"user,omitempty"`
}

// CreateMembershipRequest is the payload to open a request.
type CreateMembershipRequest struct {
	Type RequestType `json:"request_type"`
}

func (r *CreateMembershipRequest) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("request_type must be join or withdrawal")
	}
	return nil
}

// ResolveAction is an admin's decision on a pending request.
type ResolveAction string

const (
	ResolveApprove ResolveAction = "approve"
	ResolveReject  ResolveAction = "reject"
)

type ResolveMembershipRequest struct {
	Action ResolveAction `json:"action"`
}

func (r *ResolveMembershipRequest) Validate() error {
	if r.Action != ResolveApprove && r.Action != ResolveReject {
		return fmt.Errorf("action must be approve or reject")
	}
	return nil
}
