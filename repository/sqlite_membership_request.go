package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/akinalp/circles/database"
	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
)

type sqliteMembershipRequestRepo struct {
	db database.TxQuerier
}

func NewSQLiteMembershipRequestRepo(db database.TxQuerier) MembershipRequestRepository {
	return &sqliteMembershipRequestRepo{db: db}
}

const requestColumns = `r.id, r.circle_id, r.user_id, r.request_type, r.status,
	r.resolved_by, r.resolved_at, r.created_at,
	u.id, u.name, u.email, u.student_number, u.profile_image_url`

func scanRequest(row rowScanner) (*models.MembershipRequest, error) {
	req := &models.MembershipRequest{}
	u := &models.MemberUser{}
	if err := row.Scan(
		&req.ID, &req.CircleID, &req.UserID, &req.Type, &req.Status,
		&req.ResolvedBy, &req.ResolvedAt, &req.CreatedAt,
		&u.ID, &u.Name, &u.Email, &u.StudentNumber, &u.ProfileImageURL,
	); err != nil {
		return nil, err
	}
	req.User = u
	return req, nil
}

func (r *sqliteMembershipRequestRepo) Create(ctx context.Context, req *models.MembershipRequest) error {
	req.ID = newID()
	req.Status = models.RequestStatusPending
	req.CreatedAt = dbNow()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO membership_requests (id, circle_id, user_id, request_type, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		req.ID, req.CircleID, req.UserID, string(req.Type), string(req.Status), req.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: a %s request is already pending", pkg.ErrAlreadyExists, req.Type)
		}
		return fmt.Errorf("failed to create membership request: %w", err)
	}
	return nil
}

func (r *sqliteMembershipRequestRepo) GetByID(ctx context.Context, id string) (*models.MembershipRequest, error) {
	req, err := scanRequest(r.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+`
		FROM membership_requests r JOIN users u ON u.id = r.user_id
		WHERE r.id = ?`, id))
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: request not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership request: %w", err)
	}
	return req, nil
}

func (r *sqliteMembershipRequestRepo) HasPending(ctx context.Context, circleID, userID string, t models.RequestType) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM membership_requests
		WHERE circle_id = ? AND user_id = ? AND request_type = ? AND status = ?`,
		circleID, userID, string(t), string(models.RequestStatusPending)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check pending request: %w", err)
	}
	return n > 0, nil
}

func (r *sqliteMembershipRequestRepo) list(ctx context.Context, where string, args ...any) ([]models.MembershipRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM membership_requests r JOIN users u ON u.id = r.user_id
		WHERE `+where+` ORDER BY r.created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list membership requests: %w", err)
	}
	defer rows.Close()

	requests := []models.MembershipRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership request: %w", err)
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

func (r *sqliteMembershipRequestRepo) ListPending(ctx context.Context, circleID string) ([]models.MembershipRequest, error) {
	return r.list(ctx, `r.circle_id = ? AND r.status = ?`, circleID, string(models.RequestStatusPending))
}

func (r *sqliteMembershipRequestRepo) ListByUser(ctx context.Context, userID string) ([]models.MembershipRequest, error) {
	return r.list(ctx, `r.user_id = ?`, userID)
}

func (r *sqliteMembershipRequestRepo) Resolve(ctx context.Context, id string, status models.RequestStatus, resolvedBy *string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE membership_requests SET status = ?, resolved_by = ?, resolved_at = ?
		WHERE id = ? AND status = ?`,
		string(status), resolvedBy, dbTime(at), id, string(models.RequestStatusPending),
	)
	if err != nil {
		return fmt.Errorf("failed to resolve membership request: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: request is no longer pending", pkg.ErrConflict))
}
