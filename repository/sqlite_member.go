package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/akinalp/circles/database"
	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
)

type sqliteMemberRepo struct {
	db database.TxQuerier
}

func NewSQLiteMemberRepo(db database.TxQuerier) MemberRepository {
	return &sqliteMemberRepo{db: db}
}

func (r *sqliteMemberRepo) Add(ctx context.Context, member *models.CircleMember) error {
	member.ID = newID()
	if member.JoinedDate.IsZero() {
		member.JoinedDate = dbNow()
	}
	member.JoinedDate = dbTime(member.JoinedDate)
	member.LeaveDate = nil

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO circle_members (id, circle_id, user_id, role_id, joined_date)
		VALUES (?, ?, ?, ?, ?)`,
		member.ID, member.CircleID, member.UserID, int(member.Role), member.JoinedDate,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: already a member of this circle", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

func (r *sqliteMemberRepo) GetActive(ctx context.Context, circleID, userID string) (*models.CircleMember, error) {
	m := &models.CircleMember{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, circle_id, user_id, role_id, joined_date, leave_date
		FROM circle_members
		WHERE circle_id = ? AND user_id = ? AND leave_date IS NULL`, circleID, userID).Scan(
		&m.ID, &m.CircleID, &m.UserID, &m.Role, &m.JoinedDate, &m.LeaveDate,
	)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: member not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

func (r *sqliteMemberRepo) ListActive(ctx context.Context, circleID string) ([]models.CircleMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.circle_id, m.user_id, m.role_id, m.joined_date,
			u.id, u.name, u.email, u.student_number, u.profile_image_url
		FROM circle_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.circle_id = ? AND m.leave_date IS NULL
		ORDER BY m.role_id, m.joined_date`, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := []models.CircleMember{}
	for rows.Next() {
		var m models.CircleMember
		u := &models.MemberUser{}
		if err := rows.Scan(
			&m.ID, &m.CircleID, &m.UserID, &m.Role, &m.JoinedDate,
			&u.ID, &u.Name, &u.Email, &u.StudentNumber, &u.ProfileImageURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		m.User = u
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}
	return members, nil
}

func (r *sqliteMemberRepo) userIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list member ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *sqliteMemberRepo) ListActiveUserIDs(ctx context.Context, circleID string) ([]string, error) {
	return r.userIDs(ctx, `
		SELECT user_id FROM circle_members
		WHERE circle_id = ? AND leave_date IS NULL`, circleID)
}

func (r *sqliteMemberRepo) ListAdminUserIDs(ctx context.Context, circleID string) ([]string, error) {
	return r.userIDs(ctx, `
		SELECT user_id FROM circle_members
		WHERE circle_id = ? AND leave_date IS NULL AND role_id IN (?, ?)`,
		circleID, int(models.RoleRepresentative), int(models.RoleViceRepresentative))
}

func (r *sqliteMemberRepo) UpdateRole(ctx context.Context, memberID string, role models.Role) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE circle_members SET role_id = ? WHERE id = ? AND leave_date IS NULL`, int(role), memberID)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: member not found", pkg.ErrNotFound))
}

func (r *sqliteMemberRepo) Leave(ctx context.Context, memberID string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE circle_members SET leave_date = ? WHERE id = ? AND leave_date IS NULL`, dbTime(at), memberID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: member not found", pkg.ErrNotFound))
}

func (r *sqliteMemberRepo) ListCirclesByUser(ctx context.Context, userID string) ([]models.MemberCircle, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.image_path, m.role_id, m.joined_date
		FROM circle_members m
		JOIN circles c ON c.id = m.circle_id
		WHERE m.user_id = ? AND m.leave_date IS NULL AND c.deleted_at IS NULL
		ORDER BY m.joined_date`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user circles: %w", err)
	}
	defer rows.Close()

	circles := []models.MemberCircle{}
	for rows.Next() {
		var mc models.MemberCircle
		if err := rows.Scan(&mc.CircleID, &mc.Name, &mc.ImagePath, &mc.Role, &mc.JoinedDate); err != nil {
			return nil, fmt.Errorf("failed to scan user circle: %w", err)
		}
		circles = append(circles, mc)
	}
	return circles, rows.Err()
}
