package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/akinalp/circles/database"
	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
)

type sqliteActivityRepo struct {
	db database.TxQuerier
}

func NewSQLiteActivityRepo(db database.TxQuerier) ActivityRepository {
	return &sqliteActivityRepo{db: db}
}

const activityColumns = `a.id, a.circle_id, c.name, a.title, a.description, a.location, a.notes,
	a.activity_day, a.start_time, a.end_time, a.created_by, a.created_at, a.updated_at`

func scanActivity(row rowScanner) (*models.Activity, error) {
	a := &models.Activity{}
	err := row.Scan(
		&a.ID, &a.CircleID, &a.CircleName, &a.Title, &a.Description, &a.Location, &a.Notes,
		&a.ActivityDay, &a.StartTime, &a.EndTime, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func (r *sqliteActivityRepo) Create(ctx context.Context, a *models.Activity) error {
	a.ID = newID()
	a.CreatedAt = dbNow()
	a.UpdatedAt = a.CreatedAt
	a.ActivityDay = dbTime(a.ActivityDay)
	a.StartTime = dbTime(a.StartTime)
	a.EndTime = dbTimePtr(a.EndTime)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activities (id, circle_id, title, description, location, notes,
			activity_day, start_time, end_time, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.CircleID, a.Title, a.Description, a.Location, a.Notes,
		a.ActivityDay, a.StartTime, a.EndTime, a.CreatedBy, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

func (r *sqliteActivityRepo) GetByID(ctx context.Context, id string) (*models.Activity, error) {
	a, err := scanActivity(r.db.QueryRowContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities a JOIN circles c ON c.id = a.circle_id
		WHERE a.id = ? AND a.deleted_at IS NULL AND c.deleted_at IS NULL`, id))
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: activity not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

func (r *sqliteActivityRepo) Update(ctx context.Context, a *models.Activity) error {
	a.UpdatedAt = dbNow()
	a.ActivityDay = dbTime(a.ActivityDay)
	a.StartTime = dbTime(a.StartTime)
	a.EndTime = dbTimePtr(a.EndTime)

	result, err := r.db.ExecContext(ctx, `
		UPDATE activities SET title = ?, description = ?, location = ?, notes = ?,
			activity_day = ?, start_time = ?, end_time = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		a.Title, a.Description, a.Location, a.Notes,
		a.ActivityDay, a.StartTime, a.EndTime, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: activity not found", pkg.ErrNotFound))
}

func (r *sqliteActivityRepo) SoftDelete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE activities SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, dbNow(), id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: activity not found", pkg.ErrNotFound))
}

func (r *sqliteActivityRepo) list(ctx context.Context, query string, args ...any) ([]models.Activity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		activities = append(activities, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return activities, nil
}

func (r *sqliteActivityRepo) ListByCircle(ctx context.Context, circleID string, from, to time.Time) ([]models.Activity, error) {
	return r.list(ctx, `
		SELECT `+activityColumns+`
		FROM activities a JOIN circles c ON c.id = a.circle_id
		WHERE a.circle_id = ? AND a.deleted_at IS NULL AND c.deleted_at IS NULL
			AND a.start_time >= ? AND a.start_time < ?
		ORDER BY a.start_time`, circleID, dbTime(from), dbTime(to))
}

func (r *sqliteActivityRepo) ListForUser(ctx context.Context, userID string, from, to time.Time) ([]models.Activity, error) {
	return r.list(ctx, `
		SELECT `+activityColumns+`
		FROM activities a
		JOIN circles c ON c.id = a.circle_id
		JOIN circle_members m ON m.circle_id = a.circle_id AND m.user_id = ? AND m.leave_date IS NULL
		WHERE a.deleted_at IS NULL AND c.deleted_at IS NULL
			AND a.start_time >= ? AND a.start_time < ?
		ORDER BY a.start_time`, userID, dbTime(from), dbTime(to))
}

func (r *sqliteActivityRepo) AddParticipants(ctx context.Context, activityID string, userIDs []string) error {
	now := dbNow()
	for _, userID := range userIDs {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO activity_participants (id, activity_id, user_id, joined_at)
			VALUES (?, ?, ?, ?)`, newID(), activityID, userID, now,
		); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: already participating", pkg.ErrAlreadyExists)
			}
			return fmt.Errorf("failed to add participant: %w", err)
		}
	}
	return nil
}

func (r *sqliteActivityRepo) GetActiveParticipation(ctx context.Context, activityID, userID string) (*models.ActivityParticipant, error) {
	p := &models.ActivityParticipant{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, activity_id, user_id, joined_at, removed_at
		FROM activity_participants
		WHERE activity_id = ? AND user_id = ? AND removed_at IS NULL`, activityID, userID).Scan(
		&p.ID, &p.ActivityID, &p.UserID, &p.JoinedAt, &p.RemovedAt,
	)
	if isNoRows(err) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	return p, nil
}

func (r *sqliteActivityRepo) RemoveParticipant(ctx context.Context, participantID string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE activity_participants SET removed_at = ? WHERE id = ? AND removed_at IS NULL`,
		dbTime(at), participantID)
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	return requireAffected(result, pkg.ErrNotFound)
}

func (r *sqliteActivityRepo) ListParticipants(ctx context.Context, activityID string) ([]models.ActivityParticipant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.activity_id, p.user_id, p.joined_at,
			u.id, u.name, u.email, u.student_number, u.profile_image_url
		FROM activity_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.activity_id = ? AND p.removed_at IS NULL
		ORDER BY p.joined_at, u.name`, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := []models.ActivityParticipant{}
	for rows.Next() {
		var p models.ActivityParticipant
		u := &models.MemberUser{}
		if err := rows.Scan(
			&p.ID, &p.ActivityID, &p.UserID, &p.JoinedAt,
			&u.ID, &u.Name, &u.Email, &u.StudentNumber, &u.ProfileImageURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		p.User = u
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *sqliteActivityRepo) RemoveFromUpcoming(ctx context.Context, circleID, userID string, now time.Time) error {
	now = dbTime(now)
	_, err := r.db.ExecContext(ctx, `
		UPDATE activity_participants SET removed_at = ?
		WHERE user_id = ? AND removed_at IS NULL AND activity_id IN (
			SELECT id FROM activities
			WHERE circle_id = ? AND deleted_at IS NULL AND start_time > ?
		)`, now, userID, circleID, now)
	if err != nil {
		return fmt.Errorf("failed to remove user from upcoming activities: %w", err)
	}
	return nil
}
