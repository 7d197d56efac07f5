package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akinalp/circles/database"
	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
)

type sqliteCircleRepo struct {
	db database.TxQuerier
}

func NewSQLiteCircleRepo(db database.TxQuerier) CircleRepository {
	return &sqliteCircleRepo{db: db}
}

const circleColumns = `c.id, c.name, c.description, c.location, c.image_path, c.activity_day,
	c.embedding, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM circle_members m WHERE m.circle_id = c.id AND m.leave_date IS NULL)`

func scanCircle(row rowScanner) (*models.Circle, error) {
	c := &models.Circle{}
	var embedding sql.NullString
	if err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.Location, &c.ImagePath, &c.ActivityDay,
		&embedding, &c.CreatedAt, &c.UpdatedAt, &c.MemberCount,
	); err != nil {
		return nil, err
	}
	v, err := decodeEmbedding(embedding)
	if err != nil {
		return nil, err
	}
	c.Embedding = v
	return c, nil
}

func (r *sqliteCircleRepo) Create(ctx context.Context, circle *models.Circle) error {
	embedding, err := encodeEmbedding(circle.Embedding)
	if err != nil {
		return err
	}

	circle.ID = newID()
	circle.CreatedAt = dbNow()
	circle.UpdatedAt = circle.CreatedAt

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO circles (id, name, description, location, image_path, activity_day, embedding, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		circle.ID, circle.Name, circle.Description, circle.Location, circle.ImagePath,
		circle.ActivityDay, embedding, circle.CreatedAt, circle.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: circle name already taken", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create circle: %w", err)
	}
	return nil
}

func (r *sqliteCircleRepo) GetByID(ctx context.Context, id string) (*models.Circle, error) {
	c, err := scanCircle(r.db.QueryRowContext(ctx,
		`SELECT `+circleColumns+` FROM circles c WHERE c.id = ? AND c.deleted_at IS NULL`, id))
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: circle not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get circle: %w", err)
	}

	if c.Tags, err = r.ListTags(ctx, id); err != nil {
		return nil, err
	}
	if c.Instructors, err = r.listInstructors(ctx, id); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *sqliteCircleRepo) List(ctx context.Context) ([]models.Circle, error) {
	circles, err := r.query(ctx, `SELECT `+circleColumns+`
		FROM circles c WHERE c.deleted_at IS NULL ORDER BY c.name`)
	if err != nil {
		return nil, err
	}

	// One extra query for every tag instead of one per circle.
	tags, err := r.tagsByCircle(ctx, `
		SELECT t.circle_id, t.name FROM circle_tags t
		JOIN circles c ON c.id = t.circle_id
		WHERE c.deleted_at IS NULL ORDER BY t.rowid`)
	if err != nil {
		return nil, err
	}
	for i := range circles {
		circles[i].Tags = nonNil(tags[circles[i].ID])
	}
	return circles, nil
}

func (r *sqliteCircleRepo) query(ctx context.Context, query string, args ...any) ([]models.Circle, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list circles: %w", err)
	}
	defer rows.Close()

	circles := []models.Circle{}
	for rows.Next() {
		c, err := scanCircle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan circle row: %w", err)
		}
		circles = append(circles, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating circle rows: %w", err)
	}
	return circles, nil
}

func (r *sqliteCircleRepo) tagsByCircle(ctx context.Context, query string) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list circle tags: %w", err)
	}
	defer rows.Close()

	tags := make(map[string][]string)
	for rows.Next() {
		var circleID, name string
		if err := rows.Scan(&circleID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan circle tag: %w", err)
		}
		tags[circleID] = append(tags[circleID], name)
	}
	return tags, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r *sqliteCircleRepo) Update(ctx context.Context, circle *models.Circle) error {
	circle.UpdatedAt = dbNow()

	result, err := r.db.ExecContext(ctx, `
		UPDATE circles SET name = ?, description = ?, location = ?, image_path = ?,
			activity_day = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		circle.Name, circle.Description, circle.Location, circle.ImagePath,
		circle.ActivityDay, circle.UpdatedAt, circle.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: circle name already taken", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to update circle: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: circle not found", pkg.ErrNotFound))
}

func (r *sqliteCircleRepo) SoftDelete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE circles SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, dbNow(), id)
	if err != nil {
		return fmt.Errorf("failed to delete circle: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: circle not found", pkg.ErrNotFound))
}

func (r *sqliteCircleRepo) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM circles
		WHERE name = ? AND id != ? AND deleted_at IS NULL`, name, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check circle name: %w", err)
	}
	return n > 0, nil
}

func (r *sqliteCircleRepo) ListTags(ctx context.Context, circleID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM circle_tags WHERE circle_id = ? ORDER BY rowid`, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (r *sqliteCircleRepo) AddTags(ctx context.Context, circleID string, tags []string) error {
	for _, tag := range tags {
		if _, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO circle_tags (id, circle_id, name) VALUES (?, ?, ?)`,
			newID(), circleID, tag,
		); err != nil {
			return fmt.Errorf("failed to add tag %q: %w", tag, err)
		}
	}
	return nil
}

func (r *sqliteCircleRepo) RemoveTags(ctx context.Context, circleID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	placeholders, args := inClause(tags)
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM circle_tags WHERE circle_id = ? AND name IN (`+placeholders+`)`,
		append([]any{circleID}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to remove tags: %w", err)
	}
	return nil
}

func (r *sqliteCircleRepo) listInstructors(ctx context.Context, circleID string) ([]models.CircleInstructor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.profile_image_url
		FROM circle_instructors ci
		JOIN users u ON u.id = ci.user_id
		WHERE ci.circle_id = ?
		ORDER BY ci.created_at, u.name`, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list instructors: %w", err)
	}
	defer rows.Close()

	instructors := []models.CircleInstructor{}
	for rows.Next() {
		var i models.CircleInstructor
		if err := rows.Scan(&i.UserID, &i.Name, &i.ProfileImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan instructor: %w", err)
		}
		instructors = append(instructors, i)
	}
	return instructors, rows.Err()
}

func (r *sqliteCircleRepo) ListInstructorIDs(ctx context.Context, circleID string) ([]string, error) {
	instructors, err := r.listInstructors(ctx, circleID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(instructors))
	for i, in := range instructors {
		ids[i] = in.UserID
	}
	return ids, nil
}

func (r *sqliteCircleRepo) AddInstructors(ctx context.Context, circleID string, userIDs []string) error {
	for _, userID := range userIDs {
		if _, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO circle_instructors (circle_id, user_id, created_at) VALUES (?, ?, ?)`,
			circleID, userID, dbNow(),
		); err != nil {
			return fmt.Errorf("failed to add instructor: %w", err)
		}
	}
	return nil
}

func (r *sqliteCircleRepo) RemoveInstructors(ctx context.Context, circleID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	placeholders, args := inClause(userIDs)
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM circle_instructors WHERE circle_id = ? AND user_id IN (`+placeholders+`)`,
		append([]any{circleID}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to remove instructors: %w", err)
	}
	return nil
}

func (r *sqliteCircleRepo) ListWithEmbeddings(ctx context.Context) ([]models.Circle, error) {
	return r.query(ctx, `SELECT `+circleColumns+`
		FROM circles c
		WHERE c.deleted_at IS NULL AND c.embedding IS NOT NULL AND c.embedding != ''
		ORDER BY c.created_at`)
}

func (r *sqliteCircleRepo) ListMissingEmbeddings(ctx context.Context) ([]models.Circle, error) {
	circles, err := r.query(ctx, `SELECT `+circleColumns+`
		FROM circles c
		WHERE c.deleted_at IS NULL AND (c.embedding IS NULL OR c.embedding = '')
		ORDER BY c.created_at`)
	if err != nil {
		return nil, err
	}
	for i := range circles {
		if circles[i].Tags, err = r.ListTags(ctx, circles[i].ID); err != nil {
			return nil, err
		}
	}
	return circles, nil
}

func (r *sqliteCircleRepo) UpdateEmbedding(ctx context.Context, circleID string, embedding []float32) error {
	encoded, err := encodeEmbedding(embedding)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE circles SET embedding = ? WHERE id = ? AND deleted_at IS NULL`, encoded, circleID)
	if err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: circle not found", pkg.ErrNotFound))
}
