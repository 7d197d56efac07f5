package repository

import (
	"context"
	"fmt"

	"github.com/akinalp/circles/database"
	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
)

type sqliteTopicRepo struct {
	db database.TxQuerier
}

func NewSQLiteTopicRepo(db database.TxQuerier) TopicRepository {
	return &sqliteTopicRepo{db: db}
}

const topicColumns = `t.id, t.circle_id, t.user_id, t.type, t.title, t.content, t.is_important,
	t.created_at, t.updated_at,
	(SELECT COUNT(*) FROM comments cm WHERE cm.topic_id = t.id AND cm.deleted_at IS NULL),
	u.id, u.name, u.email, u.student_number, u.profile_image_url`

func scanTopic(row rowScanner) (*models.Topic, error) {
	t := &models.Topic{}
	u := &models.MemberUser{}
	if err := row.Scan(
		&t.ID, &t.CircleID, &t.UserID, &t.Type, &t.Title, &t.Content, &t.IsImportant,
		&t.CreatedAt, &t.UpdatedAt, &t.CommentCount,
		&u.ID, &u.Name, &u.Email, &u.StudentNumber, &u.ProfileImageURL,
	); err != nil {
		return nil, err
	}
	t.Author = u
	return t, nil
}

func (r *sqliteTopicRepo) Create(ctx context.Context, t *models.Topic) error {
	t.ID = newID()
	t.CreatedAt = dbNow()
	t.UpdatedAt = t.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO topics (id, circle_id, user_id, type, title, content, is_important, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.CircleID, t.UserID, string(t.Type), t.Title, t.Content, t.IsImportant, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}
	return nil
}

func (r *sqliteTopicRepo) GetByID(ctx context.Context, id string) (*models.Topic, error) {
	t, err := scanTopic(r.db.QueryRowContext(ctx, `
		SELECT `+topicColumns+`
		FROM topics t JOIN users u ON u.id = t.user_id
		WHERE t.id = ? AND t.deleted_at IS NULL`, id))
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: topic not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return t, nil
}

func (r *sqliteTopicRepo) Update(ctx context.Context, t *models.Topic) error {
	t.UpdatedAt = dbNow()
	result, err := r.db.ExecContext(ctx, `
		UPDATE topics SET title = ?, content = ?, is_important = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		t.Title, t.Content, t.IsImportant, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update topic: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: topic not found", pkg.ErrNotFound))
}

func (r *sqliteTopicRepo) SoftDelete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE topics SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, dbNow(), id)
	if err != nil {
		return fmt.Errorf("failed to delete topic: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: topic not found", pkg.ErrNotFound))
}

func (r *sqliteTopicRepo) ListByCircle(ctx context.Context, circleID string, t models.TopicType) ([]models.Topic, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+topicColumns+`
		FROM topics t JOIN users u ON u.id = t.user_id
		WHERE t.circle_id = ? AND t.type = ? AND t.deleted_at IS NULL
		ORDER BY t.is_important DESC, t.created_at DESC`, circleID, string(t))
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	defer rows.Close()

	topics := []models.Topic{}
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic row: %w", err)
		}
		topics = append(topics, *topic)
	}
	return topics, rows.Err()
}

func (r *sqliteTopicRepo) CreateComment(ctx context.Context, c *models.Comment) error {
	c.ID = newID()
	c.CreatedAt = dbNow()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comments (id, topic_id, user_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.TopicID, c.UserID, c.Content, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *sqliteTopicRepo) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	c := &models.Comment{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, topic_id, user_id, content, created_at
		FROM comments WHERE id = ? AND deleted_at IS NULL`, id).Scan(
		&c.ID, &c.TopicID, &c.UserID, &c.Content, &c.CreatedAt,
	)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: comment not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return c, nil
}

func (r *sqliteTopicRepo) SoftDeleteComment(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE comments SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, dbNow(), id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: comment not found", pkg.ErrNotFound))
}

func (r *sqliteTopicRepo) ListComments(ctx context.Context, topicID string) ([]models.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.topic_id, c.user_id, c.content, c.created_at,
			u.id, u.name, u.email, u.student_number, u.profile_image_url
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.topic_id = ? AND c.deleted_at IS NULL
		ORDER BY c.created_at, c.rowid`, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		u := &models.MemberUser{}
		if err := rows.Scan(
			&c.ID, &c.TopicID, &c.UserID, &c.Content, &c.CreatedAt,
			&u.ID, &u.Name, &u.Email, &u.StudentNumber, &u.ProfileImageURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		c.Author = u
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
