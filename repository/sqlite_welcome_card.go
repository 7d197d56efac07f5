package repository

import (
	"context"
	"fmt"

	"github.com/akinalp/circles/database"
	"github.com/akinalp/circles/models"
)

type sqliteWelcomeCardRepo struct {
	db database.TxQuerier
}

func NewSQLiteWelcomeCardRepo(db database.TxQuerier) WelcomeCardRepository {
	return &sqliteWelcomeCardRepo{db: db}
}

func (r *sqliteWelcomeCardRepo) ListByCircle(ctx context.Context, circleID string) ([]models.WelcomeCard, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, circle_id, position, front_title, front_image, back_title, back_description
		FROM welcome_cards WHERE circle_id = ? ORDER BY position`, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list welcome cards: %w", err)
	}
	defer rows.Close()

	cards := []models.WelcomeCard{}
	for rows.Next() {
		var c models.WelcomeCard
		if err := rows.Scan(&c.ID, &c.CircleID, &c.Position, &c.FrontTitle,
			&c.FrontImage, &c.BackTitle, &c.BackDescription); err != nil {
			return nil, fmt.Errorf("failed to scan welcome card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (r *sqliteWelcomeCardRepo) Replace(ctx context.Context, circleID string, inputs []models.WelcomeCardInput) ([]models.WelcomeCard, error) {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM welcome_cards WHERE circle_id = ?`, circleID); err != nil {
		return nil, fmt.Errorf("failed to clear welcome cards: %w", err)
	}

	now := dbNow()
	cards := make([]models.WelcomeCard, 0, len(inputs))
	for i, in := range inputs {
		c := models.WelcomeCard{
			ID:              newID(),
			CircleID:        circleID,
			Position:        i,
			FrontTitle:      in.FrontTitle,
			FrontImage:      in.FrontImage,
			BackTitle:       in.BackTitle,
			BackDescription: in.BackDescription,
		}
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO welcome_cards (id, circle_id, position, front_title, front_image, back_title, back_description, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.CircleID, c.Position, c.FrontTitle, c.FrontImage, c.BackTitle, c.BackDescription, now,
		); err != nil {
			return nil, fmt.Errorf("failed to insert welcome card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, nil
}
