package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akinalp/circles/database"
	"github.com/akinalp/circles/pkg"
)

type sqliteKeywordEmbeddingRepo struct {
	db database.TxQuerier
}

func NewSQLiteKeywordEmbeddingRepo(db database.TxQuerier) KeywordEmbeddingRepository {
	return &sqliteKeywordEmbeddingRepo{db: db}
}

func (r *sqliteKeywordEmbeddingRepo) Get(ctx context.Context, keyword string) ([]float32, error) {
	var raw sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT embedding FROM keyword_embeddings WHERE keyword = ?`, keyword).Scan(&raw)
	if isNoRows(err) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get keyword embedding: %w", err)
	}
	return decodeEmbedding(raw)
}

func (r *sqliteKeywordEmbeddingRepo) Save(ctx context.Context, keyword string, embedding []float32) error {
	encoded, err := encodeEmbedding(embedding)
	if err != nil {
		return err
	}
	if encoded == nil {
		return nil
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO keyword_embeddings (keyword, embedding, created_at) VALUES (?, ?, ?)
		ON CONFLICT(keyword) DO UPDATE SET embedding = excluded.embedding`,
		keyword, encoded, dbNow())
	if err != nil {
		return fmt.Errorf("failed to save keyword embedding: %w", err)
	}
	return nil
}
