package main

import (
	"github.com/akinalp/circles/config"
	"github.com/akinalp/circles/database"
	"github.com/akinalp/circles/repository"
	"go.uber.org/zap"
)

// openStore opens the database, applies pending migrations and binds the
// repositories to it. The caller closes the returned DB.
func openStore(cfg *config.Config, logger *zap.Logger) (*database.DB, *repository.Store, error) {
	db, err := database.New(cfg.Database.Path, database.Migrations(), logger)
	if err != nil {
		return nil, nil, err
	}
	return db, repository.NewStore(db.Conn), nil
}
