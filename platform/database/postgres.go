package database

import (
	"context"
	"fmt"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/config"
	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
	log "github.com/sirupsen/logrus"
)

func PostgreSQLConnection(cfg *config.Config) *pg.DB {
	return pg.Connect(&pg.Options{
		User:     cfg.DBUser,
		Addr:     cfg.DBAddr,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
	})
}

// CreateSchema creates the tables the server writes to when they are
// missing.
func CreateSchema(ctx context.Context, db *pg.DB) error {
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	for _, model := range []interface{}{
		(*models.User)(nil),
		(*models.Game)(nil),
		(*models.Player)(nil),
		(*models.GameResult)(nil),
	} {
		err := db.Model(model).CreateTable(&orm.CreateTableOptions{IfNotExists: true})
		if err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	log.Info("database schema ready")
	return nil
}
