package queries

import (
	"context"
	"errors"
	"fmt"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/game"
	"github.com/go-pg/pg/v10"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user not found")

// NewUser is a fresh level 1 profile.
func NewUser(email, name, passwordHash string) *models.User {
	return &models.User{
		Id:          uuid.NewV4().String(),
		Email:       email,
		Name:        name,
		Password:    passwordHash,
		Level:       1,
		NextLevelXp: firstLevelXp,
	}
}

func CreateUser(ctx context.Context, user *models.User, db *pg.DB) error {
	_, err := db.ModelContext(ctx, user).Insert()
	return err
}

func GetUserByEmail(ctx context.Context, email string, db *pg.DB) (*models.User, error) {
	user := new(models.User)
	err := db.ModelContext(ctx, user).Where("email = ?", email).Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func GetUserData(ctx context.Context, id string, db *pg.DB) (*models.User, error) {
	user := &models.User{Id: id}
	err := db.ModelContext(ctx, user).WherePK().Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// ProfileStore records finished games on user profiles.
type ProfileStore struct {
	DB *pg.DB
}

// RecordResult stores the history row of r and applies it to the player's
// profile in one transaction.
func (s *ProfileStore) RecordResult(ctx context.Context, gameId string, r game.Result) error {
	return s.DB.RunInTransaction(ctx, func(tx *pg.Tx) error {
		user := &models.User{Id: r.PlayerId}
		err := tx.ModelContext(ctx, user).WherePK().For("UPDATE").Select()
		if errors.Is(err, pg.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrUserNotFound, r.PlayerId)
		}
		if err != nil {
			return err
		}
		if _, err := tx.ModelContext(ctx, resultRow(gameId, r)).Insert(); err != nil {
			return fmt.Errorf("insert result: %w", err)
		}

		level := user.Level
		applyResult(user, r.Outcome, r.XP, r.Elo)
		_, err = tx.ModelContext(ctx, user).
			Column("elo", "wins", "total_games", "win_rate", "level", "current_xp", "next_level_xp").
			WherePK().
			Update()
		if err != nil {
			return err
		}
		if user.Level > level {
			log.WithFields(log.Fields{"user": r.PlayerId, "level": user.Level}).Info("level up")
		}
		return nil
	})
}
