package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/pkg"
	"github.com/DedS3t/monopoly-engine/platform/cache"
	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
	log "github.com/sirupsen/logrus"
)

var ErrGameNotFound = errors.New("game not found")

func VerifyGame(ctx context.Context, id string, db *pg.DB) bool {
	_, err := GetGame(ctx, id, db)
	return err == nil
}

func GetGame(ctx context.Context, id string, db *pg.DB) (*models.Game, error) {
	game := &models.Game{Id: id}
	err := db.ModelContext(ctx, game).WherePK().Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return game, nil
}

func CreateGame(ctx context.Context, name string, seats int, db *pg.DB) (*models.Game, error) {
	game := &models.Game{
		Id:        pkg.RandString(8),
		Name:      name,
		Status:    string(models.StatusWaiting),
		Seats:     normalizeSeats(seats),
		UpdatedAt: time.Now(),
	}
	if _, err := db.ModelContext(ctx, game).Insert(); err != nil {
		return nil, fmt.Errorf("insert game: %w", err)
	}
	return game, nil
}

func CreatePlayer(ctx context.Context, player models.Player, db orm.DB) error {
	_, err := db.ModelContext(ctx, &player).OnConflict("DO NOTHING").Insert()
	return err
}

func DeletePlayer(ctx context.Context, userId, gameId string, db orm.DB) error {
	_, err := db.ModelContext(ctx, (*models.Player)(nil)).
		Where("user_id = ? AND game_id = ?", userId, gameId).
		Delete()
	return err
}

// GameStatusStore mirrors room snapshots into the games and players tables.
type GameStatusStore struct {
	DB *pg.DB
}

func (s *GameStatusStore) SaveSnapshot(ctx context.Context, room *models.Room) error {
	return s.DB.RunInTransaction(ctx, func(tx *pg.Tx) error {
		game := &models.Game{Id: room.Id}
		res, err := tx.ModelContext(ctx, game).
			Set("status = ?", gameStatus(room)).
			Set("winner_id = ?", room.WinnerId).
			Set("updated_at = ?", time.Now()).
			WherePK().
			Update()
		if err != nil {
			return fmt.Errorf("update game %s: %w", room.Id, err)
		}
		if res.RowsAffected() == 0 {
			return ErrGameNotFound
		}

		if room.Status != models.StatusWaiting {
			return nil
		}
		var stored []models.Player
		if err := tx.ModelContext(ctx, &stored).Where("game_id = ?", room.Id).Select(); err != nil {
			return err
		}
		for _, id := range departed(stored, room) {
			if err := DeletePlayer(ctx, id, room.Id, tx); err != nil {
				return err
			}
		}
		for _, row := range playerRows(room) {
			if err := CreatePlayer(ctx, row, tx); err != nil {
				return err
			}
		}
		return nil
	})
}

// RoomLoader restores a room from its latest redis snapshot, or from the
// games row when the room never got one.
type RoomLoader struct {
	Snapshots *cache.SnapshotStore
	DB        *pg.DB
}

func (l *RoomLoader) LoadRoom(ctx context.Context, id string) (*models.Room, error) {
	if l.Snapshots != nil {
		room, err := l.Snapshots.LoadSnapshot(ctx, id)
		if err == nil {
			return room, nil
		}
		if !errors.Is(err, cache.ErrNotFound) {
			log.WithError(err).WithField("room", id).Warn("snapshot unreadable, falling back to postgres")
		}
	}
	game, err := GetGame(ctx, id, l.DB)
	if err != nil {
		return nil, err
	}
	return roomFromGame(game), nil
}
