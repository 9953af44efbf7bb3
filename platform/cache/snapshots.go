package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/gomodule/redigo/redis"
)

var ErrNotFound = errors.New("snapshot not found")

// Pool hands out redis connections. *redis.Pool implements it.
type Pool interface {
	GetContext(ctx context.Context) (redis.Conn, error)
}

// SnapshotStore keeps the latest snapshot of every room as JSON.
type SnapshotStore struct {
	Pool Pool
	// FinishedTTL is how long a finished room stays readable. Zero keeps it.
	FinishedTTL time.Duration
}

func snapshotKey(roomId string) string {
	return "room:" + roomId
}

func (s *SnapshotStore) SaveSnapshot(ctx context.Context, room *models.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", room.Id, err)
	}
	conn, err := s.Pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer conn.Close()

	var ttl time.Duration
	if room.Status == models.StatusFinished {
		ttl = s.FinishedTTL
	}
	return Set(snapshotKey(room.Id), data, ttl, conn)
}

func (s *SnapshotStore) LoadSnapshot(ctx context.Context, roomId string) (*models.Room, error) {
	conn, err := s.Pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	defer conn.Close()

	data, err := Get(snapshotKey(roomId), conn)
	if err == redis.ErrNil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	room := new(models.Room)
	if err := json.Unmarshal([]byte(data), room); err != nil {
		// an unreadable snapshot is dropped so the next load starts over
		if derr := Del(snapshotKey(roomId), conn); derr != nil {
			return nil, fmt.Errorf("decode room %s: %v (delete: %w)", roomId, err, derr)
		}
		return nil, fmt.Errorf("decode room %s: %w", roomId, err)
	}
	if room.Cells == nil {
		room.Cells = make(map[int]*models.CellState)
	}
	return room, nil
}
