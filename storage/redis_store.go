package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/judgegodwins/goban-server/coordinator"
	"github.com/judgegodwins/goban-server/util"
)

var ErrRoomNotFound = errors.New("room not found")

// RoomStore keeps the room directory: one hash per live room.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{client: client, ttl: ttl}
}

func roomFields(room coordinator.RoomSnapshot) map[string]any {
	return map[string]any{
		util.RoomNameKey:       room.Name,
		util.RoomBlackKey:      room.Black,
		util.RoomWhiteKey:      room.White,
		util.RoomSpectatorsKey: strings.Join(room.Spectators, ","),
		util.RoomPlayersKey:    strconv.Itoa(room.Players),
		util.RoomCreatedAtKey:  room.CreatedAt.UTC().Format(time.RFC3339Nano),
		util.RoomUpdatedAtKey:  room.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// SaveRoom overwrites the room's hash and refreshes its expiry.
func (s *RoomStore) SaveRoom(ctx context.Context, room coordinator.RoomSnapshot) error {
	key := util.GetRoomKey(room.Name)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, roomFields(room))
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save room %q: %w", room.Name, err)
	}

	return nil
}

func (s *RoomStore) LoadRoom(ctx context.Context, name string) (map[string]string, error) {
	data, err := s.client.HGetAll(ctx, util.GetRoomKey(name)).Result()
	if err != nil {
		return nil, fmt.Errorf("load room %q: %w", name, err)
	}

	if len(data) == 0 {
		return nil, ErrRoomNotFound
	}

	return data, nil
}

func (s *RoomStore) DeleteRoom(ctx context.Context, name string) error {
	if err := s.client.Del(ctx, util.GetRoomKey(name)).Err(); err != nil {
		return fmt.Errorf("delete room %q: %w", name, err)
	}

	return nil
}

// Ping checks the connection to Redis.
func (s *RoomStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
