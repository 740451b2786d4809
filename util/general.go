package util

import "fmt"

// Field names of the room hash kept in the Redis room directory.
const (
	RoomNameKey       = "name"
	RoomBlackKey      = "black"
	RoomWhiteKey      = "white"
	RoomSpectatorsKey = "spectators"
	RoomPlayersKey    = "players"
	RoomCreatedAtKey  = "created_at"
	RoomUpdatedAtKey  = "updated_at"
)

const roomKeyPrefix = "room:"

func GetRoomKey(room string) string {
	return fmt.Sprintf("%v%v", roomKeyPrefix, room)
}
