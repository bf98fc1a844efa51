package room

import "errors"

var (
	ErrRoomNotFound    = errors.New("room_not_found")
	ErrRoomExists      = errors.New("room_exists")
	ErrPlayerNotFound  = errors.New("player_not_found")
	ErrPlayerNotInRoom = errors.New("player_not_in_room")
	ErrCannotCreate    = errors.New("cannot_create")
)
