package game

import "errors"

var (
	ErrGameRunning    = errors.New("game_running")
	ErrGameNotRunning = errors.New("game_not_running")
	ErrNotYourTurn    = errors.New("not_your_turn")
	ErrInvalidMove    = errors.New("invalid_move")
	ErrPlayerNotFound = errors.New("player_not_found")
	ErrUnknownVariant = errors.New("unknown_variant")
)
