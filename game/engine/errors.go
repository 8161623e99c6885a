package engine

import "errors"

var (
	ErrOutOfBounds      = errors.New("coordinates out of bounds")
	ErrInvalidMineCount = errors.New("invalid mine count")
	ErrInvalidBoardSize = errors.New("invalid board size")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrPlayerDead       = errors.New("player is dead")
	ErrInvalidConfig    = errors.New("invalid configuration")
)
