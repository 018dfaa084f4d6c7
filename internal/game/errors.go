package game

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRoomName  = errors.New("room name is required")
	ErrRoomFull         = errors.New("room is full")
	ErrInvalidState     = errors.New("operation not allowed in current room state")
	ErrNotEnoughPlayers = errors.New("at least 2 players are needed to start")
	ErrPlayersNotReady  = errors.New("all players must be ready")
	ErrDuplicateAnswer  = errors.New("answer already submitted for this round")
	ErrDeadlineExceeded = errors.New("round deadline has passed")
	ErrRoomNotFound     = errors.New("room not found")
	ErrNotInRoom        = errors.New("player is not in this room")

	// ErrNotHost is an ErrInvalidState: only the host may start a match.
	ErrNotHost = fmt.Errorf("%w: only the host can start the game", ErrInvalidState)
)
