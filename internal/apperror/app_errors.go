package apperror

import "errors"

// engine errors.
var (
	ErrOutOfRange       = errors.New("coordinate is out of range")
	ErrIllegalMove      = errors.New("illegal move")
	ErrNoLegalMove      = errors.New("no legal move available")
	ErrUnknownCellState = errors.New("unknown cell state")
	ErrInvalidColor     = errors.New("invalid color")
)

// session errors.
var (
	ErrGameFinished       = errors.New("game is already finished")
	ErrGameIsNotStarted   = errors.New("game is not started")
	ErrGameIsNotFinished  = errors.New("game is not finished")
	ErrGameAlreadyStarted = errors.New("game is already started")
	ErrNotYourTurn        = errors.New("it's not your turn")
	ErrGameNotFound       = errors.New("game not found")
)
