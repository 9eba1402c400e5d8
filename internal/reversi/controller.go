package reversi

import (
	"fmt"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/entity"
)

// Policy proposes a placement for color. ok is false while the source has nothing to offer yet,
// e.g. a human who has not clicked. The board is a snapshot; policies never mutate the game.
type Policy interface {
	ProposeMove(board entity.Board, color entity.Color) (move entity.Point, ok bool, err error)
}

type Option func(*Controller)

// WithBusy installs the presentation readiness probe. Evaluate does nothing while it reports true.
func WithBusy(busy func() bool) Option {
	return func(that *Controller) {
		that.busy = busy
	}
}

// Controller is the turn state machine. It is the only writer of its board.
type Controller struct {
	board    entity.Board
	phase    entity.Phase
	result   entity.Result
	score    entity.Score
	policies map[entity.Color]Policy
	busy     func() bool
	lastTurn *entity.Turn
}

func NewController(black, white Policy, opts ...Option) *Controller {
	that := &Controller{
		phase: entity.PhaseUninitialized,
		policies: map[entity.Color]Policy{
			entity.Black: black,
			entity.White: white,
		},
	}

	for _, opt := range opts {
		opt(that)
	}

	return that
}

// Restore rebuilds a controller from a persisted board and phase.
func Restore(board entity.Board, phase entity.Phase, black, white Policy, opts ...Option) *Controller {
	that := NewController(black, white, opts...)
	that.board = board
	that.phase = phase
	that.score = board.Score()

	if phase == entity.PhaseTerminal {
		that.result = entity.ResultOf(that.score)
	}

	return that
}

// StartGame resets the board and hands the first turn to black.
func (that *Controller) StartGame() error {
	if that.phase != entity.PhaseUninitialized {
		return fmt.Errorf("%w: phase %s", apperror.ErrGameAlreadyStarted, that.phase)
	}

	that.initialize()

	return nil
}

// Restart leaves the terminal phase with a fresh board.
func (that *Controller) Restart() error {
	if that.phase != entity.PhaseTerminal {
		return fmt.Errorf("%w: phase %s", apperror.ErrGameIsNotFinished, that.phase)
	}

	that.initialize()

	return nil
}

// Evaluate runs one tick. It returns the applied turn, or nil when nothing happened this tick.
// A proposal failing validation leaves the state untouched and returns the validation error.
func (that *Controller) Evaluate() (*entity.Turn, error) {
	color, ok := that.phase.Color()
	if !ok {
		return nil, nil
	}

	if that.busy != nil && that.busy() {
		return nil, nil
	}

	// a restored state may hand the turn to a color that cannot move
	if !HasLegalMove(&that.board, color) {
		that.settle(color)

		if color, ok = that.phase.Color(); !ok {
			return nil, nil
		}
	}

	policy := that.policies[color]
	if policy == nil {
		return nil, nil
	}

	move, ok, err := policy.ProposeMove(that.board, color)
	if err != nil {
		return nil, fmt.Errorf("%s policy failed: %w", color, err)
	}

	if !ok {
		return nil, nil
	}

	changes, err := ApplyMove(&that.board, color, move.X, move.Z)
	if err != nil {
		return nil, fmt.Errorf("rejected %s move: %w", color, err)
	}

	that.score = that.board.Score()
	passed := that.advance(color)

	that.lastTurn = &entity.Turn{
		Color:   color,
		Placed:  move,
		Changes: changes,
		Passed:  passed,
		Phase:   that.phase,
		Score:   that.score,
	}

	return that.lastTurn, nil
}

func (that *Controller) Phase() entity.Phase {
	return that.phase
}

func (that *Controller) Result() entity.Result {
	return that.result
}

func (that *Controller) Score() entity.Score {
	return that.score
}

// Board returns a copy of the current board.
func (that *Controller) Board() entity.Board {
	return that.board
}

// LegalMoves returns the placements open to the color on turn.
func (that *Controller) LegalMoves() []entity.Point {
	color, ok := that.phase.Color()
	if !ok {
		return nil
	}

	return LegalMoves(&that.board, color)
}

func (that *Controller) LastTurn() *entity.Turn {
	return that.lastTurn
}

func (that *Controller) initialize() {
	that.board.Reset()
	that.score = that.board.Score()
	that.result = entity.ResultNone
	that.lastTurn = nil
	that.phase = entity.PhaseBlackTurn
}

// advance picks the next phase after mover placed a disc. It reports whether the opponent was
// skipped.
func (that *Controller) advance(mover entity.Color) bool {
	if HasLegalMove(&that.board, mover.Opponent()) {
		that.phase = entity.TurnOf(mover.Opponent())
		return false
	}

	if HasLegalMove(&that.board, mover) {
		that.phase = entity.TurnOf(mover)
		return true
	}

	that.finish()

	return false
}

// settle moves the turn away from a color that has no legal placement.
func (that *Controller) settle(stuck entity.Color) {
	if HasLegalMove(&that.board, stuck.Opponent()) {
		that.phase = entity.TurnOf(stuck.Opponent())
		return
	}

	that.finish()
}

func (that *Controller) finish() {
	that.phase = entity.PhaseTerminal
	that.score = that.board.Score()
	that.result = entity.ResultOf(that.score)
}
