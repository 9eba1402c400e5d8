package entity

import "time"

type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseBlackTurn     Phase = "black_turn"
	PhaseWhiteTurn     Phase = "white_turn"
	PhaseTerminal      Phase = "terminal"
)

// TurnOf returns the phase in which color moves.
func TurnOf(color Color) Phase {
	if color == White {
		return PhaseWhiteTurn
	}
	return PhaseBlackTurn
}

// Color returns the color on turn, false outside the two turn phases.
func (that Phase) Color() (Color, bool) {
	switch that {
	case PhaseBlackTurn:
		return Black, true
	case PhaseWhiteTurn:
		return White, true
	default:
		return "", false
	}
}

type Result string

const (
	ResultNone     Result = ""
	ResultBlackWin Result = "black_win"
	ResultWhiteWin Result = "white_win"
	ResultDraw     Result = "draw"
)

func ResultOf(score Score) Result {
	switch {
	case score.Black > score.White:
		return ResultBlackWin
	case score.Black < score.White:
		return ResultWhiteWin
	default:
		return ResultDraw
	}
}

// Change is a cell that changed state during a turn.
type Change struct {
	Point
	Color  Color `json:"color"`
	Placed bool  `json:"placed,omitempty"`
}

// Turn is what the presentation layer gets for every accepted move.
type Turn struct {
	Color   Color    `json:"color"`
	Placed  Point    `json:"placed"`
	Changes []Change `json:"changes"`
	// Passed is set when the opponent had no legal reply and the mover keeps the turn.
	Passed bool  `json:"passed,omitempty"`
	Phase  Phase `json:"phase"`
	Score  Score `json:"score"`
}

// Flipped returns the number of discs turned over.
func (that *Turn) Flipped() int {
	flipped := 0
	for _, change := range that.Changes {
		if !change.Placed {
			flipped++
		}
	}
	return flipped
}

type Game struct {
	ID      string    `json:"id"`
	Board   Board     `json:"board"`
	Phase   Phase     `json:"phase"`
	Result  Result    `json:"result,omitempty"`
	Score   Score     `json:"score"`
	Players []*Player `json:"players"`
	Moves   int       `json:"moves"`

	// Turns applied by the last request, oldest first.
	Turns []*Turn `json:"turns,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewGame(id string, human Color) *Game {
	now := time.Now().UTC()

	return &Game{
		ID:    id,
		Board: Board{},
		Phase: PhaseUninitialized,
		Players: []*Player{
			{Color: human, Type: PlayerHuman},
			{Color: human.Opponent(), Type: PlayerBot},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (that *Game) IsFinished() bool {
	return that.Phase == PhaseTerminal
}

func (that *Game) IsOngoing() bool {
	return that.Phase == PhaseBlackTurn || that.Phase == PhaseWhiteTurn
}

func (that *Game) IsWaiting() bool {
	return that.Phase == PhaseUninitialized
}

// PlayerFor returns the player owning color, nil if nobody does.
func (that *Game) PlayerFor(color Color) *Player {
	for _, player := range that.Players {
		if player.Color == color {
			return player
		}
	}
	return nil
}

// HumanColor returns the color played through the interactive policy.
func (that *Game) HumanColor() Color {
	for _, player := range that.Players {
		if !player.IsBot() {
			return player.Color
		}
	}
	return ""
}
