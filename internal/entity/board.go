package entity

import (
	"fmt"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
)

// Size is the side length of the board.
const Size = 8

type CellState string

const (
	EmptyCell CellState = ""
	BlackCell CellState = "B"
	WhiteCell CellState = "W"
)

func (that CellState) Valid() bool {
	switch that {
	case EmptyCell, BlackCell, WhiteCell:
		return true
	default:
		return false
	}
}

type Color string

const (
	Black Color = "B"
	White Color = "W"
)

func ParseColor(value string) (Color, error) {
	switch value {
	case "B", "b", "black":
		return Black, nil
	case "W", "w", "white":
		return White, nil
	default:
		return "", fmt.Errorf("%w: %q", apperror.ErrInvalidColor, value)
	}
}

// Opponent returns the other color.
func (that Color) Opponent() Color {
	if that == Black {
		return White
	}
	return Black
}

// Cell returns the cell state occupied by a disc of this color.
func (that Color) Cell() CellState {
	return CellState(that)
}

func (that Color) String() string {
	switch that {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "unknown"
	}
}

type Point struct {
	X int `json:"x"`
	Z int `json:"z"`
}

func InBounds(x, z int) bool {
	return x >= 0 && x < Size && z >= 0 && z < Size
}

type Score struct {
	Black int `json:"black"`
	White int `json:"white"`
}

// Board holds the cell grid, indexed as Cells[z][x].
type Board struct {
	Cells [Size][Size]CellState `json:"cells"`
}

// NewBoard returns a board with the starting layout.
func NewBoard() *Board {
	board := &Board{}
	board.Reset()

	return board
}

// Reset empties the grid and places the four starting discs.
func (that *Board) Reset() {
	that.Cells = [Size][Size]CellState{}

	that.Cells[3][3] = BlackCell
	that.Cells[4][4] = BlackCell
	that.Cells[4][3] = WhiteCell
	that.Cells[3][4] = WhiteCell
}

func (that *Board) Get(x, z int) (CellState, error) {
	if !InBounds(x, z) {
		return EmptyCell, fmt.Errorf("%w: (%d, %d)", apperror.ErrOutOfRange, x, z)
	}

	return that.Cells[z][x], nil
}

func (that *Board) Set(x, z int, state CellState) error {
	if !InBounds(x, z) {
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrOutOfRange, x, z)
	}

	if !state.Valid() {
		return fmt.Errorf("%w: %q", apperror.ErrUnknownCellState, state)
	}

	that.Cells[z][x] = state

	return nil
}

// At is the unchecked read used by the resolver after it has bounds-checked the walk.
func (that *Board) At(x, z int) CellState {
	return that.Cells[z][x]
}

func (that *Board) Score() Score {
	var score Score

	for z := 0; z < Size; z++ {
		for x := 0; x < Size; x++ {
			switch that.Cells[z][x] {
			case BlackCell:
				score.Black++
			case WhiteCell:
				score.White++
			}
		}
	}

	return score
}

// DiscCount is the number of occupied cells.
func (that *Board) DiscCount() int {
	score := that.Score()
	return score.Black + score.White
}
