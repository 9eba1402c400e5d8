package reversi

import (
	"fmt"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/entity"
)

type Direction struct {
	DX int
	DZ int
}

// Directions lists the eight neighbours, row by row.
var Directions = [8]Direction{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// FlipsInDirection counts the opponent discs that a disc of color placed at (x, z) would
// bracket along (dx, dz). The count is zero unless the run ends on a disc of color.
func FlipsInDirection(board *entity.Board, color entity.Color, x, z, dx, dz int) int {
	if !isUnitStep(dx, dz) {
		return 0
	}

	own := color.Cell()
	opponent := color.Opponent().Cell()

	count := 0
	for step := 1; step < entity.Size; step++ {
		cx, cz := x+dx*step, z+dz*step
		if !entity.InBounds(cx, cz) {
			return 0
		}

		switch board.At(cx, cz) {
		case opponent:
			count++
		case own:
			return count
		default:
			return 0
		}
	}

	return 0
}

// TotalFlips is zero for occupied or off-board targets, otherwise the sum over all directions.
// A placement is legal exactly when this is positive.
func TotalFlips(board *entity.Board, color entity.Color, x, z int) int {
	counts, ok := flipCounts(board, color, x, z)
	if !ok {
		return 0
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	return total
}

func IsLegal(board *entity.Board, color entity.Color, x, z int) bool {
	return TotalFlips(board, color, x, z) > 0
}

// LegalMoves returns every legal placement for color, ordered by z then x.
func LegalMoves(board *entity.Board, color entity.Color) []entity.Point {
	var moves []entity.Point

	for z := 0; z < entity.Size; z++ {
		for x := 0; x < entity.Size; x++ {
			if IsLegal(board, color, x, z) {
				moves = append(moves, entity.Point{X: x, Z: z})
			}
		}
	}

	return moves
}

func HasLegalMove(board *entity.Board, color entity.Color) bool {
	for z := 0; z < entity.Size; z++ {
		for x := 0; x < entity.Size; x++ {
			if IsLegal(board, color, x, z) {
				return true
			}
		}
	}

	return false
}

// ApplyMove places a disc of color at (x, z) and flips the bracketed discs. The returned changes
// start with the placed cell, followed by the flipped cells nearest-first in Directions order.
func ApplyMove(board *entity.Board, color entity.Color, x, z int) ([]entity.Change, error) {
	if err := validateMove(board, color, x, z); err != nil {
		return nil, err
	}

	counts, _ := flipCounts(board, color, x, z)

	total := 0
	for _, count := range counts {
		total += count
	}

	if total == 0 {
		return nil, fmt.Errorf("%w: %s at (%d, %d) flips nothing", apperror.ErrIllegalMove, color, x, z)
	}

	changes := make([]entity.Change, 0, total+1)

	board.Cells[z][x] = color.Cell()
	changes = append(changes, entity.Change{Point: entity.Point{X: x, Z: z}, Color: color, Placed: true})

	for i, dir := range Directions {
		for step := 1; step <= counts[i]; step++ {
			cx, cz := x+dir.DX*step, z+dir.DZ*step
			board.Cells[cz][cx] = color.Cell()
			changes = append(changes, entity.Change{Point: entity.Point{X: cx, Z: cz}, Color: color})
		}
	}

	return changes, nil
}

// validateMove - checks the target before any flip is computed.
func validateMove(board *entity.Board, color entity.Color, x, z int) error {
	if color != entity.Black && color != entity.White {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidColor, color)
	}

	state, err := board.Get(x, z)
	if err != nil {
		return err
	}

	if state != entity.EmptyCell {
		return fmt.Errorf("%w: (%d, %d) is occupied", apperror.ErrIllegalMove, x, z)
	}

	return nil
}

func flipCounts(board *entity.Board, color entity.Color, x, z int) ([8]int, bool) {
	var counts [8]int

	if !entity.InBounds(x, z) || board.At(x, z) != entity.EmptyCell {
		return counts, false
	}

	for i, dir := range Directions {
		counts[i] = FlipsInDirection(board, color, x, z, dir.DX, dir.DZ)
	}

	return counts, true
}

func isUnitStep(dx, dz int) bool {
	if dx == 0 && dz == 0 {
		return false
	}
	return dx >= -1 && dx <= 1 && dz >= -1 && dz <= 1
}
