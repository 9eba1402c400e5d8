package policy

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/rand"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/entity"
	"github.com/rocketscienceinc/reversi-backend/internal/reversi"
)

type Intn interface {
	Intn(n int) int
}

// GreedyRandom plays the placement that flips the most discs right now, breaking ties at random.
type GreedyRandom struct {
	rng Intn
}

func NewGreedyRandom(rng Intn) *GreedyRandom {
	return &GreedyRandom{rng: rng}
}

func (that *GreedyRandom) ProposeMove(board entity.Board, color entity.Color) (entity.Point, bool, error) {
	moves := reversi.LegalMoves(&board, color)
	if len(moves) == 0 {
		return entity.Point{}, false, fmt.Errorf("%w: %s", apperror.ErrNoLegalMove, color)
	}

	best := BestMoves(&board, color, moves)
	if len(best) == 1 {
		return best[0], true, nil
	}

	return best[that.rng.Intn(len(best))], true, nil
}

// BestMoves keeps the moves attaining the maximal flip count, in input order.
func BestMoves(board *entity.Board, color entity.Color, moves []entity.Point) []entity.Point {
	var (
		best    []entity.Point
		maxFlip int
	)

	for _, move := range moves {
		flips := reversi.TotalFlips(board, color, move.X, move.Z)

		switch {
		case flips > maxFlip:
			maxFlip = flips
			best = append(best[:0], move)
		case flips == maxFlip && flips > 0:
			best = append(best, move)
		}
	}

	return best
}

// Source is a goroutine-safe random source shared by the bots of concurrent requests.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource seeds from the clock when seed is zero.
func NewSource(seed uint64) *Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &Source{rng: rand.New(rand.NewSource(seed))}
}

func (that *Source) Intn(n int) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.rng.Intn(n)
}
