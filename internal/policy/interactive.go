package policy

import (
	"sync"

	"github.com/rocketscienceinc/reversi-backend/internal/entity"
)

// Interactive relays coordinates submitted by a human. It never validates them; the controller does.
type Interactive struct {
	mu      sync.Mutex
	pending *entity.Point
}

func NewInteractive() *Interactive {
	return &Interactive{}
}

// Submit replaces any coordinate not yet taken by the controller.
func (that *Interactive) Submit(move entity.Point) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.pending = &move
}

func (that *Interactive) Pending() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.pending != nil
}

func (that *Interactive) ProposeMove(_ entity.Board, _ entity.Color) (entity.Point, bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.pending == nil {
		return entity.Point{}, false, nil
	}

	move := *that.pending
	that.pending = nil

	return move, true, nil
}
