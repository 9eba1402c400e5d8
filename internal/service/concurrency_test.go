package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/reversi-backend/internal/analytics"
	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/entity"
	"github.com/rocketscienceinc/reversi-backend/internal/policy"
)

// memoryRepo keeps games as JSON like the redis repository and stalls every load.
type memoryRepo struct {
	mu        sync.Mutex
	games     map[string][]byte
	loadDelay time.Duration
}

func (that *memoryRepo) CreateOrUpdate(_ context.Context, game *entity.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()
	that.games[game.ID] = data

	return nil
}

func (that *memoryRepo) GetByID(_ context.Context, id string) (*entity.Game, error) {
	that.mu.Lock()
	data, ok := that.games[id]
	that.mu.Unlock()

	if !ok {
		return nil, apperror.ErrGameNotFound
	}

	time.Sleep(that.loadDelay)

	var game entity.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}

	return &game, nil
}

func (that *memoryRepo) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	delete(that.games, id)

	return nil
}

type countingPublisher struct {
	mu    sync.Mutex
	turns int
}

func (that *countingPublisher) Publish(_ context.Context, event, _ string, _ map[string]any) {
	if event != analytics.EventGameTurn {
		return
	}

	that.mu.Lock()
	that.turns++
	that.mu.Unlock()
}

func TestGameService_MakeTurn_Concurrent(t *testing.T) {
	ctx := context.Background()

	// Given: a stored black-turn game whose loads are slow enough for two requests to overlap
	repo := &memoryRepo{games: make(map[string][]byte), loadDelay: 20 * time.Millisecond}
	require.NoError(t, repo.CreateOrUpdate(ctx, startedGame(entity.Black)))

	publisher := &countingPublisher{}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	service := NewGameService(logger, repo, publisher, policy.NewSource(3))

	// When: two different human moves arrive at the same time
	moves := []entity.Point{{X: 2, Z: 4}, {X: 4, Z: 2}}
	errs := make([]error, len(moves))

	var wg sync.WaitGroup
	for i, move := range moves {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = service.MakeTurn(ctx, "g1", move)
		}()
	}
	wg.Wait()

	// Then: every accepted move is in storage, and a rejected one was judged on the updated board
	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		require.ErrorIs(t, err, apperror.ErrIllegalMove)
	}
	require.Positive(t, accepted)

	stored, err := repo.GetByID(ctx, "g1")
	require.NoError(t, err)

	assert.Equal(t, 2*accepted, stored.Moves)
	assert.Equal(t, stored.Moves, publisher.turns)
	assert.Equal(t, 4+stored.Moves, stored.Board.DiscCount())
	assert.Equal(t, entity.PhaseBlackTurn, stored.Phase)
}

func TestGameLocks(t *testing.T) {
	t.Run("Same id waits for the holder", func(t *testing.T) {
		locks := newGameLocks()
		unlock := locks.lock("g1")

		acquired := make(chan struct{})
		go func() {
			locks.lock("g1")()
			close(acquired)
		}()

		select {
		case <-acquired:
			t.Fatal("second holder got the lock early")
		case <-time.After(20 * time.Millisecond):
		}

		unlock()
		<-acquired

		assert.Empty(t, locks.locks)
	})

	t.Run("Different ids do not block", func(t *testing.T) {
		locks := newGameLocks()
		unlockA := locks.lock("a")
		unlockB := locks.lock("b")

		unlockB()
		unlockA()

		assert.Empty(t, locks.locks)
	})
}
