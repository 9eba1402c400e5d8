package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/reversi-backend/internal/analytics"
	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/entity"
	"github.com/rocketscienceinc/reversi-backend/internal/policy"
)

type GameService interface {
	NewGame(ctx context.Context, human entity.Color) (*entity.Game, error)
	GetGame(ctx context.Context, id string) (*entity.Game, error)
	DeleteGame(ctx context.Context, id string) error

	MakeTurn(ctx context.Context, id string, move entity.Point) (*entity.Game, error)
	Restart(ctx context.Context, id string) (*entity.Game, error)
	LegalMoves(ctx context.Context, id string) ([]entity.Point, error)
}

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, event, gameID string, payload map[string]any)
}

type gameService struct {
	logger    *slog.Logger
	gameRepo  gameRepo
	publisher eventPublisher
	botRand   policy.Intn
	locks     *gameLocks
}

func NewGameService(logger *slog.Logger, gameRepo gameRepo, publisher eventPublisher, botRand policy.Intn) GameService {
	return &gameService{
		logger:    logger.With("component", "game_service"),
		gameRepo:  gameRepo,
		publisher: publisher,
		botRand:   botRand,
		locks:     newGameLocks(),
	}
}

func (that *gameService) NewGame(ctx context.Context, human entity.Color) (*entity.Game, error) {
	if human != entity.Black && human != entity.White {
		return nil, fmt.Errorf("%w: %q", apperror.ErrInvalidColor, human)
	}

	game := entity.NewGame(uuid.NewString(), human)
	log := that.logger.With("method", "NewGame", "gameID", game.ID)

	sess := that.open(game)
	if err := sess.controller.StartGame(); err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}

	turns, err := sess.playBot()
	if err != nil {
		return nil, err
	}

	sess.sync(turns)

	if err = that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	that.publisher.Publish(ctx, analytics.EventGameStarted, game.ID, map[string]any{"human": human})
	that.publishTurns(ctx, game, turns)

	log.Info("game created", "human", human.String())

	return game, nil
}

func (that *gameService) GetGame(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve game from storage: %w", err)
	}

	return game, nil
}

func (that *gameService) DeleteGame(ctx context.Context, id string) error {
	defer that.locks.lock(id)()

	if err := that.gameRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	return nil
}

// MakeTurn applies the human's placement, then lets the bot play until the human is on turn again
// or the game ends. Calls for the same game run one at a time, so each move is checked against the
// board the previous one saved.
func (that *gameService) MakeTurn(ctx context.Context, id string, move entity.Point) (*entity.Game, error) {
	log := that.logger.With("method", "MakeTurn", "gameID", id)

	defer that.locks.lock(id)()

	game, err := that.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case game.IsWaiting():
		return game, apperror.ErrGameIsNotStarted
	case game.IsFinished():
		return game, apperror.ErrGameFinished
	}

	color, _ := game.Phase.Color()
	if player := game.PlayerFor(color); player == nil || player.IsBot() {
		return game, apperror.ErrNotYourTurn
	}

	sess := that.open(game)
	sess.human.Submit(move)

	turn, err := sess.controller.Evaluate()
	if err != nil {
		return nil, fmt.Errorf("failed to make turn: %w", err)
	}

	// a stored human turn without moves settles to the bot and leaves the submission untouched
	if sess.human.Pending() {
		return game, apperror.ErrNotYourTurn
	}

	var turns []*entity.Turn
	if turn != nil {
		turns = append(turns, turn)
	}

	botTurns, err := sess.playBot()
	if err != nil {
		return nil, err
	}

	turns = append(turns, botTurns...)
	sess.sync(turns)

	if err = that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	that.publishTurns(ctx, game, turns)

	log.Info("turn applied", "turns", len(turns), "phase", game.Phase)

	return game, nil
}

func (that *gameService) Restart(ctx context.Context, id string) (*entity.Game, error) {
	defer that.locks.lock(id)()

	game, err := that.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}

	sess := that.open(game)
	if err = sess.controller.Restart(); err != nil {
		return game, fmt.Errorf("failed to restart game: %w", err)
	}

	turns, err := sess.playBot()
	if err != nil {
		return nil, err
	}

	game.Moves = 0
	sess.sync(turns)

	if err = that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	that.publisher.Publish(ctx, analytics.EventGameStarted, game.ID, map[string]any{"human": game.HumanColor(), "restart": true})
	that.publishTurns(ctx, game, turns)

	that.logger.Info("game restarted", "method", "Restart", "gameID", id)

	return game, nil
}

func (that *gameService) LegalMoves(ctx context.Context, id string) ([]entity.Point, error) {
	game, err := that.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}

	return that.open(game).controller.LegalMoves(), nil
}

func (that *gameService) publishTurns(ctx context.Context, game *entity.Game, turns []*entity.Turn) {
	for _, turn := range turns {
		that.publisher.Publish(ctx, analytics.EventGameTurn, game.ID, map[string]any{
			"color":   turn.Color,
			"x":       turn.Placed.X,
			"z":       turn.Placed.Z,
			"flipped": turn.Flipped(),
			"passed":  turn.Passed,
			"phase":   turn.Phase,
			"score":   turn.Score,
		})
	}

	if game.IsFinished() && len(turns) > 0 {
		that.publisher.Publish(ctx, analytics.EventGameFinished, game.ID, map[string]any{
			"result": game.Result,
			"score":  game.Score,
			"moves":  game.Moves,
		})
	}
}

func (that *gameService) open(game *entity.Game) *session {
	return openSession(game, policy.NewGreedyRandom(that.botRand))
}

func touch(game *entity.Game) {
	game.UpdatedAt = time.Now().UTC()
}
