package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/entity"
)

type mockGameService struct {
	mock.Mock
}

func (that *mockGameService) NewGame(ctx context.Context, human entity.Color) (*entity.Game, error) {
	args := that.Called(ctx, human)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameService) GetGame(ctx context.Context, id string) (*entity.Game, error) {
	args := that.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameService) MakeTurn(ctx context.Context, id string, move entity.Point) (*entity.Game, error) {
	args := that.Called(ctx, id, move)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameService) Restart(ctx context.Context, id string) (*entity.Game, error) {
	args := that.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameService) LegalMoves(ctx context.Context, id string) ([]entity.Point, error) {
	args := that.Called(ctx, id)
	moves, _ := args.Get(0).([]entity.Point)
	return moves, args.Error(1)
}

func dial(t *testing.T, games gameService) *websocket.Conn {
	t.Helper()

	return dialContext(t, context.Background(), games)
}

func dialContext(t *testing.T, ctx context.Context, games gameService) *websocket.Conn {
	t.Helper()

	server := New(slog.New(slog.NewJSONHandler(io.Discard, nil)), games)
	httpServer := httptest.NewServer(server.Handler(ctx))
	t.Cleanup(httpServer.Close)

	url := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, action string, req Request) (Message, Payload) {
	t.Helper()

	body, err := json.Marshal(req)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{Action: action, Payload: body}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var reply Message
	require.NoError(t, conn.ReadJSON(&reply))

	var payload Payload
	require.NoError(t, json.Unmarshal(reply.Payload, &payload))

	return reply, payload
}

func startedGame() *entity.Game {
	game := entity.NewGame("g1", entity.Black)
	game.Board = *entity.NewBoard()
	game.Phase = entity.PhaseBlackTurn

	return game
}

func TestServer_NewGame(t *testing.T) {
	// Given: a service creating a black game
	games := &mockGameService{}
	games.On("NewGame", mock.Anything, entity.Black).Return(startedGame(), nil).Once()
	games.On("LegalMoves", mock.Anything, "g1").Return([]entity.Point{{X: 2, Z: 4}}, nil).Once()
	conn := dial(t, games)

	// When: the client asks for a new game
	reply, payload := roundTrip(t, conn, actionNewGame, Request{Color: "black"})

	// Then: the game and its legal moves come back under the same action
	assert.Equal(t, actionNewGame, reply.Action)
	require.NotNil(t, payload.Game)
	assert.Equal(t, "g1", payload.Game.ID)
	assert.Equal(t, []entity.Point{{X: 2, Z: 4}}, payload.LegalMoves)
	assert.Empty(t, payload.Error)
	games.AssertExpectations(t)
}

func TestServer_GameTurn(t *testing.T) {
	t.Run("Rejected move reports the reason", func(t *testing.T) {
		games := &mockGameService{}
		games.On("MakeTurn", mock.Anything, "g1", entity.Point{X: 0, Z: 0}).Return(nil, apperror.ErrIllegalMove).Once()
		conn := dial(t, games)

		_, payload := roundTrip(t, conn, actionTurn, Request{GameID: "g1", Cell: &entity.Point{X: 0, Z: 0}})

		assert.Nil(t, payload.Game)
		assert.Contains(t, payload.Error, apperror.ErrIllegalMove.Error())
	})

	t.Run("Cell is required", func(t *testing.T) {
		conn := dial(t, &mockGameService{})

		_, payload := roundTrip(t, conn, actionTurn, Request{GameID: "g1"})

		assert.Equal(t, "cell is required", payload.Error)
	})

	t.Run("Finished game carries no legal moves", func(t *testing.T) {
		finished := startedGame()
		finished.Phase = entity.PhaseTerminal
		games := &mockGameService{}
		games.On("MakeTurn", mock.Anything, "g1", entity.Point{X: 2, Z: 4}).Return(finished, nil).Once()
		conn := dial(t, games)

		_, payload := roundTrip(t, conn, actionTurn, Request{GameID: "g1", Cell: &entity.Point{X: 2, Z: 4}})

		require.NotNil(t, payload.Game)
		assert.Empty(t, payload.LegalMoves)
		games.AssertNotCalled(t, "LegalMoves", mock.Anything, mock.Anything)
	})
}

func TestServer_UnknownAction(t *testing.T) {
	conn := dial(t, &mockGameService{})

	reply, payload := roundTrip(t, conn, "game:join", Request{})

	assert.Equal(t, "game:join", reply.Action)
	assert.Equal(t, "unknown action", payload.Error)
}

func TestServer_GetGame(t *testing.T) {
	t.Run("Returns the stored game", func(t *testing.T) {
		games := &mockGameService{}
		games.On("GetGame", mock.Anything, "g1").Return(startedGame(), nil).Once()
		games.On("LegalMoves", mock.Anything, "g1").Return([]entity.Point{{X: 2, Z: 4}}, nil).Once()
		conn := dial(t, games)

		reply, payload := roundTrip(t, conn, actionGetGame, Request{GameID: "g1"})

		assert.Equal(t, actionGetGame, reply.Action)
		require.NotNil(t, payload.Game)
		assert.Equal(t, "g1", payload.Game.ID)
		assert.Equal(t, []entity.Point{{X: 2, Z: 4}}, payload.LegalMoves)
		games.AssertExpectations(t)
	})

	t.Run("Unknown game reports the reason", func(t *testing.T) {
		games := &mockGameService{}
		games.On("GetGame", mock.Anything, "nope").Return(nil, apperror.ErrGameNotFound).Once()
		conn := dial(t, games)

		_, payload := roundTrip(t, conn, actionGetGame, Request{GameID: "nope"})

		assert.Nil(t, payload.Game)
		assert.Contains(t, payload.Error, apperror.ErrGameNotFound.Error())
	})

	t.Run("Game id is required", func(t *testing.T) {
		conn := dial(t, &mockGameService{})

		_, payload := roundTrip(t, conn, actionGetGame, Request{})

		assert.Equal(t, "game_id is required", payload.Error)
	})
}

func TestServer_Restart(t *testing.T) {
	t.Run("Finished game starts over", func(t *testing.T) {
		games := &mockGameService{}
		games.On("Restart", mock.Anything, "g1").Return(startedGame(), nil).Once()
		games.On("LegalMoves", mock.Anything, "g1").Return([]entity.Point{{X: 2, Z: 4}}, nil).Once()
		conn := dial(t, games)

		reply, payload := roundTrip(t, conn, actionRestart, Request{GameID: "g1"})

		assert.Equal(t, actionRestart, reply.Action)
		require.NotNil(t, payload.Game)
		assert.Equal(t, entity.PhaseBlackTurn, payload.Game.Phase)
		games.AssertExpectations(t)
	})

	t.Run("Ongoing game reports the reason", func(t *testing.T) {
		games := &mockGameService{}
		games.On("Restart", mock.Anything, "g1").Return(nil, apperror.ErrGameIsNotFinished).Once()
		conn := dial(t, games)

		_, payload := roundTrip(t, conn, actionRestart, Request{GameID: "g1"})

		assert.Contains(t, payload.Error, apperror.ErrGameIsNotFinished.Error())
	})

	t.Run("Game id is required", func(t *testing.T) {
		conn := dial(t, &mockGameService{})

		_, payload := roundTrip(t, conn, actionRestart, Request{})

		assert.Equal(t, "game_id is required", payload.Error)
	})
}

func TestServer_GameTurn_GameIDRequired(t *testing.T) {
	conn := dial(t, &mockGameService{})

	_, payload := roundTrip(t, conn, actionTurn, Request{Cell: &entity.Point{X: 2, Z: 4}})

	assert.Equal(t, "game_id is required", payload.Error)
}

func TestServer_MalformedMessages(t *testing.T) {
	// Given: an open connection
	games := &mockGameService{}
	games.On("GetGame", mock.Anything, "g1").Return(startedGame(), nil).Once()
	games.On("LegalMoves", mock.Anything, "g1").Return([]entity.Point{}, nil).Once()
	conn := dial(t, games)

	for _, raw := range []string{`{"action":5}`, `{"action":}`, `{"action":"game:get","payload":"x"}`} {
		// When: a frame does not fit the message shape
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

		var reply Message
		require.NoError(t, conn.ReadJSON(&reply), raw)

		var payload Payload
		require.NoError(t, json.Unmarshal(reply.Payload, &payload))

		// Then: an error comes back
		assert.NotEmpty(t, payload.Error, raw)
	}

	// Then: the connection still serves requests
	_, payload := roundTrip(t, conn, actionGetGame, Request{GameID: "g1"})
	require.NotNil(t, payload.Game)
}

func TestServer_ShutdownClosesConnections(t *testing.T) {
	// Given: a connected client
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conn := dialContext(t, ctx, &mockGameService{})

	_, payload := roundTrip(t, conn, "game:join", Request{})
	require.Equal(t, "unknown action", payload.Error)

	// When: the server context is cancelled
	cancel()

	// Then: the client sees the connection drop instead of waiting on its deadline
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout())
	}
}
