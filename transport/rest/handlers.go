package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/entity"
)

type gameService interface {
	NewGame(ctx context.Context, human entity.Color) (*entity.Game, error)
	GetGame(ctx context.Context, id string) (*entity.Game, error)
	DeleteGame(ctx context.Context, id string) error

	MakeTurn(ctx context.Context, id string, move entity.Point) (*entity.Game, error)
	Restart(ctx context.Context, id string) (*entity.Game, error)
	LegalMoves(ctx context.Context, id string) ([]entity.Point, error)
}

type newGameRequest struct {
	Color string `json:"color"`
}

type turnRequest struct {
	X *int `json:"x" binding:"required"`
	Z *int `json:"z" binding:"required"`
}

type movesResponse struct {
	Moves []entity.Point `json:"moves"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	logger *slog.Logger
	games  gameService
}

// NewRouter builds the REST API over games.
func NewRouter(logger *slog.Logger, games gameService) *gin.Engine {
	that := &handlers{
		logger: logger.With("component", "rest"),
		games:  games,
	}

	router := gin.New()
	router.Use(gin.Recovery(), that.requestLogger())

	router.GET("/ping", pingHandler)

	group := router.Group("/games")
	group.POST("", that.newGame)
	group.GET("/:id", that.getGame)
	group.DELETE("/:id", that.deleteGame)
	group.GET("/:id/legal-moves", that.legalMoves)
	group.POST("/:id/turns", that.makeTurn)
	group.POST("/:id/restart", that.restart)

	return router
}

func (that *handlers) newGame(ctx *gin.Context) {
	var req newGameRequest
	// an empty body asks for the default color
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	color := entity.Black
	if req.Color != "" {
		parsed, err := entity.ParseColor(req.Color)
		if err != nil {
			that.fail(ctx, err)
			return
		}
		color = parsed
	}

	game, err := that.games.NewGame(ctx.Request.Context(), color)
	if err != nil {
		that.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, game)
}

func (that *handlers) getGame(ctx *gin.Context) {
	game, err := that.games.GetGame(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		that.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, game)
}

func (that *handlers) deleteGame(ctx *gin.Context) {
	if err := that.games.DeleteGame(ctx.Request.Context(), ctx.Param("id")); err != nil {
		that.fail(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (that *handlers) legalMoves(ctx *gin.Context) {
	moves, err := that.games.LegalMoves(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		that.fail(ctx, err)
		return
	}

	if moves == nil {
		moves = []entity.Point{}
	}

	ctx.JSON(http.StatusOK, movesResponse{Moves: moves})
}

func (that *handlers) makeTurn(ctx *gin.Context) {
	var req turnRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	game, err := that.games.MakeTurn(ctx.Request.Context(), ctx.Param("id"), entity.Point{X: *req.X, Z: *req.Z})
	if err != nil {
		that.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, game)
}

func (that *handlers) restart(ctx *gin.Context) {
	game, err := that.games.Restart(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		that.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, game)
}

func (that *handlers) fail(ctx *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "path", ctx.FullPath(), "error", err)
		ctx.JSON(status, errorResponse{Error: "internal server error"})
		return
	}

	ctx.JSON(status, errorResponse{Error: err.Error()})
}

func (that *handlers) requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		that.logger.Info("request",
			"method", ctx.Request.Method,
			"path", ctx.FullPath(),
			"status", ctx.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrIllegalMove),
		errors.Is(err, apperror.ErrOutOfRange),
		errors.Is(err, apperror.ErrInvalidColor):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, apperror.ErrGameIsNotStarted),
		errors.Is(err, apperror.ErrGameIsNotFinished):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
