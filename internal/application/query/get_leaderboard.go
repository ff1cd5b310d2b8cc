// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/internal/domain/leaderboard"
	"github.com/pantheon-hub/underliv/internal/domain/shared"
	"github.com/pantheon-hub/underliv/pkg/logger"
	"github.com/pantheon-hub/underliv/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Собирает снимки всех пользователей и строит лидерборд зала славы.
// Ничего не кэширует: каждый запрос пересчитывает рейтинги заново.
// ══════════════════════════════════════════════════════════════════════════════

// MaxLeaderboardLimit - верхняя граница размера рейтинга.
const MaxLeaderboardLimit = 100

// GetLeaderboardQuery содержит параметры запроса лидерборда.
type GetLeaderboardQuery struct {
	// Limit - количество мест в каждом рейтинге (0 = значение по умолчанию).
	Limit int
}

// Validate проверяет корректность параметров запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > MaxLeaderboardLimit {
		q.Limit = MaxLeaderboardLimit
	}
	return nil
}

// GetLeaderboardResult содержит лидерборд и служебную информацию.
type GetLeaderboardResult struct {
	leaderboard.Board

	// Owners - сколько пользователей попало в выборку.
	Owners int `json:"owners"`

	// Skipped - владельцы, чьи снимки не удалось прочитать.
	Skipped []garment.OwnerID `json:"skipped,omitempty"`
}

// GetLeaderboardHandler обрабатывает запросы на получение лидерборда.
type GetLeaderboardHandler struct {
	owners       garment.OwnerLister
	store        garment.Store
	defaultLimit int
	clock        timeutil.Clock
	log          *logger.Logger
}

// NewGetLeaderboardHandler создаёт новый обработчик запроса лидерборда.
func NewGetLeaderboardHandler(
	store garment.SnapshotStore,
	defaultLimit int,
	clock timeutil.Clock,
	log *logger.Logger,
) *GetLeaderboardHandler {
	if defaultLimit <= 0 {
		defaultLimit = leaderboard.DefaultLimit
	}
	if clock == nil {
		clock = timeutil.SystemClock
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &GetLeaderboardHandler{
		owners:       store,
		store:        store,
		defaultLimit: defaultLimit,
		clock:        clock,
		log:          log.With(logger.Component("leaderboard")),
	}
}

// Handle выполняет запрос на получение лидерборда.
// Нечитаемый снимок одного владельца не ломает лидерборд: владелец пропускается.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrValidation, err.Error(), err)
	}
	limit := query.Limit
	if limit == 0 {
		limit = h.defaultLimit
	}

	owners, err := h.owners.Owners(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrServiceUnavailable, "failed to list owners", err)
	}

	var (
		all     []garment.Garment
		skipped []garment.OwnerID
	)
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items, err := h.store.Load(ctx, owner)
		if err != nil {
			h.log.Warn("skipping unreadable snapshot", logger.OwnerID(owner.String()), logger.Err(err))
			skipped = append(skipped, owner)
			continue
		}
		all = append(all, items...)
	}

	board := leaderboard.Aggregate(all, h.clock(), limit)
	h.log.Debug("leaderboard aggregated",
		logger.Int("owners", len(owners)),
		logger.Int("garments", board.Stats.TotalGarments),
	)

	return &GetLeaderboardResult{
		Board:   board,
		Owners:  len(owners) - len(skipped),
		Skipped: skipped,
	}, nil
}
