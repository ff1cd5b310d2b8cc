package main

import (
	"context"
	"strings"

	"github.com/pantheon-hub/underliv/internal/application/query"
	"github.com/pantheon-hub/underliv/internal/application/registry"
	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/internal/domain/leaderboard"
	"github.com/pantheon-hub/underliv/internal/domain/shared"
	"github.com/pantheon-hub/underliv/internal/infrastructure/external/pantheon"
	"github.com/pantheon-hub/underliv/internal/infrastructure/persistence"
)

// collection - то, с чем работают команды CLI: локальное хранилище или сервер.
type collection interface {
	List(ctx context.Context) ([]garment.Garment, error)
	Add(ctx context.Context, d garment.Draft) (garment.Garment, error)
	Wash(ctx context.Context, id string) (registry.WashResult, error)
	// Retire возвращает false, если вещь уже была списана.
	Retire(ctx context.Context, id string) (garment.Garment, bool, error)
	Delete(ctx context.Context, id string) error
	Leaderboard(ctx context.Context, limit int) (leaderboard.Board, error)
	Achievements(ctx context.Context) ([]garment.Milestone, error)
	Close() error
}

// resolveID находит вещь по полному ID или по однозначному префиксу.
func resolveID(items []garment.Garment, ref string) (garment.Garment, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return garment.Garment{}, shared.ErrGarmentNotFound
	}

	var (
		match garment.Garment
		found int
	)
	for _, g := range items {
		if g.ID == ref {
			return g, nil
		}
		if strings.HasPrefix(g.ID, ref) {
			match = g
			found++
		}
	}

	switch found {
	case 0:
		return garment.Garment{}, shared.ErrGarmentNotFound
	case 1:
		return match, nil
	default:
		return garment.Garment{}, shared.ErrAmbiguousGarmentID
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LOCAL
// ══════════════════════════════════════════════════════════════════════════════

// localCollection работает с хранилищем на этой машине.
type localCollection struct {
	reg   *registry.Registry
	store persistence.Store
	board *query.GetLeaderboardHandler
}

func (c *localCollection) List(context.Context) ([]garment.Garment, error) {
	return c.reg.Garments(), nil
}

func (c *localCollection) Add(ctx context.Context, d garment.Draft) (garment.Garment, error) {
	return c.reg.Add(ctx, d)
}

func (c *localCollection) Wash(ctx context.Context, ref string) (registry.WashResult, error) {
	g, err := resolveID(c.reg.Garments(), ref)
	if err != nil {
		return registry.WashResult{}, err
	}
	if g.Retired {
		return registry.WashResult{}, shared.ErrGarmentRetired
	}
	res, ok := c.reg.Wash(ctx, g.ID)
	if !ok {
		return registry.WashResult{}, shared.ErrGarmentNotFound
	}
	return res, nil
}

func (c *localCollection) Retire(ctx context.Context, ref string) (garment.Garment, bool, error) {
	g, err := resolveID(c.reg.Garments(), ref)
	if err != nil {
		return garment.Garment{}, false, err
	}
	if g.Retired {
		return g, false, nil
	}
	retired, ok := c.reg.Retire(ctx, g.ID)
	if !ok {
		return garment.Garment{}, false, shared.ErrGarmentNotFound
	}
	return retired, true, nil
}

func (c *localCollection) Delete(ctx context.Context, ref string) error {
	g, err := resolveID(c.reg.Garments(), ref)
	if err != nil {
		return err
	}
	if !c.reg.Delete(ctx, g.ID) {
		return shared.ErrGarmentNotFound
	}
	return nil
}

func (c *localCollection) Leaderboard(ctx context.Context, limit int) (leaderboard.Board, error) {
	res, err := c.board.Handle(ctx, query.GetLeaderboardQuery{Limit: limit})
	if err != nil {
		return leaderboard.Board{}, err
	}
	return res.Board, nil
}

func (c *localCollection) Achievements(context.Context) ([]garment.Milestone, error) {
	return garment.Catalog(), nil
}

func (c *localCollection) Close() error {
	return c.store.Close()
}

// ══════════════════════════════════════════════════════════════════════════════
// REMOTE
// ══════════════════════════════════════════════════════════════════════════════

// remoteCollection работает с сервером UnderLiv. Список вещей запрашивается
// один раз за команду, до первой операции.
type remoteCollection struct {
	remote    *registry.Remote
	client    *pantheon.Client
	refreshed bool
}

func (c *remoteCollection) sync(ctx context.Context) error {
	if c.refreshed {
		return nil
	}
	if err := c.remote.Refresh(ctx); err != nil {
		return err
	}
	c.refreshed = true
	return nil
}

func (c *remoteCollection) List(ctx context.Context) ([]garment.Garment, error) {
	if err := c.sync(ctx); err != nil {
		return nil, err
	}
	return c.remote.Garments(), nil
}

func (c *remoteCollection) Add(ctx context.Context, d garment.Draft) (garment.Garment, error) {
	return c.remote.Add(ctx, d)
}

func (c *remoteCollection) Wash(ctx context.Context, ref string) (registry.WashResult, error) {
	items, err := c.List(ctx)
	if err != nil {
		return registry.WashResult{}, err
	}
	g, err := resolveID(items, ref)
	if err != nil {
		return registry.WashResult{}, err
	}
	if g.Retired {
		return registry.WashResult{}, shared.ErrGarmentRetired
	}
	res, ok, err := c.remote.Wash(ctx, g.ID)
	if err != nil {
		return registry.WashResult{}, err
	}
	if !ok {
		return registry.WashResult{}, shared.ErrGarmentNotFound
	}
	return res, nil
}

func (c *remoteCollection) Retire(ctx context.Context, ref string) (garment.Garment, bool, error) {
	items, err := c.List(ctx)
	if err != nil {
		return garment.Garment{}, false, err
	}
	g, err := resolveID(items, ref)
	if err != nil {
		return garment.Garment{}, false, err
	}
	if g.Retired {
		return g, false, nil
	}
	retired, ok, err := c.remote.Retire(ctx, g.ID)
	if err != nil {
		return garment.Garment{}, false, err
	}
	if !ok {
		return garment.Garment{}, false, shared.ErrGarmentNotFound
	}
	return retired, true, nil
}

func (c *remoteCollection) Delete(ctx context.Context, ref string) error {
	items, err := c.List(ctx)
	if err != nil {
		return err
	}
	g, err := resolveID(items, ref)
	if err != nil {
		return err
	}
	ok, err := c.remote.Delete(ctx, g.ID)
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrGarmentNotFound
	}
	return nil
}

func (c *remoteCollection) Leaderboard(ctx context.Context, limit int) (leaderboard.Board, error) {
	return c.client.Leaderboard(ctx, limit)
}

func (c *remoteCollection) Achievements(ctx context.Context) ([]garment.Milestone, error) {
	return c.client.Achievements(ctx)
}

func (c *remoteCollection) Close() error {
	c.client.Close()
	return nil
}
