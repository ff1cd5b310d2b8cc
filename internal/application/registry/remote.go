package registry

import (
	"context"
	"sync"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/internal/domain/shared"
	"github.com/pantheon-hub/underliv/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REMOTE VARIANT
// Коллекция, у которой источник истины - сервер. Каждое изменение идёт через
// Gateway, ответ сервера сверяется с локальной копией (Reconcile).
// Достижения не пересчитываются локально: новые находятся сравнением
// ID до и после ответа сервера.
// ══════════════════════════════════════════════════════════════════════════════

// Gateway - REST-клиент бэкенда.
type Gateway interface {
	List(ctx context.Context, owner garment.OwnerID) ([]garment.Garment, error)
	Create(ctx context.Context, owner garment.OwnerID, d garment.Draft) (garment.Garment, error)
	Wash(ctx context.Context, owner garment.OwnerID, id string) (garment.Garment, error)
	Retire(ctx context.Context, owner garment.OwnerID, id string) (garment.Garment, error)
	Delete(ctx context.Context, owner garment.OwnerID, id string) error
}

// Remote - коллекция, синхронизированная с сервером.
type Remote struct {
	mu       sync.Mutex
	gateway  Gateway
	local    *Registry
	notifier Notifier
	log      *logger.Logger
}

// NewRemote создаёт Remote. Локальная копия хранится только в памяти.
func NewRemote(owner garment.OwnerID, gw Gateway, opts ...Option) *Remote {
	o := buildOptions(opts)
	return &Remote{
		gateway:  gw,
		local:    New(owner, nil, opts...),
		notifier: o.notifier,
		log:      o.log.With(logger.Component("remote_registry"), logger.OwnerID(owner.String())),
	}
}

// Refresh заменяет локальную копию списком с сервера.
func (r *Remote) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.gateway.List(ctx, r.local.owner)
	if err != nil {
		return r.fail("Refresh", "Could not load your garments from the server.", err)
	}
	r.local.replace(items)
	return nil
}

// Add создаёт вещь на сервере и добавляет ответ в локальную копию.
func (r *Remote) Add(ctx context.Context, d garment.Draft) (garment.Garment, error) {
	d.OwnerID = r.local.owner
	if err := d.Validate(); err != nil {
		return garment.Garment{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	g, err := r.gateway.Create(ctx, r.local.owner, d)
	if err != nil {
		return garment.Garment{}, r.fail("Add", "Could not add the garment.", err)
	}
	r.local.insert(g)
	return g, nil
}

// Wash стирает вещь на сервере. Неизвестная или списанная локально вещь -
// no-op без обращения к серверу.
func (r *Remote) Wash(ctx context.Context, id string) (WashResult, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before, ok := r.local.Get(id)
	if !ok || before.Retired {
		return WashResult{}, false, nil
	}

	after, err := r.gateway.Wash(ctx, r.local.owner, id)
	if err != nil {
		if shared.IsNotFound(err) {
			r.local.remove(id)
			return WashResult{}, false, nil
		}
		return WashResult{}, false, r.fail("Wash", "Could not record the wash.", err)
	}
	r.local.Reconcile(after)

	res := WashResult{Garment: after, Unlocked: NewlyUnlocked(before.Achievements, after.Achievements)}
	if len(res.Unlocked) > 0 {
		first := res.Unlocked[0]
		res.Highlight = &first
		r.local.mu.Lock()
		r.local.announceLocked(id, first)
		r.local.mu.Unlock()
	}
	return res, true, nil
}

// Retire списывает вещь на сервере.
func (r *Remote) Retire(ctx context.Context, id string) (garment.Garment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before, ok := r.local.Get(id)
	if !ok || before.Retired {
		return garment.Garment{}, false, nil
	}

	after, err := r.gateway.Retire(ctx, r.local.owner, id)
	if err != nil {
		if shared.IsNotFound(err) {
			r.local.remove(id)
			return garment.Garment{}, false, nil
		}
		return garment.Garment{}, false, r.fail("Retire", "Could not retire the garment.", err)
	}
	r.local.Reconcile(after)
	return after, true, nil
}

// Delete удаляет вещь на сервере и из локальной копии.
func (r *Remote) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.local.Get(id); !ok {
		return false, nil
	}

	if err := r.gateway.Delete(ctx, r.local.owner, id); err != nil && !shared.IsNotFound(err) {
		return false, r.fail("Delete", "Could not delete the garment.", err)
	}
	r.local.remove(id)
	return true, nil
}

// Garments возвращает копию локальной коллекции.
func (r *Remote) Garments() []garment.Garment {
	return r.local.Garments()
}

// Get возвращает копию вещи id.
func (r *Remote) Get(id string) (garment.Garment, bool) {
	return r.local.Get(id)
}

func (r *Remote) fail(op, message string, err error) error {
	r.log.Error("remote operation failed", logger.Operation(op), logger.Err(err))
	r.notifier.Notify(Notice{
		Kind:    NoticeError,
		Owner:   r.local.owner,
		Message: message,
		Err:     err,
	})
	return err
}

// NewlyUnlocked возвращает достижения из after, ID которых нет в before.
// Порядок - порядок after.
func NewlyUnlocked(before, after []garment.Achievement) []garment.Achievement {
	seen := make(map[string]struct{}, len(before))
	for _, a := range before {
		seen[a.ID] = struct{}{}
	}

	var out []garment.Achievement
	for _, a := range after {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		out = append(out, a)
	}
	return out
}
