package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/internal/domain/shared"
	"github.com/pantheon-hub/underliv/pkg/timeutil"
)

// Directory лениво создаёт и кэширует Registry для каждого владельца.
// Используется HTTP-сервером, который обслуживает многих пользователей.
type Directory struct {
	mu       sync.Mutex
	store    garment.Store
	opts     []Option
	clock    timeutil.Clock
	regs     map[garment.OwnerID]*Registry
	lastUsed map[garment.OwnerID]time.Time
}

// NewDirectory создаёт Directory поверх общего хранилища.
func NewDirectory(store garment.Store, opts ...Option) *Directory {
	return &Directory{
		store:    store,
		opts:     opts,
		clock:    buildOptions(opts).clock,
		regs:     make(map[garment.OwnerID]*Registry),
		lastUsed: make(map[garment.OwnerID]time.Time),
	}
}

// For возвращает Registry владельца, при первом обращении загружая снимок.
// Повреждённый снимок не мешает работе: Registry начинает с пустой коллекции.
// Если хранилище недоступно, Registry не кэшируется и возвращается ошибка,
// иначе первая мутация перезаписала бы сохранённые данные.
func (d *Directory) For(ctx context.Context, owner garment.OwnerID) (*Registry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if reg, ok := d.regs[owner]; ok {
		d.lastUsed[owner] = d.clock()
		return reg, nil
	}

	reg := New(owner, d.store, d.opts...)
	if err := reg.Load(ctx); err != nil && !errors.Is(err, shared.ErrMalformedSnapshot) {
		return nil, asStoreUnavailable(err)
	}
	d.regs[owner] = reg
	d.lastUsed[owner] = d.clock()
	return reg, nil
}

// asStoreUnavailable гарантирует, что ошибка чтения классифицируется как сбой хранилища.
func asStoreUnavailable(err error) error {
	if shared.IsExternalService(err) {
		return err
	}
	return shared.WrapError("registry", "Load", shared.ErrStoreUnavailable, "could not read saved garments", err)
}

// Forget убирает Registry владельца из кэша. Следующий For перечитает снимок.
func (d *Directory) Forget(owner garment.OwnerID) {
	d.mu.Lock()
	delete(d.regs, owner)
	delete(d.lastUsed, owner)
	d.mu.Unlock()
}

// EvictIdle убирает из кэша коллекции, к которым не обращались дольше maxIdle,
// и возвращает их количество. Данные уже сохранены: каждая мутация пишет снимок.
func (d *Directory) EvictIdle(maxIdle time.Duration) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock()
	evicted := 0
	for owner, at := range d.lastUsed {
		if now.Sub(at) < maxIdle {
			continue
		}
		delete(d.regs, owner)
		delete(d.lastUsed, owner)
		evicted++
	}
	return evicted
}

// Len возвращает количество загруженных коллекций.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.regs)
}
