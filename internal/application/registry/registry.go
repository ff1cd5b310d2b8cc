// Package registry владеет коллекцией вещей одного пользователя.
//
// Registry - единственная точка изменения коллекции: добавить, постирать,
// списать, удалить. После каждого успешного изменения снимок коллекции
// целиком сохраняется в garment.Store. Сохранение best effort: ошибка
// логируется и уходит в Notifier, изменение в памяти остаётся.
package registry

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/pkg/logger"
	"github.com/pantheon-hub/underliv/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// OPTIONS
// ══════════════════════════════════════════════════════════════════════════════

type options struct {
	notifier Notifier
	clock    timeutil.Clock
	log      *logger.Logger
	newID    func() string
}

// Option настраивает Registry.
type Option func(*options)

// WithNotifier задаёт получателя сообщений.
func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithClock задаёт источник времени.
func WithClock(c timeutil.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger задаёт логгер.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithIDGenerator задаёт генератор идентификаторов новых вещей.
func WithIDGenerator(f func() string) Option {
	return func(o *options) { o.newID = f }
}

func buildOptions(opts []Option) options {
	o := options{
		notifier: nopNotifier{},
		clock:    timeutil.SystemClock,
		log:      logger.NewNop(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

// WashResult - результат стирки.
type WashResult struct {
	// Garment - состояние вещи после стирки.
	Garment garment.Garment

	// Unlocked - все достижения, открытые этой стиркой, в порядке каталога.
	Unlocked []garment.Achievement

	// Highlight - первое из открытых достижений. Только оно показывается пользователю.
	Highlight *garment.Achievement
}

// Registry - коллекция вещей одного владельца.
// Порядок вещей - порядок добавления. Все методы безопасны для конкурентного вызова.
type Registry struct {
	mu    sync.Mutex
	owner garment.OwnerID
	store garment.Store
	items []garment.Garment
	opts  options
	log   *logger.Logger
}

// New создаёт пустой Registry. store может быть nil: тогда коллекция живёт только в памяти.
func New(owner garment.OwnerID, store garment.Store, opts ...Option) *Registry {
	o := buildOptions(opts)
	return &Registry{
		owner: owner,
		store: store,
		items: []garment.Garment{},
		opts:  o,
		log:   o.log.With(logger.Component("registry"), logger.OwnerID(owner.String())),
	}
}

// Owner возвращает владельца коллекции.
func (r *Registry) Owner() garment.OwnerID {
	return r.owner
}

// Load читает снимок владельца из хранилища и заменяет им коллекцию.
// При ошибке чтения или повреждённых данных коллекция становится пустой,
// ошибка логируется, отправляется в Notifier и возвращается.
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	items, err := r.store.Load(ctx, r.owner)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.items = []garment.Garment{}
		r.log.Error("failed to load garments, starting empty", logger.Err(err))
		r.opts.notifier.Notify(Notice{
			Kind:    NoticeError,
			Owner:   r.owner,
			Message: "Could not read your saved garments. Starting with an empty drawer.",
			Err:     err,
		})
		return err
	}

	r.items = items
	r.log.Debug("garments loaded", logger.Int("count", len(items)))
	return nil
}

// Add создаёт вещь из черновика и сохраняет коллекцию.
// Возвращает только ошибки валидации черновика.
func (r *Registry) Add(ctx context.Context, d garment.Draft) (garment.Garment, error) {
	d.OwnerID = r.owner
	g, err := garment.New(r.opts.newID(), d)
	if err != nil {
		return garment.Garment{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, g)
	r.log.Info("garment added", logger.GarmentID(g.ID), logger.String("material", string(g.Material)))
	r.persistLocked(ctx, "Add")
	return g.Clone(), nil
}

// Wash увеличивает счётчик стирок вещи id и открывает новые достижения.
// Для неизвестной или списанной вещи ничего не делает и возвращает false.
func (r *Registry) Wash(ctx context.Context, id string) (WashResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return WashResult{}, false
	}

	g := &r.items[i]
	unlocked, ok := g.Wash(r.opts.clock())
	if !ok {
		return WashResult{}, false
	}

	res := WashResult{Garment: g.Clone(), Unlocked: unlocked}
	r.log.Info("garment washed", logger.GarmentID(id), logger.WashCount(g.WashCount))
	r.persistLocked(ctx, "Wash")

	if len(unlocked) > 0 {
		first := unlocked[0]
		res.Highlight = &first
		r.announceLocked(g.ID, first)
	}
	return res, true
}

// Retire списывает вещь id. Неизвестная или уже списанная вещь - no-op (false),
// дата списания при этом не меняется.
func (r *Registry) Retire(ctx context.Context, id string) (garment.Garment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return garment.Garment{}, false
	}
	if !r.items[i].Retire(r.opts.clock()) {
		return garment.Garment{}, false
	}

	r.log.Info("garment retired", logger.GarmentID(id), logger.WashCount(r.items[i].WashCount))
	r.persistLocked(ctx, "Retire")
	return r.items[i].Clone(), true
}

// Delete удаляет вещь id. Неизвестная вещь - no-op (false).
func (r *Registry) Delete(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.removeLocked(id) {
		return false
	}
	r.log.Info("garment deleted", logger.GarmentID(id))
	r.persistLocked(ctx, "Delete")
	return true
}

// Garments возвращает копию коллекции в порядке добавления.
func (r *Registry) Garments() []garment.Garment {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]garment.Garment, len(r.items))
	for i, g := range r.items {
		out[i] = g.Clone()
	}
	return out
}

// Get возвращает копию вещи id.
func (r *Registry) Get(id string) (garment.Garment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return garment.Garment{}, false
	}
	return r.items[i].Clone(), true
}

// Len возвращает количество вещей.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Reconcile заменяет состояние локальной вещи авторитетной копией с сервера:
// стирки, достижения, статус списания и описательные поля берутся как есть,
// ничего не пересчитывается. Неизвестная вещь - false.
func (r *Registry) Reconcile(remote garment.Garment) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(remote.ID)
	if i < 0 {
		return false
	}

	owner := r.items[i].OwnerID
	r.items[i] = remote.Clone()
	if r.items[i].OwnerID == "" {
		r.items[i].OwnerID = owner
	}
	if r.items[i].Achievements == nil {
		r.items[i].Achievements = []garment.Achievement{}
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERNAL
// ══════════════════════════════════════════════════════════════════════════════

func (r *Registry) replace(items []garment.Garment) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = make([]garment.Garment, len(items))
	for i, g := range items {
		r.items[i] = g.Clone()
	}
}

func (r *Registry) insert(g garment.Garment) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexLocked(g.ID) >= 0 {
		return
	}
	r.items = append(r.items, g.Clone())
}

func (r *Registry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(id)
}

func (r *Registry) removeLocked(id string) bool {
	i := r.indexLocked(id)
	if i < 0 {
		return false
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	return true
}

func (r *Registry) indexLocked(id string) int {
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) announceLocked(garmentID string, a garment.Achievement) {
	r.log.Info("achievement unlocked", logger.GarmentID(garmentID), logger.AchievementID(a.ID))
	r.opts.notifier.Notify(Notice{
		Kind:        NoticeAchievement,
		Owner:       r.owner,
		GarmentID:   garmentID,
		Message:     a.Icon + " " + a.Name + ": " + a.Description,
		Achievement: &a,
	})
}

// persistLocked сохраняет снимок. Ошибка не откатывает изменение.
func (r *Registry) persistLocked(ctx context.Context, op string) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(ctx, r.owner, r.items); err != nil {
		r.log.Error("failed to save garments", logger.Operation(op), logger.Err(err))
		r.opts.notifier.Notify(Notice{
			Kind:    NoticeError,
			Owner:   r.owner,
			Message: "Your change was applied but could not be saved.",
			Err:     err,
		})
	}
}
