package registry

import (
	"sync"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
)

// NoticeKind классифицирует сообщения для пользователя.
type NoticeKind string

const (
	// NoticeAchievement - открыто новое достижение.
	NoticeAchievement NoticeKind = "achievement"
	// NoticeError - операция выполнена, но сохранить или прочитать данные не удалось.
	NoticeError NoticeKind = "error"
)

// Notice - сообщение, которое интерфейс показывает пользователю (тост, строка CLI, лог).
type Notice struct {
	Kind        NoticeKind
	Owner       garment.OwnerID
	GarmentID   string
	Message     string
	Achievement *garment.Achievement
	Err         error
}

// Notifier доставляет сообщения пользователю.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc адаптирует функцию к Notifier.
type NotifierFunc func(n Notice)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notice) { f(n) }

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}

// Recorder накапливает сообщения. Используется в тестах и в CLI.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify implements Notifier.
func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

// Notices возвращает копию накопленных сообщений.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Drain возвращает накопленные сообщения и очищает буфер.
func (r *Recorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	return out
}
