package garment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pantheon-hub/underliv/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE INTERFACES
// Хранилище работает со снимком коллекции владельца целиком:
// чтение всего массива при загрузке, перезапись всего массива после изменения.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Store - хранилище снимков коллекций, ключ - владелец.
type Store interface {
	// Load возвращает снимок владельца. Отсутствие данных - пустой список без ошибки.
	// Повреждённые данные - ошибка, совместимая с shared.ErrMalformedSnapshot.
	Load(ctx context.Context, owner OwnerID) ([]Garment, error)

	// Save перезаписывает снимок владельца целиком.
	Save(ctx context.Context, owner OwnerID, garments []Garment) error
}

// OwnerLister перечисляет владельцев, у которых есть снимок.
// Нужен для лидерборда по всем пользователям.
type OwnerLister interface {
	Owners(ctx context.Context) ([]OwnerID, error)
}

// SnapshotStore объединяет оба контракта.
type SnapshotStore interface {
	Store
	OwnerLister
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT ENCODING
// ══════════════════════════════════════════════════════════════════════════════

// EncodeSnapshot сериализует коллекцию в JSON-массив.
func EncodeSnapshot(garments []Garment) ([]byte, error) {
	if garments == nil {
		garments = []Garment{}
	}
	data, err := json.Marshal(garments)
	if err != nil {
		return nil, fmt.Errorf("garment: encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot разбирает JSON-массив. Пустые данные - пустая коллекция.
func DecodeSnapshot(data []byte) ([]Garment, error) {
	if len(data) == 0 {
		return []Garment{}, nil
	}

	var garments []Garment
	if err := json.Unmarshal(data, &garments); err != nil {
		return nil, shared.WrapError("store", "Decode", shared.ErrMalformedSnapshot, "stored garment snapshot is malformed", err)
	}

	seen := make(map[string]struct{}, len(garments))
	for i := range garments {
		g := &garments[i]
		if g.ID == "" {
			return nil, shared.WrapError("store", "Decode", shared.ErrMalformedSnapshot,
				fmt.Sprintf("garment at index %d has no id", i), nil)
		}
		if _, dup := seen[g.ID]; dup {
			return nil, shared.WrapError("store", "Decode", shared.ErrMalformedSnapshot,
				fmt.Sprintf("duplicate garment id %q at index %d", g.ID, i), nil)
		}
		seen[g.ID] = struct{}{}
		if g.Achievements == nil {
			g.Achievements = []Achievement{}
		}
	}
	return garments, nil
}
