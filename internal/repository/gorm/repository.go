package gormrepository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/repository"
)

type Store struct {
	db *gorm.DB
}

var _ repository.Repository = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// upsertByKey updates the row matching key, or creates item when none exists.
// A duplicate-key error on create means another writer inserted the row first;
// that row is then updated instead. idOf must return a pointer to the
// primary key of its argument.
func upsertByKey[T any](db *gorm.DB, item *T, key map[string]any, columns []string, idOf func(*T) *uint64) (bool, error) {
	var existing T
	err := db.Where(key).Take(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		createErr := db.Create(item).Error
		if createErr == nil {
			return true, nil
		}
		if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return false, createErr
		}
		*idOf(item) = 0
		if err := db.Where(key).Take(&existing).Error; err != nil {
			return false, err
		}
	case err != nil:
		return false, err
	}

	*idOf(item) = *idOf(&existing)
	if err := db.Model(item).Select(columns).Updates(item).Error; err != nil {
		return false, err
	}
	return false, nil
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, raw := range items {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}
