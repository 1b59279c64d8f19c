// Package dedup makes add and remove side-table writes idempotent under duplicate and
// concurrent webhook delivery.
//
// Writers check for an existing row under the pull request lock and insert with
// ON CONFLICT DO NOTHING. The unique index is the backstop: a conflicting insert that
// still surfaces as a unique violation is reported as "not inserted", never as an error.
// Callers append history rows only when InsertOnce or DeleteOnce report true.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const codeUniqueViolation = "23505"

// Key is the natural key of a row: column name to value.
type Key map[string]interface{}

func (k Key) columns() []clause.Column {
	names := lo.Keys(k)
	sort.Strings(names)
	return lo.Map(names, func(name string, _ int) clause.Column {
		return clause.Column{Name: name}
	})
}

// Exists reports whether a row of model's table matches key.
func Exists(ctx context.Context, tx *gorm.DB, model interface{}, key Key) (bool, error) {
	var count int64
	if err := tx.WithContext(ctx).Model(model).Where(map[string]interface{}(key)).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check existing row: %w", err)
	}
	return count > 0, nil
}

// InsertOnce inserts row unless a row with the same key already exists.
// It reports whether this call inserted the row.
func InsertOnce(ctx context.Context, tx *gorm.DB, row interface{}, key Key) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("dedup key must not be empty")
	}

	exists, err := Exists(ctx, tx, row, key)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	var inserted bool
	// The savepoint keeps a PostgreSQL transaction usable if the backstop fires.
	err = tx.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
		result := sp.Clauses(clause.OnConflict{Columns: key.columns(), DoNothing: true}).Create(row)
		if result.Error != nil {
			return result.Error
		}
		inserted = result.RowsAffected == 1
		return nil
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert row: %w", err)
	}
	return inserted, nil
}

// DeleteOnce deletes the row matching key and reports whether exactly one row was removed.
func DeleteOnce(ctx context.Context, tx *gorm.DB, model interface{}, key Key) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("dedup key must not be empty")
	}

	result := tx.WithContext(ctx).Where(map[string]interface{}(key)).Delete(model)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete row: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// IsUniqueViolation reports whether err comes from a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
