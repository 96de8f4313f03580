package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"promptstack/internal/models"
)

// tableModels maps table names to their row structs so write operations can
// go through gorm conventions. Column and table names only ever come from
// code in this module, never from request input.
var tableModels = map[string]func() any{
	"profiles":       func() any { return &models.Profile{} },
	"prompts":        func() any { return &models.Prompt{} },
	"tags":           func() any { return &models.Tag{} },
	"prompt_tags":    func() any { return &models.PromptTag{} },
	"votes":          func() any { return &models.Vote{} },
	"comments":       func() any { return &models.Comment{} },
	"user_favorites": func() any { return &models.UserFavorite{} },
}

// DB is the gorm-backed Client.
type DB struct {
	gorm *gorm.DB
}

// Open connects to Postgres and migrates the schema.
func Open(dsn string) (*DB, error) {
	g, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := g.AutoMigrate(
		&models.Profile{},
		&models.Prompt{},
		&models.Tag{},
		&models.PromptTag{},
		&models.Vote{},
		&models.Comment{},
		&models.UserFavorite{},
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &DB{gorm: g}, nil
}

func (d *DB) apply(ctx context.Context, q Query) *gorm.DB {
	tx := d.gorm.WithContext(ctx).Table(q.Table)

	if len(q.Columns) > 0 {
		tx = tx.Select(q.Columns)
	}

	tx = applyFilters(tx, q.Filters)

	if q.Pattern != nil && q.Pattern.Term != "" {
		conds := make([]string, len(q.Pattern.Columns))
		args := make([]any, len(q.Pattern.Columns))
		pattern := "%" + EscapePattern(q.Pattern.Term) + "%"
		for i, col := range q.Pattern.Columns {
			conds[i] = col + " ILIKE ?"
			args[i] = pattern
		}
		tx = tx.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	for _, o := range q.Orders {
		if o.Desc {
			tx = tx.Order(o.Column + " DESC")
		} else {
			tx = tx.Order(o.Column + " ASC")
		}
	}

	if q.Range != nil {
		tx = tx.Offset(q.Range.From).Limit(q.Range.To - q.Range.From + 1)
	} else if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	return tx
}

func applyFilters(tx *gorm.DB, filters []Filter) *gorm.DB {
	for _, f := range filters {
		switch f.Op {
		case OpIn:
			tx = tx.Where(f.Column+" IN ?", f.Value)
		default:
			tx = tx.Where(f.Column+" = ?", f.Value)
		}
	}
	return tx
}

func (d *DB) Select(ctx context.Context, q Query, dest any) error {
	return d.apply(ctx, q).Find(dest).Error
}

func (d *DB) Count(ctx context.Context, q Query) (int64, error) {
	var n int64
	tx := applyFilters(d.gorm.WithContext(ctx).Table(q.Table), q.Filters)
	err := tx.Count(&n).Error
	return n, err
}

func (d *DB) Insert(ctx context.Context, table string, row any) error {
	return d.gorm.WithContext(ctx).Table(table).Create(row).Error
}

func (d *DB) Update(ctx context.Context, table string, filters []Filter, values map[string]any) (int64, error) {
	tx := applyFilters(d.gorm.WithContext(ctx).Table(table), filters).Updates(values)
	return tx.RowsAffected, tx.Error
}

func (d *DB) Delete(ctx context.Context, table string, filters []Filter) (int64, error) {
	model, ok := tableModels[table]
	if !ok {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	tx := applyFilters(d.gorm.WithContext(ctx), filters).Delete(model())
	return tx.RowsAffected, tx.Error
}

// CategoryStats groups and counts prompts by category in the database.
// Equal counts order alphabetically by category.
func (d *DB) CategoryStats(ctx context.Context) ([]models.CategoryCount, error) {
	var out []models.CategoryCount
	err := d.gorm.WithContext(ctx).
		Model(&models.Prompt{}).
		Select("category AS name, COUNT(*) AS count").
		Group("category").
		Order("count DESC, category ASC").
		Scan(&out).Error
	return out, err
}

// ToggleVote runs the vote state machine in one transaction. The row lock
// plus the unique (user_id, prompt_id) index keep concurrent casts from the
// same user from double-inserting.
func (d *DB) ToggleVote(ctx context.Context, userID, promptID string, value int) (*int, error) {
	var newVote *int
	err := d.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Vote
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND prompt_id = ?", userID, promptID).
			First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{UserID: userID, PromptID: promptID, VoteType: value}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			newVote = &value
			return bumpVoteCount(tx, promptID, value)

		case err != nil:
			return err

		case existing.VoteType == value:
			// Same value cast twice removes the vote.
			if err := tx.Delete(&models.Vote{}, "id = ?", existing.ID).Error; err != nil {
				return err
			}
			return bumpVoteCount(tx, promptID, -value)

		default:
			// Opposite value flips the vote, moving the aggregate by 2.
			if err := tx.Model(&models.Vote{}).Where("id = ?", existing.ID).
				Update("vote_type", value).Error; err != nil {
				return err
			}
			newVote = &value
			return bumpVoteCount(tx, promptID, 2*value)
		}
	})
	if err != nil {
		return nil, err
	}
	return newVote, nil
}

func bumpVoteCount(tx *gorm.DB, promptID string, delta int) error {
	return tx.Model(&models.Prompt{}).Where("id = ?", promptID).
		UpdateColumn("vote_count", gorm.Expr("vote_count + ?", delta)).Error
}
