// Package admin implements the admin-gated operations: site stats, prompt
// lookup by id and deletion without the ownership filter.
package admin

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"promptstack/internal/logger"
	"promptstack/internal/models"
	"promptstack/internal/store"
	"promptstack/internal/views"
)

var ErrForbidden = errors.New("unauthorized: admin access required")

const recentLimit = 5
const topCategoryLimit = 5

type Service struct {
	store store.Client
	cache views.Invalidator
	log   *slog.Logger
}

func NewService(st store.Client, cache views.Invalidator) *Service {
	return &Service{
		store: st,
		cache: cache,
		log:   logger.NewServiceLogger("admin"),
	}
}

// IsAdmin reports whether the viewer's profile carries the admin role.
func (s *Service) IsAdmin(ctx context.Context, viewerID string) bool {
	if viewerID == "" {
		return false
	}

	var rows []models.Profile
	err := s.store.Select(ctx, store.Query{
		Table:   "profiles",
		Columns: []string{"id", "role"},
		Filters: []store.Filter{store.Eq("id", viewerID)},
		Limit:   1,
	}, &rows)
	if err != nil {
		s.log.Error("check admin role", "user_id", viewerID, "err", err)
		return false
	}
	return len(rows) > 0 && rows[0].Role == models.RoleAdmin
}

// Stats computes the admin dashboard numbers: store-side prompt and user
// counts, the five most recent prompts, and the top five categories by
// prompt count via the grouped-count procedure. Non-admin viewers get nil
// and no statistics queries are issued.
func (s *Service) Stats(ctx context.Context, viewerID string) *models.Stats {
	if !s.IsAdmin(ctx, viewerID) {
		return nil
	}

	stats := &models.Stats{
		RecentPrompts: []models.RecentPrompt{},
		TopCategories: []models.CategoryCount{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.Count(gctx, store.Query{Table: "prompts"})
		if err != nil {
			s.log.Error("count prompts", "err", err)
			return nil
		}
		stats.TotalPrompts = n
		return nil
	})
	g.Go(func() error {
		n, err := s.store.Count(gctx, store.Query{Table: "profiles"})
		if err != nil {
			s.log.Error("count profiles", "err", err)
			return nil
		}
		stats.TotalUsers = n
		return nil
	})
	g.Go(func() error {
		var rows []models.Prompt
		err := s.store.Select(gctx, store.Query{
			Table:   "prompts",
			Columns: []string{"id", "title", "created_at"},
			Orders:  []store.Order{{Column: "created_at", Desc: true}},
			Limit:   recentLimit,
		}, &rows)
		if err != nil {
			s.log.Error("fetch recent prompts", "err", err)
			return nil
		}
		recent := make([]models.RecentPrompt, len(rows))
		for i, p := range rows {
			recent[i] = models.RecentPrompt{ID: p.ID, Title: p.Title, CreatedAt: p.CreatedAt}
		}
		stats.RecentPrompts = recent
		return nil
	})
	g.Go(func() error {
		counts, err := s.store.CategoryStats(gctx)
		if err != nil {
			s.log.Error("fetch category stats", "err", err)
			return nil
		}
		if len(counts) > topCategoryLimit {
			counts = counts[:topCategoryLimit]
		}
		stats.TopCategories = counts
		return nil
	})
	_ = g.Wait()

	return stats
}

// SearchPromptByID looks up a single prompt with its creator attached,
// bypassing nothing except the admin gate itself. Returns nil for
// non-admin viewers and for missing prompts alike.
func (s *Service) SearchPromptByID(ctx context.Context, viewerID, id string) *models.PromptWithCreator {
	if !s.IsAdmin(ctx, viewerID) {
		return nil
	}

	var rows []models.Prompt
	err := s.store.Select(ctx, store.Query{
		Table:   "prompts",
		Filters: []store.Filter{store.Eq("id", id)},
		Limit:   1,
	}, &rows)
	if err != nil {
		s.log.Error("search prompt", "id", id, "err", err)
		return nil
	}
	if len(rows) == 0 {
		return nil
	}
	prompt := rows[0]

	row := models.PromptWithCreator{Prompt: prompt, Tags: []string{}}
	var profileRows []models.Profile
	err = s.store.Select(ctx, store.Query{
		Table:   "profiles",
		Columns: []string{"id", "display_name", "email"},
		Filters: []store.Filter{store.Eq("id", prompt.UserID)},
		Limit:   1,
	}, &profileRows)
	if err != nil {
		s.log.Error("resolve prompt creator", "id", id, "err", err)
	} else if len(profileRows) > 0 {
		row.Profiles = &models.ProfileSummary{
			DisplayName: profileRows[0].DisplayName,
			Email:       profileRows[0].Email,
		}
	}
	return &row
}

// DeletePromptAsAdmin removes any prompt regardless of owner.
func (s *Service) DeletePromptAsAdmin(ctx context.Context, viewerID, id string) error {
	if !s.IsAdmin(ctx, viewerID) {
		return ErrForbidden
	}

	if _, err := s.store.Delete(ctx, "prompts", []store.Filter{store.Eq("id", id)}); err != nil {
		return err
	}

	s.cache.Invalidate(views.Admin, views.Feed, views.Detail)
	return nil
}
