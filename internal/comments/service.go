// Package comments implements the comment thread under a prompt.
package comments

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"promptstack/internal/logger"
	"promptstack/internal/models"
	"promptstack/internal/store"
	"promptstack/internal/views"
)

var (
	ErrNotLoggedIn = errors.New("you must be logged in")
	ErrEmptyBody   = errors.New("comment cannot be empty")

	// ErrNotFound covers a missing comment and one the viewer did not write;
	// the delete filter is id AND author, so the two cannot diverge.
	ErrNotFound = errors.New("comment not found or not yours")
)

type Service struct {
	store store.Client
	cache views.Invalidator
	log   *slog.Logger
}

func NewService(st store.Client, cache views.Invalidator) *Service {
	return &Service{
		store: st,
		cache: cache,
		log:   logger.NewServiceLogger("comments"),
	}
}

// List returns a prompt's comments oldest first, each with its author's
// profile summary (nil if the author has no profile row). Read failures
// degrade to an empty thread.
func (s *Service) List(ctx context.Context, promptID string) []models.CommentWithAuthor {
	var rows []models.Comment
	err := s.store.Select(ctx, store.Query{
		Table:   "comments",
		Filters: []store.Filter{store.Eq("prompt_id", promptID)},
		Orders:  []store.Order{{Column: "created_at"}},
	}, &rows)
	if err != nil {
		s.log.Error("fetch comments", "prompt_id", promptID, "err", err)
		return []models.CommentWithAuthor{}
	}
	if len(rows) == 0 {
		return []models.CommentWithAuthor{}
	}

	seen := make(map[string]struct{})
	userIDs := make([]string, 0, len(rows))
	for _, c := range rows {
		if _, ok := seen[c.UserID]; ok {
			continue
		}
		seen[c.UserID] = struct{}{}
		userIDs = append(userIDs, c.UserID)
	}

	profiles := map[string]models.ProfileSummary{}
	var profileRows []models.Profile
	err = s.store.Select(ctx, store.Query{
		Table:   "profiles",
		Columns: []string{"id", "display_name", "email"},
		Filters: []store.Filter{store.In("id", userIDs)},
	}, &profileRows)
	if err != nil {
		s.log.Error("resolve comment authors", "err", err)
	} else {
		for _, p := range profileRows {
			profiles[p.ID] = models.ProfileSummary{DisplayName: p.DisplayName, Email: p.Email}
		}
	}

	out := make([]models.CommentWithAuthor, len(rows))
	for i, c := range rows {
		row := models.CommentWithAuthor{Comment: c}
		if summary, ok := profiles[c.UserID]; ok {
			row.Profiles = &summary
		}
		out[i] = row
	}
	return out
}

// Add posts a comment. The body is trimmed and must not be blank.
func (s *Service) Add(ctx context.Context, viewerID, promptID, content string) (*models.Comment, error) {
	if viewerID == "" {
		return nil, ErrNotLoggedIn
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyBody
	}

	comment := models.Comment{
		PromptID: promptID,
		UserID:   viewerID,
		Content:  content,
	}
	if err := s.store.Insert(ctx, "comments", &comment); err != nil {
		return nil, err
	}

	s.cache.Invalidate(views.Feed, views.Dashboard, views.Detail)
	return &comment, nil
}

// Delete removes a comment the viewer wrote.
func (s *Service) Delete(ctx context.Context, viewerID, commentID string) error {
	if viewerID == "" {
		return ErrNotLoggedIn
	}

	affected, err := s.store.Delete(ctx, "comments", []store.Filter{
		store.Eq("id", commentID),
		store.Eq("user_id", viewerID),
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.cache.Invalidate(views.Feed, views.Dashboard, views.Detail)
	return nil
}
