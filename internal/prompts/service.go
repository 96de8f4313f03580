// Package prompts implements the prompt feed pipeline and the prompt
// mutations. Reads degrade to empty results when the store misbehaves so
// the feed stays up; writes fail loud with the store's own message.
package prompts

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"promptstack/internal/logger"
	"promptstack/internal/models"
	"promptstack/internal/store"
	"promptstack/internal/utils"
	"promptstack/internal/views"
)

// PerPage is the fixed feed page size. Feed queries fetch one extra row to
// detect a following page without a second round-trip.
const PerPage = 12

// CategoryAll is the sentinel meaning "no category filter".
const CategoryAll = "all"

type Service struct {
	store store.Client
	cache views.Invalidator
	log   *slog.Logger
}

func NewService(st store.Client, cache views.Invalidator) *Service {
	return &Service{
		store: st,
		cache: cache,
		log:   logger.NewServiceLogger("prompts"),
	}
}

// Page is one resolved feed page.
type Page struct {
	Prompts []models.PromptWithCreator `json:"prompts"`
	HasMore bool                       `json:"has_more"`
}

func feedQuery(page int, category, search string) store.Query {
	q := store.Query{
		Table: "prompts",
		Orders: []store.Order{
			{Column: "vote_count", Desc: true},
			{Column: "created_at", Desc: true}, // tie-break keeps equal-vote prompts recency ordered
		},
		Range: &store.Range{From: (page - 1) * PerPage, To: page * PerPage},
	}
	if category != "" && category != CategoryAll {
		q.Filters = append(q.Filters, store.Eq("category", category))
	}
	if search != "" {
		// Category is a hard filter; the search term ORs across title and
		// content inside the already-filtered set.
		q.Pattern = &store.Pattern{Columns: []string{"title", "content"}, Term: search}
	}
	return q
}

// GetPrompts assembles one feed page: a lookahead fetch of the primary rows,
// then concurrent profile, viewer-vote and tag attachment. viewerID may be
// empty for anonymous readers. A store failure yields an empty page — the
// feed prefers availability over completeness, and the error goes to the log.
func (s *Service) GetPrompts(ctx context.Context, viewerID string, page int, category, search string) Page {
	if page < 1 {
		page = 1
	}

	var rows []models.Prompt
	if err := s.store.Select(ctx, feedQuery(page, category, search), &rows); err != nil {
		s.log.Error("fetch prompts page", "page", page, "err", err)
		return Page{Prompts: []models.PromptWithCreator{}}
	}

	hasMore := len(rows) > PerPage
	if hasMore {
		rows = rows[:PerPage]
	}
	if len(rows) == 0 {
		return Page{Prompts: []models.PromptWithCreator{}}
	}

	return Page{
		Prompts: s.assemble(ctx, viewerID, rows, false),
		HasMore: hasMore,
	}
}

// assemble fans out the three independent joins, waits for all of them, and
// merges by position so the input order survives. With allVotes the viewer's
// whole vote history is attached instead of one restricted to this page.
func (s *Service) assemble(ctx context.Context, viewerID string, rows []models.Prompt, allVotes bool) []models.PromptWithCreator {
	userIDs := make([]string, len(rows))
	promptIDs := make([]string, len(rows))
	for i, p := range rows {
		userIDs[i] = p.UserID
		promptIDs[i] = p.ID
	}

	var (
		profiles map[string]models.ProfileSummary
		votes    map[string]int
		tags     map[string][]string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profiles = s.resolveProfiles(gctx, userIDs)
		return nil
	})
	g.Go(func() error {
		if viewerID == "" {
			return nil
		}
		if allVotes {
			votes = s.resolveVotes(gctx, viewerID, nil)
		} else {
			votes = s.resolveVotes(gctx, viewerID, promptIDs)
		}
		return nil
	})
	g.Go(func() error {
		tags = s.resolveTags(gctx, promptIDs)
		return nil
	})
	// The resolvers degrade internally and never return an error.
	_ = g.Wait()

	out := make([]models.PromptWithCreator, len(rows))
	for i, p := range rows {
		row := models.PromptWithCreator{Prompt: p, Tags: []string{}}
		if summary, ok := profiles[p.UserID]; ok {
			row.Profiles = &summary
		}
		if names, ok := tags[p.ID]; ok {
			row.Tags = names
		}
		if value, ok := votes[p.ID]; ok {
			vote := value
			row.UserVote = &vote
		}
		out[i] = row
	}
	return out
}

// GetUserPrompts returns all of the viewer's own prompts, newest first,
// with the same category and search semantics as the feed. Unpaginated:
// the scope is bounded to a single owner's content.
func (s *Service) GetUserPrompts(ctx context.Context, viewerID string, category, search string) []models.PromptWithCreator {
	if viewerID == "" {
		return []models.PromptWithCreator{}
	}

	q := store.Query{
		Table:   "prompts",
		Filters: []store.Filter{store.Eq("user_id", viewerID)},
		Orders:  []store.Order{{Column: "created_at", Desc: true}},
	}
	if category != "" && category != CategoryAll {
		q.Filters = append(q.Filters, store.Eq("category", category))
	}
	if search != "" {
		q.Pattern = &store.Pattern{Columns: []string{"title", "content"}, Term: search}
	}

	var rows []models.Prompt
	if err := s.store.Select(ctx, q, &rows); err != nil {
		s.log.Error("fetch user prompts", "user_id", viewerID, "err", err)
		return []models.PromptWithCreator{}
	}
	if len(rows) == 0 {
		return []models.PromptWithCreator{}
	}

	return s.assemble(ctx, viewerID, rows, true)
}

// GetPromptByID returns one prompt with creator, tags and rendered body,
// or nil when it does not exist.
func (s *Service) GetPromptByID(ctx context.Context, id string) *models.PromptWithCreator {
	var rows []models.Prompt
	err := s.store.Select(ctx, store.Query{
		Table:   "prompts",
		Filters: []store.Filter{store.Eq("id", id)},
		Limit:   1,
	}, &rows)
	if err != nil {
		s.log.Error("fetch prompt", "id", id, "err", err)
		return nil
	}
	if len(rows) == 0 {
		return nil
	}

	row := s.assemble(ctx, "", rows, false)[0]
	row.ContentHTML = utils.RenderMarkdown(row.Content)
	return &row
}

// PromptForm is the payload for creating a prompt.
type PromptForm struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

func (f PromptForm) validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return ValidationError("title is required")
	}
	if strings.TrimSpace(f.Content) == "" {
		return ValidationError("content is required")
	}
	if strings.TrimSpace(f.Category) == "" {
		return ValidationError("category is required")
	}
	return nil
}

// Create inserts the prompt, then links its tags. Tags are created lazily
// the first time a name is used; a failed tag never fails the prompt.
func (s *Service) Create(ctx context.Context, viewerID string, form PromptForm) error {
	if viewerID == "" {
		return ErrNotLoggedIn
	}
	if err := form.validate(); err != nil {
		return err
	}

	prompt := models.Prompt{
		Title:    form.Title,
		Content:  form.Content,
		Category: form.Category,
		UserID:   viewerID,
	}
	if err := s.store.Insert(ctx, "prompts", &prompt); err != nil {
		return err
	}

	s.linkTags(ctx, prompt.ID, form.Tags)

	s.cache.Invalidate(views.Feed, views.Dashboard)
	return nil
}

// linkTags upserts each tag by normalized name and links it to the prompt.
func (s *Service) linkTags(ctx context.Context, promptID string, tagNames []string) {
	for _, raw := range tagNames {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}

		var existing []models.Tag
		err := s.store.Select(ctx, store.Query{
			Table:   "tags",
			Columns: []string{"id"},
			Filters: []store.Filter{store.Eq("name", name)},
			Limit:   1,
		}, &existing)
		if err != nil {
			s.log.Error("look up tag", "name", name, "err", err)
			continue
		}

		var tagID string
		if len(existing) > 0 {
			tagID = existing[0].ID
		} else {
			tag := models.Tag{Name: name}
			if err := s.store.Insert(ctx, "tags", &tag); err != nil {
				s.log.Error("create tag", "name", name, "err", err)
				continue
			}
			tagID = tag.ID
		}

		link := models.PromptTag{PromptID: promptID, TagID: tagID}
		if err := s.store.Insert(ctx, "prompt_tags", &link); err != nil {
			s.log.Error("link tag", "prompt_id", promptID, "tag_id", tagID, "err", err)
		}
	}
}

// PromptUpdate carries the partial update for a prompt. Nil fields are left
// untouched; a non-nil Tags replaces the tag set.
type PromptUpdate struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
}

// Update edits a prompt the viewer owns. The owner check lives in the update
// filter itself: touching someone else's prompt affects zero rows.
func (s *Service) Update(ctx context.Context, viewerID, id string, update PromptUpdate) error {
	if viewerID == "" {
		return ErrNotLoggedIn
	}

	values := map[string]any{}
	if update.Title != nil {
		values["title"] = *update.Title
	}
	if update.Content != nil {
		values["content"] = *update.Content
	}
	if update.Category != nil {
		values["category"] = *update.Category
	}

	ownerFilter := []store.Filter{store.Eq("id", id), store.Eq("user_id", viewerID)}

	if len(values) > 0 {
		affected, err := s.store.Update(ctx, "prompts", ownerFilter, values)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
	} else if update.Tags != nil {
		// Tag-only edit still needs the ownership check.
		n, err := s.store.Count(ctx, store.Query{Table: "prompts", Filters: ownerFilter})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
	} else {
		return nil
	}

	if update.Tags != nil {
		if _, err := s.store.Delete(ctx, "prompt_tags", []store.Filter{store.Eq("prompt_id", id)}); err != nil {
			s.log.Error("clear tags", "prompt_id", id, "err", err)
		} else {
			s.linkTags(ctx, id, *update.Tags)
		}
	}

	s.cache.Invalidate(views.Feed, views.Dashboard, views.Detail)
	return nil
}

// Delete removes a prompt the viewer owns. Tag links and comments go with
// it via the storage-level cascade.
func (s *Service) Delete(ctx context.Context, viewerID, id string) error {
	if viewerID == "" {
		return ErrNotLoggedIn
	}

	affected, err := s.store.Delete(ctx, "prompts", []store.Filter{
		store.Eq("id", id),
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

// Vote casts value on promptID for the viewer and returns the vote that
// remains: the cast value, or nil when the same value toggled it off.
func (s *Service) Vote(ctx context.Context, viewerID, promptID string, value int) (*int, error) {
	if viewerID == "" {
		return nil, ErrNotLoggedIn
	}
	if value != 1 && value != -1 {
		return nil, ErrInvalidVote
	}

	newVote, err := s.store.ToggleVote(ctx, viewerID, promptID, value)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(views.Feed, views.Dashboard, views.Detail)
	return newVote, nil
}

// Categories returns the distinct categories across all prompts, sorted.
func (s *Service) Categories(ctx context.Context) []string {
	var rows []models.Prompt
	err := s.store.Select(ctx, store.Query{
		Table:   "prompts",
		Columns: []string{"category"},
		Orders:  []store.Order{{Column: "category"}},
	}, &rows)
	if err != nil {
		s.log.Error("fetch categories", "err", err)
		return []string{}
	}

	out := make([]string, 0)
	seen := make(map[string]struct{})
	for _, p := range rows {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}
