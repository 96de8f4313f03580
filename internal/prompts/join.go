package prompts

import (
	"context"

	"promptstack/internal/models"
	"promptstack/internal/store"
)

// The store does no joins for us, so anything relational is resolved here:
// collect foreign keys, issue one set-membership query per related table,
// merge by key in memory. Empty inputs short-circuit without touching the
// store — an empty IN filter must never reach it.

// uniqueKeys drops duplicates and empty values, preserving first-seen order.
func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// resolveProfiles maps user id to profile summary for every distinct id.
// Lookup misses are simply absent from the map; a failed fetch degrades to
// an empty map so a broken join never takes the whole page down.
func (s *Service) resolveProfiles(ctx context.Context, userIDs []string) map[string]models.ProfileSummary {
	ids := uniqueKeys(userIDs)
	if len(ids) == 0 {
		return map[string]models.ProfileSummary{}
	}

	var rows []models.Profile
	err := s.store.Select(ctx, store.Query{
		Table:   "profiles",
		Columns: []string{"id", "display_name", "email"},
		Filters: []store.Filter{store.In("id", ids)},
	}, &rows)
	if err != nil {
		s.log.Error("resolve profiles", "err", err)
		return map[string]models.ProfileSummary{}
	}

	out := make(map[string]models.ProfileSummary, len(rows))
	for _, p := range rows {
		out[p.ID] = models.ProfileSummary{DisplayName: p.DisplayName, Email: p.Email}
	}
	return out
}

// resolveVotes maps prompt id to the viewer's vote value. A nil promptIDs
// means the viewer's full vote history (the dashboard is already scoped to
// one owner, so no membership restriction is needed there).
func (s *Service) resolveVotes(ctx context.Context, viewerID string, promptIDs []string) map[string]int {
	filters := []store.Filter{store.Eq("user_id", viewerID)}
	if promptIDs != nil {
		ids := uniqueKeys(promptIDs)
		if len(ids) == 0 {
			return map[string]int{}
		}
		filters = append(filters, store.In("prompt_id", ids))
	}

	var rows []models.Vote
	err := s.store.Select(ctx, store.Query{
		Table:   "votes",
		Columns: []string{"prompt_id", "vote_type"},
		Filters: filters,
	}, &rows)
	if err != nil {
		s.log.Error("resolve votes", "err", err)
		return map[string]int{}
	}

	out := make(map[string]int, len(rows))
	for _, v := range rows {
		out[v.PromptID] = v.VoteType
	}
	return out
}

// resolveTags is the two-hop join: prompt_tags by prompt id, then tags by
// the collected tag ids, grouped back into name lists per prompt. A link
// whose tag row is gone is dropped silently rather than erroring the page.
func (s *Service) resolveTags(ctx context.Context, promptIDs []string) map[string][]string {
	ids := uniqueKeys(promptIDs)
	if len(ids) == 0 {
		return map[string][]string{}
	}

	var links []models.PromptTag
	err := s.store.Select(ctx, store.Query{
		Table:   "prompt_tags",
		Columns: []string{"prompt_id", "tag_id"},
		Filters: []store.Filter{store.In("prompt_id", ids)},
	}, &links)
	if err != nil {
		s.log.Error("resolve prompt tags", "err", err)
		return map[string][]string{}
	}
	if len(links) == 0 {
		return map[string][]string{}
	}

	tagIDs := make([]string, 0, len(links))
	for _, l := range links {
		tagIDs = append(tagIDs, l.TagID)
	}

	var tags []models.Tag
	err = s.store.Select(ctx, store.Query{
		Table:   "tags",
		Columns: []string{"id", "name"},
		Filters: []store.Filter{store.In("id", uniqueKeys(tagIDs))},
	}, &tags)
	if err != nil {
		s.log.Error("resolve tags", "err", err)
		return map[string][]string{}
	}

	names := make(map[string]string, len(tags))
	for _, t := range tags {
		names[t.ID] = t.Name
	}

	out := make(map[string][]string)
	for _, l := range links {
		name, ok := names[l.TagID]
		if !ok {
			continue // dangling link
		}
		out[l.PromptID] = append(out[l.PromptID], name)
	}
	return out
}
