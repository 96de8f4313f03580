package prompts

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptstack/internal/models"
	"promptstack/internal/store"
	"promptstack/internal/store/storetest"
	"promptstack/internal/views"
)

func newTestService(f *storetest.Fake) *Service {
	return NewService(f, views.New(16))
}

// seedPrompts inserts n prompts with strictly descending vote counts so the
// expected feed order is unambiguous.
func seedPrompts(f *storetest.Fake, n int) {
	now := time.Now()
	for i := 0; i < n; i++ {
		f.Prompts = append(f.Prompts, models.Prompt{
			ID:        fmt.Sprintf("prompt-%d", i),
			Title:     fmt.Sprintf("Prompt %d", i),
			Content:   fmt.Sprintf("Content %d", i),
			Category:  "Coding",
			UserID:    fmt.Sprintf("user-%d", i),
			VoteCount: n - i,
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		})
	}
}

func TestGetPromptsLookahead(t *testing.T) {
	cases := []struct {
		name        string
		seeded      int
		wantLen     int
		wantHasMore bool
	}{
		{"thirteen rows fills a page and signals more", 13, 12, true},
		{"exactly twelve rows is a full page without more", 12, 12, false},
		{"partial page", 5, 5, false},
		{"no rows", 0, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := storetest.NewFake()
			seedPrompts(f, tc.seeded)
			svc := newTestService(f)

			page := svc.GetPrompts(context.Background(), "", 1, "", "")

			assert.Len(t, page.Prompts, tc.wantLen)
			assert.Equal(t, tc.wantHasMore, page.HasMore)
			assert.NotNil(t, page.Prompts)
		})
	}
}

func TestGetPromptsOrdering(t *testing.T) {
	f := storetest.NewFake()
	now := time.Now()
	// Two prompts share a vote count; the newer one must come first.
	f.Prompts = []models.Prompt{
		{ID: "old", VoteCount: 5, CreatedAt: now.Add(-2 * time.Hour), Category: "Coding"},
		{ID: "top", VoteCount: 9, CreatedAt: now.Add(-3 * time.Hour), Category: "Coding"},
		{ID: "new", VoteCount: 5, CreatedAt: now.Add(-1 * time.Hour), Category: "Coding"},
	}
	svc := newTestService(f)

	page := svc.GetPrompts(context.Background(), "", 1, "", "")

	require.Len(t, page.Prompts, 3)
	assert.Equal(t, "top", page.Prompts[0].ID)
	assert.Equal(t, "new", page.Prompts[1].ID)
	assert.Equal(t, "old", page.Prompts[2].ID)
}

func TestGetPromptsSecondPage(t *testing.T) {
	f := storetest.NewFake()
	seedPrompts(f, 30)
	svc := newTestService(f)

	page := svc.GetPrompts(context.Background(), "", 2, "", "")

	require.Len(t, page.Prompts, 12)
	assert.True(t, page.HasMore)
	assert.Equal(t, "prompt-12", page.Prompts[0].ID)
}

func TestGetPromptsMerge(t *testing.T) {
	f := storetest.NewFake()
	now := time.Now()
	alice := "Alice"
	f.Profiles = []models.Profile{
		{ID: "user-a", Email: "alice@example.com", DisplayName: &alice},
	}
	f.Prompts = []models.Prompt{
		{ID: "p1", Title: "first", UserID: "user-a", VoteCount: 2, CreatedAt: now, Category: "Coding"},
		{ID: "p2", Title: "second", UserID: "user-ghost", VoteCount: 1, CreatedAt: now, Category: "Art"},
	}
	f.Tags = []models.Tag{{ID: "t1", Name: "golang"}, {ID: "t2", Name: "testing"}}
	f.PromptTags = []models.PromptTag{
		{ID: "l1", PromptID: "p1", TagID: "t1"},
		{ID: "l2", PromptID: "p1", TagID: "t2"},
	}
	f.Votes = []models.Vote{{ID: "v1", UserID: "viewer", PromptID: "p1", VoteType: 1}}
	svc := newTestService(f)

	page := svc.GetPrompts(context.Background(), "viewer", 1, "", "")
	require.Len(t, page.Prompts, 2)

	withProfile := page.Prompts[0]
	require.NotNil(t, withProfile.Profiles)
	assert.Equal(t, "alice@example.com", withProfile.Profiles.Email)
	require.NotNil(t, withProfile.Profiles.DisplayName)
	assert.ElementsMatch(t, []string{"golang", "testing"}, withProfile.Tags)
	require.NotNil(t, withProfile.UserVote)
	assert.Equal(t, 1, *withProfile.UserVote)

	// A missing profile row attaches nil, a missing tag set attaches an
	// empty list and an uncast vote stays nil rather than zero.
	orphan := page.Prompts[1]
	assert.Nil(t, orphan.Profiles)
	assert.NotNil(t, orphan.Tags)
	assert.Empty(t, orphan.Tags)
	assert.Nil(t, orphan.UserVote)
}

func TestGetPromptsAnonymousSkipsVoteFetch(t *testing.T) {
	f := storetest.NewFake()
	seedPrompts(f, 3)
	svc := newTestService(f)

	svc.GetPrompts(context.Background(), "", 1, "", "")

	assert.Zero(t, f.CallCount("votes"))
}

func TestGetPromptsStoreFailureDegrades(t *testing.T) {
	f := storetest.NewFake()
	seedPrompts(f, 13)
	f.FailSelect["prompts"] = errors.New("connection reset")
	svc := newTestService(f)

	page := svc.GetPrompts(context.Background(), "viewer", 1, "", "")

	assert.NotNil(t, page.Prompts)
	assert.Empty(t, page.Prompts)
	assert.False(t, page.HasMore)
}

func TestGetPromptsJoinFailureDegrades(t *testing.T) {
	f := storetest.NewFake()
	seedPrompts(f, 3)
	f.Profiles = []models.Profile{{ID: "user-0", Email: "u0@example.com"}}
	f.FailSelect["profiles"] = errors.New("connection reset")
	svc := newTestService(f)

	page := svc.GetPrompts(context.Background(), "", 1, "", "")

	// The page itself survives a broken join.
	require.Len(t, page.Prompts, 3)
	for _, p := range page.Prompts {
		assert.Nil(t, p.Profiles)
	}
}

func TestGetPromptsCategoryAndSearchCombine(t *testing.T) {
	f := storetest.NewFake()
	now := time.Now()
	f.Prompts = []models.Prompt{
		{ID: "hit", Title: "Refactor helper", Content: "x", Category: "Coding", CreatedAt: now},
		{ID: "wrong-category", Title: "Refactor essay", Content: "x", Category: "Writing", CreatedAt: now},
		{ID: "no-match", Title: "Sonnet", Content: "y", Category: "Coding", CreatedAt: now},
		{ID: "content-hit", Title: "z", Content: "refactor me", Category: "Coding", CreatedAt: now},
	}
	svc := newTestService(f)

	page := svc.GetPrompts(context.Background(), "", 1, "Coding", "refactor")

	ids := make([]string, 0, len(page.Prompts))
	for _, p := range page.Prompts {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"hit", "content-hit"}, ids)

	// Category must be ANDed with the title-OR-content pattern, never
	// flattened into the OR.
	q := f.LastQuery("prompts")
	require.NotNil(t, q)
	require.Len(t, q.Filters, 1)
	assert.Equal(t, store.Eq("category", "Coding"), q.Filters[0])
	require.NotNil(t, q.Pattern)
	assert.Equal(t, []string{"title", "content"}, q.Pattern.Columns)
}

func TestGetPromptsAllCategorySentinel(t *testing.T) {
	f := storetest.NewFake()
	seedPrompts(f, 2)
	svc := newTestService(f)

	page := svc.GetPrompts(context.Background(), "", 1, "all", "")

	assert.Len(t, page.Prompts, 2)
	q := f.LastQuery("prompts")
	require.NotNil(t, q)
	assert.Empty(t, q.Filters)
}

func TestTagAttachmentPreservesOrderAndDropsDangling(t *testing.T) {
	f := storetest.NewFake()
	now := time.Now()
	f.Prompts = []models.Prompt{
		{ID: "a", VoteCount: 3, CreatedAt: now, Category: "Coding"},
		{ID: "b", VoteCount: 2, CreatedAt: now, Category: "Coding"},
		{ID: "c", VoteCount: 1, CreatedAt: now, Category: "Coding"},
	}
	f.Tags = []models.Tag{{ID: "t1", Name: "kept"}}
	f.PromptTags = []models.PromptTag{
		{ID: "l1", PromptID: "b", TagID: "t1"},
		{ID: "l2", PromptID: "b", TagID: "t-dangling"}, // no tag row
	}
	svc := newTestService(f)

	page := svc.GetPrompts(context.Background(), "", 1, "", "")

	require.Len(t, page.Prompts, 3)
	assert.Equal(t, "a", page.Prompts[0].ID)
	assert.Equal(t, "b", page.Prompts[1].ID)
	assert.Equal(t, "c", page.Prompts[2].ID)
	assert.Equal(t, []string{"kept"}, page.Prompts[1].Tags)
	assert.Empty(t, page.Prompts[0].Tags)
}

func TestGetUserPromptsUnauthenticated(t *testing.T) {
	f := storetest.NewFake()
	seedPrompts(f, 3)
	svc := newTestService(f)

	result := svc.GetUserPrompts(context.Background(), "", "", "")

	assert.NotNil(t, result)
	assert.Empty(t, result)
	assert.Zero(t, f.CallCount(""))
}

func TestGetUserPromptsScopedToOwner(t *testing.T) {
	f := storetest.NewFake()
	now := time.Now()
	f.Prompts = []models.Prompt{
		{ID: "mine-old", UserID: "me", VoteCount: 99, CreatedAt: now.Add(-time.Hour), Category: "Coding"},
		{ID: "mine-new", UserID: "me", VoteCount: 0, CreatedAt: now, Category: "Coding"},
		{ID: "theirs", UserID: "someone-else", VoteCount: 50, CreatedAt: now, Category: "Coding"},
	}
	f.Votes = []models.Vote{{ID: "v1", UserID: "me", PromptID: "mine-old", VoteType: -1}}
	svc := newTestService(f)

	result := svc.GetUserPrompts(context.Background(), "me", "", "")

	// Creation order, not vote order, and only the owner's rows.
	require.Len(t, result, 2)
	assert.Equal(t, "mine-new", result[0].ID)
	assert.Equal(t, "mine-old", result[1].ID)
	require.NotNil(t, result[1].UserVote)
	assert.Equal(t, -1, *result[1].UserVote)
}

func TestGetPromptByID(t *testing.T) {
	f := storetest.NewFake()
	f.Prompts = []models.Prompt{{
		ID: "p1", Title: "hello", Content: "# Heading", UserID: "u1",
		Category: "Coding", CreatedAt: time.Now(),
	}}
	f.Profiles = []models.Profile{{ID: "u1", Email: "u1@example.com"}}
	svc := newTestService(f)

	got := svc.GetPromptByID(context.Background(), "p1")
	require.NotNil(t, got)
	assert.Equal(t, "hello", got.Title)
	require.NotNil(t, got.Profiles)
	assert.Contains(t, got.ContentHTML, "<h1")

	assert.Nil(t, svc.GetPromptByID(context.Background(), "missing"))
}

func TestCreateValidation(t *testing.T) {
	f := storetest.NewFake()
	svc := newTestService(f)

	err := svc.Create(context.Background(), "", PromptForm{Title: "t", Content: "c", Category: "x"})
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Zero(t, f.CallCount(""))

	err = svc.Create(context.Background(), "me", PromptForm{Title: "  ", Content: "c", Category: "x"})
	var verr ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Zero(t, f.CallCount(""))
}

func TestCreateWithLazyTags(t *testing.T) {
	f := storetest.NewFake()
	svc := newTestService(f)
	ctx := context.Background()

	err := svc.Create(ctx, "me", PromptForm{
		Title: "one", Content: "c", Category: "Coding",
		Tags: []string{"Go", "  Testing "},
	})
	require.NoError(t, err)

	// Re-using a tag name, in any case, must not create a second tag row.
	err = svc.Create(ctx, "me", PromptForm{
		Title: "two", Content: "c", Category: "Coding",
		Tags: []string{"go"},
	})
	require.NoError(t, err)

	require.Len(t, f.Prompts, 2)
	require.Len(t, f.Tags, 2)
	names := []string{f.Tags[0].Name, f.Tags[1].Name}
	assert.ElementsMatch(t, []string{"go", "testing"}, names)
	assert.Len(t, f.PromptTags, 3)
}

func TestUpdateOwnerOnly(t *testing.T) {
	f := storetest.NewFake()
	f.Prompts = []models.Prompt{{ID: "p1", Title: "old", UserID: "owner", Category: "Coding", CreatedAt: time.Now()}}
	svc := newTestService(f)
	ctx := context.Background()

	title := "new"
	err := svc.Update(ctx, "intruder", "p1", PromptUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "old", f.Prompts[0].Title)

	err = svc.Update(ctx, "owner", "p1", PromptUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "new", f.Prompts[0].Title)
}

func TestDeleteOwnerOnly(t *testing.T) {
	f := storetest.NewFake()
	f.Prompts = []models.Prompt{{ID: "p1", UserID: "owner", Category: "Coding", CreatedAt: time.Now()}}
	svc := newTestService(f)
	ctx := context.Background()

	err := svc.Delete(ctx, "intruder", "p1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, f.Prompts, 1)

	require.NoError(t, svc.Delete(ctx, "owner", "p1"))
	assert.Empty(t, f.Prompts)
}

func TestCategories(t *testing.T) {
	f := storetest.NewFake()
	now := time.Now()
	f.Prompts = []models.Prompt{
		{ID: "1", Category: "Writing", CreatedAt: now},
		{ID: "2", Category: "Coding", CreatedAt: now},
		{ID: "3", Category: "Writing", CreatedAt: now},
	}
	svc := newTestService(f)

	assert.Equal(t, []string{"Coding", "Writing"}, svc.Categories(context.Background()))
}
