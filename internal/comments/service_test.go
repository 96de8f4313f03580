package comments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptstack/internal/models"
	"promptstack/internal/store/storetest"
	"promptstack/internal/views"
)

func newTestService(f *storetest.Fake) *Service {
	return NewService(f, views.New(16))
}

func TestListOldestFirstWithAuthors(t *testing.T) {
	f := storetest.NewFake()
	bob := "Bob"
	f.Profiles = []models.Profile{{ID: "u1", Email: "bob@example.com", DisplayName: &bob}}
	now := time.Now()
	f.Comments = []models.Comment{
		{ID: "c2", PromptID: "p1", UserID: "ghost", Content: "second", CreatedAt: now},
		{ID: "c1", PromptID: "p1", UserID: "u1", Content: "first", CreatedAt: now.Add(-time.Hour)},
		{ID: "other", PromptID: "p2", UserID: "u1", Content: "elsewhere", CreatedAt: now},
	}
	svc := newTestService(f)

	got := svc.List(context.Background(), "p1")

	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, "second", got[1].Content)
	require.NotNil(t, got[0].Profiles)
	assert.Equal(t, "bob@example.com", got[0].Profiles.Email)
	// An author without a profile row stays nil.
	assert.Nil(t, got[1].Profiles)
}

func TestListDegradesOnStoreFailure(t *testing.T) {
	f := storetest.NewFake()
	f.FailSelect["comments"] = errors.New("connection reset")
	svc := newTestService(f)

	got := svc.List(context.Background(), "p1")

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAddValidation(t *testing.T) {
	f := storetest.NewFake()
	svc := newTestService(f)
	ctx := context.Background()

	_, err := svc.Add(ctx, "", "p1", "hello")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = svc.Add(ctx, "u1", "p1", "   \n\t ")
	assert.ErrorIs(t, err, ErrEmptyBody)

	assert.Zero(t, f.CallCount(""))
}

func TestAdd(t *testing.T) {
	f := storetest.NewFake()
	svc := newTestService(f)

	got, err := svc.Add(context.Background(), "u1", "p1", "  nice prompt  ")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "nice prompt", got.Content)
	assert.NotEmpty(t, got.ID)
	require.Len(t, f.Comments, 1)
	assert.Equal(t, "p1", f.Comments[0].PromptID)
}

func TestDeleteAuthorOnly(t *testing.T) {
	f := storetest.NewFake()
	f.Comments = []models.Comment{{ID: "c1", PromptID: "p1", UserID: "author", Content: "x", CreatedAt: time.Now()}}
	svc := newTestService(f)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, "", "c1"), ErrNotLoggedIn)
	assert.ErrorIs(t, svc.Delete(ctx, "intruder", "c1"), ErrNotFound)
	assert.Len(t, f.Comments, 1)

	require.NoError(t, svc.Delete(ctx, "author", "c1"))
	assert.Empty(t, f.Comments)
}
