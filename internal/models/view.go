package models

import "time"

// View rows assembled per request by the services. Never persisted.

// ProfileSummary is the slice of a profile attached to prompts and comments.
type ProfileSummary struct {
	DisplayName *string `json:"display_name"`
	Email       string  `json:"email"`
}

// PromptWithCreator is a prompt enriched with its creator's profile summary
// (nil if the owner has no profile row), its tag names (never nil) and the
// requesting viewer's own vote (nil when unauthenticated or no vote cast —
// zero is not a valid vote value).
type PromptWithCreator struct {
	Prompt
	Profiles    *ProfileSummary `json:"profiles"`
	Tags        []string        `json:"tags"`
	UserVote    *int            `json:"user_vote"`
	ContentHTML string          `json:"content_html,omitempty"` // detail reads only
}

type CommentWithAuthor struct {
	Comment
	Profiles *ProfileSummary `json:"profiles"`
}

// CategoryCount is one row of the server-side grouped category count.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type RecentPrompt struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type Stats struct {
	TotalPrompts  int64           `json:"total_prompts"`
	TotalUsers    int64           `json:"total_users"`
	RecentPrompts []RecentPrompt  `json:"recent_prompts"`
	TopCategories []CategoryCount `json:"top_categories"`
}
