// Package storetest provides an in-memory store.Client so the feed
// pipeline, vote state machine and admin aggregations can be tested
// without a database.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"promptstack/internal/models"
	"promptstack/internal/store"
)

// Call records one store round-trip, so tests can assert that an operation
// never reached the store.
type Call struct {
	Op    string
	Table string
}

type Fake struct {
	mu sync.Mutex

	Profiles   []models.Profile
	Prompts    []models.Prompt
	Tags       []models.Tag
	PromptTags []models.PromptTag
	Votes      []models.Vote
	Comments   []models.Comment

	Calls   []Call
	queries []store.Query

	// FailSelect forces Select on a table to fail with the given error.
	FailSelect map[string]error
}

func NewFake() *Fake {
	return &Fake{FailSelect: map[string]error{}}
}

func (f *Fake) record(op, table string) {
	f.Calls = append(f.Calls, Call{Op: op, Table: table})
}

// CallCount returns how many round-trips hit the given table, any table
// when table is empty.
func (f *Fake) CallCount(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if table == "" || c.Table == table {
			n++
		}
	}
	return n
}

// LastQuery returns the most recent Select query against the table.
func (f *Fake) LastQuery(table string) *store.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.queries) - 1; i >= 0; i-- {
		if f.queries[i].Table == table {
			q := f.queries[i]
			return &q
		}
	}
	return nil
}

var _ store.Client = (*Fake)(nil)

func (f *Fake) Select(ctx context.Context, q store.Query, dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("select", q.Table)
	f.queries = append(f.queries, q)

	if err := f.FailSelect[q.Table]; err != nil {
		return err
	}

	switch q.Table {
	case "profiles":
		*dest.(*[]models.Profile) = filterRows(f.Profiles, q)
	case "prompts":
		*dest.(*[]models.Prompt) = filterRows(f.Prompts, q)
	case "tags":
		*dest.(*[]models.Tag) = filterRows(f.Tags, q)
	case "prompt_tags":
		*dest.(*[]models.PromptTag) = filterRows(f.PromptTags, q)
	case "votes":
		*dest.(*[]models.Vote) = filterRows(f.Votes, q)
	case "comments":
		*dest.(*[]models.Comment) = filterRows(f.Comments, q)
	default:
		return fmt.Errorf("unknown table %q", q.Table)
	}
	return nil
}

func (f *Fake) Count(ctx context.Context, q store.Query) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("count", q.Table)

	switch q.Table {
	case "profiles":
		return int64(len(filterRows(f.Profiles, store.Query{Filters: q.Filters}))), nil
	case "prompts":
		return int64(len(filterRows(f.Prompts, store.Query{Filters: q.Filters}))), nil
	}
	return 0, fmt.Errorf("unknown table %q", q.Table)
}

func (f *Fake) Insert(ctx context.Context, table string, row any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("insert", table)

	switch r := row.(type) {
	case *models.Profile:
		fill(&r.ID, &r.CreatedAt)
		f.Profiles = append(f.Profiles, *r)
	case *models.Prompt:
		fill(&r.ID, &r.CreatedAt)
		f.Prompts = append(f.Prompts, *r)
	case *models.Tag:
		fill(&r.ID, &r.CreatedAt)
		f.Tags = append(f.Tags, *r)
	case *models.PromptTag:
		fill(&r.ID, &r.CreatedAt)
		f.PromptTags = append(f.PromptTags, *r)
	case *models.Vote:
		fill(&r.ID, &r.CreatedAt)
		f.Votes = append(f.Votes, *r)
	case *models.Comment:
		fill(&r.ID, &r.CreatedAt)
		f.Comments = append(f.Comments, *r)
	default:
		return fmt.Errorf("unknown row type %T", row)
	}
	return nil
}

func (f *Fake) Update(ctx context.Context, table string, filters []store.Filter, values map[string]any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update", table)

	if table != "prompts" {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	q := store.Query{Filters: filters}
	var n int64
	for i := range f.Prompts {
		if !rowMatches(f.Prompts[i], q) {
			continue
		}
		if v, ok := values["title"].(string); ok {
			f.Prompts[i].Title = v
		}
		if v, ok := values["content"].(string); ok {
			f.Prompts[i].Content = v
		}
		if v, ok := values["category"].(string); ok {
			f.Prompts[i].Category = v
		}
		n++
	}
	return n, nil
}

func (f *Fake) Delete(ctx context.Context, table string, filters []store.Filter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete", table)

	q := store.Query{Filters: filters}
	switch table {
	case "prompts":
		kept, n := reject(f.Prompts, q)
		f.Prompts = kept
		return n, nil
	case "prompt_tags":
		kept, n := reject(f.PromptTags, q)
		f.PromptTags = kept
		return n, nil
	case "comments":
		kept, n := reject(f.Comments, q)
		f.Comments = kept
		return n, nil
	case "votes":
		kept, n := reject(f.Votes, q)
		f.Votes = kept
		return n, nil
	}
	return 0, fmt.Errorf("unknown table %q", table)
}

func (f *Fake) CategoryStats(ctx context.Context) ([]models.CategoryCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("rpc", "category_stats")

	counts := map[string]int64{}
	for _, p := range f.Prompts {
		counts[p.Category]++
	}
	out := make([]models.CategoryCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, models.CategoryCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (f *Fake) ToggleVote(ctx context.Context, userID, promptID string, value int) (*int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("rpc", "toggle_vote")

	for i, v := range f.Votes {
		if v.UserID != userID || v.PromptID != promptID {
			continue
		}
		if v.VoteType == value {
			f.Votes = append(f.Votes[:i], f.Votes[i+1:]...)
			f.bumpVoteCount(promptID, -value)
			return nil, nil
		}
		f.Votes[i].VoteType = value
		f.bumpVoteCount(promptID, 2*value)
		result := value
		return &result, nil
	}

	f.Votes = append(f.Votes, models.Vote{
		ID:       uuid.NewString(),
		UserID:   userID,
		PromptID: promptID,
		VoteType: value,
	})
	f.bumpVoteCount(promptID, value)
	result := value
	return &result, nil
}

func (f *Fake) bumpVoteCount(promptID string, delta int) {
	for i := range f.Prompts {
		if f.Prompts[i].ID == promptID {
			f.Prompts[i].VoteCount += delta
			return
		}
	}
}

// VoteCount returns the current vote aggregate of a prompt.
func (f *Fake) VoteCount(promptID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.Prompts {
		if p.ID == promptID {
			return p.VoteCount
		}
	}
	return 0
}

func fill(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now()
	}
}

func filterRows[T any](rows []T, q store.Query) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if rowMatches(r, q) {
			out = append(out, r)
		}
	}
	sortRows(out, q.Orders)

	if q.Range != nil {
		if q.Range.From >= len(out) {
			return out[:0]
		}
		end := q.Range.To + 1
		if end > len(out) {
			end = len(out)
		}
		out = out[q.Range.From:end]
	} else if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func reject[T any](rows []T, q store.Query) ([]T, int64) {
	kept := make([]T, 0, len(rows))
	var removed int64
	for _, r := range rows {
		if rowMatches(r, q) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	return kept, removed
}

func rowMatches(row any, q store.Query) bool {
	for _, flt := range q.Filters {
		v := field(row, flt.Column)
		switch flt.Op {
		case store.OpIn:
			list, _ := flt.Value.([]string)
			s, _ := v.(string)
			found := false
			for _, candidate := range list {
				if candidate == s {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			if v != flt.Value {
				return false
			}
		}
	}
	if q.Pattern != nil && q.Pattern.Term != "" {
		term := strings.ToLower(q.Pattern.Term)
		hit := false
		for _, col := range q.Pattern.Columns {
			s, _ := field(row, col).(string)
			if strings.Contains(strings.ToLower(s), term) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func sortRows[T any](rows []T, orders []store.Order) {
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orders {
			c := compareValues(field(rows[i], o.Column), field(rows[j], o.Column))
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case int:
		bv, _ := b.(int)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		return strings.Compare(av, b.(string))
	case time.Time:
		return av.Compare(b.(time.Time))
	}
	return 0
}

func field(row any, column string) any {
	switch r := row.(type) {
	case models.Profile:
		switch column {
		case "id":
			return r.ID
		case "email":
			return r.Email
		case "role":
			return r.Role
		case "created_at":
			return r.CreatedAt
		}
	case models.Prompt:
		switch column {
		case "id":
			return r.ID
		case "user_id":
			return r.UserID
		case "title":
			return r.Title
		case "content":
			return r.Content
		case "category":
			return r.Category
		case "vote_count":
			return r.VoteCount
		case "created_at":
			return r.CreatedAt
		}
	case models.Tag:
		switch column {
		case "id":
			return r.ID
		case "name":
			return r.Name
		}
	case models.PromptTag:
		switch column {
		case "id":
			return r.ID
		case "prompt_id":
			return r.PromptID
		case "tag_id":
			return r.TagID
		}
	case models.Vote:
		switch column {
		case "id":
			return r.ID
		case "user_id":
			return r.UserID
		case "prompt_id":
			return r.PromptID
		case "vote_type":
			return r.VoteType
		}
	case models.Comment:
		switch column {
		case "id":
			return r.ID
		case "prompt_id":
			return r.PromptID
		case "user_id":
			return r.UserID
		case "created_at":
			return r.CreatedAt
		}
	}
	return nil
}
