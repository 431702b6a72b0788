// AngelaMos | 2026
// vote_test.go

package vote

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

type voteKey struct {
	kind   Kind
	target string
	user   string
}

// memoryStore mirrors the table semantics: one row per voter, upsert on
// cast, delete on matching retract, insert-once views.
type memoryStore struct {
	mu    sync.Mutex
	seq   int
	votes map[voteKey]Direction
	order map[voteKey]int
	views map[voteKey]struct{}
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		votes: make(map[voteKey]Direction),
		order: make(map[voteKey]int),
		views: make(map[voteKey]struct{}),
	}
}

func (m *memoryStore) Cast(_ context.Context, kind Kind, target, user string, dir Direction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := voteKey{kind, target, user}
	if _, ok := m.votes[k]; !ok {
		m.seq++
		m.order[k] = m.seq
	}
	m.votes[k] = dir
	return nil
}

func (m *memoryStore) Retract(_ context.Context, kind Kind, target, user string, dir Direction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := voteKey{kind, target, user}
	if m.votes[k] == dir {
		delete(m.votes, k)
		delete(m.order, k)
	}
	return nil
}

func (m *memoryStore) Tally(_ context.Context, kind Kind, target string) (Tally, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]voteKey, 0)
	for k := range m.votes {
		if k.kind == kind && k.target == target {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(a, b voteKey) int { return m.order[a] - m.order[b] })

	t := NewTally()
	for _, k := range keys {
		if m.votes[k] == Up {
			t.Upvotes = append(t.Upvotes, k.user)
		} else {
			t.Downvotes = append(t.Downvotes, k.user)
		}
	}
	return t, nil
}

func (m *memoryStore) Tallies(ctx context.Context, kind Kind, targets []string) (map[string]Tally, error) {
	out := make(map[string]Tally, len(targets))
	for _, id := range targets {
		t, _ := m.Tally(ctx, kind, id)
		out[id] = t
	}
	return out, nil
}

func (m *memoryStore) RecordView(_ context.Context, kind Kind, target, viewer string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := voteKey{kind, target, viewer}
	if _, ok := m.views[k]; ok {
		return false, nil
	}
	m.views[k] = struct{}{}
	return true, nil
}

func (m *memoryStore) CountViews(_ context.Context, kind Kind, target string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.views {
		if k.kind == kind && k.target == target {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) CountViewsFor(ctx context.Context, kind Kind, targets []string) (map[string]int64, error) {
	out := make(map[string]int64, len(targets))
	for _, id := range targets {
		out[id], _ = m.CountViews(ctx, kind, id)
	}
	return out, nil
}

var allOps = []Op{OpUpvote, OpDownvote, OpUnvote, OpUnvoteDownvote}

func TestApplyTransitions(t *testing.T) {
	tests := []struct {
		from Position
		op   Op
		want Position
	}{
		{None, OpUpvote, Upvoted},
		{Upvoted, OpUpvote, Upvoted},
		{Downvoted, OpUpvote, Upvoted},
		{None, OpDownvote, Downvoted},
		{Upvoted, OpDownvote, Downvoted},
		{Downvoted, OpDownvote, Downvoted},
		{Upvoted, OpUnvote, None},
		{Downvoted, OpUnvote, Downvoted},
		{None, OpUnvote, None},
		{Downvoted, OpUnvoteDownvote, None},
		{Upvoted, OpUnvoteDownvote, Upvoted},
		{None, OpUnvoteDownvote, None},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.from, tt.op), func(t *testing.T) {
			if got := Apply(tt.from, tt.op); got != tt.want {
				t.Errorf("Apply(%s, %s) = %s, want %s", tt.from, tt.op, got, tt.want)
			}
		})
	}
}

func TestRandomSequencesKeepVotesExclusive(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(42, 7))
	voters := []string{"u1", "u2", "u3", "u4"}

	for seq := 0; seq < 200; seq++ {
		engine := NewEngine(newMemoryStore(), nil)
		model := make(map[string]Position, len(voters))

		for step := 0; step < 40; step++ {
			voter := voters[rng.IntN(len(voters))]
			op := allOps[rng.IntN(len(allOps))]

			tally, err := engine.Do(ctx, KindQuestion, "q1", voter, op)
			if err != nil {
				t.Fatalf("Do: %v", err)
			}

			if model[voter] == "" {
				model[voter] = None
			}
			model[voter] = Apply(model[voter], op)

			for _, id := range tally.Upvotes {
				if slices.Contains(tally.Downvotes, id) {
					t.Fatalf("seq %d step %d: %s in both sets", seq, step, id)
				}
			}
			for _, v := range voters {
				want := model[v]
				if want == "" {
					want = None
				}
				if got := tally.PositionOf(v); got != want {
					t.Fatalf("seq %d step %d: %s at %s, model says %s", seq, step, v, got, want)
				}
			}
		}
	}
}

func TestUpvoteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newMemoryStore(), nil)

	once, err := engine.Do(ctx, KindAnswer, "a1", "u1", OpUpvote)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	twice, err := engine.Do(ctx, KindAnswer, "a1", "u1", OpUpvote)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	if !slices.Equal(once.Upvotes, twice.Upvotes) || len(twice.Upvotes) != 1 {
		t.Fatalf("upvotes changed on repeat: %v -> %v", once.Upvotes, twice.Upvotes)
	}
}

func TestDownvoteMovesExistingUpvote(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newMemoryStore(), nil)

	if _, err := engine.Do(ctx, KindQuestion, "q1", "u1", OpUpvote); err != nil {
		t.Fatal(err)
	}
	tally, err := engine.Do(ctx, KindQuestion, "q1", "u1", OpDownvote)
	if err != nil {
		t.Fatal(err)
	}

	if len(tally.Upvotes) != 0 || !slices.Equal(tally.Downvotes, []string{"u1"}) {
		t.Fatalf("tally = %+v", tally)
	}
	if tally.Score() != -1 {
		t.Errorf("score = %d", tally.Score())
	}
}

func TestVotesAreScopedByKind(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newMemoryStore(), nil)

	if _, err := engine.Do(ctx, KindQuestion, "x", "u1", OpUpvote); err != nil {
		t.Fatal(err)
	}
	tally, err := engine.Tally(ctx, KindAnswer, "x")
	if err != nil {
		t.Fatal(err)
	}
	if len(tally.Upvotes) != 0 {
		t.Fatalf("answer tally leaked question vote: %+v", tally)
	}
}

func TestViewsCountDistinctViewers(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newMemoryStore(), nil)

	for i := 0; i < 5; i++ {
		n, err := engine.View(ctx, KindQuestion, "q1", "viewer-a")
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Fatalf("repeat view %d: count = %d, want 1", i, n)
		}
	}

	n, err := engine.View(ctx, KindQuestion, "q1", "viewer-b")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("second viewer: count = %d, want 2", n)
	}
}

func TestConcurrentVotersAreAllRecorded(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newMemoryStore(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			op := OpUpvote
			if i%2 == 1 {
				op = OpDownvote
			}
			if _, err := engine.Do(ctx, KindQuestion, "q1", fmt.Sprintf("u%d", i), op); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	tally, err := engine.Tally(ctx, KindQuestion, "q1")
	if err != nil {
		t.Fatal(err)
	}
	if len(tally.Upvotes) != 25 || len(tally.Downvotes) != 25 {
		t.Fatalf("lost votes: %d up, %d down", len(tally.Upvotes), len(tally.Downvotes))
	}
}

// countingStore records how many writes reach the table.
type countingStore struct {
	*memoryStore
	writes int
}

func (c *countingStore) Cast(ctx context.Context, kind Kind, target, user string, dir Direction) error {
	c.writes++
	return c.memoryStore.Cast(ctx, kind, target, user, dir)
}

func (c *countingStore) Retract(ctx context.Context, kind Kind, target, user string, dir Direction) error {
	c.writes++
	return c.memoryStore.Retract(ctx, kind, target, user, dir)
}

func TestRetractOfOtherDirectionLeavesRowAlone(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{memoryStore: newMemoryStore()}
	engine := NewEngine(store, nil)

	if _, err := engine.Do(ctx, KindAnswer, "a1", "u1", OpDownvote); err != nil {
		t.Fatal(err)
	}
	tally, err := engine.Do(ctx, KindAnswer, "a1", "u1", OpUnvote)
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(tally.Downvotes, []string{"u1"}) {
		t.Fatalf("unvote cleared a downvote: %+v", tally)
	}
	if store.writes != 1 {
		t.Errorf("writes = %d, want 1", store.writes)
	}

	if _, err := engine.Do(ctx, KindAnswer, "a1", "u2", OpUnvoteDownvote); err != nil {
		t.Fatal(err)
	}
	if store.writes != 1 {
		t.Errorf("retract without a vote wrote to the store: writes = %d", store.writes)
	}
}

func TestUnknownOpIsRejected(t *testing.T) {
	engine := NewEngine(newMemoryStore(), nil)

	_, err := engine.Do(context.Background(), KindQuestion, "q1", "u1", Op("toggle"))
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
