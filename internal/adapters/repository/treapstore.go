package repository

import (
	"context"
	"hash/fnv"
	"sort"
	"strconv"
	"sync"

	"github.com/okian/wrestlerank/internal/domain/leaderboard"
	"github.com/okian/wrestlerank/internal/domain/model"
	"github.com/okian/wrestlerank/pkg/metrics"
)

// Treap-based, in-memory Store implementation: one treap per weight class.
//
// Ordering: conservative score DESC, then competitor id ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the leaderboard
// from best to worst. Subtree sizes give O(log n) rank queries.

const defaultMaxLimit = 1000

type node struct {
	entry       leaderboard.Entry
	prio        uint64
	size        int
	left, right *node
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

// priority derives a stable heap priority from the competitor id.
func priority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func insert(n *node, e leaderboard.Entry) *node {
	if n == nil {
		return &node{entry: e, prio: priority(e.CompetitorID), size: 1}
	}
	if leaderboard.Less(e, n.entry) {
		n.left = insert(n.left, e)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, e)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// position returns the 1-based in-order position of e in the treap.
func position(n *node, e leaderboard.Entry) int {
	pos := 0
	for n != nil {
		switch {
		case n.entry.CompetitorID == e.CompetitorID && n.entry.Score == e.Score:
			return pos + nsize(n.left) + 1
		case leaderboard.Less(e, n.entry):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// collect appends up to limit entries passing q in rank order.
func collect(n *node, limit int, q leaderboard.Query, out *[]leaderboard.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collect(n.left, limit, q, out)
	if len(*out) < limit && q.Keep(n.entry) {
		*out = append(*out, n.entry)
	}
	if len(*out) < limit {
		collect(n.right, limit, q, out)
	}
}

type weightIndex struct {
	root *node
	byID map[string]leaderboard.Entry
}

// TreapStore indexes one rating snapshot for ranked reads.
type TreapStore struct {
	mu       sync.RWMutex
	weights  map[int]*weightIndex
	count    int
	maxLimit int
}

// NewTreapStore constructs an empty store with configuration options.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{weights: map[int]*weightIndex{}, maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Replace implements Store.Replace. The new index is built outside the lock.
func (s *TreapStore) Replace(ctx context.Context, rows []model.Row) error {
	weights := make(map[int]*weightIndex)
	for _, r := range rows {
		e := leaderboard.FromRow(r)
		idx, ok := weights[e.WeightClass]
		if !ok {
			idx = &weightIndex{byID: map[string]leaderboard.Entry{}}
			weights[e.WeightClass] = idx
		}
		if _, dup := idx.byID[e.CompetitorID]; dup {
			continue
		}
		idx.byID[e.CompetitorID] = e
		idx.root = insert(idx.root, e)
	}

	s.mu.Lock()
	s.weights = weights
	s.count = 0
	for _, idx := range weights {
		s.count += len(idx.byID)
	}
	s.mu.Unlock()

	for w, idx := range weights {
		metrics.UpdateLeaderboardEntries(strconv.Itoa(w), len(idx.byID))
	}
	return nil
}

// Weights implements Store.Weights.
func (s *TreapStore) Weights(ctx context.Context) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, 0, len(s.weights))
	for w := range s.weights {
		out = append(out, w)
	}
	sort.Ints(out)
	return out
}

// TopN implements Store.TopN in O(k + log n) when no filter drops entries.
func (s *TreapStore) TopN(ctx context.Context, weight int, q leaderboard.Query) ([]leaderboard.Entry, error) {
	if q.Limit < 0 || q.Limit > s.maxLimit {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.weights[weight]
	if !ok {
		return nil, ErrUnknownWeight
	}
	limit := q.Limit
	if limit == 0 {
		limit = len(idx.byID)
	}
	out := make([]leaderboard.Entry, 0, limit)
	collect(idx.root, limit, q, &out)
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// Rank implements Store.Rank in O(log n).
func (s *TreapStore) Rank(ctx context.Context, weight int, competitorID string) (leaderboard.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.weights[weight]
	if !ok {
		return leaderboard.Entry{}, ErrUnknownWeight
	}
	e, ok := idx.byID[competitorID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return leaderboard.Entry{}, ErrNotFound
	}
	e.Rank = position(idx.root, e)
	return e, nil
}

// Count implements Store.Count.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}
