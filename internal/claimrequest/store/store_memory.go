package store

import (
	"context"
	"sort"
	"sync"

	"claimbridge/internal/claimrequest/models"
	id "claimbridge/pkg/domain"
	"claimbridge/pkg/platform/sentinel"
)

type memoryRecord struct {
	request *models.ClaimRequest
	seq     uint64
}

// InMemoryStore keeps claim requests in a map guarded by a mutex. Stored
// requests are never mutated: writes swap in a fresh copy, and reads clone
// under the lock, so callers never alias stored state.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.RequestID]*memoryRecord
	seq     uint64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.RequestID]*memoryRecord)}
}

type journalKey struct{}

// journal collects undo steps for writes made inside RunInTx.
type journal struct {
	undo []func()
}

func (s *InMemoryStore) record(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.undo = append(j.undo, undo)
	}
}

// RunInTx runs fn and, when it fails, reverts the writes this store made
// through the derived context. Other stores joining fn are not rolled back.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}
	j := &journal{}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		s.mu.Lock()
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *InMemoryStore) Insert(ctx context.Context, r *models.ClaimRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[r.ID]; exists {
		return sentinel.ErrConflict
	}
	s.seq++
	rec := &memoryRecord{request: r.Clone(), seq: s.seq}
	s.records[r.ID] = rec
	s.record(ctx, func() {
		if s.records[r.ID] == rec {
			delete(s.records, r.ID)
		}
	})
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, requestID id.RequestID) (*models.ClaimRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.request.Clone(), nil
}

// Find returns matching records newest first; ties on CreatedAt fall back to
// insertion order.
func (s *InMemoryStore) Find(_ context.Context, filter models.ListFilter) ([]*models.ClaimRequest, error) {
	s.mu.RLock()
	matched := make([]memoryRecord, 0, len(s.records))
	for _, rec := range s.records {
		if filter.Matches(rec.request) {
			matched = append(matched, memoryRecord{request: rec.request.Clone(), seq: rec.seq})
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.request.CreatedAt.Equal(b.request.CreatedAt) {
			return a.request.CreatedAt.After(b.request.CreatedAt)
		}
		return a.seq > b.seq
	})

	if filter.Offset >= len(matched) {
		return []*models.ClaimRequest{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	out := make([]*models.ClaimRequest, len(matched))
	for i, rec := range matched {
		out[i] = rec.request
	}
	return out, nil
}

// TransitionIfPending applies review only while the record is still pending.
// The check and the write happen under one lock, so concurrent reviewers of
// the same id see exactly one success.
func (s *InMemoryStore) TransitionIfPending(ctx context.Context, requestID id.RequestID, review models.Review) (*models.ClaimRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if rec.request.Status != models.StatusPending {
		return nil, sentinel.ErrInvalidState
	}
	previous := rec.request
	reviewed := previous.Clone()
	reviewed.ApplyReview(review)
	rec.request = reviewed
	s.record(ctx, func() {
		if rec.request == reviewed {
			rec.request = previous
		}
	})
	return reviewed.Clone(), nil
}
