package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"claimbridge/internal/claimrequest/models"
	"claimbridge/internal/claimrequest/store"
	id "claimbridge/pkg/domain"
	"claimbridge/pkg/platform/sentinel"
)

const (
	requesterA = id.Address("0x2c7536e3605d9c16a7a3d7b1898e529396a65c23")
	requesterB = id.Address("0x1111111111111111111111111111111111111111")
	issuerX    = id.Address("0x6e0e8b9b3f5c3a4a0d3e8f9f1b8c7a6d5e4f3a2b")
)

func newRecord(requester id.Address, createdAt time.Time) *models.ClaimRequest {
	r, err := models.NewClaimRequest(id.NewRequestID(), models.NewClaimRequestParams{
		RequesterAddress:        requester,
		IssuerAddress:           issuerX,
		ClaimTopic:              id.ClaimTopicKYC,
		Message:                 "attest me",
		Document:                &models.Document{FileID: "file-1", Name: "passport.pdf", ContentType: "application/pdf", Size: 1024},
		SignedMessage:           "req:...",
		Signature:               "0xsig",
		RequesterSignatureValid: true,
	}, createdAt)
	if err != nil {
		panic(err)
	}
	return r
}

func approval(at time.Time) models.Review {
	return models.Review{
		Status:              models.StatusApproved,
		IssuerSignedMessage: "req:x|decision:approved|t:1",
		IssuerSignature:     "0xissuersig",
		ReviewNote:          "looks good",
		ReviewedAt:          at,
	}
}

type InMemoryStoreSuite struct {
	suite.Suite
	store *store.InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) TestInsertAndFind() {
	r := newRecord(requesterA, time.Now())
	s.Require().NoError(s.store.Insert(s.ctx, r))

	got, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.ID, got.ID)
	s.Equal("file-1", got.Document.FileID)

	got.Document.FileID = "mutated"
	again, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal("file-1", again.Document.FileID)
}

func (s *InMemoryStoreSuite) TestInsertDuplicate() {
	r := newRecord(requesterA, time.Now())
	s.Require().NoError(s.store.Insert(s.ctx, r))
	s.ErrorIs(s.store.Insert(s.ctx, r), sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestFindByID_NotFound() {
	_, err := s.store.FindByID(s.ctx, id.NewRequestID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestFind_FiltersOrderAndPagination() {
	base := time.Unix(1_700_000_000, 0)
	older := newRecord(requesterA, base)
	newer := newRecord(requesterA, base.Add(time.Minute))
	other := newRecord(requesterB, base.Add(2*time.Minute))
	for _, r := range []*models.ClaimRequest{older, newer, other} {
		s.Require().NoError(s.store.Insert(s.ctx, r))
	}
	_, err := s.store.TransitionIfPending(s.ctx, older.ID, approval(base.Add(time.Hour)))
	s.Require().NoError(err)

	addr := requesterA
	got, err := s.store.Find(s.ctx, models.ListFilter{RequesterAddress: &addr})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(newer.ID, got[0].ID)
	s.Equal(older.ID, got[1].ID)

	approved := models.StatusApproved
	got, err = s.store.Find(s.ctx, models.ListFilter{RequesterAddress: &addr, Status: &approved})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(older.ID, got[0].ID)

	got, err = s.store.Find(s.ctx, models.ListFilter{Limit: 1, Offset: 1})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(newer.ID, got[0].ID)
}

func (s *InMemoryStoreSuite) TestTransitionIfPending() {
	r := newRecord(requesterA, time.Now())
	s.Require().NoError(s.store.Insert(s.ctx, r))

	reviewedAt := time.Now().Add(time.Minute)
	updated, err := s.store.TransitionIfPending(s.ctx, r.ID, approval(reviewedAt))
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, updated.Status)
	s.Require().NotNil(updated.ReviewedAt)
	s.True(updated.ReviewedAt.Equal(reviewedAt))

	_, err = s.store.TransitionIfPending(s.ctx, r.ID, approval(reviewedAt))
	s.ErrorIs(err, sentinel.ErrInvalidState)

	_, err = s.store.TransitionIfPending(s.ctx, id.NewRequestID(), approval(reviewedAt))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestConcurrentTransitionsExactlyOneWins() {
	r := newRecord(requesterA, time.Now())
	s.Require().NoError(s.store.Insert(s.ctx, r))

	const goroutines = 50
	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.TransitionIfPending(s.ctx, r.ID, approval(time.Now()))
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrInvalidState):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one transition should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load())
}

// Readers listing while reviews land must see each record either fully
// pending or fully reviewed. Run with -race.
func (s *InMemoryStoreSuite) TestFindDuringTransitionsSeesWholeRecords() {
	const records = 200
	ids := make([]id.RequestID, 0, records)
	for i := 0; i < records; i++ {
		r := newRecord(requesterA, time.Now())
		s.Require().NoError(s.store.Insert(s.ctx, r))
		ids = append(ids, r.ID)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for _, requestID := range ids {
			_, err := s.store.TransitionIfPending(s.ctx, requestID, approval(time.Now()))
			s.NoError(err)
		}
	}()

	var torn atomic.Int32
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			got, err := s.store.Find(s.ctx, models.ListFilter{})
			if err != nil {
				torn.Add(1)
				return
			}
			for _, r := range got {
				reviewed := r.Status != models.StatusPending
				if reviewed != (r.IssuerSignature != "") || reviewed != (r.ReviewedAt != nil) {
					torn.Add(1)
				}
			}
		}
	}()
	wg.Wait()

	s.Zero(torn.Load())
}

func (s *InMemoryStoreSuite) TestFindResultsDoNotAliasStoredRecords() {
	r := newRecord(requesterA, time.Now())
	s.Require().NoError(s.store.Insert(s.ctx, r))

	got, err := s.store.Find(s.ctx, models.ListFilter{})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	got[0].Status = models.StatusRejected

	stored, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, stored.Status)
}

func (s *InMemoryStoreSuite) TestRunInTx_FailureRevertsWrites() {
	pending := newRecord(requesterA, time.Now())
	s.Require().NoError(s.store.Insert(s.ctx, pending))
	fresh := newRecord(requesterB, time.Now())
	boom := errors.New("outbox unavailable")

	err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		if err := s.store.Insert(ctx, fresh); err != nil {
			return err
		}
		if _, err := s.store.TransitionIfPending(ctx, pending.ID, approval(time.Now())); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.store.FindByID(s.ctx, fresh.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	stored, err := s.store.FindByID(s.ctx, pending.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, stored.Status)
	s.Empty(stored.IssuerSignature)
	s.Nil(stored.ReviewedAt)
}

func (s *InMemoryStoreSuite) TestRunInTx_SuccessKeepsWrites() {
	pending := newRecord(requesterA, time.Now())
	s.Require().NoError(s.store.Insert(s.ctx, pending))

	err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		_, err := s.store.TransitionIfPending(ctx, pending.ID, approval(time.Now()))
		return err
	})
	s.Require().NoError(err)

	stored, err := s.store.FindByID(s.ctx, pending.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, stored.Status)
}
