//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"claimbridge/internal/claimrequest/models"
	"claimbridge/internal/claimrequest/store"
	id "claimbridge/pkg/domain"
	audit "claimbridge/pkg/platform/audit"
	auditpg "claimbridge/pkg/platform/audit/store/postgres"
	"claimbridge/pkg/platform/sentinel"
	txcontext "claimbridge/pkg/platform/tx"
	"claimbridge/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	audit    *auditpg.Store
	tx       *txcontext.Runner
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgresStore(s.postgres.DB)
	s.audit = auditpg.New(s.postgres.DB)
	s.tx = txcontext.NewRunner(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "outbox", "claim_requests")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestInsertAndFindByID_RoundTrip() {
	ctx := context.Background()
	r := newRecord(requesterA, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(s.store.Insert(ctx, r))

	got, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.RequesterAddress, got.RequesterAddress)
	s.Equal(r.ClaimTopic, got.ClaimTopic)
	s.Equal(r.Document, got.Document)
	s.True(r.CreatedAt.Equal(got.CreatedAt))
	s.True(got.RequesterSignatureValid)
	s.Nil(got.ReviewedAt)

	s.ErrorIs(s.store.Insert(ctx, r), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestFind_FiltersAndOrder() {
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)
	older := newRecord(requesterA, base)
	newer := newRecord(requesterA, base.Add(time.Minute))
	other := newRecord(requesterB, base.Add(2*time.Minute))
	for _, r := range []*models.ClaimRequest{older, newer, other} {
		s.Require().NoError(s.store.Insert(ctx, r))
	}

	addr := requesterA
	got, err := s.store.Find(ctx, models.ListFilter{RequesterAddress: &addr})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(newer.ID, got[0].ID)

	got, err = s.store.Find(ctx, models.ListFilter{Limit: 2, Offset: 1})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(newer.ID, got[0].ID)
	s.Equal(older.ID, got[1].ID)
}

// TestConcurrentTransition verifies the conditional UPDATE lets exactly one
// reviewer win under contention.
func (s *PostgresStoreSuite) TestConcurrentTransition() {
	ctx := context.Background()
	r := newRecord(requesterA, time.Now().UTC())
	s.Require().NoError(s.store.Insert(ctx, r))

	const goroutines = 30
	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.TransitionIfPending(ctx, r.ID, approval(time.Now().UTC()))
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

	_, err := s.store.TransitionIfPending(ctx, id.NewRequestID(), approval(time.Now().UTC()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestTransactionRollsBackLedgerAndOutbox verifies the ledger row and its
// audit outbox row commit or roll back together.
func (s *PostgresStoreSuite) TestTransactionRollsBackLedgerAndOutbox() {
	ctx := context.Background()
	r := newRecord(requesterA, time.Now().UTC())

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Insert(ctx, r); err != nil {
			return err
		}
		if err := s.audit.Append(ctx, audit.Event{ClaimRequestID: r.ID.String(), Action: string(audit.EventClaimRequestCreated)}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	s.Require().Error(err)

	_, err = s.store.FindByID(ctx, r.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	events, err := s.audit.ListByClaimRequest(ctx, r.ID.String())
	s.Require().NoError(err)
	s.Empty(events)

	s.Require().NoError(s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Insert(ctx, r); err != nil {
			return err
		}
		return s.audit.Append(ctx, audit.Event{ClaimRequestID: r.ID.String(), Action: string(audit.EventClaimRequestCreated)})
	}))
	events, err = s.audit.ListByClaimRequest(ctx, r.ID.String())
	s.Require().NoError(err)
	s.Len(events, 1)

	pending, err := s.audit.FetchUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(r.ID.String(), pending[0].AggregateID)
	s.Require().NoError(s.audit.MarkPublished(ctx, []uuid.UUID{pending[0].ID}, time.Now()))
	pending, err = s.audit.FetchUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)
}
