package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "claimbridge/pkg/platform/audit"
	"claimbridge/pkg/platform/audit/store/memory"
	"claimbridge/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("disk full") }

func TestEmit(t *testing.T) {
	t.Run("persists with compliance category", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		p := New(store)

		err := p.Emit(context.Background(), audit.ComplianceEvent{
			ClaimRequestID: "req-1",
			Actor:          "0xabc",
			Action:         audit.EventClaimRequestApproved,
			Decision:       "approved",
		})
		require.NoError(t, err)

		events, err := store.ListByClaimRequest(context.Background(), "req-1")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, audit.CategoryCompliance, events[0].Category)
		assert.Equal(t, "claim_request_approved", events[0].Action)
		assert.False(t, events[0].Timestamp.IsZero())
	})

	t.Run("missing claim request id", func(t *testing.T) {
		p := New(memory.NewInMemoryStore())
		err := p.Emit(context.Background(), audit.ComplianceEvent{Action: audit.EventClaimRequestCreated})
		assert.Error(t, err)
	})

	t.Run("operational actions are refused", func(t *testing.T) {
		p := New(memory.NewInMemoryStore())
		err := p.Emit(context.Background(), audit.ComplianceEvent{
			ClaimRequestID: "req-1",
			Action:         audit.EventClaimPublished,
		})
		assert.Error(t, err)
	})

	t.Run("request context fills time and correlation id", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(requestcontext.WithRequestID(context.Background(), "corr-9"), at)

		require.NoError(t, New(store).Emit(ctx, audit.ComplianceEvent{
			ClaimRequestID: "req-2",
			Action:         audit.EventClaimRequestCreated,
		}))

		events, err := store.ListByClaimRequest(context.Background(), "req-2")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, at, events[0].Timestamp)
		assert.Equal(t, "corr-9", events[0].RequestID)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		p := New(failingStore{})
		err := p.Emit(context.Background(), audit.ComplianceEvent{
			ClaimRequestID: "req-1",
			Action:         audit.EventClaimRequestCreated,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})
}
