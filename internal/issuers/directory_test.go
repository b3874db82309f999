package issuers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"claimbridge/internal/issuers/mocks"
	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
)

const (
	registryAddr = id.Address("0x00000000000000000000000000000000000000a1")
	issuerA      = id.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	issuerB      = id.Address("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func TestIsTrustedFor(t *testing.T) {
	ctx := context.Background()

	t.Run("trusted topic is answered from cache the second time", func(t *testing.T) {
		registry := mocks.NewMockRegistry(gomock.NewController(t))
		registry.EXPECT().IsTrustedIssuer(gomock.Any(), registryAddr, issuerA).Return(true, nil).Times(1)
		registry.EXPECT().IssuerClaimTopics(gomock.Any(), registryAddr, issuerA).
			Return([]id.ClaimTopic{id.ClaimTopicKYC, id.ClaimTopicAccreditation}, nil).Times(1)
		d := New(registry, registryAddr)

		ok, err := d.IsTrustedFor(ctx, issuerA, id.ClaimTopicKYC)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = d.IsTrustedFor(ctx, issuerA, id.ClaimTopicJurisdiction)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("untrusted issuer never reads topics", func(t *testing.T) {
		registry := mocks.NewMockRegistry(gomock.NewController(t))
		registry.EXPECT().IsTrustedIssuer(gomock.Any(), registryAddr, issuerB).Return(false, nil)
		d := New(registry, registryAddr)

		ok, err := d.IsTrustedFor(ctx, issuerB, id.ClaimTopicKYC)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("registry failure is unavailable and not cached", func(t *testing.T) {
		registry := mocks.NewMockRegistry(gomock.NewController(t))
		registry.EXPECT().IsTrustedIssuer(gomock.Any(), registryAddr, issuerA).Return(false, errors.New("dial tcp: connection refused")).Times(2)
		d := New(registry, registryAddr)

		_, err := d.IsTrustedFor(ctx, issuerA, id.ClaimTopicKYC)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
		_, err = d.IsTrustedFor(ctx, issuerA, id.ClaimTopicKYC)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func TestTrustedIssuers(t *testing.T) {
	registry := mocks.NewMockRegistry(gomock.NewController(t))
	registry.EXPECT().TrustedIssuers(gomock.Any(), registryAddr).Return([]id.Address{issuerA, issuerB}, nil)
	registry.EXPECT().IsTrustedIssuer(gomock.Any(), registryAddr, gomock.Any()).Return(true, nil).Times(2)
	registry.EXPECT().IssuerClaimTopics(gomock.Any(), registryAddr, issuerA).Return([]id.ClaimTopic{id.ClaimTopicKYC}, nil)
	registry.EXPECT().IssuerClaimTopics(gomock.Any(), registryAddr, issuerB).Return([]id.ClaimTopic{id.ClaimTopicJurisdiction}, nil)
	d := New(registry, registryAddr)

	list, err := d.TrustedIssuers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Issuer{
		{Address: issuerA, Topics: []id.ClaimTopic{id.ClaimTopicKYC}},
		{Address: issuerB, Topics: []id.ClaimTopic{id.ClaimTopicJurisdiction}},
	}, list)
}

func TestConcurrentLookupsShareOneRead(t *testing.T) {
	registry := mocks.NewMockRegistry(gomock.NewController(t))
	registry.EXPECT().IsTrustedIssuer(gomock.Any(), registryAddr, issuerA).DoAndReturn(
		func(context.Context, id.Address, id.Address) (bool, error) {
			time.Sleep(100 * time.Millisecond)
			return true, nil
		}).Times(1)
	registry.EXPECT().IssuerClaimTopics(gomock.Any(), registryAddr, issuerA).Return([]id.ClaimTopic{id.ClaimTopicKYC}, nil).Times(1)
	d := New(registry, registryAddr)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := d.IsTrustedFor(context.Background(), issuerA, id.ClaimTopicKYC)
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	close(start)
	wg.Wait()
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache down")
}

func TestCacheFailureFallsThroughToRegistry(t *testing.T) {
	registry := mocks.NewMockRegistry(gomock.NewController(t))
	registry.EXPECT().IsTrustedIssuer(gomock.Any(), registryAddr, issuerA).Return(true, nil)
	registry.EXPECT().IssuerClaimTopics(gomock.Any(), registryAddr, issuerA).Return([]id.ClaimTopic{id.ClaimTopicKYC}, nil)
	d := New(registry, registryAddr, WithCache(failingCache{}))

	ok, err := d.IsTrustedFor(context.Background(), issuerA, id.ClaimTopicKYC)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "list", []byte(`["0x1"]`), time.Minute))
	v, hit, err := c.Get(ctx, "list")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte(`["0x1"]`), v)

	now = now.Add(time.Minute)
	_, hit, err = c.Get(ctx, "list")
	require.NoError(t, err)
	assert.False(t, hit)
}
