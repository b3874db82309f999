package handler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimbridge/internal/chain"
	"claimbridge/internal/identity"
	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
	"claimbridge/pkg/testutil"
)

type stubReader struct {
	gotTopics []id.ClaimTopic
	claims    []identity.Claim
	err       error
}

func (s *stubReader) Claims(_ context.Context, _ id.Address, topics []id.ClaimTopic) ([]identity.Claim, error) {
	s.gotTopics = topics
	return s.claims, s.err
}

func newRouter(reader Reader) http.Handler {
	r := chi.NewRouter()
	New(reader, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))).Register(r)
	return r
}

const identityPath = "/identities/0x00000000000000000000000000000000000000d1/claims"

func TestHandleClaims(t *testing.T) {
	reviewedAt := time.Unix(1_700_000_000, 0).UTC()

	t.Run("default topics", func(t *testing.T) {
		reader := &stubReader{}
		rr := testutil.DoRequest(newRouter(reader), testutil.NewRequest(t, http.MethodGet, identityPath))
		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, []id.ClaimTopic{1, 7, 9}, reader.gotTopics)
	})

	t.Run("explicit topics and decoded fields", func(t *testing.T) {
		reader := &stubReader{claims: []identity.Claim{{
			Claim:          chain.Claim{Topic: id.ClaimTopicAccreditation, Scheme: 1, Issuer: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Signature: []byte{0xab}, URI: "/api/download/x"},
			Message:        "hello",
			ReviewedAt:     &reviewedAt,
			SignatureValid: true,
		}}}
		rr := testutil.DoRequest(newRouter(reader), testutil.NewRequest(t, http.MethodGet, identityPath+"?topics=7"))
		testutil.AssertStatusOK(t, rr)
		resp := testutil.UnmarshalResponse[ClaimsResponse](t, rr)
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, "0xab", resp.Claims[0].Signature)
		assert.Equal(t, "hello", resp.Claims[0].Message)
		assert.True(t, resp.Claims[0].SignatureValid)
		require.NotNil(t, resp.Claims[0].ReviewedAt)
		assert.Equal(t, "2023-11-14T22:13:20Z", *resp.Claims[0].ReviewedAt)
		assert.Equal(t, []id.ClaimTopic{7}, reader.gotTopics)
	})

	t.Run("bad topics", func(t *testing.T) {
		rr := testutil.DoRequest(newRouter(&stubReader{}), testutil.NewRequest(t, http.MethodGet, identityPath+"?topics=1,x"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("no contract", func(t *testing.T) {
		reader := &stubReader{err: dErrors.Wrap(errors.New("empty"), dErrors.CodeNotFound, "no identity contract at this address")}
		rr := testutil.DoRequest(newRouter(reader), testutil.NewRequest(t, http.MethodGet, identityPath))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})
}
