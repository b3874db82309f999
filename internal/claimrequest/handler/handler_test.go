package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimbridge/internal/attestation"
	"claimbridge/internal/claimrequest/service"
	"claimbridge/internal/claimrequest/store"
	id "claimbridge/pkg/domain"
	"claimbridge/pkg/platform/audit/publishers/compliance"
	auditmemory "claimbridge/pkg/platform/audit/store/memory"
	"claimbridge/pkg/testutil"
)

type fixture struct {
	router    http.Handler
	requester testutil.Wallet
	issuer    testutil.Wallet
	stranger  testutil.Wallet
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	svc := service.New(store.NewInMemoryStore(), attestation.New(), compliance.New(auditmemory.NewInMemoryStore()))
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	h := New(svc, logger)
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterAdmin(r)
	return &fixture{
		router:    r,
		requester: testutil.NewWallet(t, testutil.RequesterKeyHex),
		issuer:    testutil.NewWallet(t, testutil.IssuerKeyHex),
		stranger:  testutil.NewWallet(t, testutil.StrangerKeyHex),
	}
}

func (f *fixture) create(t *testing.T) ClaimRequestResponse {
	t.Helper()
	msg := attestation.BuildRequesterMessage(f.requester.Address, f.issuer.Address, id.ClaimTopicKYC, time.Unix(1000, 0))
	body := map[string]any{
		"requesterAddress": string(f.requester.Address),
		"issuerAddress":    string(f.issuer.Address),
		"claimTopic":       1,
		"message":          "kyc please",
		"document":         map[string]any{"fileId": "f-123", "name": "passport.pdf", "contentType": "application/pdf", "size": 2048},
		"signedMessage":    msg,
		"signature":        f.requester.Sign(t, msg),
	}
	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/requests", body))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return *testutil.UnmarshalResponse[ClaimRequestResponse](t, rr)
}

func (f *fixture) reviewBody(t *testing.T, requestID string, decision attestation.Decision, signer testutil.Wallet) map[string]any {
	t.Helper()
	rid, err := id.ParseRequestID(requestID)
	require.NoError(t, err)
	msg := attestation.BuildIssuerDecisionMessage(rid, decision, time.Unix(2000, 0))
	return map[string]any{
		"status":              string(decision),
		"issuerSignedMessage": msg,
		"issuerSignature":     signer.Sign(t, msg),
		"reviewNote":          "verified against passport",
	}
}

func TestCreateAndGet(t *testing.T) {
	f := newFixture(t)
	created := f.create(t)

	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, string(f.requester.Address), created.RequesterAddress)
	assert.Equal(t, "KYC", created.ClaimTopicName)
	require.NotNil(t, created.Document)
	assert.Equal(t, "f-123", created.Document.FileID)
	assert.Nil(t, created.ReviewedAt)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/requests/"+created.ID))
	testutil.AssertStatusOK(t, rr)
	got := testutil.UnmarshalResponse[ClaimRequestResponse](t, rr)
	assert.Equal(t, created.ID, got.ID)
}

func TestCreate_Errors(t *testing.T) {
	f := newFixture(t)

	t.Run("malformed json", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewRequestWithBody(t, http.MethodPost, "/requests", "{"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	t.Run("missing issuer", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/requests", map[string]any{
			"requesterAddress": string(f.requester.Address),
			"claimTopic":       1,
			"signedMessage":    "m",
			"signature":        "0x00",
		}))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})

	t.Run("signature by someone else", func(t *testing.T) {
		msg := attestation.BuildRequesterMessage(f.requester.Address, f.issuer.Address, id.ClaimTopicKYC, time.Unix(1000, 0))
		rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/requests", map[string]any{
			"requesterAddress": string(f.requester.Address),
			"issuerAddress":    string(f.issuer.Address),
			"claimTopic":       1,
			"signedMessage":    msg,
			"signature":        f.stranger.Sign(t, msg),
		}))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})
}

func TestGet_Errors(t *testing.T) {
	f := newFixture(t)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/requests/not-a-uuid"))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")

	rr = testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/requests/"+id.NewRequestID().String()))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestReviewLifecycle(t *testing.T) {
	f := newFixture(t)
	created := f.create(t)
	path := "/requests/" + created.ID + "/review"

	testutil.Given(t, "a pending request", func(t *testing.T) {
		testutil.When(t, "a stranger signs the approval", func(t *testing.T) {
			rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, path,
				f.reviewBody(t, created.ID, attestation.DecisionApproved, f.stranger)))
			testutil.Then(t, "it is rejected as unauthorized", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
			})
		})

		testutil.When(t, "the issuer approves", func(t *testing.T) {
			rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, path,
				f.reviewBody(t, created.ID, attestation.DecisionApproved, f.issuer)))
			testutil.Then(t, "the request is approved", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				got := testutil.UnmarshalResponse[ClaimRequestResponse](t, rr)
				assert.Equal(t, "approved", got.Status)
				assert.NotNil(t, got.ReviewedAt)
				assert.Equal(t, "verified against passport", got.ReviewNote)
			})
		})

		testutil.When(t, "the issuer reviews again", func(t *testing.T) {
			rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, path,
				f.reviewBody(t, created.ID, attestation.DecisionRejected, f.issuer)))
			testutil.Then(t, "it conflicts", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusConflict, "invalid_state")
			})
		})
	})
}

func TestReview_InvalidStatus(t *testing.T) {
	f := newFixture(t)
	created := f.create(t)

	body := f.reviewBody(t, created.ID, attestation.DecisionApproved, f.issuer)
	body["status"] = "pending"
	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/requests/"+created.ID+"/review", body))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
}

func TestList(t *testing.T) {
	f := newFixture(t)
	first := f.create(t)
	f.create(t)

	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/requests/"+first.ID+"/review",
		f.reviewBody(t, first.ID, attestation.DecisionRejected, f.issuer)))
	testutil.AssertStatusOK(t, rr)

	upper := "0x" + strings.ToUpper(string(f.requester.Address)[2:])
	rr = testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/requests?requesterAddress="+upper))
	testutil.AssertStatusOK(t, rr)
	all := testutil.UnmarshalResponse[ListResponse](t, rr)
	assert.Equal(t, 2, all.Count)

	rr = testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/requests?status=rejected"))
	testutil.AssertStatusOK(t, rr)
	rejected := testutil.UnmarshalResponse[ListResponse](t, rr)
	require.Equal(t, 1, rejected.Count)
	assert.Equal(t, first.ID, rejected.Requests[0].ID)

	rr = testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/requests?limit=abc"))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")

	rr = testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/requests?limit=1000"))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
}

func TestAttestationReport(t *testing.T) {
	f := newFixture(t)
	created := f.create(t)

	req := testutil.WithAdmin(testutil.NewRequest(t, http.MethodGet, "/admin/requests/"+created.ID+"/attestation"), "ops@claimbridge")
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatusOK(t, rr)
	report := testutil.UnmarshalResponse[AttestationResponse](t, rr)
	assert.True(t, report.RequesterValid)
	assert.Equal(t, string(f.requester.Address), report.RecoveredRequester)
	assert.False(t, report.IssuerValid)
}
