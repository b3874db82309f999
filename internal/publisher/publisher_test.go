package publisher_test

import (
	"context"
	"errors"
	"math/big"
	"syscall"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"claimbridge/internal/attestation"
	"claimbridge/internal/chain"
	"claimbridge/internal/chain/chaintest"
	"claimbridge/internal/claimrequest/models"
	"claimbridge/internal/publisher"
	"claimbridge/internal/publisher/mocks"
	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
	audit "claimbridge/pkg/platform/audit"
	"claimbridge/pkg/testutil"
)

const identityAddr = id.Address("0x00000000000000000000000000000000000000d1")

var reviewedAt = time.Unix(1_700_000_500, 0).UTC()

func approvedRequest(t *testing.T, requester, issuer testutil.Wallet, doc *models.Document) *models.ClaimRequest {
	t.Helper()
	createdAt := time.Unix(1_700_000_000, 0).UTC()
	msg := attestation.BuildRequesterMessage(requester.Address, issuer.Address, id.ClaimTopicKYC, createdAt)
	req, err := models.NewClaimRequest(id.NewRequestID(), models.NewClaimRequestParams{
		RequesterAddress:        requester.Address,
		IssuerAddress:           issuer.Address,
		ClaimTopic:              id.ClaimTopicKYC,
		Message:                 "passport scan attached",
		Document:                doc,
		SignedMessage:           msg,
		Signature:               requester.Sign(t, msg),
		RequesterSignatureValid: true,
	}, createdAt)
	require.NoError(t, err)

	decision := attestation.BuildIssuerDecisionMessage(req.ID, attestation.DecisionApproved, reviewedAt)
	req.ApplyReview(models.Review{
		Status:              models.StatusApproved,
		IssuerSignedMessage: decision,
		IssuerSignature:     issuer.Sign(t, decision),
		ReviewedAt:          reviewedAt,
	})
	return req
}

type recordingTracker struct {
	events []audit.OpsEvent
}

func (r *recordingTracker) Track(_ context.Context, e audit.OpsEvent) {
	r.events = append(r.events, e)
}

type PublishSuite struct {
	suite.Suite
	backend   *chaintest.Backend
	gateway   *chain.Gateway
	tracker   *recordingTracker
	publisher *publisher.Publisher
	requester testutil.Wallet
	issuer    testutil.Wallet
	stranger  testutil.Wallet
	ctx       context.Context
}

func TestPublishSuite(t *testing.T) {
	suite.Run(t, new(PublishSuite))
}

func (s *PublishSuite) SetupTest() {
	s.backend = chaintest.NewBackend()
	s.gateway = chain.New(s.backend, chain.WithPollInterval(2*time.Millisecond))
	s.tracker = &recordingTracker{}
	s.requester = testutil.NewWallet(s.T(), testutil.RequesterKeyHex)
	s.issuer = testutil.NewWallet(s.T(), testutil.IssuerKeyHex)
	s.stranger = testutil.NewWallet(s.T(), testutil.StrangerKeyHex)
	s.backend.DeployIdentity(identityAddr, s.requester.Address)
	s.publisher = publisher.New(s.gateway,
		publisher.WithOpsTracker(s.tracker),
		publisher.WithConfirmTimeout(200*time.Millisecond),
		publisher.WithIdentityResolver(resolverFunc(func(context.Context, id.Address) (id.Address, error) {
			return identityAddr, nil
		})),
	)
	s.ctx = context.Background()
}

type resolverFunc func(context.Context, id.Address) (id.Address, error)

func (f resolverFunc) ResolveIdentity(ctx context.Context, wallet id.Address) (id.Address, error) {
	return f(ctx, wallet)
}

func (s *PublishSuite) keySigner(w testutil.Wallet) publisher.Signer {
	return publisher.NewKeySigner(w.Key, s.gateway)
}

func (s *PublishSuite) TestPublishApprovedClaim() {
	req := approvedRequest(s.T(), s.requester, s.issuer, &models.Document{FileID: "doc-42", Name: "passport.pdf"})

	receipt, err := s.publisher.Publish(s.ctx, req, identityAddr, s.keySigner(s.requester))
	s.Require().NoError(err)
	s.Equal(publisher.ConfirmedByEvent, receipt.Confirmation)
	s.Equal(chain.ClaimID(s.issuer.Address, id.ClaimTopicKYC), receipt.ClaimID)
	s.NotZero(receipt.BlockNumber)
	s.Len(s.backend.Sent(), 1)

	claim, err := s.gateway.GetClaim(s.ctx, identityAddr, s.issuer.Address, id.ClaimTopicKYC)
	s.Require().NoError(err)
	s.Equal("/api/download/doc-42", claim.URI)
	message, signedDecision, at, err := publisher.DecodeClaimData(claim.Data)
	s.Require().NoError(err)
	s.Equal(req.Message, message)
	s.Equal(req.IssuerSignedMessage, signedDecision)
	s.Equal(reviewedAt.Unix(), at)

	s.Require().Len(s.tracker.events, 1)
	s.Equal(audit.EventClaimPublished, s.tracker.events[0].Action)
	s.Equal(receipt.TxHash.Hex(), s.tracker.events[0].TxHash)
}

func (s *PublishSuite) TestPublishResolvesIdentity() {
	req := approvedRequest(s.T(), s.requester, s.issuer, nil)

	receipt, err := s.publisher.Publish(s.ctx, req, "", s.keySigner(s.requester))
	s.Require().NoError(err)
	s.Equal(identityAddr, receipt.Identity)
}

func (s *PublishSuite) TestPendingRequestIsNotPublishable() {
	req := approvedRequest(s.T(), s.requester, s.issuer, nil)
	req.Status = models.StatusPending
	req.IssuerSignature = ""
	req.ReviewedAt = nil

	_, err := s.publisher.Publish(s.ctx, req, identityAddr, s.keySigner(s.requester))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	s.Empty(s.backend.Sent())
}

func (s *PublishSuite) TestRejectedRequestIsNotPublishable() {
	req := approvedRequest(s.T(), s.requester, s.issuer, nil)
	req.Status = models.StatusRejected

	_, err := s.publisher.Publish(s.ctx, req, identityAddr, s.keySigner(s.requester))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	s.Empty(s.backend.Sent())
}

func (s *PublishSuite) TestSignerMustBeRequester() {
	req := approvedRequest(s.T(), s.requester, s.issuer, nil)

	_, err := s.publisher.Publish(s.ctx, req, identityAddr, s.keySigner(s.stranger))
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Empty(s.backend.Sent())
	s.Require().Len(s.tracker.events, 1)
	s.Equal(audit.EventClaimPublishFailed, s.tracker.events[0].Action)
}

func (s *PublishSuite) TestRawTransactionFromWallet() {
	req := approvedRequest(s.T(), s.requester, s.issuer, nil)
	raw := s.signRaw(s.requester, req, identityAddr)

	signer, err := publisher.ParseRawTransaction(raw, s.gateway)
	s.Require().NoError(err)
	receipt, err := s.publisher.Publish(s.ctx, req, identityAddr, signer)
	s.Require().NoError(err)
	s.Equal(signer.Transaction().Hash(), receipt.TxHash)
}

func (s *PublishSuite) TestRawTransactionFromStrangerIsForbidden() {
	req := approvedRequest(s.T(), s.requester, s.issuer, nil)
	raw := s.signRaw(s.stranger, req, identityAddr)

	signer, err := publisher.ParseRawTransaction(raw, s.gateway)
	s.Require().NoError(err)
	_, err = s.publisher.Publish(s.ctx, req, identityAddr, signer)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Empty(s.backend.Sent())
}

func (s *PublishSuite) TestRawTransactionWithOtherCalldataIsRejected() {
	req := approvedRequest(s.T(), s.requester, s.issuer, nil)
	other := approvedRequest(s.T(), s.requester, s.issuer, &models.Document{FileID: "swapped"})
	raw := s.signRaw(s.requester, other, identityAddr)

	signer, err := publisher.ParseRawTransaction(raw, s.gateway)
	s.Require().NoError(err)
	_, err = s.publisher.Publish(s.ctx, req, identityAddr, signer)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Empty(s.backend.Sent())
}

func (s *PublishSuite) TestRevertDuringEstimate() {
	s.backend.SetBehaviour(chaintest.Behaviour{RevertReason: "Compliance: transfer not allowed"})
	req := approvedRequest(s.T(), s.requester, s.issuer, nil)

	_, err := s.publisher.Publish(s.ctx, req, identityAddr, s.keySigner(s.requester))
	s.True(dErrors.HasCode(err, dErrors.CodePublishFailed))
	pe, ok := publisher.AsPublishError(err)
	s.Require().True(ok)
	s.Equal(publisher.KindRevert, pe.Kind)
	s.Equal("Compliance: transfer not allowed", pe.Reason)
	s.False(pe.Retryable())
}

func (s *PublishSuite) TestRevertOnChain() {
	s.backend.SetBehaviour(chaintest.Behaviour{RevertOnChain: true})
	req := approvedRequest(s.T(), s.requester, s.issuer, nil)

	_, err := s.publisher.Publish(s.ctx, req, identityAddr, s.keySigner(s.requester))
	pe, ok := publisher.AsPublishError(err)
	s.Require().True(ok)
	s.Equal(publisher.KindRevert, pe.Kind)
	s.NotEqual(common.Hash{}, pe.TxHash)
}

func (s *PublishSuite) TestFallsBackToClaimExistsOnce() {
	s.backend.SetBehaviour(chaintest.Behaviour{SuppressEvents: true})
	req := approvedRequest(s.T(), s.requester, s.issuer, nil)

	receipt, err := s.publisher.Publish(s.ctx, req, identityAddr, s.keySigner(s.requester))
	s.Require().NoError(err)
	s.Equal(publisher.ConfirmedByClaimExists, receipt.Confirmation)
	s.Equal(1, s.backend.Calls("claimExists"))
}

func (s *PublishSuite) TestUnconfirmedWhenNeverMined() {
	s.backend.SetBehaviour(chaintest.Behaviour{NeverMine: true})
	req := approvedRequest(s.T(), s.requester, s.issuer, nil)

	_, err := s.publisher.Publish(s.ctx, req, identityAddr, s.keySigner(s.requester))
	pe, ok := publisher.AsPublishError(err)
	s.Require().True(ok)
	s.Equal(publisher.KindUnconfirmed, pe.Kind)
	s.NotEqual(common.Hash{}, pe.TxHash)
	s.Equal(0, s.backend.Calls("claimExists"))
}

func (s *PublishSuite) signRaw(w testutil.Wallet, req *models.ClaimRequest, identity id.Address) string {
	payload, err := s.publisher.BuildPayload(req)
	s.Require().NoError(err)
	calldata, err := payload.Calldata()
	s.Require().NoError(err)
	nonce, err := s.backend.PendingNonceAt(s.ctx, w.Address.Common())
	s.Require().NoError(err)

	to := identity.Common()
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      300_000,
		GasPrice: big.NewInt(1_000_000_000),
		Data:     calldata,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(chaintest.ChainID)), w.Key)
	s.Require().NoError(err)
	b, err := signed.MarshalBinary()
	s.Require().NoError(err)
	return hexutil.Encode(b)
}

func TestPublishFailureClassification(t *testing.T) {
	requester := testutil.NewWallet(t, testutil.RequesterKeyHex)
	issuer := testutil.NewWallet(t, testutil.IssuerKeyHex)

	newPublisher := func(t *testing.T) (*publisher.Publisher, *mocks.MockChain, *mocks.MockOpsTracker, *publisher.KeySigner) {
		ctrl := gomock.NewController(t)
		node := mocks.NewMockChain(ctrl)
		tracker := mocks.NewMockOpsTracker(ctrl)
		backend := chaintest.NewBackend()
		backend.DeployIdentity(identityAddr, requester.Address)
		signer := publisher.NewKeySigner(requester.Key, chain.New(backend))
		return publisher.New(node, publisher.WithOpsTracker(tracker)), node, tracker, signer
	}

	t.Run("connection refused is a retryable network failure", func(t *testing.T) {
		p, node, tracker, signer := newPublisher(t)
		node.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).Return(syscall.ECONNREFUSED)
		tracker.EXPECT().Track(gomock.Any(), gomock.Any())

		_, err := p.Publish(context.Background(), approvedRequest(t, requester, issuer, nil), identityAddr, signer)
		pe, ok := publisher.AsPublishError(err)
		require.True(t, ok)
		assert.Equal(t, publisher.KindNetwork, pe.Kind)
		assert.True(t, pe.Retryable())
	})

	t.Run("wallet rejection", func(t *testing.T) {
		p, node, tracker, signer := newPublisher(t)
		node.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).Return(errors.New("User rejected the request."))
		tracker.EXPECT().Track(gomock.Any(), gomock.Any())

		_, err := p.Publish(context.Background(), approvedRequest(t, requester, issuer, nil), identityAddr, signer)
		pe, ok := publisher.AsPublishError(err)
		require.True(t, ok)
		assert.Equal(t, publisher.KindUserRejected, pe.Kind)
	})

	t.Run("mined without the claim is unknown", func(t *testing.T) {
		p, node, tracker, signer := newPublisher(t)
		node.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).Return(nil)
		node.EXPECT().WaitMined(gomock.Any(), gomock.Any()).Return(&types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(9)}, nil)
		node.EXPECT().ClaimExists(gomock.Any(), identityAddr, issuer.Address, id.ClaimTopicKYC).Return(false, nil).Times(1)
		tracker.EXPECT().Track(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e audit.OpsEvent) {
			assert.Equal(t, audit.EventClaimPublishFailed, e.Action)
			assert.NotEmpty(t, e.TxHash)
		})

		_, err := p.Publish(context.Background(), approvedRequest(t, requester, issuer, nil), identityAddr, signer)
		pe, ok := publisher.AsPublishError(err)
		require.True(t, ok)
		assert.Equal(t, publisher.KindUnknown, pe.Kind)
	})

	t.Run("caller cancellation is unconfirmed, never success", func(t *testing.T) {
		p, node, tracker, signer := newPublisher(t)
		ctx, cancel := context.WithCancel(context.Background())
		node.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).Return(nil)
		node.EXPECT().WaitMined(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ common.Hash) (*types.Receipt, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		})
		tracker.EXPECT().Track(gomock.Any(), gomock.Any())

		_, err := p.Publish(ctx, approvedRequest(t, requester, issuer, nil), identityAddr, signer)
		pe, ok := publisher.AsPublishError(err)
		require.True(t, ok)
		assert.Equal(t, publisher.KindUnconfirmed, pe.Kind)
	})

	t.Run("identity required without resolver", func(t *testing.T) {
		p, _, _, signer := newPublisher(t)
		_, err := p.Publish(context.Background(), approvedRequest(t, requester, issuer, nil), "", signer)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestPublishErrorDetails(t *testing.T) {
	pe := &publisher.PublishError{Kind: publisher.KindRevert, Reason: "nope", TxHash: common.HexToHash("0xabc")}
	details := pe.ErrorDetails()
	assert.Equal(t, "revert", details["publish_kind"])
	assert.Equal(t, common.HexToHash("0xabc").Hex(), details["tx_hash"])
	assert.Contains(t, pe.Error(), "nope")
}
