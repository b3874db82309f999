package chain_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"claimbridge/internal/chain"
	"claimbridge/internal/chain/chaintest"
	id "claimbridge/pkg/domain"
	"claimbridge/pkg/testutil"
)

const identityAddr = id.Address("0x00000000000000000000000000000000000000d1")

type GatewaySuite struct {
	suite.Suite
	backend   *chaintest.Backend
	gateway   *chain.Gateway
	requester testutil.Wallet
	issuer    testutil.Wallet
	ctx       context.Context
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	s.backend = chaintest.NewBackend()
	s.gateway = chain.New(s.backend, chain.WithPollInterval(5*time.Millisecond), chain.WithCallTimeout(time.Second))
	s.requester = testutil.NewWallet(s.T(), testutil.RequesterKeyHex)
	s.issuer = testutil.NewWallet(s.T(), testutil.IssuerKeyHex)
	s.backend.DeployIdentity(identityAddr, s.requester.Address)
	s.ctx = context.Background()
}

func (s *GatewaySuite) addClaim(topic id.ClaimTopic) *types.Receipt {
	data, err := chain.PackAddClaim(chain.AddClaimInput{
		Topic:     topic,
		Scheme:    chain.SchemeECDSA,
		Issuer:    s.issuer.Address,
		Signature: []byte{0x01, 0x02},
		Data:      []byte("payload"),
		URI:       "/api/download/doc-1",
	})
	s.Require().NoError(err)
	tx, err := s.gateway.SignTransaction(s.ctx, s.requester.Key, identityAddr.Common(), data)
	s.Require().NoError(err)
	s.Require().NoError(s.gateway.SendTransaction(s.ctx, tx))
	receipt, err := s.gateway.WaitMined(s.ctx, tx.Hash())
	s.Require().NoError(err)
	return receipt
}

func (s *GatewaySuite) TestAddClaimRoundTrip() {
	receipt := s.addClaim(id.ClaimTopicKYC)
	s.Equal(types.ReceiptStatusSuccessful, receipt.Status)

	event, ok := chain.FindClaimEvent(receipt, identityAddr, s.issuer.Address, id.ClaimTopicKYC)
	s.Require().True(ok)
	s.Equal("ClaimAdded", event.Name)
	s.Equal(chain.ClaimID(s.issuer.Address, id.ClaimTopicKYC), event.ClaimID)

	exists, err := s.gateway.ClaimExists(s.ctx, identityAddr, s.issuer.Address, id.ClaimTopicKYC)
	s.Require().NoError(err)
	s.True(exists)

	claim, err := s.gateway.GetClaim(s.ctx, identityAddr, s.issuer.Address, id.ClaimTopicKYC)
	s.Require().NoError(err)
	s.Equal(id.ClaimTopicKYC, claim.Topic)
	s.Equal(chain.SchemeECDSA, claim.Scheme)
	s.Equal(s.issuer.Address, claim.Issuer)
	s.Equal([]byte("payload"), claim.Data)
	s.Equal("/api/download/doc-1", claim.URI)

	issuers, err := s.gateway.ClaimIssuersForTopic(s.ctx, identityAddr, id.ClaimTopicKYC)
	s.Require().NoError(err)
	s.Equal([]id.Address{s.issuer.Address}, issuers)
}

func (s *GatewaySuite) TestSecondAddClaimEmitsClaimChanged() {
	s.addClaim(id.ClaimTopicKYC)
	receipt := s.addClaim(id.ClaimTopicKYC)

	event, ok := chain.FindClaimEvent(receipt, identityAddr, s.issuer.Address, id.ClaimTopicKYC)
	s.Require().True(ok)
	s.Equal("ClaimChanged", event.Name)
}

func (s *GatewaySuite) TestFindClaimEventIgnoresOtherTopics() {
	receipt := s.addClaim(id.ClaimTopicKYC)

	_, ok := chain.FindClaimEvent(receipt, identityAddr, s.issuer.Address, id.ClaimTopicAccreditation)
	s.False(ok)
	_, ok = chain.FindClaimEvent(receipt, id.Address("0x00000000000000000000000000000000000000d2"), s.issuer.Address, id.ClaimTopicKYC)
	s.False(ok)
	_, ok = chain.FindClaimEvent(nil, identityAddr, s.issuer.Address, id.ClaimTopicKYC)
	s.False(ok)
}

func (s *GatewaySuite) TestMissingClaimReadsAsZeroIssuer() {
	claim, err := s.gateway.GetClaim(s.ctx, identityAddr, s.issuer.Address, id.ClaimTopicJurisdiction)
	s.Require().NoError(err)
	s.True(claim.Issuer.IsZero())

	exists, err := s.gateway.ClaimExists(s.ctx, identityAddr, s.issuer.Address, id.ClaimTopicJurisdiction)
	s.Require().NoError(err)
	s.False(exists)
}

func (s *GatewaySuite) TestCallWithoutCode() {
	_, err := s.gateway.ClaimExists(s.ctx, id.Address("0x00000000000000000000000000000000000000ee"), s.issuer.Address, id.ClaimTopicKYC)
	s.ErrorIs(err, chain.ErrNoContract)
}

func (s *GatewaySuite) TestUnconfiguredRegistry() {
	_, err := s.gateway.IsTrustedIssuer(s.ctx, "", s.issuer.Address)
	s.ErrorIs(err, chain.ErrNotConfigured)
}

func (s *GatewaySuite) TestEstimateRevertIsDecoded() {
	s.backend.SetBehaviour(chaintest.Behaviour{RevertReason: "compliance check failed"})
	data, err := chain.PackAddClaim(chain.AddClaimInput{Topic: id.ClaimTopicKYC, Scheme: chain.SchemeECDSA, Issuer: s.issuer.Address})
	s.Require().NoError(err)

	_, err = s.gateway.SignTransaction(s.ctx, s.requester.Key, identityAddr.Common(), data)
	re, ok := chain.AsRevert(err)
	s.Require().True(ok)
	s.Equal("compliance check failed", re.Reason)
}

func (s *GatewaySuite) TestNonOwnerCannotAddClaim() {
	data, err := chain.PackAddClaim(chain.AddClaimInput{Topic: id.ClaimTopicKYC, Scheme: chain.SchemeECDSA, Issuer: s.issuer.Address})
	s.Require().NoError(err)

	_, err = s.gateway.SignTransaction(s.ctx, s.issuer.Key, identityAddr.Common(), data)
	re, ok := chain.AsRevert(err)
	s.Require().True(ok)
	s.Contains(re.Reason, "claim signer key")
}

func (s *GatewaySuite) TestSenderRecoversSigner() {
	tx, err := s.gateway.SignTransaction(s.ctx, s.requester.Key, common.HexToAddress("0x00000000000000000000000000000000000000ee"), nil)
	s.Require().NoError(err)

	sender, err := s.gateway.Sender(s.ctx, tx)
	s.Require().NoError(err)
	s.Equal(s.requester.Address, sender)
}

func (s *GatewaySuite) TestSenderRejectsForeignChain() {
	key, err := crypto.HexToECDSA(testutil.RequesterKeyHex)
	s.Require().NoError(err)
	to := identityAddr.Common()
	tx, err := types.SignTx(types.NewTx(&types.LegacyTx{To: &to, Gas: 21000, GasPrice: big.NewInt(1)}), types.LatestSignerForChainID(big.NewInt(1)), key)
	s.Require().NoError(err)

	_, err = s.gateway.Sender(s.ctx, tx)
	s.Error(err)
}

func (s *GatewaySuite) TestWaitMinedHonoursContext() {
	s.backend.SetBehaviour(chaintest.Behaviour{NeverMine: true})
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Millisecond)
	defer cancel()

	_, err := s.gateway.WaitMined(ctx, common.HexToHash("0x01"))
	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *GatewaySuite) TestTrustedIssuersRegistry() {
	s.backend.TrustIssuer(s.issuer.Address, id.ClaimTopicKYC, id.ClaimTopicAccreditation)
	registry := chaintest.TrustedIssuersRegistry

	trusted, err := s.gateway.IsTrustedIssuer(s.ctx, registry, s.issuer.Address)
	s.Require().NoError(err)
	s.True(trusted)

	has, err := s.gateway.HasClaimTopic(s.ctx, registry, s.issuer.Address, id.ClaimTopicJurisdiction)
	s.Require().NoError(err)
	s.False(has)

	topics, err := s.gateway.IssuerClaimTopics(s.ctx, registry, s.issuer.Address)
	s.Require().NoError(err)
	s.Equal([]id.ClaimTopic{id.ClaimTopicKYC, id.ClaimTopicAccreditation}, topics)

	issuers, err := s.gateway.TrustedIssuers(s.ctx, registry)
	s.Require().NoError(err)
	s.Equal([]id.Address{s.issuer.Address}, issuers)
}

func (s *GatewaySuite) TestIdentityRegistry() {
	identity, err := s.gateway.IdentityOf(s.ctx, chaintest.IdentityRegistry, s.requester.Address)
	s.Require().NoError(err)
	s.Equal(identityAddr, identity)

	registered, err := s.gateway.IsRegistered(s.ctx, chaintest.IdentityRegistry, s.issuer.Address)
	s.Require().NoError(err)
	s.False(registered)
}

func TestClaimIDMatchesAbiEncoding(t *testing.T) {
	issuer := id.Address("0x5b38da6a701c568545dcfcb03fcb875f56beddc4")
	var packed []byte
	packed = append(packed, common.LeftPadBytes(issuer.Common().Bytes(), 32)...)
	packed = append(packed, common.LeftPadBytes(big.NewInt(7).Bytes(), 32)...)

	assert.Equal(t, crypto.Keccak256Hash(packed), chain.ClaimID(issuer, id.ClaimTopicAccreditation))
}

func TestAsRevert(t *testing.T) {
	t.Run("plain message", func(t *testing.T) {
		re, ok := chain.AsRevert(errors.New("execution reverted: Ownable: caller is not the owner"))
		require.True(t, ok)
		assert.Equal(t, "Ownable: caller is not the owner", re.Reason)
	})

	t.Run("not a revert", func(t *testing.T) {
		_, ok := chain.AsRevert(errors.New("connection refused"))
		assert.False(t, ok)
	})

	t.Run("nil", func(t *testing.T) {
		_, ok := chain.AsRevert(nil)
		assert.False(t, ok)
	})
}

func TestGateway_ChainIDResolvedOnceUnderConcurrency(t *testing.T) {
	backend := chaintest.NewBackend()
	gateway := chain.New(backend)

	const callers = 32
	var wg sync.WaitGroup
	results := make([]*big.Int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			chainID, err := gateway.ChainID(context.Background())
			assert.NoError(t, err)
			results[i] = chainID
		}(i)
	}
	wg.Wait()

	for _, chainID := range results {
		require.NotNil(t, chainID)
		assert.Equal(t, int64(chaintest.ChainID), chainID.Int64())
	}
	assert.Equal(t, 1, backend.Calls("eth_chainId"))
}

func TestConnect(t *testing.T) {
	t.Run("resolves the node chain id up front", func(t *testing.T) {
		backend := chaintest.NewBackend()
		gateway, err := chain.Connect(context.Background(), backend)
		require.NoError(t, err)

		chainID, err := gateway.ChainID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(chaintest.ChainID), chainID.Int64())
		assert.Equal(t, 1, backend.Calls("eth_chainId"))
	})

	t.Run("configured chain id must match the node", func(t *testing.T) {
		_, err := chain.Connect(context.Background(), chaintest.NewBackend(), chain.WithChainID(1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chain id mismatch")
	})

	t.Run("matching configured chain id", func(t *testing.T) {
		_, err := chain.Connect(context.Background(), chaintest.NewBackend(), chain.WithChainID(chaintest.ChainID))
		require.NoError(t, err)
	})
}
