// Package chaintest provides an in-process stand-in for a JSON-RPC node that
// understands the identity contract, the trusted issuers registry and the
// identity registry. It satisfies chain.Backend.
package chaintest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"claimbridge/internal/chain"
	id "claimbridge/pkg/domain"
)

const ChainID = 31337

var (
	// TrustedIssuersRegistry is the fixed registry address the backend answers for.
	TrustedIssuersRegistry = id.Address("0x00000000000000000000000000000000000000a1")
	// IdentityRegistry is the fixed identity registry address.
	IdentityRegistry = id.Address("0x00000000000000000000000000000000000000a2")
)

// Behaviour switches for failure scenarios.
type Behaviour struct {
	// SendErr is returned by SendTransaction without mining anything.
	SendErr error
	// RevertReason makes addClaim revert during gas estimation.
	RevertReason string
	// RevertOnChain mines addClaim with a failed status instead.
	RevertOnChain bool
	// SuppressEvents mines addClaim without emitting logs.
	SuppressEvents bool
	// NeverMine leaves transactions pending forever.
	NeverMine bool
	// CallErr is returned by every eth_call.
	CallErr error
}

type storedClaim struct {
	topic     *big.Int
	scheme    *big.Int
	issuer    common.Address
	signature []byte
	data      []byte
	uri       string
}

type identityContract struct {
	owner  common.Address
	claims map[common.Hash]storedClaim
	order  []common.Hash
}

// Backend is a goroutine-safe simulated chain.
type Backend struct {
	mu         sync.Mutex
	behaviour  Behaviour
	identities map[common.Address]*identityContract
	wallets    map[common.Address]common.Address
	trusted    map[common.Address][]*big.Int
	issuers    []common.Address
	nonces     map[common.Address]uint64
	receipts   map[common.Hash]*types.Receipt
	block      uint64
	sent       []*types.Transaction
	calls      map[string]int
}

func NewBackend() *Backend {
	return &Backend{
		identities: make(map[common.Address]*identityContract),
		wallets:    make(map[common.Address]common.Address),
		trusted:    make(map[common.Address][]*big.Int),
		nonces:     make(map[common.Address]uint64),
		receipts:   make(map[common.Hash]*types.Receipt),
		calls:      make(map[string]int),
		block:      100,
	}
}

// SetBehaviour replaces the failure switches.
func (b *Backend) SetBehaviour(bh Behaviour) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.behaviour = bh
}

// DeployIdentity registers an identity contract owned by wallet and records it
// in the identity registry.
func (b *Backend) DeployIdentity(identity, wallet id.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.identities[identity.Common()] = &identityContract{
		owner:  wallet.Common(),
		claims: make(map[common.Hash]storedClaim),
	}
	b.wallets[wallet.Common()] = identity.Common()
}

// TrustIssuer lists issuer in the trusted issuers registry for topics.
func (b *Backend) TrustIssuer(issuer id.Address, topics ...id.ClaimTopic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	addr := issuer.Common()
	if _, ok := b.trusted[addr]; !ok {
		b.issuers = append(b.issuers, addr)
	}
	list := make([]*big.Int, 0, len(topics))
	for _, t := range topics {
		list = append(list, new(big.Int).SetUint64(t.Uint64()))
	}
	b.trusted[addr] = list
}

// Calls reports how many eth_calls hit method; "eth_chainId" counts chain id reads.
func (b *Backend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

// Sent returns the transactions accepted for broadcast.
func (b *Backend) Sent() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Transaction(nil), b.sent...)
}

// HasClaim reports whether identity holds a claim from issuer for topic.
func (b *Backend) HasClaim(identity, issuer id.Address, topic id.ClaimTopic) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.identities[identity.Common()]
	if !ok {
		return false
	}
	_, ok = c.claims[chain.ClaimID(issuer, topic)]
	return ok
}

func (b *Backend) ChainID(context.Context) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["eth_chainId"]++
	return big.NewInt(ChainID), nil
}

func (b *Backend) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonces[account], nil
}

func (b *Backend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *Backend) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if msg.To == nil {
		return 0, errors.New("contract creation not supported")
	}
	if _, err := b.checkAddClaim(msg.From, *msg.To, msg.Data); err != nil {
		return 0, err
	}
	return 250_000, nil
}

func (b *Backend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.behaviour.CallErr != nil {
		return nil, b.behaviour.CallErr
	}
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, errors.New("invalid call")
	}
	to := *msg.To
	switch {
	case to == TrustedIssuersRegistry.Common():
		return b.dispatch(chain.TrustedIssuersABI, msg.Data, b.trustedIssuersCall)
	case to == IdentityRegistry.Common():
		return b.dispatch(chain.IdentityRegistryABI, msg.Data, b.identityRegistryCall)
	}
	contract, ok := b.identities[to]
	if !ok {
		return nil, nil
	}
	return b.dispatch(chain.IdentityABI, msg.Data, func(name string, args []any) ([]any, error) {
		return identityCall(contract, name, args)
	})
}

func (b *Backend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.behaviour.SendErr != nil {
		return b.behaviour.SendErr
	}
	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(ChainID)), tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if tx.Nonce() != b.nonces[from] {
		return fmt.Errorf("nonce too low: have %d want %d", tx.Nonce(), b.nonces[from])
	}
	if tx.To() == nil {
		return errors.New("contract creation not supported")
	}
	b.nonces[from]++
	b.sent = append(b.sent, tx)
	if b.behaviour.NeverMine {
		return nil
	}

	b.block++
	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(b.block),
		GasUsed:     90_000,
	}
	in, err := b.checkAddClaim(from, *tx.To(), tx.Data())
	if err != nil || b.behaviour.RevertOnChain {
		receipt.Status = types.ReceiptStatusFailed
		b.receipts[tx.Hash()] = receipt
		return nil
	}
	name, claimID := b.storeClaim(*tx.To(), in)
	if !b.behaviour.SuppressEvents {
		receipt.Logs = []*types.Log{claimLog(*tx.To(), name, claimID, in, tx.Hash(), b.block)}
	}
	b.receipts[tx.Hash()] = receipt
	return nil
}

func (b *Backend) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

type addClaimArgs struct {
	topic     *big.Int
	scheme    *big.Int
	issuer    common.Address
	signature []byte
	data      []byte
	uri       string
}

// checkAddClaim validates an addClaim call the way the identity contract does.
// Callers hold b.mu.
func (b *Backend) checkAddClaim(from, to common.Address, data []byte) (addClaimArgs, error) {
	contract, ok := b.identities[to]
	if !ok {
		return addClaimArgs{}, nil
	}
	if b.behaviour.RevertReason != "" {
		return addClaimArgs{}, revertErr(b.behaviour.RevertReason)
	}
	method, err := chain.IdentityABI.MethodById(data)
	if err != nil || method.Name != "addClaim" {
		return addClaimArgs{}, revertErr("unknown selector")
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return addClaimArgs{}, revertErr("malformed calldata")
	}
	if from != contract.owner {
		return addClaimArgs{}, revertErr("Permissions: Sender does not have claim signer key")
	}
	return addClaimArgs{
		topic:     args[0].(*big.Int),
		scheme:    args[1].(*big.Int),
		issuer:    args[2].(common.Address),
		signature: args[3].([]byte),
		data:      args[4].([]byte),
		uri:       args[5].(string),
	}, nil
}

func (b *Backend) storeClaim(identity common.Address, in addClaimArgs) (string, common.Hash) {
	contract := b.identities[identity]
	claimID := chain.ClaimID(id.AddressFromCommon(in.issuer), id.ClaimTopic(in.topic.Uint64()))
	name := "ClaimAdded"
	if _, exists := contract.claims[claimID]; exists {
		name = "ClaimChanged"
	} else {
		contract.order = append(contract.order, claimID)
	}
	contract.claims[claimID] = storedClaim(in)
	return name, claimID
}

func claimLog(identity common.Address, name string, claimID common.Hash, in addClaimArgs, txHash common.Hash, block uint64) *types.Log {
	event := chain.IdentityABI.Events[name]
	data, err := event.Inputs.NonIndexed().Pack(in.scheme, in.signature, in.data, in.uri)
	if err != nil {
		panic("chaintest: pack event: " + err.Error())
	}
	return &types.Log{
		Address: identity,
		Topics: []common.Hash{
			event.ID,
			claimID,
			common.BigToHash(in.topic),
			common.BytesToHash(in.issuer.Bytes()),
		},
		Data:        data,
		TxHash:      txHash,
		BlockNumber: block,
	}
}

func (b *Backend) dispatch(contract abi.ABI, data []byte, fn func(string, []any) ([]any, error)) ([]byte, error) {
	method, err := contract.MethodById(data)
	if err != nil {
		return nil, revertErr("unknown selector")
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, revertErr("malformed calldata")
	}
	b.calls[method.Name]++
	out, err := fn(method.Name, args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(out...)
}

func (b *Backend) trustedIssuersCall(name string, args []any) ([]any, error) {
	switch name {
	case "isTrustedIssuer":
		_, ok := b.trusted[args[0].(common.Address)]
		return []any{ok}, nil
	case "hasClaimTopic":
		for _, t := range b.trusted[args[0].(common.Address)] {
			if t.Cmp(args[1].(*big.Int)) == 0 {
				return []any{true}, nil
			}
		}
		return []any{false}, nil
	case "getTrustedIssuers":
		return []any{append([]common.Address{}, b.issuers...)}, nil
	case "getIssuerClaimTopics":
		topics, ok := b.trusted[args[0].(common.Address)]
		if !ok {
			return nil, revertErr("trusted Issuer doesn't exist")
		}
		return []any{append([]*big.Int{}, topics...)}, nil
	}
	return nil, revertErr("unsupported method " + name)
}

func (b *Backend) identityRegistryCall(name string, args []any) ([]any, error) {
	identity, ok := b.wallets[args[0].(common.Address)]
	switch name {
	case "getIdentity":
		return []any{identity}, nil
	case "isRegistered":
		return []any{ok}, nil
	}
	return nil, revertErr("unsupported method " + name)
}

func identityCall(contract *identityContract, name string, args []any) ([]any, error) {
	switch name {
	case "claimExists":
		topic, issuer := args[0].(*big.Int), args[1].(common.Address)
		_, ok := contract.claims[chain.ClaimID(id.AddressFromCommon(issuer), id.ClaimTopic(topic.Uint64()))]
		return []any{ok}, nil
	case "getClaim":
		topic, issuer := args[0].(*big.Int), args[1].(common.Address)
		c, ok := contract.claims[chain.ClaimID(id.AddressFromCommon(issuer), id.ClaimTopic(topic.Uint64()))]
		if !ok {
			return []any{big.NewInt(0), big.NewInt(0), common.Address{}, []byte{}, []byte{}, ""}, nil
		}
		return []any{c.topic, c.scheme, c.issuer, c.signature, c.data, c.uri}, nil
	case "getClaimIssuersForTopic":
		topic := args[0].(*big.Int)
		var out []common.Address
		for _, claimID := range contract.order {
			c := contract.claims[claimID]
			if c.topic.Cmp(topic) == 0 {
				out = append(out, c.issuer)
			}
		}
		if out == nil {
			out = []common.Address{}
		}
		return []any{out}, nil
	}
	return nil, revertErr("unsupported method " + name)
}

// revertError mimics the JSON-RPC error a node returns for a reverted call.
type revertError struct {
	reason string
	data   string
}

func revertErr(reason string) error {
	selector := []byte{0x08, 0xc3, 0x79, 0xa0}
	stringType, _ := abi.NewType("string", "", nil)
	packed, _ := abi.Arguments{{Type: stringType}}.Pack(reason)
	return &revertError{reason: reason, data: "0x" + common.Bytes2Hex(bytes.Join([][]byte{selector, packed}, nil))}
}

func (e *revertError) Error() string          { return "execution reverted: " + e.reason }
func (e *revertError) ErrorCode() int         { return 3 }
func (e *revertError) ErrorData() interface{} { return e.data }
