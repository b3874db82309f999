// Package chain talks to an EVM JSON-RPC node: identity contract claims, the
// trusted issuers registry, the identity registry, transaction submission and
// receipt tracking.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"claimbridge/internal/platform/config"
	id "claimbridge/pkg/domain"
)

// Backend is the subset of *ethclient.Client the gateway uses.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Gateway wraps a Backend with ABI encoding, tracing and timeouts.
type Gateway struct {
	backend      Backend
	chainMu      sync.Mutex
	chainID      *big.Int
	callTimeout  time.Duration
	pollInterval time.Duration
	tracer       trace.Tracer
	logger       *slog.Logger
	metrics      *Metrics
	closer       func()
}

type Option func(*Gateway)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

func WithCallTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.callTimeout = d
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.pollInterval = d
		}
	}
}

func WithChainID(chainID int64) Option {
	return func(g *Gateway) {
		if chainID > 0 {
			g.chainID = big.NewInt(chainID)
		}
	}
}

// New wraps an existing backend.
func New(backend Backend, opts ...Option) *Gateway {
	g := &Gateway{
		backend:      backend,
		callTimeout:  10 * time.Second,
		pollInterval: time.Second,
		tracer:       otel.Tracer("claimbridge/internal/chain"),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dial connects to the configured node and resolves its chain id once,
// rejecting a mismatch with the configured one.
func Dial(ctx context.Context, cfg config.ChainConfig, opts ...Option) (*Gateway, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial chain rpc: %w", err)
	}
	base := []Option{
		WithCallTimeout(cfg.CallTimeout),
		WithPollInterval(cfg.ReceiptPollInterval),
		WithChainID(cfg.ChainID),
	}
	g, err := connect(ctx, client, append(base, opts...)...)
	if err != nil {
		client.Close()
		return nil, err
	}
	g.closer = client.Close
	return g, nil
}

func connect(ctx context.Context, backend Backend, opts ...Option) (*Gateway, error) {
	g := New(backend, opts...)
	remote, err := g.remoteChainID(ctx)
	if err != nil {
		return nil, err
	}
	if g.chainID != nil && remote.Cmp(g.chainID) != 0 {
		return nil, fmt.Errorf("chain id mismatch: configured %s, node reports %s", g.chainID, remote)
	}
	g.chainID = remote
	return g, nil
}

// Close releases the RPC connection when the gateway owns one.
func (g *Gateway) Close() {
	if g.closer != nil {
		g.closer()
	}
}

// ChainID returns the configured chain id, falling back to the node's. The
// node is asked at most once.
func (g *Gateway) ChainID(ctx context.Context) (*big.Int, error) {
	g.chainMu.Lock()
	defer g.chainMu.Unlock()
	if g.chainID == nil {
		remote, err := g.remoteChainID(ctx)
		if err != nil {
			return nil, err
		}
		g.chainID = remote
	}
	return new(big.Int).Set(g.chainID), nil
}

func (g *Gateway) remoteChainID(ctx context.Context) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()
	chainID, err := g.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	return chainID, nil
}

// Health checks the node answers.
func (g *Gateway) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()
	_, err := g.backend.ChainID(ctx)
	return err
}

func (g *Gateway) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return g.tracer.Start(ctx, "chain."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// call packs method, runs eth_call against to and unpacks the outputs.
func (g *Gateway) call(ctx context.Context, contract abi.ABI, to common.Address, method string, args ...any) (out []any, err error) {
	start := time.Now()
	ctx, span := g.startSpan(ctx, method, attribute.String("contract", to.Hex()))
	defer func() {
		g.metrics.observe(method, time.Since(start).Seconds(), err)
		endSpan(span, err)
	}()

	if to == (common.Address{}) {
		return nil, fmt.Errorf("%s: %w", method, ErrNotConfigured)
	}
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()
	raw, err := g.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, wrapCall(method, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s at %s: %w", method, to.Hex(), ErrNoContract)
	}
	out, err = contract.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return out, nil
}

// SignTransaction builds and signs a legacy transaction calling to with data.
func (g *Gateway) SignTransaction(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, data []byte) (tx *types.Transaction, err error) {
	from := crypto.PubkeyToAddress(key.PublicKey)
	ctx, span := g.startSpan(ctx, "signTransaction", attribute.String("from", from.Hex()), attribute.String("to", to.Hex()))
	defer func() { endSpan(span, err) }()

	chainID, err := g.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	nonce, err := g.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := g.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}
	gas, err := g.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data})
	if err != nil {
		return nil, wrapCall("estimate gas", err)
	}

	unsigned := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(unsigned, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signed, nil
}

// Sender recovers the signer of a transaction for this chain.
func (g *Gateway) Sender(ctx context.Context, tx *types.Transaction) (id.Address, error) {
	chainID, err := g.ChainID(ctx)
	if err != nil {
		return "", err
	}
	if tx.ChainId() != nil && tx.ChainId().Sign() != 0 && tx.ChainId().Cmp(chainID) != 0 {
		return "", fmt.Errorf("transaction chain id %s does not match %s", tx.ChainId(), chainID)
	}
	from, err := types.Sender(types.LatestSignerForChainID(chainID), tx)
	if err != nil {
		return "", fmt.Errorf("recover transaction sender: %w", err)
	}
	return id.AddressFromCommon(from), nil
}

// SendTransaction broadcasts a signed transaction.
func (g *Gateway) SendTransaction(ctx context.Context, tx *types.Transaction) (err error) {
	start := time.Now()
	ctx, span := g.startSpan(ctx, "sendTransaction", attribute.String("tx_hash", tx.Hash().Hex()))
	defer func() {
		g.metrics.observe("sendTransaction", time.Since(start).Seconds(), err)
		endSpan(span, err)
	}()

	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()
	if err := g.backend.SendTransaction(ctx, tx); err != nil {
		return wrapCall("send transaction", err)
	}
	return nil
}

// WaitMined polls for the receipt until it exists or ctx ends. Lookup errors
// other than not-found are logged and polling continues.
func (g *Gateway) WaitMined(ctx context.Context, txHash common.Hash) (receipt *types.Receipt, err error) {
	ctx, span := g.startSpan(ctx, "waitMined", attribute.String("tx_hash", txHash.Hex()))
	defer func() { endSpan(span, err) }()

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()
	for {
		r, lookupErr := g.backend.TransactionReceipt(ctx, txHash)
		if lookupErr == nil {
			if r.BlockNumber != nil {
				span.SetAttributes(attribute.Int64("block_number", r.BlockNumber.Int64()))
			}
			return r, nil
		}
		if !errors.Is(lookupErr, ethereum.NotFound) && ctx.Err() == nil {
			g.logger.WarnContext(ctx, "receipt lookup failed", "tx_hash", txHash.Hex(), "error", lookupErr)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
