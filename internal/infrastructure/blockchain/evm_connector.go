package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
	"github.com/raosunjoy/YieldRails-sub009/internal/config"
	domainerrors "github.com/raosunjoy/YieldRails-sub009/internal/domain/errors"
	"github.com/raosunjoy/YieldRails-sub009/pkg/logger"
)

// Function selectors, keccak256(signature)[:4].
var (
	selCreateEscrow  = selector("createEscrow(bytes32,address,address,address,uint256)")
	selRelease       = selector("release(bytes32)")
	selEmergency     = selector("emergencyWithdraw(bytes32)")
	selGetDeposit    = selector("getDeposit(bytes32)")
	selCalcYield     = selector("calculateYield(bytes32)")
	selInitCodeHash  = selector("escrowInitCodeHash()")
	selBridgeLock    = selector("lock(bytes32,address,address,uint256,bytes32)")
	selBridgeRelease = selector("release(bytes32,address,address,uint256)")
	selBridgeRefund  = selector("refund(bytes32,address,address,uint256)")
)

// Escrow log topics.
var (
	topicDeposited = crypto.Keccak256Hash([]byte("Deposited(bytes32,address,uint256)"))
	topicReleased  = crypto.Keccak256Hash([]byte("Released(bytes32,address,uint256)"))
	topicWithdrawn = crypto.Keccak256Hash([]byte("Withdrawn(bytes32,address,uint256)"))
)

func selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

const fallbackGasLimit = uint64(400_000)

// EVMEscrowConnector implements EscrowConnector over signed legacy
// transactions. One instance serves every configured chain through the
// injected factory.
type EVMEscrowConnector struct {
	factory *ClientFactory
	signer  *ecdsa.PrivateKey
	from    common.Address

	// escrow init code hash per chain, read once from the factory contract
	initHashMu sync.Mutex
	initHashes map[string]common.Hash

	subMu   sync.Mutex
	subs    map[string]*escrowSub
	nextSub int
	pollGap time.Duration
}

type escrowSub struct {
	chain     string
	handler   EventHandler
	lastBlock uint64
	stop      chan struct{}
}

// NewEVMEscrowConnector creates a connector signing with the operator key.
// An empty key still allows reads; writes fail fast.
func NewEVMEscrowConnector(factory *ClientFactory, signerCfg config.SignerConfig) (*EVMEscrowConnector, error) {
	c := &EVMEscrowConnector{
		factory:    factory,
		initHashes: make(map[string]common.Hash),
		subs:       make(map[string]*escrowSub),
		pollGap:    15 * time.Second,
	}
	if signerCfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(signerCfg.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid operator key: %w", err)
		}
		c.signer = key
		c.from = crypto.PubkeyToAddress(key.PublicKey)
	}
	return c, nil
}

// PaymentHash is the bytes32 identity of a payment on chain.
func PaymentHash(paymentID string) common.Hash {
	return crypto.Keccak256Hash([]byte(paymentID))
}

// CreateEscrow broadcasts the factory call and returns the
// CREATE2-predicted escrow address with the deploy tx hash.
func (c *EVMEscrowConnector) CreateEscrow(ctx context.Context, chain, paymentID, token string, amount *big.Int, payer, merchant string) (string, string, error) {
	cfg, ok := c.factory.ChainConfig(chain)
	if !ok {
		return "", "", domainerrors.ErrUnsupportedChain
	}

	hash := PaymentHash(paymentID)
	escrow, err := c.escrowAddress(ctx, chain, cfg, hash)
	if err != nil {
		return "", "", err
	}

	data := append([]byte{}, selCreateEscrow...)
	data = append(data, hash.Bytes()...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(token).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(payer).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(merchant).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)

	txHash, err := c.sendWrite(ctx, chain, cfg.EscrowFactory, data)
	if err != nil {
		return "", "", err
	}
	return escrow, txHash, nil
}

// ReleaseEscrow broadcasts the payout call.
func (c *EVMEscrowConnector) ReleaseEscrow(ctx context.Context, chain, escrow, paymentID string) (string, error) {
	data := append([]byte{}, selRelease...)
	data = append(data, PaymentHash(paymentID).Bytes()...)
	return c.sendWrite(ctx, chain, escrow, data)
}

// EmergencyWithdraw broadcasts the full refund-to-payer call.
func (c *EVMEscrowConnector) EmergencyWithdraw(ctx context.Context, chain, escrow, paymentID string) (string, error) {
	data := append([]byte{}, selEmergency...)
	data = append(data, PaymentHash(paymentID).Bytes()...)
	return c.sendWrite(ctx, chain, escrow, data)
}

// GetDeposit reads the escrow record. Word layout:
// payer, amount, yieldAccrued, released, depositedAt.
func (c *EVMEscrowConnector) GetDeposit(ctx context.Context, chain, escrow, paymentID string) (*Deposit, error) {
	client, err := c.factory.GetClient(chain)
	if err != nil {
		return nil, mapChainError(err)
	}

	data := append([]byte{}, selGetDeposit...)
	data = append(data, PaymentHash(paymentID).Bytes()...)

	out, err := client.CallView(ctx, escrow, data)
	if err != nil {
		return nil, mapChainError(err)
	}
	if len(out) < 5*32 {
		return nil, fmt.Errorf("%w: short getDeposit return (%d bytes)", domainerrors.ErrSettlement, len(out))
	}

	payer := common.BytesToAddress(out[0:32])
	if payer == (common.Address{}) {
		// No deposit has landed for this payment yet.
		return &Deposit{}, nil
	}
	return &Deposit{
		Payer:        payer.Hex(),
		Amount:       new(big.Int).SetBytes(out[32:64]),
		YieldAccrued: new(big.Int).SetBytes(out[64:96]),
		Released:     new(big.Int).SetBytes(out[96:128]).Sign() != 0,
		DepositedAt:  new(big.Int).SetBytes(out[128:160]).Uint64(),
	}, nil
}

// CalculateYield reads accrued yield in the token's smallest unit.
func (c *EVMEscrowConnector) CalculateYield(ctx context.Context, chain, escrow, paymentID string) (*big.Int, error) {
	client, err := c.factory.GetClient(chain)
	if err != nil {
		return nil, mapChainError(err)
	}

	data := append([]byte{}, selCalcYield...)
	data = append(data, PaymentHash(paymentID).Bytes()...)

	out, err := client.CallView(ctx, escrow, data)
	if err != nil {
		return nil, mapChainError(err)
	}
	return new(big.Int).SetBytes(out), nil
}

// EstimateGas estimates gas for calldata against a contract.
func (c *EVMEscrowConnector) EstimateGas(ctx context.Context, chain, to string, data []byte) (uint64, error) {
	client, err := c.factory.GetClient(chain)
	if err != nil {
		return 0, mapChainError(err)
	}
	addr := common.HexToAddress(to)
	gas, err := client.EstimateGas(ctx, ethereum.CallMsg{From: c.from, To: &addr, Data: data})
	if err != nil {
		return 0, mapChainError(err)
	}
	return gas, nil
}

// TransactionStatus reports the state of a broadcast tx, honoring the
// chain's confirmation depth.
func (c *EVMEscrowConnector) TransactionStatus(ctx context.Context, chain, txHash string) (TxStatus, error) {
	client, err := c.factory.GetClient(chain)
	if err != nil {
		return TxStatusNotFound, mapChainError(err)
	}

	receipt, err := client.GetTransactionReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return TxStatusPending, nil
		}
		return TxStatusNotFound, mapChainError(err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return TxStatusFailed, nil
	}

	head, err := client.GetBlockNumber(ctx)
	if err != nil {
		return TxStatusPending, mapChainError(err)
	}
	cfg, _ := c.factory.ChainConfig(chain)
	mined := receipt.BlockNumber.Uint64()
	if head < mined || head-mined+1 < cfg.Confirmations {
		return TxStatusPending, nil
	}
	return TxStatusConfirmed, nil
}

// PoolBalance reads the bridge pool's token balance on a chain.
func (c *EVMEscrowConnector) PoolBalance(ctx context.Context, chain, token string) (*big.Int, error) {
	cfg, ok := c.factory.ChainConfig(chain)
	if !ok {
		return nil, domainerrors.ErrUnsupportedChain
	}
	client, err := c.factory.GetClient(chain)
	if err != nil {
		return nil, mapChainError(err)
	}
	balance, err := client.GetTokenBalance(ctx, token, cfg.BridgePool)
	if err != nil {
		return nil, mapChainError(err)
	}
	return balance, nil
}

// BridgeLock locks funds in the source pool for a bridge leg.
func (c *EVMEscrowConnector) BridgeLock(ctx context.Context, chain, token string, amount *big.Int, recipient, destChain, bridgeID string) (string, error) {
	cfg, ok := c.factory.ChainConfig(chain)
	if !ok {
		return "", domainerrors.ErrUnsupportedChain
	}
	data := append([]byte{}, selBridgeLock...)
	data = append(data, crypto.Keccak256Hash([]byte(bridgeID)).Bytes()...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(token).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(recipient).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	data = append(data, crypto.Keccak256Hash([]byte(destChain)).Bytes()...)
	return c.sendWrite(ctx, chain, cfg.BridgePool, data)
}

// BridgeRelease pays out from the destination pool.
func (c *EVMEscrowConnector) BridgeRelease(ctx context.Context, chain, token string, amount *big.Int, recipient, bridgeID string) (string, error) {
	return c.bridgePoolWrite(ctx, chain, selBridgeRelease, token, amount, recipient, bridgeID)
}

// BridgeRefund returns locked funds on the source chain.
func (c *EVMEscrowConnector) BridgeRefund(ctx context.Context, chain, token string, amount *big.Int, recipient, bridgeID string) (string, error) {
	return c.bridgePoolWrite(ctx, chain, selBridgeRefund, token, amount, recipient, bridgeID)
}

func (c *EVMEscrowConnector) bridgePoolWrite(ctx context.Context, chain string, sel []byte, token string, amount *big.Int, recipient, bridgeID string) (string, error) {
	cfg, ok := c.factory.ChainConfig(chain)
	if !ok {
		return "", domainerrors.ErrUnsupportedChain
	}
	data := append([]byte{}, sel...)
	data = append(data, crypto.Keccak256Hash([]byte(bridgeID)).Bytes()...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(token).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(recipient).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return c.sendWrite(ctx, chain, cfg.BridgePool, data)
}

// SubscribeEscrowEvents starts a poll loop for escrow logs on a chain.
func (c *EVMEscrowConnector) SubscribeEscrowEvents(chain string, handler EventHandler) string {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	c.nextSub++
	id := fmt.Sprintf("%s-%d", chain, c.nextSub)
	sub := &escrowSub{chain: chain, handler: handler, stop: make(chan struct{})}
	c.subs[id] = sub
	go c.pollLoop(sub)
	return id
}

// RemoveListeners stops and drops a subscription.
func (c *EVMEscrowConnector) RemoveListeners(id string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if sub, ok := c.subs[id]; ok {
		close(sub.stop)
		delete(c.subs, id)
	}
}

func (c *EVMEscrowConnector) pollLoop(sub *escrowSub) {
	ticker := time.NewTicker(c.pollGap)
	defer ticker.Stop()
	for {
		select {
		case <-sub.stop:
			return
		case <-ticker.C:
			c.pollOnce(sub)
		}
	}
}

func (c *EVMEscrowConnector) pollOnce(sub *escrowSub) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := c.factory.GetClient(sub.chain)
	if err != nil {
		logger.Warn(ctx, "escrow poll: client unavailable", zap.String("chain", sub.chain), zap.Error(err))
		return
	}
	head, err := client.GetBlockNumber(ctx)
	if err != nil {
		logger.Warn(ctx, "escrow poll: head fetch failed", zap.String("chain", sub.chain), zap.Error(err))
		return
	}
	if sub.lastBlock == 0 {
		sub.lastBlock = head
		return
	}
	if head <= sub.lastBlock {
		return
	}

	logs, err := client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(sub.lastBlock + 1),
		ToBlock:   new(big.Int).SetUint64(head),
		Topics:    [][]common.Hash{{topicDeposited, topicReleased, topicWithdrawn}},
	})
	if err != nil {
		logger.Warn(ctx, "escrow poll: log fetch failed", zap.String("chain", sub.chain), zap.Error(err))
		return
	}
	sub.lastBlock = head

	for _, lg := range logs {
		if event, ok := decodeEscrowLog(sub.chain, lg); ok {
			sub.handler(event)
		}
	}
}

func decodeEscrowLog(chain string, lg types.Log) (EscrowEvent, bool) {
	if len(lg.Topics) < 2 {
		return EscrowEvent{}, false
	}
	var kind EscrowEventKind
	switch lg.Topics[0] {
	case topicDeposited:
		kind = EscrowEventDeposited
	case topicReleased:
		kind = EscrowEventReleased
	case topicWithdrawn:
		kind = EscrowEventWithdrawn
	default:
		return EscrowEvent{}, false
	}
	return EscrowEvent{
		Chain:       chain,
		Escrow:      lg.Address.Hex(),
		PaymentHash: lg.Topics[1].Hex(),
		Kind:        kind,
		TxHash:      lg.TxHash.Hex(),
		Block:       lg.BlockNumber,
	}, true
}

// escrowAddress derives the CREATE2 address for a payment from the
// factory address and the payment hash.
func (c *EVMEscrowConnector) escrowAddress(ctx context.Context, chain string, cfg config.ChainConfig, salt common.Hash) (string, error) {
	initHash, err := c.escrowInitCodeHash(ctx, chain, cfg)
	if err != nil {
		return "", err
	}
	addr := crypto.CreateAddress2(common.HexToAddress(cfg.EscrowFactory), salt, initHash.Bytes())
	return addr.Hex(), nil
}

// escrowInitCodeHash reads the factory's escrow init code hash once per
// chain and caches it; the hash never changes for a deployed factory.
func (c *EVMEscrowConnector) escrowInitCodeHash(ctx context.Context, chain string, cfg config.ChainConfig) (common.Hash, error) {
	c.initHashMu.Lock()
	defer c.initHashMu.Unlock()

	if hash, ok := c.initHashes[chain]; ok {
		return hash, nil
	}
	client, err := c.factory.GetClient(chain)
	if err != nil {
		return common.Hash{}, mapChainError(err)
	}
	out, err := client.CallView(ctx, cfg.EscrowFactory, append([]byte{}, selInitCodeHash...))
	if err != nil {
		return common.Hash{}, mapChainError(err)
	}
	if len(out) < 32 {
		return common.Hash{}, fmt.Errorf("%w: short escrowInitCodeHash return", domainerrors.ErrSettlement)
	}
	hash := common.BytesToHash(out[:32])
	c.initHashes[chain] = hash
	return hash, nil
}

// sendWrite signs and broadcasts a legacy transaction, returning the tx
// hash without waiting for inclusion.
func (c *EVMEscrowConnector) sendWrite(ctx context.Context, chain, to string, data []byte) (string, error) {
	if c.signer == nil {
		return "", fmt.Errorf("%w: no operator key configured", domainerrors.ErrSettlement)
	}
	client, err := c.factory.GetClient(chain)
	if err != nil {
		return "", mapChainError(err)
	}

	nonce, err := client.PendingNonce(ctx, c.from.Hex())
	if err != nil {
		return "", mapChainError(err)
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return "", mapChainError(err)
	}

	toAddr := common.HexToAddress(to)
	gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{From: c.from, To: &toAddr, Data: data})
	if err != nil {
		if isRevert(err) {
			return "", mapChainError(err)
		}
		// Estimation hiccups must not block settlement.
		gasLimit = fallbackGasLimit
	}

	tx := types.NewTransaction(nonce, toAddr, big.NewInt(0), gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.NewEIP155Signer(client.ChainID()), c.signer)
	if err != nil {
		return "", fmt.Errorf("%w: signing failed: %v", domainerrors.ErrSettlement, err)
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return "", mapChainError(err)
	}
	return signed.Hash().Hex(), nil
}

func isRevert(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}

// mapChainError folds raw RPC failures into the domain taxonomy.
func mapChainError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "timeout"):
		return fmt.Errorf("%w: %v", domainerrors.ErrTimeout, err)
	case strings.Contains(msg, "execution reverted"):
		return fmt.Errorf("%w: %v", domainerrors.ErrContractReverted, err)
	case strings.Contains(msg, "insufficient funds"):
		return fmt.Errorf("%w: %v", domainerrors.ErrInsufficientFunds, err)
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") || strings.Contains(msg, "not configured") || strings.Contains(msg, "eof"):
		return fmt.Errorf("%w: %v", domainerrors.ErrRPCUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", domainerrors.ErrSettlement, err)
	}
}
