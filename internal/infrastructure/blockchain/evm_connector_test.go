package blockchain

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"github.com/raosunjoy/YieldRails-sub009/internal/config"
	domainerrors "github.com/raosunjoy/YieldRails-sub009/internal/domain/errors"
)

var testChains = map[string]config.ChainConfig{
	"base": {
		Name:          "base",
		RPCURL:        "http://localhost:8545",
		EscrowFactory: "0x1111111111111111111111111111111111111111",
		BridgePool:    "0x2222222222222222222222222222222222222222",
		Confirmations: 3,
	},
}

func newTestConnector(t *testing.T, client *EVMClient) (*EVMEscrowConnector, *ClientFactory) {
	t.Helper()
	factory := NewClientFactory(testChains)
	factory.RegisterClient("base", client)
	conn, err := NewEVMEscrowConnector(factory, config.SignerConfig{})
	require.NoError(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	conn.signer = key
	conn.from = crypto.PubkeyToAddress(key.PublicKey)
	return conn, factory
}

func writeReadyClient(sent *[]*types.Transaction, callView func(ctx context.Context, to string, data []byte) ([]byte, error)) *EVMClient {
	client := NewEVMClientWithCallView(big.NewInt(8453), callView)
	client.testNonce = func(ctx context.Context, account string) (uint64, error) { return 7, nil }
	client.testGasPrice = func(ctx context.Context) (*big.Int, error) { return big.NewInt(1_000_000_000), nil }
	client.testEstimateGas = func(ctx context.Context, msg ethereum.CallMsg) (uint64, error) { return 90_000, nil }
	client.testSendTx = func(ctx context.Context, tx *types.Transaction) error {
		*sent = append(*sent, tx)
		return nil
	}
	return client
}

func TestPaymentHash_Deterministic(t *testing.T) {
	a := PaymentHash("pay_abc")
	b := PaymentHash("pay_abc")
	c := PaymentHash("pay_def")
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}

func TestCreateEscrow_DeterministicAddressAndCalldata(t *testing.T) {
	initHash := crypto.Keccak256Hash([]byte("escrow-init-code"))
	var sent []*types.Transaction
	client := writeReadyClient(&sent, func(ctx context.Context, to string, data []byte) ([]byte, error) {
		// Factory exposes its escrow init code hash as a view.
		return initHash.Bytes(), nil
	})
	conn, _ := newTestConnector(t, client)
	ctx := context.Background()

	escrow1, txHash, err := conn.CreateEscrow(ctx, "base", "pay_1", "0x3333333333333333333333333333333333333333", big.NewInt(100_000_000), "0xaaa0000000000000000000000000000000000001", "0xbbb0000000000000000000000000000000000002")
	require.NoError(t, err)
	require.NotEmpty(t, txHash)
	require.Len(t, sent, 1)

	// Same payment always predicts the same escrow address.
	want := crypto.CreateAddress2(
		common.HexToAddress(testChains["base"].EscrowFactory),
		PaymentHash("pay_1"),
		initHash.Bytes(),
	)
	require.Equal(t, want.Hex(), escrow1)

	// Calldata: selector + 5 words.
	data := sent[0].Data()
	require.Equal(t, selCreateEscrow, data[:4])
	require.Len(t, data, 4+5*32)
	require.Equal(t, PaymentHash("pay_1").Bytes(), data[4:36])

	// Different payment, different address.
	escrow2, _, err := conn.CreateEscrow(ctx, "base", "pay_2", "0x3333333333333333333333333333333333333333", big.NewInt(1), "0xaaa0000000000000000000000000000000000001", "0xbbb0000000000000000000000000000000000002")
	require.NoError(t, err)
	require.NotEqual(t, escrow1, escrow2)
}

func TestCreateEscrow_UnconfiguredChain(t *testing.T) {
	var sent []*types.Transaction
	conn, _ := newTestConnector(t, writeReadyClient(&sent, nil))

	_, _, err := conn.CreateEscrow(context.Background(), "solana", "pay_1", "0x0", big.NewInt(1), "0x0", "0x0")
	require.ErrorIs(t, err, domainerrors.ErrUnsupportedChain)
}

func TestSendWrite_NoSignerKey(t *testing.T) {
	factory := NewClientFactory(testChains)
	conn, err := NewEVMEscrowConnector(factory, config.SignerConfig{})
	require.NoError(t, err)

	_, err = conn.ReleaseEscrow(context.Background(), "base", "0x4444444444444444444444444444444444444444", "pay_1")
	require.ErrorIs(t, err, domainerrors.ErrSettlement)
}

func TestGetDeposit_ParsesWords(t *testing.T) {
	payer := common.HexToAddress("0xaaa0000000000000000000000000000000000001")
	out := make([]byte, 0, 5*32)
	out = append(out, common.LeftPadBytes(payer.Bytes(), 32)...)
	out = append(out, common.LeftPadBytes(big.NewInt(100_000_000).Bytes(), 32)...) // amount
	out = append(out, common.LeftPadBytes(big.NewInt(493_200).Bytes(), 32)...)     // yield
	out = append(out, common.LeftPadBytes(big.NewInt(1).Bytes(), 32)...)           // released
	out = append(out, common.LeftPadBytes(big.NewInt(1_700_000_000).Bytes(), 32)...)

	client := NewEVMClientWithCallView(big.NewInt(8453), func(ctx context.Context, to string, data []byte) ([]byte, error) {
		require.Equal(t, selGetDeposit, data[:4])
		return out, nil
	})
	conn, _ := newTestConnector(t, client)

	dep, err := conn.GetDeposit(context.Background(), "base", "0x4444444444444444444444444444444444444444", "pay_1")
	require.NoError(t, err)
	require.Equal(t, payer.Hex(), dep.Payer)
	require.Equal(t, big.NewInt(100_000_000), dep.Amount)
	require.Equal(t, big.NewInt(493_200), dep.YieldAccrued)
	require.True(t, dep.Released)
	require.Equal(t, uint64(1_700_000_000), dep.DepositedAt)
}

func TestGetDeposit_NoDepositYet(t *testing.T) {
	client := NewEVMClientWithCallView(big.NewInt(8453), func(ctx context.Context, to string, data []byte) ([]byte, error) {
		return make([]byte, 5*32), nil
	})
	conn, _ := newTestConnector(t, client)

	dep, err := conn.GetDeposit(context.Background(), "base", "0x4444444444444444444444444444444444444444", "pay_1")
	require.NoError(t, err)
	require.Nil(t, dep.Amount)
	require.Empty(t, dep.Payer)
}

func TestCalculateYield(t *testing.T) {
	client := NewEVMClientWithCallView(big.NewInt(8453), func(ctx context.Context, to string, data []byte) ([]byte, error) {
		require.Equal(t, selCalcYield, data[:4])
		return common.LeftPadBytes(big.NewInt(493_200).Bytes(), 32), nil
	})
	conn, _ := newTestConnector(t, client)

	got, err := conn.CalculateYield(context.Background(), "base", "0x4444444444444444444444444444444444444444", "pay_1")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(493_200), got)
}

func TestTransactionStatus_Branches(t *testing.T) {
	client := NewEVMClientWithCallView(big.NewInt(8453), nil)
	conn, _ := newTestConnector(t, client)
	ctx := context.Background()

	// Unknown to the node: still pending.
	client.testReceipt = func(ctx context.Context, txHash string) (*types.Receipt, error) {
		return nil, ethereum.NotFound
	}
	status, err := conn.TransactionStatus(ctx, "base", "0xtx")
	require.NoError(t, err)
	require.Equal(t, TxStatusPending, status)

	// Reverted on chain.
	client.testReceipt = func(ctx context.Context, txHash string) (*types.Receipt, error) {
		return &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(100)}, nil
	}
	status, err = conn.TransactionStatus(ctx, "base", "0xtx")
	require.NoError(t, err)
	require.Equal(t, TxStatusFailed, status)

	// Mined but under the confirmation depth.
	client.testReceipt = func(ctx context.Context, txHash string) (*types.Receipt, error) {
		return &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(100)}, nil
	}
	client.testBlockNumber = func(ctx context.Context) (uint64, error) { return 101, nil }
	status, err = conn.TransactionStatus(ctx, "base", "0xtx")
	require.NoError(t, err)
	require.Equal(t, TxStatusPending, status)

	// Deep enough: base requires 3 confirmations.
	client.testBlockNumber = func(ctx context.Context) (uint64, error) { return 102, nil }
	status, err = conn.TransactionStatus(ctx, "base", "0xtx")
	require.NoError(t, err)
	require.Equal(t, TxStatusConfirmed, status)
}

func TestPoolBalance_ReadsBridgePool(t *testing.T) {
	var queriedOwner []byte
	client := NewEVMClientWithCallView(big.NewInt(8453), func(ctx context.Context, to string, data []byte) ([]byte, error) {
		queriedOwner = data[4:]
		return common.LeftPadBytes(big.NewInt(5_000_000_000).Bytes(), 32), nil
	})
	conn, _ := newTestConnector(t, client)

	balance, err := conn.PoolBalance(context.Background(), "base", "0x3333333333333333333333333333333333333333")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(5_000_000_000), balance)
	require.Equal(t,
		common.LeftPadBytes(common.HexToAddress(testChains["base"].BridgePool).Bytes(), 32),
		queriedOwner)
}

func TestBridgeWrites_TargetPool(t *testing.T) {
	var sent []*types.Transaction
	conn, _ := newTestConnector(t, writeReadyClient(&sent, nil))
	ctx := context.Background()

	_, err := conn.BridgeLock(ctx, "base", "0x3333333333333333333333333333333333333333", big.NewInt(100), "0xccc0000000000000000000000000000000000003", "arbitrum", "brg_1")
	require.NoError(t, err)
	_, err = conn.BridgeRelease(ctx, "base", "0x3333333333333333333333333333333333333333", big.NewInt(100), "0xccc0000000000000000000000000000000000003", "brg_1")
	require.NoError(t, err)
	_, err = conn.BridgeRefund(ctx, "base", "0x3333333333333333333333333333333333333333", big.NewInt(100), "0xccc0000000000000000000000000000000000003", "brg_1")
	require.NoError(t, err)

	require.Len(t, sent, 3)
	pool := common.HexToAddress(testChains["base"].BridgePool)
	for _, tx := range sent {
		require.Equal(t, pool, *tx.To())
	}
	require.Equal(t, selBridgeLock, sent[0].Data()[:4])
	require.Equal(t, selBridgeRelease, sent[1].Data()[:4])
	require.Equal(t, selBridgeRefund, sent[2].Data()[:4])
}

func TestMapChainError_Taxonomy(t *testing.T) {
	require.NoError(t, mapChainError(nil))
	require.ErrorIs(t, mapChainError(context.DeadlineExceeded), domainerrors.ErrTimeout)
	require.ErrorIs(t, mapChainError(errString("execution reverted: not payer")), domainerrors.ErrContractReverted)
	require.ErrorIs(t, mapChainError(errString("insufficient funds for gas * price + value")), domainerrors.ErrInsufficientFunds)
	require.ErrorIs(t, mapChainError(errString("dial tcp: connection refused")), domainerrors.ErrRPCUnavailable)
	require.ErrorIs(t, mapChainError(errString("some other failure")), domainerrors.ErrSettlement)
}

type errString string

func (e errString) Error() string { return string(e) }

func TestEscrowEventSubscription_PollDispatch(t *testing.T) {
	client := NewEVMClientWithCallView(big.NewInt(8453), nil)
	conn, _ := newTestConnector(t, client)

	var events []EscrowEvent
	id := conn.SubscribeEscrowEvents("base", func(e EscrowEvent) { events = append(events, e) })
	defer conn.RemoveListeners(id)

	conn.subMu.Lock()
	sub := conn.subs[id]
	conn.subMu.Unlock()
	require.NotNil(t, sub)

	head := uint64(100)
	client.testBlockNumber = func(ctx context.Context) (uint64, error) { return head, nil }
	client.testFilterLogs = func(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
		return []types.Log{
			{
				Address:     common.HexToAddress("0x4444444444444444444444444444444444444444"),
				Topics:      []common.Hash{topicReleased, PaymentHash("pay_1")},
				TxHash:      common.HexToHash("0xabc"),
				BlockNumber: 101,
			},
			// Unknown topic is skipped.
			{Topics: []common.Hash{crypto.Keccak256Hash([]byte("Other()")), PaymentHash("pay_1")}},
		}, nil
	}

	// First poll only records the high-water mark.
	conn.pollOnce(sub)
	require.Empty(t, events)

	head = 105
	conn.pollOnce(sub)
	require.Len(t, events, 1)
	require.Equal(t, EscrowEventReleased, events[0].Kind)
	require.Equal(t, "base", events[0].Chain)
	require.Equal(t, PaymentHash("pay_1").Hex(), events[0].PaymentHash)

	conn.RemoveListeners(id)
	conn.subMu.Lock()
	_, stillThere := conn.subs[id]
	conn.subMu.Unlock()
	require.False(t, stillThere)
}
