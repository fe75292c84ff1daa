package blockchain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/require"
	"github.com/raosunjoy/YieldRails-sub009/internal/config"
)

func TestClientFactory_UnconfiguredChain(t *testing.T) {
	factory := NewClientFactory(map[string]config.ChainConfig{})
	_, err := factory.GetClient("base")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not configured")
}

func TestClientFactory_ReturnsRegisteredClient(t *testing.T) {
	factory := NewClientFactory(testChains)
	injected := NewEVMClientWithCallView(big.NewInt(8453), nil)
	factory.RegisterClient("base", injected)

	got, err := factory.GetClient("base")
	require.NoError(t, err)
	require.Same(t, injected, got)

	// Cached: second fetch is the same instance.
	again, err := factory.GetClient("base")
	require.NoError(t, err)
	require.Same(t, injected, again)
}

func TestClientFactory_DialFailureSurfaces(t *testing.T) {
	origDial := dialEVMClient
	defer func() { dialEVMClient = origDial }()
	dialEVMClient = func(rawurl string) (*ethclient.Client, error) {
		return nil, errors.New("dial refused")
	}

	factory := NewClientFactory(testChains)
	_, err := factory.GetClient("base")
	require.Error(t, err)
	require.Contains(t, err.Error(), "dial refused")
}

func TestClientFactory_ChainConfigLookup(t *testing.T) {
	factory := NewClientFactory(testChains)

	cfg, ok := factory.ChainConfig("base")
	require.True(t, ok)
	require.Equal(t, uint64(3), cfg.Confirmations)

	_, ok = factory.ChainConfig("solana")
	require.False(t, ok)
}

func TestEVMClient_InjectedCallView(t *testing.T) {
	want := []byte{0x01, 0x02}
	client := NewEVMClientWithCallView(nil, func(ctx context.Context, to string, data []byte) ([]byte, error) {
		return want, nil
	})
	require.Equal(t, big.NewInt(1), client.ChainID())

	got, err := client.CallView(context.Background(), "0x0", nil)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
