package blockchain

import (
	"fmt"
	"sync"

	"github.com/raosunjoy/YieldRails-sub009/internal/config"
)

// ClientFactory manages one cached client per configured chain.
// Injected wherever chain access is needed; there is no package-level
// default instance.
type ClientFactory struct {
	chains  map[string]config.ChainConfig
	clients map[string]*EVMClient
	mu      sync.RWMutex
}

// NewClientFactory creates a factory over the configured chain set
func NewClientFactory(chains map[string]config.ChainConfig) *ClientFactory {
	return &ClientFactory{
		chains:  chains,
		clients: make(map[string]*EVMClient),
	}
}

// GetClient returns the client for a chain name, dialing on first use.
func (f *ClientFactory) GetClient(chain string) (*EVMClient, error) {
	f.mu.RLock()
	client, ok := f.clients[chain]
	f.mu.RUnlock()
	if ok {
		return client, nil
	}

	cfg, ok := f.chains[chain]
	if !ok {
		return nil, fmt.Errorf("chain %q is not configured", chain)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double check
	if client, ok := f.clients[chain]; ok {
		return client, nil
	}

	newClient, err := NewEVMClient(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for chain %s: %w", chain, err)
	}

	f.clients[chain] = newClient
	return newClient, nil
}

// ChainConfig returns the configuration for a chain name.
func (f *ClientFactory) ChainConfig(chain string) (config.ChainConfig, bool) {
	cfg, ok := f.chains[chain]
	return cfg, ok
}

// RegisterClient injects/overrides the cached client for a chain.
// Useful for deterministic unit tests.
func (f *ClientFactory) RegisterClient(chain string, client *EVMClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[chain] = client
}

// Close closes all dialed clients.
func (f *ClientFactory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.clients {
		c.Close()
	}
	f.clients = make(map[string]*EVMClient)
}
