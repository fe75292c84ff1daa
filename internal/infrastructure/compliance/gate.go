package compliance

import (
	"context"
	"strings"

	"github.com/raosunjoy/YieldRails-sub009/internal/config"
	domainerrors "github.com/raosunjoy/YieldRails-sub009/internal/domain/errors"
)

// Gate is the pass/fail screening boundary. The current implementation
// is a static address blocklist; a vendor integration would slot in
// behind the same method.
type Gate interface {
	Check(ctx context.Context, addresses ...string) error
}

// BlocklistGate screens against configured addresses, case-insensitive.
type BlocklistGate struct {
	blocked map[string]struct{}
}

// NewBlocklistGate creates a gate from compliance configuration
func NewBlocklistGate(cfg config.ComplianceConfig) *BlocklistGate {
	blocked := make(map[string]struct{}, len(cfg.BlockedAddresses))
	for _, addr := range cfg.BlockedAddresses {
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr != "" {
			blocked[addr] = struct{}{}
		}
	}
	return &BlocklistGate{blocked: blocked}
}

// Check fails with a compliance error if any address is blocked. The
// error names no address; callers must not leak which party failed.
func (g *BlocklistGate) Check(ctx context.Context, addresses ...string) error {
	for _, addr := range addresses {
		if _, hit := g.blocked[strings.ToLower(addr)]; hit {
			return domainerrors.Compliance("transaction party failed compliance screening")
		}
	}
	return nil
}
