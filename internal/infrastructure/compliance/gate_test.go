package compliance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/raosunjoy/YieldRails-sub009/internal/config"
	domainerrors "github.com/raosunjoy/YieldRails-sub009/internal/domain/errors"
)

func TestBlocklistGate(t *testing.T) {
	gate := NewBlocklistGate(config.ComplianceConfig{
		BlockedAddresses: []string{"0xBAD0000000000000000000000000000000000001", " 0xbad0000000000000000000000000000000000002 ", ""},
	})
	ctx := context.Background()

	require.NoError(t, gate.Check(ctx, "0xgood000000000000000000000000000000000001"))
	require.NoError(t, gate.Check(ctx))

	// Case-insensitive match on either party.
	err := gate.Check(ctx, "0xgood000000000000000000000000000000000001", "0xbad0000000000000000000000000000000000001")
	require.ErrorIs(t, err, domainerrors.ErrCompliance)

	err = gate.Check(ctx, "0xBAD0000000000000000000000000000000000002")
	require.ErrorIs(t, err, domainerrors.ErrCompliance)

	// Error must not reveal which address was blocked.
	require.NotContains(t, err.Error(), "0xbad")
}
