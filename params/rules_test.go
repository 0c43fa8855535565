package params

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestForkCapabilityComposition confirms each hardfork patch only
// turns capability flags on relative to its base, and never resets a
// capability a later fork should retain.
func TestForkCapabilityComposition(t *testing.T) {
	require.False(t, Frontier.FailContractCreationLackOfGas)
	require.False(t, Frontier.HasDelegateCall)

	require.True(t, Homestead.FailContractCreationLackOfGas)
	require.True(t, Homestead.HasDelegateCall)
	require.False(t, Homestead.FailNestedOperationLackOfGas)

	require.True(t, EIP150.FailNestedOperationLackOfGas)
	require.True(t, EIP150.HasDelegateCall, "EIP150 must retain Homestead's capabilities")

	require.True(t, EIP158.LimitContractCodeSize)
	require.Equal(t, 24576, EIP158.MaxCodeSize)

	require.True(t, Byzantium.HasRevert)
	require.True(t, Byzantium.HasStaticCall)
	require.True(t, Byzantium.LimitContractCodeSize, "Byzantium must retain EIP158's capabilities")

	require.True(t, Constantinople.HasShiftOperations)
	require.True(t, Constantinople.HasCreate2)
	require.True(t, Constantinople.Eip1283SstoreGasCostChanged)
	require.True(t, Constantinople.HasRevert, "Constantinople must retain Byzantium's capabilities")
}

func TestPatchDoesNotMutateBase(t *testing.T) {
	require.Equal(t, "Frontier", Frontier.Name)
	require.False(t, Frontier.HasDelegateCall)
	require.NotSame(t, Frontier.MaxSignatureS, Homestead.MaxSignatureS)
}

func TestStartNonce(t *testing.T) {
	require.Equal(t, uint64(0), Frontier.StartNonce())
}
