package anchor

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeInstructionDiscriminator(t *testing.T) {
	hash := sha256.Sum256([]byte("global:deposit_to_pool"))
	assert.Equal(t, hash[:8], DepositDiscriminator.Bytes())

	hash = sha256.Sum256([]byte("account:TokenAccountPda"))
	assert.Equal(t, hash[:8], ControllerDiscriminator.Bytes())
}

func TestBuildDepositInstruction(t *testing.T) {
	data := BuildDepositInstruction(0x0102030405060708)
	require.Len(t, data, 16)

	assert.Equal(t, DepositDiscriminator.Bytes(), data[:8])
	assert.Equal(t, []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}, data[8:])

	amount, err := DecodeAmountArgs(data, DepositDiscriminator)
	require.NoError(t, err)
	assert.EqualValues(t, 0x0102030405060708, amount)
}

func TestDecodeAmountArgs_Errors(t *testing.T) {
	_, err := DecodeAmountArgs(BuildSwapInstruction(5), DepositDiscriminator)
	assert.Error(t, err)

	_, err = DecodeAmountArgs(SwapDiscriminator.Bytes(), SwapDiscriminator)
	assert.Error(t, err)

	_, err = DecodeAmountArgs([]byte{1, 2, 3}, SwapDiscriminator)
	assert.Error(t, err)
}

func TestIdentifyInstruction(t *testing.T) {
	name, err := IdentifyInstruction(BuildInitializeInstruction())
	require.NoError(t, err)
	assert.Equal(t, InitializeInstructionName, name)

	name, err = IdentifyInstruction(BuildSwapInstruction(1))
	require.NoError(t, err)
	assert.Equal(t, SwapInstructionName, name)

	name, err = IdentifyInstruction([]byte{0, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, "unknown", name)

	_, err = IdentifyInstruction(nil)
	assert.Error(t, err)
}

func TestSwapPoolIDL(t *testing.T) {
	inst, err := SwapPoolIDL.GetInstruction(SwapInstructionName)
	require.NoError(t, err)
	require.Len(t, inst.Accounts, 7)

	idx, err := inst.AccountIndex("poolTokenAccount")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	_, err = inst.AccountIndex("missing")
	assert.Error(t, err)

	idlErr, err := SwapPoolIDL.GetError(6001)
	require.NoError(t, err)
	assert.Equal(t, "UnauthorizedAccess", idlErr.Name)
}
