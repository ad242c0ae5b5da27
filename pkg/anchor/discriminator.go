package anchor

import (
	"bytes"
	"crypto/sha256"
	"fmt"
)

// Discriminator represents an 8-byte instruction discriminator
type Discriminator [8]byte

// String returns hex representation of discriminator
func (d Discriminator) String() string {
	return fmt.Sprintf("%x", d[:])
}

// Bytes returns discriminator as byte slice
func (d Discriminator) Bytes() []byte {
	return d[:]
}

// Equals compares two discriminators
func (d Discriminator) Equals(other Discriminator) bool {
	return d == other
}

// ComputeDiscriminator computes 8-byte discriminator for instruction/account
func ComputeDiscriminator(namespace, name string) Discriminator {
	// sha256("namespace:name")[0:8]
	hash := sha256.Sum256([]byte(namespace + ":" + name))

	var discriminator Discriminator
	copy(discriminator[:], hash[:8])
	return discriminator
}

// ComputeInstructionDiscriminator computes discriminator for instruction
func ComputeInstructionDiscriminator(name string) Discriminator {
	return ComputeDiscriminator("global", name)
}

// ComputeAccountDiscriminator computes discriminator for account
func ComputeAccountDiscriminator(name string) Discriminator {
	return ComputeDiscriminator("account", name)
}

// Swap pool instruction and account names
const (
	InitializeInstructionName = "initialize_token_account_pda"
	DepositInstructionName    = "deposit_to_pool"
	SwapInstructionName       = "swap_from_pool_dev"

	ControllerAccountName = "TokenAccountPda"
)

var (
	// Instruction discriminators
	InitializeDiscriminator = ComputeInstructionDiscriminator(InitializeInstructionName)
	DepositDiscriminator    = ComputeInstructionDiscriminator(DepositInstructionName)
	SwapDiscriminator       = ComputeInstructionDiscriminator(SwapInstructionName)

	// Account discriminators
	ControllerDiscriminator = ComputeAccountDiscriminator(ControllerAccountName)

	KnownInstructionDiscriminators = map[Discriminator]string{
		InitializeDiscriminator: InitializeInstructionName,
		DepositDiscriminator:    DepositInstructionName,
		SwapDiscriminator:       SwapInstructionName,
	}
)

// GetInstructionName returns instruction name for discriminator
func GetInstructionName(discriminator Discriminator) string {
	if name, exists := KnownInstructionDiscriminators[discriminator]; exists {
		return name
	}
	return "unknown"
}

// DiscriminatorFromBytes creates discriminator from byte slice
func DiscriminatorFromBytes(data []byte) (Discriminator, error) {
	if len(data) < 8 {
		return Discriminator{}, fmt.Errorf("data too short for discriminator: need 8 bytes, got %d", len(data))
	}

	var discriminator Discriminator
	copy(discriminator[:], data[:8])
	return discriminator, nil
}

// ValidateDiscriminator validates that data starts with expected discriminator
func ValidateDiscriminator(data []byte, expected Discriminator) error {
	actual, err := DiscriminatorFromBytes(data)
	if err != nil {
		return err
	}

	if !bytes.Equal(actual[:], expected[:]) {
		return fmt.Errorf("discriminator mismatch: expected %s, got %s",
			expected.String(), actual.String())
	}

	return nil
}
