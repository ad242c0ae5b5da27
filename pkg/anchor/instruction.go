package anchor

import (
	"encoding/binary"
	"fmt"
)

// InstructionBuilder helps build Anchor instructions
type InstructionBuilder struct {
	data []byte
}

// NewInstructionBuilder creates a new instruction builder
func NewInstructionBuilder(instructionName string) *InstructionBuilder {
	discriminator := ComputeInstructionDiscriminator(instructionName)
	data := make([]byte, 0, 16)
	data = append(data, discriminator.Bytes()...)
	return &InstructionBuilder{data: data}
}

// AddU64 adds a u64 value to instruction data (little endian)
func (ib *InstructionBuilder) AddU64(value uint64) *InstructionBuilder {
	ib.data = binary.LittleEndian.AppendUint64(ib.data, value)
	return ib
}

// Build returns the final instruction data
func (ib *InstructionBuilder) Build() []byte {
	return ib.data
}

// InstructionDecoder helps decode Anchor instructions
type InstructionDecoder struct {
	data   []byte
	offset int
}

// NewInstructionDecoder creates a new instruction decoder
func NewInstructionDecoder(data []byte) *InstructionDecoder {
	return &InstructionDecoder{
		data:   data,
		offset: 8, // Skip discriminator
	}
}

// ReadU64 reads a u64 value from instruction data (little endian)
func (id *InstructionDecoder) ReadU64() (uint64, error) {
	if id.offset+8 > len(id.data) {
		return 0, fmt.Errorf("not enough data to read u64")
	}
	value := binary.LittleEndian.Uint64(id.data[id.offset:])
	id.offset += 8
	return value, nil
}

// Swap pool instruction data

// BuildInitializeInstruction builds initialize_token_account_pda data
func BuildInitializeInstruction() []byte {
	return NewInstructionBuilder(InitializeInstructionName).Build()
}

// BuildDepositInstruction builds deposit_to_pool data
func BuildDepositInstruction(amount uint64) []byte {
	return NewInstructionBuilder(DepositInstructionName).
		AddU64(amount).
		Build()
}

// BuildSwapInstruction builds swap_from_pool_dev data
func BuildSwapInstruction(amount uint64) []byte {
	return NewInstructionBuilder(SwapInstructionName).
		AddU64(amount).
		Build()
}

// DecodeAmountArgs decodes the single u64 argument shared by deposit and swap
func DecodeAmountArgs(data []byte, expected Discriminator) (uint64, error) {
	if err := ValidateDiscriminator(data, expected); err != nil {
		return 0, err
	}

	decoder := NewInstructionDecoder(data)
	amount, err := decoder.ReadU64()
	if err != nil {
		return 0, fmt.Errorf("failed to read amount: %w", err)
	}

	return amount, nil
}

// IdentifyInstruction identifies the type of swap pool instruction
func IdentifyInstruction(data []byte) (string, error) {
	discriminator, err := DiscriminatorFromBytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to extract discriminator: %w", err)
	}

	return GetInstructionName(discriminator), nil
}
