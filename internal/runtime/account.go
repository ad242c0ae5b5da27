package runtime

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"swap-pool-go/internal/config"
)

// Account is the persisted state of one address
type Account struct {
	Owner      solana.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool
}

// Clone returns a deep copy of the account
func (a *Account) Clone() *Account {
	data := make([]byte, len(a.Data))
	copy(data, a.Data)
	return &Account{
		Owner:      a.Owner,
		Lamports:   a.Lamports,
		Data:       data,
		Executable: a.Executable,
	}
}

// IsEmpty reports whether the address holds nothing and can be dropped from the store
func (a *Account) IsEmpty() bool {
	return a.Lamports == 0 && len(a.Data) == 0 && !a.Executable
}

func (a *Account) equal(other *Account) bool {
	return a.Owner.Equals(other.Owner) &&
		a.Lamports == other.Lamports &&
		a.Executable == other.Executable &&
		bytes.Equal(a.Data, other.Data)
}

// AccountInfo is the view of one account handed to a program for a single instruction.
// Programs mutate the embedded Account in place; the host rolls it back on failure.
type AccountInfo struct {
	Key        solana.PublicKey
	IsSigner   bool
	IsWritable bool
	*Account
}

// DataLen returns the length of the account data
func (ai *AccountInfo) DataLen() int {
	return len(ai.Data)
}

// RentExemptMinimum returns the lamports an account of the given size needs to be rent exempt
func RentExemptMinimum(space uint64) uint64 {
	const (
		accountStorageOverhead = 128
		lamportsPerByteYear    = 3480
		exemptionThreshold     = 2
	)
	return (accountStorageOverhead + space) * lamportsPerByteYear * exemptionThreshold
}

// TokenProgramID returns the SPL token program id
func TokenProgramID() solana.PublicKey {
	return solana.PublicKeyFromBytes(config.TokenProgramID)
}

// SystemProgramID returns the system program id
func SystemProgramID() solana.PublicKey {
	return solana.PublicKeyFromBytes(config.SystemProgramID)
}

// LoaderProgramID returns the upgradeable loader id
func LoaderProgramID() solana.PublicKey {
	return solana.PublicKeyFromBytes(config.BPFLoaderUpgradeableID)
}

// UnpackTokenAccount decodes SPL token account state
func UnpackTokenAccount(data []byte) (*token.Account, error) {
	if len(data) != config.TokenAccountSize {
		return nil, fmt.Errorf("%w: token account must be %d bytes, got %d",
			ErrInvalidAccountData, config.TokenAccountSize, len(data))
	}

	var state token.Account
	if err := bin.NewBinDecoder(data).Decode(&state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}

	return &state, nil
}

// PackTokenAccount encodes SPL token account state into its 165-byte layout
func PackTokenAccount(state *token.Account) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)

	writeOptionKey := func(key *solana.PublicKey) error {
		if key == nil {
			if err := enc.WriteUint32(0, binary.LittleEndian); err != nil {
				return err
			}
			return enc.WriteBytes(make([]byte, solana.PublicKeyLength), false)
		}
		if err := enc.WriteUint32(1, binary.LittleEndian); err != nil {
			return err
		}
		return enc.WriteBytes(key.Bytes(), false)
	}

	if err := enc.WriteBytes(state.Mint.Bytes(), false); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(state.Owner.Bytes(), false); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(state.Amount, binary.LittleEndian); err != nil {
		return nil, err
	}
	if err := writeOptionKey(state.Delegate); err != nil {
		return nil, err
	}
	if err := enc.WriteUint8(uint8(state.State)); err != nil {
		return nil, err
	}
	if state.IsNative == nil {
		if err := enc.WriteUint32(0, binary.LittleEndian); err != nil {
			return nil, err
		}
		if err := enc.WriteUint64(0, binary.LittleEndian); err != nil {
			return nil, err
		}
	} else {
		if err := enc.WriteUint32(1, binary.LittleEndian); err != nil {
			return nil, err
		}
		if err := enc.WriteUint64(*state.IsNative, binary.LittleEndian); err != nil {
			return nil, err
		}
	}
	if err := enc.WriteUint64(state.DelegatedAmount, binary.LittleEndian); err != nil {
		return nil, err
	}
	if err := writeOptionKey(state.CloseAuthority); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
