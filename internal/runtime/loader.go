package runtime

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"swap-pool-go/internal/config"
)

// Upgradeable loader account state tags
const (
	loaderStateUninitialized uint32 = iota
	loaderStateBuffer
	loaderStateProgram
	loaderStateProgramData
)

// EncodeProgramAccount encodes the loader's Program state pointing at programData
func EncodeProgramAccount(programData solana.PublicKey) []byte {
	data := make([]byte, 4+solana.PublicKeyLength)
	binary.LittleEndian.PutUint32(data, loaderStateProgram)
	copy(data[4:], programData.Bytes())
	return data
}

// EncodeProgramData encodes the loader's ProgramData header followed by the program image.
// A nil authority marks the program as immutable.
func EncodeProgramData(slot uint64, authority *solana.PublicKey, image []byte) []byte {
	data := make([]byte, config.ProgramDataMinSize+len(image))
	binary.LittleEndian.PutUint32(data, loaderStateProgramData)
	binary.LittleEndian.PutUint64(data[4:], slot)
	if authority != nil {
		data[config.ProgramDataHeaderSize] = 1
		copy(data[config.UpgradeAuthorityOffset:], authority.Bytes())
	}
	copy(data[config.ProgramDataMinSize:], image)
	return data
}

// DeployUpgradeable registers program under programID the way the upgradeable
// loader lays it out: an executable Program account plus a ProgramData account
// holding the upgrade authority.
func (b *Bank) DeployUpgradeable(programID solana.PublicKey, program Program, authority solana.PublicKey) (solana.PublicKey, error) {
	programData, _, err := solana.FindProgramAddress([][]byte{programID.Bytes()}, LoaderProgramID())
	if err != nil {
		return solana.PublicKey{}, err
	}

	b.RegisterProgram(programID, program)

	b.SetAccount(programID, &Account{
		Owner:      LoaderProgramID(),
		Lamports:   RentExemptMinimum(4 + solana.PublicKeyLength),
		Data:       EncodeProgramAccount(programData),
		Executable: true,
	})
	b.SetAccount(programData, &Account{
		Owner:    LoaderProgramID(),
		Lamports: RentExemptMinimum(config.ProgramDataMinSize),
		Data:     EncodeProgramData(b.Slot(), &authority, nil),
	})

	return programData, nil
}

// SetUpgradeAuthority rewrites the authority of a deployed program, as the loader's
// SetAuthority instruction does. A nil authority makes the program immutable.
func (b *Bank) SetUpgradeAuthority(programData solana.PublicKey, authority *solana.PublicKey) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[programData]
	if !ok || len(acc.Data) < config.ProgramDataMinSize {
		return false
	}

	slot := binary.LittleEndian.Uint64(acc.Data[4:])
	acc.Data = EncodeProgramData(slot, authority, acc.Data[config.ProgramDataMinSize:])
	return true
}
