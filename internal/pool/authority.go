package pool

import (
	"github.com/gagliardetto/solana-go"

	"swap-pool-go/internal/config"
	"swap-pool-go/internal/runtime"
)

// ParseUpgradeAuthority reads the upgrade authority out of a ProgramData buffer
func ParseUpgradeAuthority(data []byte) (solana.PublicKey, error) {
	if len(data) < config.ProgramDataMinSize {
		return solana.PublicKey{}, ErrInvalidProgramData
	}
	return solana.PublicKeyFromBytes(data[config.UpgradeAuthorityOffset:config.ProgramDataMinSize]), nil
}

// VerifyUpgradeAuthority checks that signer is the upgrade authority currently
// recorded in programData. The buffer is read on every call.
func VerifyUpgradeAuthority(signer solana.PublicKey, programData *runtime.AccountInfo) error {
	if programData == nil || !programData.Owner.Equals(runtime.LoaderProgramID()) {
		return ErrInvalidProgramData
	}

	authority, err := ParseUpgradeAuthority(programData.Data)
	if err != nil {
		return err
	}

	if !authority.Equals(signer) {
		return ErrUnauthorizedAccess
	}
	return nil
}
