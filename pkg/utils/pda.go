package utils

import (
	"github.com/gagliardetto/solana-go"
	"swap-pool-go/internal/config"
)

// ControllerDerivation derives the vault controller PDA of one deployed program.
// The program id is injected so the same code serves any deployment.
type ControllerDerivation struct {
	programID solana.PublicKey
	seed      []byte
}

func NewControllerDerivation(programID solana.PublicKey) *ControllerDerivation {
	return &ControllerDerivation{
		programID: programID,
		seed:      []byte(config.ControllerSeed),
	}
}

// ProgramID returns the program the controller belongs to
func (p *ControllerDerivation) ProgramID() solana.PublicKey {
	return p.programID
}

// Derive returns the controller address and its canonical bump
func (p *ControllerDerivation) Derive() (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{p.seed}, p.programID)
}

// VerifyBinding recomputes the address for the supplied bump and compares it
// with candidate. A bump that lands on the curve never binds.
func (p *ControllerDerivation) VerifyBinding(candidate solana.PublicKey, bump uint8) bool {
	address, err := solana.CreateProgramAddress(p.SignerSeeds(bump), p.programID)
	if err != nil {
		return false
	}
	return address.Equals(candidate)
}

// SignerSeeds returns the seed set that authorizes one invocation as the controller.
// Callers build it per call and drop it afterwards.
func (p *ControllerDerivation) SignerSeeds(bump uint8) [][]byte {
	return [][]byte{p.seed, {bump}}
}

// DeriveProgramData returns the ProgramData address the upgradeable loader
// keeps for programID
func DeriveProgramData(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	loaderID := solana.PublicKeyFromBytes(config.BPFLoaderUpgradeableID)
	return solana.FindProgramAddress([][]byte{programID.Bytes()}, loaderID)
}
