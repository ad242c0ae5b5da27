package pool

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"swap-pool-go/internal/runtime"
	"swap-pool-go/pkg/anchor"
	"swap-pool-go/pkg/utils"
)

// DepositAccounts are the keys a deposit needs
type DepositAccounts struct {
	User             solana.PublicKey
	UserTokenAccount solana.PublicKey
	Vault            solana.PublicKey
}

// SwapAccounts are the keys a swap needs besides the derived ones
type SwapAccounts struct {
	Authority solana.PublicKey
	Vault     solana.PublicKey
	Recipient solana.PublicKey
}

// buildInstruction lays keys out in the IDL order of the named instruction,
// taking writable and signer flags from the IDL
func buildInstruction(programID solana.PublicKey, name string, data []byte, keys ...solana.PublicKey) (solana.Instruction, error) {
	def, err := anchor.SwapPoolIDL.GetInstruction(name)
	if err != nil {
		return nil, err
	}
	if len(keys) != len(def.Accounts) {
		return nil, fmt.Errorf("%s expects %d accounts, got %d", name, len(def.Accounts), len(keys))
	}

	metas := make(solana.AccountMetaSlice, len(keys))
	for i, acc := range def.Accounts {
		metas[i] = solana.NewAccountMeta(keys[i], acc.IsMut, acc.IsSigner)
	}

	return solana.NewInstruction(programID, metas, data), nil
}

// NewInitializeInstruction builds initialize_token_account_pda for authority
func NewInitializeInstruction(programID, authority solana.PublicKey) (solana.Instruction, error) {
	controller, _, err := utils.NewControllerDerivation(programID).Derive()
	if err != nil {
		return nil, fmt.Errorf("failed to derive controller: %w", err)
	}
	programData, _, err := utils.DeriveProgramData(programID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive program data: %w", err)
	}

	return buildInstruction(programID, anchor.InitializeInstructionName,
		anchor.BuildInitializeInstruction(),
		authority, controller, programData, programID, runtime.SystemProgramID())
}

// NewDepositInstruction builds deposit_to_pool
func NewDepositInstruction(programID solana.PublicKey, accounts DepositAccounts, amount uint64) (solana.Instruction, error) {
	return buildInstruction(programID, anchor.DepositInstructionName,
		anchor.BuildDepositInstruction(amount),
		accounts.User, accounts.UserTokenAccount, accounts.Vault, runtime.TokenProgramID())
}

// NewSwapInstruction builds swap_from_pool_dev
func NewSwapInstruction(programID solana.PublicKey, accounts SwapAccounts, amount uint64) (solana.Instruction, error) {
	controller, _, err := utils.NewControllerDerivation(programID).Derive()
	if err != nil {
		return nil, fmt.Errorf("failed to derive controller: %w", err)
	}
	programData, _, err := utils.DeriveProgramData(programID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive program data: %w", err)
	}

	return buildInstruction(programID, anchor.SwapInstructionName,
		anchor.BuildSwapInstruction(amount),
		accounts.Authority, controller, accounts.Vault, accounts.Recipient,
		programData, programID, runtime.TokenProgramID())
}
