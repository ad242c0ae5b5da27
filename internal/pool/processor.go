package pool

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"swap-pool-go/internal/runtime"
	"swap-pool-go/pkg/anchor"
	"swap-pool-go/pkg/utils"
)

// Program is the swap pool program as executed by the host
type Program struct {
	programID  solana.PublicKey
	controller *utils.ControllerDerivation
}

// NewProgram returns the pool program deployed under programID
func NewProgram(programID solana.PublicKey) *Program {
	return &Program{
		programID:  programID,
		controller: utils.NewControllerDerivation(programID),
	}
}

// ID returns the program id
func (p *Program) ID() solana.PublicKey {
	return p.programID
}

// Process routes instruction data to the matching handler
func (p *Program) Process(ctx *runtime.InvokeContext, accounts []*runtime.AccountInfo, data []byte) error {
	discriminator, err := anchor.DiscriminatorFromBytes(data)
	if err != nil {
		return ErrInstructionFallbackNotFound
	}

	switch discriminator {
	case anchor.InitializeDiscriminator:
		ctx.Log("Instruction: InitializeTokenAccountPda")
		return p.Initialize(ctx, accounts)

	case anchor.DepositDiscriminator:
		ctx.Log("Instruction: DepositToPool")
		amount, err := anchor.DecodeAmountArgs(data, anchor.DepositDiscriminator)
		if err != nil {
			return ErrInstructionDidNotDeserialize
		}
		return p.Deposit(ctx, accounts, amount)

	case anchor.SwapDiscriminator:
		ctx.Log("Instruction: SwapFromPoolDev")
		amount, err := anchor.DecodeAmountArgs(data, anchor.SwapDiscriminator)
		if err != nil {
			return ErrInstructionDidNotDeserialize
		}
		return p.SwapFromPool(ctx, accounts, amount)

	default:
		return ErrInstructionFallbackNotFound
	}
}

// Account validation helpers. Each reports the account by its IDL name.

func requireAccounts(accounts []*runtime.AccountInfo, instruction string) error {
	ix, err := anchor.SwapPoolIDL.GetInstruction(instruction)
	if err != nil {
		return ErrInstructionFallbackNotFound
	}
	if len(accounts) < len(ix.Accounts) {
		return ErrAccountNotEnoughKeys
	}
	return nil
}

func requireSigner(info *runtime.AccountInfo, name string) error {
	if !info.IsSigner {
		return accountError(ErrAccountNotSigner, name)
	}
	return nil
}

func requireWritable(info *runtime.AccountInfo, name string) error {
	if !info.IsWritable {
		return accountError(ErrConstraintMut, name)
	}
	return nil
}

func requireProgram(info *runtime.AccountInfo, id solana.PublicKey, name string) error {
	if !info.Key.Equals(id) {
		return accountError(ErrInvalidProgramID, name)
	}
	return nil
}

// requireProgramData binds the supplied metadata account to the loader's
// ProgramData address of this program
func (p *Program) requireProgramData(info *runtime.AccountInfo) error {
	expected, _, err := utils.DeriveProgramData(p.programID)
	if err != nil {
		return err
	}
	if !info.Key.Equals(expected) {
		return ErrInvalidProgramData
	}
	return nil
}

// tokenAccount decodes a token-program-owned account
func tokenAccount(info *runtime.AccountInfo, name string) (*token.Account, error) {
	if !info.Owner.Equals(runtime.TokenProgramID()) {
		return nil, accountError(ErrAccountOwnedByWrongProgram, name)
	}
	state, err := runtime.UnpackTokenAccount(info.Data)
	if err != nil || state.State == token.Uninitialized {
		return nil, accountError(ErrAccountDidNotDeserialize, name)
	}
	return state, nil
}

// controllerRecord decodes the controller record stored at info
func (p *Program) controllerRecord(info *runtime.AccountInfo) (*ControllerRecord, error) {
	if info.Owner.Equals(runtime.SystemProgramID()) && len(info.Data) == 0 {
		return nil, accountError(ErrAccountNotInitialized, "token_account_pda")
	}
	if !info.Owner.Equals(p.programID) {
		return nil, accountError(ErrAccountOwnedByWrongProgram, "token_account_pda")
	}
	record, err := UnmarshalControllerRecord(info.Data)
	if err != nil {
		return nil, fmt.Errorf("%w (account: token_account_pda)", err)
	}
	return record, nil
}

// bindController checks that candidate is the canonical controller address and
// returns the bump that signs for it
func (p *Program) bindController(candidate solana.PublicKey) (uint8, error) {
	_, bump, err := p.controller.Derive()
	if err != nil {
		return 0, err
	}
	if !p.controller.VerifyBinding(candidate, bump) {
		return 0, accountError(ErrConstraintSeeds, "token_account_pda")
	}
	return bump, nil
}
