package pool

import (
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"swap-pool-go/internal/runtime"
	"swap-pool-go/pkg/anchor"
)

// Initialize creates the controller record if it does not exist yet.
// Accounts: authority, token_account_pda, program_data, program, system_program.
func (p *Program) Initialize(ctx *runtime.InvokeContext, accounts []*runtime.AccountInfo) error {
	if err := requireAccounts(accounts, anchor.InitializeInstructionName); err != nil {
		return err
	}
	authority, controller, programData, program, systemProgram := accounts[0], accounts[1], accounts[2], accounts[3], accounts[4]

	if err := requireSigner(authority, "authority"); err != nil {
		return err
	}
	if err := requireWritable(authority, "authority"); err != nil {
		return err
	}
	if err := requireWritable(controller, "token_account_pda"); err != nil {
		return err
	}
	if err := requireProgram(program, p.programID, "program"); err != nil {
		return err
	}
	if err := requireProgram(systemProgram, runtime.SystemProgramID(), "system_program"); err != nil {
		return err
	}
	if err := p.requireProgramData(programData); err != nil {
		return err
	}
	if err := VerifyUpgradeAuthority(authority.Key, programData); err != nil {
		return err
	}

	bump, err := p.bindController(controller.Key)
	if err != nil {
		return err
	}

	if controller.Owner.Equals(runtime.SystemProgramID()) && len(controller.Data) == 0 {
		if err := p.createController(ctx, authority, controller, bump); err != nil {
			return err
		}

		record := &ControllerRecord{TokenCount: 0}
		controller.Data = record.Marshal()
	} else if _, err := p.controllerRecord(controller); err != nil {
		return err
	}

	ctx.Log("%s", InitializedEvent(controller.Key))
	return nil
}

// createController allocates the controller record at its derived address,
// paid by authority. An address that already holds lamports is topped up to
// the rent-exempt minimum, then allocated and assigned under the PDA seeds.
func (p *Program) createController(ctx *runtime.InvokeContext, authority, controller *runtime.AccountInfo, bump uint8) error {
	seeds := p.controller.SignerSeeds(bump)
	required := runtime.RentExemptMinimum(ControllerRecordSize)

	if controller.Lamports == 0 {
		create := system.NewCreateAccountInstruction(required, ControllerRecordSize, p.programID, authority.Key, controller.Key).Build()
		return ctx.Invoke(create, seeds)
	}

	if controller.Lamports < required {
		topUp := system.NewTransferInstruction(required-controller.Lamports, authority.Key, controller.Key).Build()
		if err := ctx.Invoke(topUp); err != nil {
			return err
		}
	}
	if err := ctx.Invoke(system.NewAllocateInstruction(ControllerRecordSize, controller.Key).Build(), seeds); err != nil {
		return err
	}
	return ctx.Invoke(system.NewAssignInstruction(p.programID, controller.Key).Build(), seeds)
}

// Deposit moves amount from the signer's token account into the vault.
// A source account not owned by user fails with ConstraintRaw before the
// token program runs, so TokenErrOwnerMismatch is never returned here.
// Accounts: user, user_token_account, from_token_account (the vault), token_program.
func (p *Program) Deposit(ctx *runtime.InvokeContext, accounts []*runtime.AccountInfo, amount uint64) error {
	if err := requireAccounts(accounts, anchor.DepositInstructionName); err != nil {
		return err
	}
	user, userToken, vault, tokenProgram := accounts[0], accounts[1], accounts[2], accounts[3]

	if err := requireSigner(user, "user"); err != nil {
		return err
	}
	if err := requireWritable(user, "user"); err != nil {
		return err
	}
	if err := requireWritable(userToken, "user_token_account"); err != nil {
		return err
	}
	if err := requireWritable(vault, "from_token_account"); err != nil {
		return err
	}
	if err := requireProgram(tokenProgram, runtime.TokenProgramID(), "token_program"); err != nil {
		return err
	}

	source, err := tokenAccount(userToken, "user_token_account")
	if err != nil {
		return err
	}
	if !source.Owner.Equals(user.Key) {
		return accountError(ErrConstraintRaw, "user_token_account")
	}

	vaultState, err := tokenAccount(vault, "from_token_account")
	if err != nil {
		return err
	}
	controllerKey, _, err := p.controller.Derive()
	if err != nil {
		return err
	}
	if !vaultState.Owner.Equals(controllerKey) {
		return accountError(ErrConstraintRaw, "from_token_account")
	}

	ctx.Log("The deposit operation starts")

	transfer := token.NewTransferInstruction(amount, userToken.Key, vault.Key, user.Key, nil).Build()
	if err := ctx.Invoke(transfer); err != nil {
		return err
	}

	ctx.Log("%s", DepositEvent(user.Key, amount))
	return nil
}

// SwapFromPool moves amount out of the vault to any recipient, signing as the controller.
// Accounts: authority, token_account_pda, pool_token_account, recipient_token_account,
// program_data, program, token_program.
func (p *Program) SwapFromPool(ctx *runtime.InvokeContext, accounts []*runtime.AccountInfo, amount uint64) error {
	if err := requireAccounts(accounts, anchor.SwapInstructionName); err != nil {
		return err
	}
	authority, controller, vault, recipient := accounts[0], accounts[1], accounts[2], accounts[3]
	programData, program, tokenProgram := accounts[4], accounts[5], accounts[6]

	if err := requireSigner(authority, "authority"); err != nil {
		return err
	}
	if err := requireWritable(authority, "authority"); err != nil {
		return err
	}
	if err := requireWritable(vault, "pool_token_account"); err != nil {
		return err
	}
	if err := requireWritable(recipient, "recipient_token_account"); err != nil {
		return err
	}
	if err := requireProgram(program, p.programID, "program"); err != nil {
		return err
	}
	if err := requireProgram(tokenProgram, runtime.TokenProgramID(), "token_program"); err != nil {
		return err
	}
	if err := p.requireProgramData(programData); err != nil {
		return err
	}

	ctx.Log("The swap operation from pool starts")

	if err := VerifyUpgradeAuthority(authority.Key, programData); err != nil {
		return err
	}

	bump, err := p.bindController(controller.Key)
	if err != nil {
		return err
	}
	if _, err := p.controllerRecord(controller); err != nil {
		return err
	}

	vaultState, err := tokenAccount(vault, "pool_token_account")
	if err != nil {
		return err
	}
	if !vaultState.Owner.Equals(controller.Key) {
		return accountError(ErrConstraintRaw, "pool_token_account")
	}
	if _, err := tokenAccount(recipient, "recipient_token_account"); err != nil {
		return err
	}

	if vaultState.Amount < amount {
		return ErrInsufficientPoolBalance
	}
	ctx.Log("pool_balance: %d", vaultState.Amount)

	transfer := token.NewTransferInstruction(amount, vault.Key, recipient.Key, controller.Key, nil).Build()
	if err := ctx.Invoke(transfer, p.controller.SignerSeeds(bump)); err != nil {
		return err
	}

	ctx.Log("%s", SwapEvent(authority.Key, amount, recipient.Key))
	return nil
}
