package pool

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swap-pool-go/internal/config"
	"swap-pool-go/internal/runtime"
	"swap-pool-go/pkg/anchor"
	"swap-pool-go/pkg/utils"
)

type fixture struct {
	bank        *runtime.Bank
	programID   solana.PublicKey
	programData solana.PublicKey
	authority   solana.PrivateKey
	controller  solana.PublicKey
	mint        solana.PublicKey
	vault       solana.PublicKey
}

func newKey(t *testing.T) solana.PrivateKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	bank := runtime.NewBank(logger)

	programID := solana.NewWallet().PublicKey()
	authority := newKey(t)
	bank.Airdrop(authority.PublicKey(), solana.LAMPORTS_PER_SOL)

	programData, err := bank.DeployUpgradeable(programID, NewProgram(programID), authority.PublicKey())
	require.NoError(t, err)

	controller, _, err := utils.NewControllerDerivation(programID).Derive()
	require.NoError(t, err)

	f := &fixture{
		bank:        bank,
		programID:   programID,
		programData: programData,
		authority:   authority,
		controller:  controller,
		mint:        solana.NewWallet().PublicKey(),
		vault:       solana.NewWallet().PublicKey(),
	}
	require.NoError(t, bank.CreateTokenAccount(f.vault, f.mint, controller, 0))
	return f
}

func (f *fixture) execute(t *testing.T, ix solana.Instruction, err error, signers ...solana.PrivateKey) (*runtime.Receipt, error) {
	t.Helper()
	require.NoError(t, err)
	return f.bank.Execute(&runtime.Transaction{
		Instructions: []solana.Instruction{ix},
		Signers:      signers,
	})
}

func (f *fixture) initialize(t *testing.T, signer solana.PrivateKey) (*runtime.Receipt, error) {
	t.Helper()
	ix, err := NewInitializeInstruction(f.programID, signer.PublicKey())
	return f.execute(t, ix, err, signer)
}

func (f *fixture) deposit(t *testing.T, user solana.PrivateKey, source, vault solana.PublicKey, amount uint64) (*runtime.Receipt, error) {
	t.Helper()
	ix, err := NewDepositInstruction(f.programID, DepositAccounts{
		User:             user.PublicKey(),
		UserTokenAccount: source,
		Vault:            vault,
	}, amount)
	return f.execute(t, ix, err, user)
}

func (f *fixture) swap(t *testing.T, signer solana.PrivateKey, vault, recipient solana.PublicKey, amount uint64) (*runtime.Receipt, error) {
	t.Helper()
	ix, err := NewSwapInstruction(f.programID, SwapAccounts{
		Authority: signer.PublicKey(),
		Vault:     vault,
		Recipient: recipient,
	}, amount)
	return f.execute(t, ix, err, signer)
}

func (f *fixture) tokenAccount(t *testing.T, owner solana.PublicKey, amount uint64) solana.PublicKey {
	t.Helper()
	key := solana.NewWallet().PublicKey()
	require.NoError(t, f.bank.CreateTokenAccount(key, f.mint, owner, amount))
	return key
}

func (f *fixture) fundVault(t *testing.T, amount uint64) {
	t.Helper()
	require.NoError(t, f.bank.CreateTokenAccount(f.vault, f.mint, f.controller, amount))
}

func (f *fixture) balance(t *testing.T, key solana.PublicKey) uint64 {
	t.Helper()
	amount, err := f.bank.TokenBalance(key)
	require.NoError(t, err)
	return amount
}

func (f *fixture) record(t *testing.T) *ControllerRecord {
	t.Helper()
	acc, ok := f.bank.GetAccount(f.controller)
	require.True(t, ok, "controller record missing")
	assert.Equal(t, f.programID, acc.Owner)
	record, err := UnmarshalControllerRecord(acc.Data)
	require.NoError(t, err)
	return record
}

func TestInitializeCreatesController(t *testing.T) {
	f := newFixture(t)

	receipt, err := f.initialize(t, f.authority)
	require.NoError(t, err)

	acc, ok := f.bank.GetAccount(f.controller)
	require.True(t, ok)
	assert.Len(t, acc.Data, ControllerRecordSize)
	assert.Equal(t, anchor.ControllerDiscriminator.Bytes(), acc.Data[:8])
	assert.Equal(t, runtime.RentExemptMinimum(ControllerRecordSize), acc.Lamports)
	assert.Equal(t, uint64(0), f.record(t).TokenCount)

	payer, ok := f.bank.GetAccount(f.authority.PublicKey())
	require.True(t, ok)
	assert.Equal(t, solana.LAMPORTS_PER_SOL-runtime.RentExemptMinimum(ControllerRecordSize), payer.Lamports)

	events, err := ParseEvents(receipt.Logs)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventInitialized, events[0].Kind)
	assert.Equal(t, f.controller, events[0].PDA)
}

func TestInitializeIsIdempotent(t *testing.T) {
	f := newFixture(t)

	_, err := f.initialize(t, f.authority)
	require.NoError(t, err)
	before, _ := f.bank.GetAccount(f.controller)

	receipt, err := f.initialize(t, f.authority)
	require.NoError(t, err)
	assert.Contains(t, receipt.Logs, "Program log: "+InitializedEvent(f.controller))

	after, _ := f.bank.GetAccount(f.controller)
	assert.Equal(t, before, after)
	assert.Equal(t, uint64(0), f.record(t).TokenCount)
}

func TestInitializePrefundedController(t *testing.T) {
	rent := runtime.RentExemptMinimum(ControllerRecordSize)

	tests := []struct {
		name    string
		prefund uint64
	}{
		{"one lamport", 1},
		{"below rent exemption", rent - 1},
		{"above rent exemption", rent + 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.bank.Airdrop(f.controller, tt.prefund)

			_, err := f.initialize(t, f.authority)
			require.NoError(t, err)

			acc, ok := f.bank.GetAccount(f.controller)
			require.True(t, ok)
			assert.Equal(t, f.programID, acc.Owner)
			assert.Equal(t, anchor.ControllerDiscriminator.Bytes(), acc.Data[:8])
			assert.Equal(t, uint64(0), f.record(t).TokenCount)

			want := rent
			if tt.prefund > rent {
				want = tt.prefund
			}
			assert.Equal(t, want, acc.Lamports)

			payer, ok := f.bank.GetAccount(f.authority.PublicKey())
			require.True(t, ok)
			assert.Equal(t, solana.LAMPORTS_PER_SOL-(want-tt.prefund), payer.Lamports)

			f.fundVault(t, 1000)
			recipient := f.tokenAccount(t, solana.NewWallet().PublicKey(), 0)
			_, err = f.swap(t, f.authority, f.vault, recipient, 1000)
			require.NoError(t, err)
			assert.Equal(t, uint64(1000), f.balance(t, recipient))
		})
	}
}

func TestInitializeRequiresWritableController(t *testing.T) {
	f := newFixture(t)

	ix := solana.NewInstruction(f.programID, solana.AccountMetaSlice{
		solana.NewAccountMeta(f.authority.PublicKey(), true, true),
		solana.NewAccountMeta(f.controller, false, false),
		solana.NewAccountMeta(f.programData, false, false),
		solana.NewAccountMeta(f.programID, false, false),
		solana.NewAccountMeta(runtime.SystemProgramID(), false, false),
	}, anchor.BuildInitializeInstruction())

	_, err := f.execute(t, ix, nil, f.authority)
	assert.ErrorIs(t, err, ErrConstraintMut)
	assert.ErrorContains(t, err, "(account: token_account_pda)")
}

func TestInitializeRejectsForeignControllerOwner(t *testing.T) {
	f := newFixture(t)
	f.bank.SetAccount(f.controller, &runtime.Account{
		Owner:    solana.NewWallet().PublicKey(),
		Lamports: 1,
		Data:     make([]byte, ControllerRecordSize),
	})

	_, err := f.initialize(t, f.authority)
	assert.ErrorIs(t, err, ErrAccountOwnedByWrongProgram)
}

func TestAuthorityGating(t *testing.T) {
	f := newFixture(t)
	stranger := newKey(t)
	f.bank.Airdrop(stranger.PublicKey(), solana.LAMPORTS_PER_SOL)

	_, err := f.initialize(t, stranger)
	assert.ErrorIs(t, err, ErrUnauthorizedAccess)
	_, ok := f.bank.GetAccount(f.controller)
	assert.False(t, ok, "failed initialize must not allocate")

	_, err = f.initialize(t, f.authority)
	require.NoError(t, err)
	f.fundVault(t, 100)
	recipient := f.tokenAccount(t, stranger.PublicKey(), 0)

	_, err = f.swap(t, stranger, f.vault, recipient, 10)
	assert.ErrorIs(t, err, ErrUnauthorizedAccess)
	assert.Equal(t, uint64(100), f.balance(t, f.vault))

	// deposit is open to any signer owning the source account
	source := f.tokenAccount(t, stranger.PublicKey(), 50)
	_, err = f.deposit(t, stranger, source, f.vault, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), f.balance(t, f.vault))
}

func TestAuthorityFollowsRotation(t *testing.T) {
	f := newFixture(t)
	_, err := f.initialize(t, f.authority)
	require.NoError(t, err)
	f.fundVault(t, 100)

	next := newKey(t)
	rotated := next.PublicKey()
	require.True(t, f.bank.SetUpgradeAuthority(f.programData, &rotated))

	recipient := f.tokenAccount(t, solana.NewWallet().PublicKey(), 0)

	_, err = f.swap(t, f.authority, f.vault, recipient, 10)
	assert.ErrorIs(t, err, ErrUnauthorizedAccess)

	_, err = f.swap(t, next, f.vault, recipient, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), f.balance(t, recipient))
}

func TestSwapDrainsVault(t *testing.T) {
	f := newFixture(t)
	_, err := f.initialize(t, f.authority)
	require.NoError(t, err)
	f.fundVault(t, 1000)
	recipient := f.tokenAccount(t, solana.NewWallet().PublicKey(), 25)

	receipt, err := f.swap(t, f.authority, f.vault, recipient, 1000)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), f.balance(t, f.vault))
	assert.Equal(t, uint64(1025), f.balance(t, recipient))
	assert.Contains(t, receipt.Logs, "Program log: pool_balance: 1000")

	events, err := ParseEvents(receipt.Logs)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, &Event{
		Kind:      EventSwap,
		Authority: f.authority.PublicKey(),
		Amount:    1000,
		Recipient: recipient,
	}, events[0])
}

func TestSwapCannotOverdraw(t *testing.T) {
	f := newFixture(t)
	_, err := f.initialize(t, f.authority)
	require.NoError(t, err)
	f.fundVault(t, 500)
	recipient := f.tokenAccount(t, solana.NewWallet().PublicKey(), 0)

	receipt, err := f.swap(t, f.authority, f.vault, recipient, 501)
	assert.ErrorIs(t, err, ErrInsufficientPoolBalance)

	var ixErr *runtime.InstructionError
	require.ErrorAs(t, err, &ixErr)
	assert.Equal(t, 0, ixErr.Index)
	assert.NotContains(t, receipt.Logs, "Program log: Instruction: Transfer")

	assert.Equal(t, uint64(500), f.balance(t, f.vault))
	assert.Equal(t, uint64(0), f.balance(t, recipient))
}

func TestZeroAmountOperations(t *testing.T) {
	f := newFixture(t)
	_, err := f.initialize(t, f.authority)
	require.NoError(t, err)

	user := newKey(t)
	source := f.tokenAccount(t, user.PublicKey(), 10)
	recipient := f.tokenAccount(t, user.PublicKey(), 0)

	_, err = f.deposit(t, user, source, f.vault, 0)
	require.NoError(t, err)
	_, err = f.swap(t, f.authority, f.vault, recipient, 0)
	require.NoError(t, err)

	assert.Equal(t, uint64(10), f.balance(t, source))
	assert.Equal(t, uint64(0), f.balance(t, f.vault))
}

func TestShortProgramData(t *testing.T) {
	f := newFixture(t)
	_, err := f.initialize(t, f.authority)
	require.NoError(t, err)
	f.fundVault(t, 100)
	recipient := f.tokenAccount(t, solana.NewWallet().PublicKey(), 0)

	f.bank.SetAccount(f.programData, &runtime.Account{
		Owner:    runtime.LoaderProgramID(),
		Lamports: runtime.RentExemptMinimum(40),
		Data:     make([]byte, 40),
	})

	stranger := newKey(t)
	f.bank.Airdrop(stranger.PublicKey(), solana.LAMPORTS_PER_SOL)

	for _, signer := range []solana.PrivateKey{f.authority, stranger} {
		_, err = f.initialize(t, signer)
		assert.ErrorIs(t, err, ErrInvalidProgramData)

		_, err = f.swap(t, signer, f.vault, recipient, 10)
		assert.ErrorIs(t, err, ErrInvalidProgramData)
	}
	assert.Equal(t, uint64(100), f.balance(t, f.vault))
}

func TestProgramDataMustBeLoaderOwned(t *testing.T) {
	f := newFixture(t)

	authority := f.authority.PublicKey()
	f.bank.SetAccount(f.programData, &runtime.Account{
		Owner:    solana.NewWallet().PublicKey(),
		Lamports: runtime.RentExemptMinimum(config.ProgramDataMinSize),
		Data:     runtime.EncodeProgramData(0, &authority, nil),
	})

	_, err := f.initialize(t, f.authority)
	assert.ErrorIs(t, err, ErrInvalidProgramData)
}

func TestProgramDataMustBelongToProgram(t *testing.T) {
	f := newFixture(t)

	// a genuine ProgramData account of another program naming the caller
	other := solana.NewWallet().PublicKey()
	otherData, err := f.bank.DeployUpgradeable(other, NewProgram(other), f.authority.PublicKey())
	require.NoError(t, err)

	controller, _, err := utils.NewControllerDerivation(f.programID).Derive()
	require.NoError(t, err)
	ix := solana.NewInstruction(f.programID, solana.AccountMetaSlice{
		solana.NewAccountMeta(f.authority.PublicKey(), true, true),
		solana.NewAccountMeta(controller, true, false),
		solana.NewAccountMeta(otherData, false, false),
		solana.NewAccountMeta(f.programID, false, false),
		solana.NewAccountMeta(runtime.SystemProgramID(), false, false),
	}, anchor.BuildInitializeInstruction())

	_, err = f.execute(t, ix, nil, f.authority)
	assert.ErrorIs(t, err, ErrInvalidProgramData)
}

func TestDepositConservesBalance(t *testing.T) {
	f := newFixture(t)
	user := newKey(t)
	source := f.tokenAccount(t, user.PublicKey(), 300)

	receipt, err := f.deposit(t, user, source, f.vault, 120)
	require.NoError(t, err)

	assert.Equal(t, uint64(180), f.balance(t, source))
	assert.Equal(t, uint64(120), f.balance(t, f.vault))
	assert.Contains(t, receipt.Logs, "Program log: The deposit operation starts")
	assert.Contains(t, receipt.Logs, "Program log: "+DepositEvent(user.PublicKey(), 120))
}

func TestDepositFailures(t *testing.T) {
	f := newFixture(t)
	user := newKey(t)
	other := newKey(t)
	source := f.tokenAccount(t, user.PublicKey(), 300)

	t.Run("source owned by someone else", func(t *testing.T) {
		_, err := f.deposit(t, other, source, f.vault, 10)
		assert.ErrorIs(t, err, ErrConstraintRaw)
		assert.NotErrorIs(t, err, runtime.TokenErrOwnerMismatch)
		assert.ErrorContains(t, err, "(account: user_token_account)")
	})

	t.Run("insufficient source balance", func(t *testing.T) {
		_, err := f.deposit(t, user, source, f.vault, 301)
		assert.ErrorIs(t, err, runtime.TokenErrInsufficientFunds)
	})

	t.Run("vault not owned by the controller", func(t *testing.T) {
		fake := f.tokenAccount(t, other.PublicKey(), 0)
		_, err := f.deposit(t, user, source, fake, 10)
		assert.ErrorIs(t, err, ErrConstraintRaw)
		assert.Equal(t, uint64(0), f.balance(t, fake))
	})

	t.Run("wrong token program", func(t *testing.T) {
		ix := solana.NewInstruction(f.programID, solana.AccountMetaSlice{
			solana.NewAccountMeta(user.PublicKey(), true, true),
			solana.NewAccountMeta(source, true, false),
			solana.NewAccountMeta(f.vault, true, false),
			solana.NewAccountMeta(runtime.SystemProgramID(), false, false),
		}, anchor.BuildDepositInstruction(10))
		_, err := f.execute(t, ix, nil, user)
		assert.ErrorIs(t, err, ErrInvalidProgramID)
	})

	assert.Equal(t, uint64(300), f.balance(t, source))
	assert.Equal(t, uint64(0), f.balance(t, f.vault))
}

func TestSwapBindingEnforcement(t *testing.T) {
	f := newFixture(t)
	recipient := f.tokenAccount(t, solana.NewWallet().PublicKey(), 0)

	_, err := f.swap(t, f.authority, f.vault, recipient, 0)
	assert.ErrorIs(t, err, ErrAccountNotInitialized)

	_, err = f.initialize(t, f.authority)
	require.NoError(t, err)
	f.fundVault(t, 100)

	t.Run("substituted vault", func(t *testing.T) {
		fake := f.tokenAccount(t, f.authority.PublicKey(), 100)
		_, err := f.swap(t, f.authority, fake, recipient, 10)
		assert.ErrorIs(t, err, ErrConstraintRaw)
		assert.Equal(t, uint64(100), f.balance(t, fake))
	})

	t.Run("substituted controller", func(t *testing.T) {
		programData, _, err := utils.DeriveProgramData(f.programID)
		require.NoError(t, err)
		ix := solana.NewInstruction(f.programID, solana.AccountMetaSlice{
			solana.NewAccountMeta(f.authority.PublicKey(), true, true),
			solana.NewAccountMeta(solana.NewWallet().PublicKey(), false, false),
			solana.NewAccountMeta(f.vault, true, false),
			solana.NewAccountMeta(recipient, true, false),
			solana.NewAccountMeta(programData, false, false),
			solana.NewAccountMeta(f.programID, false, false),
			solana.NewAccountMeta(runtime.TokenProgramID(), false, false),
		}, anchor.BuildSwapInstruction(10))
		_, err = f.execute(t, ix, nil, f.authority)
		assert.ErrorIs(t, err, ErrConstraintSeeds)
	})

	assert.Equal(t, uint64(100), f.balance(t, f.vault))
	assert.Equal(t, uint64(0), f.balance(t, recipient))
}

func TestProcessRejectsMalformedInstructions(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrInstructionFallbackNotFound},
		{"unknown discriminator", []byte{1, 2, 3, 4, 5, 6, 7, 8}, ErrInstructionFallbackNotFound},
		{"missing amount", anchor.DepositDiscriminator.Bytes(), ErrInstructionDidNotDeserialize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix := solana.NewInstruction(f.programID, solana.AccountMetaSlice{
				solana.NewAccountMeta(f.authority.PublicKey(), true, true),
			}, tt.data)
			_, err := f.execute(t, ix, nil, f.authority)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("not enough accounts", func(t *testing.T) {
		ix := solana.NewInstruction(f.programID, solana.AccountMetaSlice{
			solana.NewAccountMeta(f.authority.PublicKey(), true, true),
		}, anchor.BuildSwapInstruction(1))
		_, err := f.execute(t, ix, nil, f.authority)
		assert.ErrorIs(t, err, ErrAccountNotEnoughKeys)
	})
}

func TestSwapRequiresSigner(t *testing.T) {
	f := newFixture(t)
	_, err := f.initialize(t, f.authority)
	require.NoError(t, err)

	programData, _, err := utils.DeriveProgramData(f.programID)
	require.NoError(t, err)
	recipient := f.tokenAccount(t, solana.NewWallet().PublicKey(), 0)
	payer := newKey(t)

	ix := solana.NewInstruction(f.programID, solana.AccountMetaSlice{
		solana.NewAccountMeta(f.authority.PublicKey(), true, false),
		solana.NewAccountMeta(f.controller, false, false),
		solana.NewAccountMeta(f.vault, true, false),
		solana.NewAccountMeta(recipient, true, false),
		solana.NewAccountMeta(programData, false, false),
		solana.NewAccountMeta(f.programID, false, false),
		solana.NewAccountMeta(runtime.TokenProgramID(), false, false),
		solana.NewAccountMeta(payer.PublicKey(), true, true),
	}, anchor.BuildSwapInstruction(0))

	_, err = f.execute(t, ix, nil, payer)
	assert.ErrorIs(t, err, ErrAccountNotSigner)
}
