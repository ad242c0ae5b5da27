package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"swap-pool-go/internal/logger"
	"swap-pool-go/internal/pool"
	"swap-pool-go/internal/runtime"
	"swap-pool-go/pkg/anchor"
	"swap-pool-go/pkg/utils"
)

// simulation deploys the pool program into an in-memory bank and drives it
// through the full lifecycle, logging every outcome
type simulation struct {
	bank      *runtime.Bank
	logger    *logger.Logger
	programID solana.PublicKey
	authority solana.PrivateKey
	mint      solana.PublicKey
	vault     solana.PublicKey
}

func runSimulation(log *logger.Logger) error {
	sim, err := newSimulation(log)
	if err != nil {
		return err
	}

	user, err := solana.NewRandomPrivateKey()
	if err != nil {
		return err
	}
	intruder, err := solana.NewRandomPrivateKey()
	if err != nil {
		return err
	}
	sim.bank.Airdrop(user.PublicKey(), solana.LAMPORTS_PER_SOL)
	sim.bank.Airdrop(intruder.PublicKey(), solana.LAMPORTS_PER_SOL)

	userTokens := solana.NewWallet().PublicKey()
	if err := sim.bank.CreateTokenAccount(userTokens, sim.mint, user.PublicKey(), 1_000); err != nil {
		return err
	}
	recipient := solana.NewWallet().PublicKey()
	if err := sim.bank.CreateTokenAccount(recipient, sim.mint, intruder.PublicKey(), 0); err != nil {
		return err
	}

	steps := []struct {
		name       string
		instr      string
		build      func() (solana.Instruction, error)
		signer     solana.PrivateKey
		expectFail bool
	}{
		{"initialize", anchor.InitializeInstructionName, func() (solana.Instruction, error) {
			return pool.NewInitializeInstruction(sim.programID, sim.authority.PublicKey())
		}, sim.authority, false},
		{"deposit 1000", anchor.DepositInstructionName, func() (solana.Instruction, error) {
			return pool.NewDepositInstruction(sim.programID, pool.DepositAccounts{
				User: user.PublicKey(), UserTokenAccount: userTokens, Vault: sim.vault,
			}, 1_000)
		}, user, false},
		{"swap by non-authority", anchor.SwapInstructionName, func() (solana.Instruction, error) {
			return pool.NewSwapInstruction(sim.programID, pool.SwapAccounts{
				Authority: intruder.PublicKey(), Vault: sim.vault, Recipient: recipient,
			}, 1_000)
		}, intruder, true},
		{"swap 400", anchor.SwapInstructionName, func() (solana.Instruction, error) {
			return pool.NewSwapInstruction(sim.programID, pool.SwapAccounts{
				Authority: sim.authority.PublicKey(), Vault: sim.vault, Recipient: recipient,
			}, 400)
		}, sim.authority, false},
		{"swap 601 (overdraw)", anchor.SwapInstructionName, func() (solana.Instruction, error) {
			return pool.NewSwapInstruction(sim.programID, pool.SwapAccounts{
				Authority: sim.authority.PublicKey(), Vault: sim.vault, Recipient: recipient,
			}, 601)
		}, sim.authority, true},
		{"swap 600 (drain)", anchor.SwapInstructionName, func() (solana.Instruction, error) {
			return pool.NewSwapInstruction(sim.programID, pool.SwapAccounts{
				Authority: sim.authority.PublicKey(), Vault: sim.vault, Recipient: recipient,
			}, 600)
		}, sim.authority, false},
	}

	for _, step := range steps {
		ix, err := step.build()
		if err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
		err = sim.execute(step.instr, ix, step.signer)
		if (err != nil) != step.expectFail {
			return fmt.Errorf("%s: unexpected outcome: %v", step.name, err)
		}
	}

	vaultBalance, err := sim.bank.TokenBalance(sim.vault)
	if err != nil {
		return err
	}
	recipientBalance, err := sim.bank.TokenBalance(recipient)
	if err != nil {
		return err
	}
	sim.logger.LogBalance(sim.vault.String(), vaultBalance)
	sim.logger.LogBalance(recipient.String(), recipientBalance)

	if vaultBalance != 0 || recipientBalance != 1_000 {
		return fmt.Errorf("balances not conserved: vault=%d recipient=%d", vaultBalance, recipientBalance)
	}

	sim.logger.WithField("slot", sim.bank.Slot()).Info("✅ Simulation complete")
	return nil
}

func newSimulation(log *logger.Logger) (*simulation, error) {
	bankLogger := logrus.New()
	bankLogger.SetOutput(log.Out)
	bankLogger.SetFormatter(log.Formatter)
	bankLogger.SetLevel(log.GetLevel())

	bank := runtime.NewBank(bankLogger)

	authority, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}
	bank.Airdrop(authority.PublicKey(), solana.LAMPORTS_PER_SOL)

	programID := solana.NewWallet().PublicKey()
	programData, err := bank.DeployUpgradeable(programID, pool.NewProgram(programID), authority.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("failed to deploy program: %w", err)
	}

	controller, _, err := utils.NewControllerDerivation(programID).Derive()
	if err != nil {
		return nil, err
	}

	sim := &simulation{
		bank:      bank,
		logger:    log,
		programID: programID,
		authority: authority,
		mint:      solana.NewWallet().PublicKey(),
		vault:     solana.NewWallet().PublicKey(),
	}
	if err := bank.CreateTokenAccount(sim.vault, sim.mint, controller, 0); err != nil {
		return nil, err
	}

	log.WithComponent("simulate").WithFields(logrus.Fields{
		"program":      programID.String(),
		"program_data": programData.String(),
		"controller":   controller.String(),
		"vault":        sim.vault.String(),
	}).Info("🚀 Program deployed")

	return sim, nil
}

func (s *simulation) execute(name string, ix solana.Instruction, signer solana.PrivateKey) error {
	s.logger.WithComponent("simulate").WithFields(logrus.Fields{
		"instruction": name,
		"signer":      utils.ShortAddress(signer.PublicKey()),
	}).Info("▶️ Submitting")
	s.logger.LogInstruction(ix)

	receipt, err := s.bank.Execute(&runtime.Transaction{
		Instructions: []solana.Instruction{ix},
		Signers:      []solana.PrivateKey{signer},
	})
	if err != nil {
		s.logger.LogInstructionFailed(name, err)
		return err
	}

	s.logger.LogTransaction(receipt.Signature.String(), "committed", receipt.Slot)
	events, err := pool.ParseEvents(receipt.Logs)
	if err != nil {
		return err
	}
	for _, event := range events {
		s.logger.LogPoolEvent(event)
	}
	return nil
}
