package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"

	"swap-pool-go/internal/client"
	"swap-pool-go/internal/config"
	"swap-pool-go/internal/logger"
	"swap-pool-go/internal/pool"
	"swap-pool-go/internal/wallet"
	"swap-pool-go/pkg/anchor"
	"swap-pool-go/pkg/utils"
)

const Version = "0.1.0"

// Global flags
var (
	configFile = flag.String("config", "", "Path to config file")
	envFile    = flag.String("env", "", "Path to .env file")
	network    = flag.String("network", "", "Network to use (mainnet/devnet/localnet)")
	logLevel   = flag.String("log-level", "", "Log level (debug/info/warn/error)")
	programID  = flag.String("program", "", "Pool program id override")
)

const usage = `Usage: pool [flags] <command> [command flags]

Commands:
  pda        print the controller and ProgramData addresses
  idl        print the program interface as JSON
  authority  show the program's current upgrade authority
  status     show the controller record and vault balance
  init       create the controller record (upgrade authority only)
  deposit    deposit tokens into the vault
  swap       move tokens from the vault to a recipient (upgrade authority only)
  watch      stream pool completion events
  simulate   run the pool against an in-memory host

Flags:
`

// App wires configuration, logging, the signer and the RPC client
type App struct {
	config *config.Config
	logger *logger.Logger
	wallet *wallet.Wallet
	client *client.Client
}

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(run(flag.Arg(0), flag.Args()[1:]))
}

// run executes one command and returns the process exit code. Deferred
// cleanup, including flushing the log file, completes before main exits.
func run(command string, args []string) int {
	cfg, err := config.LoadConfig(*configFile, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	applyCliOverrides(cfg)

	log, err := logger.NewLogger(logger.LogConfig{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		LogToFile:   cfg.Logging.LogToFile,
		LogFilePath: cfg.Logging.LogFilePath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer log.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := &App{config: cfg, logger: log}
	if err := app.run(ctx, command, args); err != nil {
		log.WithError(err).Error("Command failed")
		return 1
	}
	return 0
}

func applyCliOverrides(cfg *config.Config) {
	if *network != "" {
		cfg.Network = *network
		cfg.RPCUrl = config.GetRPCEndpoint(*network)
		cfg.WSUrl = config.GetWSEndpoint(*network)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *programID != "" {
		cfg.Pool.ProgramID = *programID
	}
}

var networkCommands = map[string]bool{
	"authority": true, "status": true, "init": true, "deposit": true, "swap": true, "watch": true,
}

func (a *App) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "pda":
		return a.printAddresses()
	case "idl":
		return printIDL()
	case "simulate":
		return runSimulation(a.logger)
	}
	if !networkCommands[command] {
		return fmt.Errorf("unknown command %q", command)
	}

	a.logger.LogStartup(Version, a.config.Network, a.config.RPCUrl, a.config.Pool.ProgramID)

	if command == "watch" {
		return a.watch(ctx)
	}

	if err := a.connect(ctx); err != nil {
		return err
	}
	defer a.client.Close()
	defer a.logger.LogShutdown("command finished")

	switch command {
	case "authority":
		return a.showAuthority(ctx)
	case "status":
		return a.showStatus(ctx)
	case "init":
		return a.initialize(ctx)
	case "deposit":
		return a.deposit(ctx, args)
	case "swap":
		return a.swap(ctx, args)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// connect builds the RPC client, and the wallet when a key is configured
func (a *App) connect(ctx context.Context) error {
	c, err := client.NewClient(ctx, client.ClientConfig{
		RPCEndpoint:    a.config.RPCUrl,
		WSEndpoint:     a.config.WSUrl,
		APIKey:         a.config.RPCAPIKey,
		ProgramID:      a.config.ProgramID(),
		Timeout:        a.config.GetRPCTimeout(),
		ConfirmTimeout: a.config.GetConfirmTimeout(),
	}, a.logger.Logger)
	if err != nil {
		return err
	}
	a.client = c
	a.logger.LogConnection("rpc", "connected")

	if a.config.HasSigner() {
		a.wallet, err = wallet.NewWallet(wallet.WalletConfig{
			PrivateKey: a.config.PrivateKey,
			Mnemonic:   a.config.Mnemonic,
			Passphrase: a.config.Passphrase,
			Network:    a.config.Network,
		}, a.logger.Logger)
		if err != nil {
			return fmt.Errorf("failed to create wallet: %w", err)
		}
	}
	return nil
}

func (a *App) requireWallet() error {
	if a.wallet == nil {
		return wallet.ErrNoKey
	}
	return nil
}

func (a *App) printAddresses() error {
	programID := a.config.ProgramID()
	controller, bump, err := utils.NewControllerDerivation(programID).Derive()
	if err != nil {
		return err
	}
	programData, _, err := utils.DeriveProgramData(programID)
	if err != nil {
		return err
	}

	fmt.Printf("program:      %s\n", programID)
	fmt.Printf("controller:   %s (bump %d)\n", controller, bump)
	fmt.Printf("program_data: %s\n", programData)
	return nil
}

func printIDL() error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(anchor.SwapPoolIDL)
}

func (a *App) showAuthority(ctx context.Context) error {
	authority, err := a.client.GetUpgradeAuthority(ctx)
	if err != nil {
		return err
	}
	fmt.Println(authority)
	return nil
}

func (a *App) showStatus(ctx context.Context) error {
	controller, record, err := a.client.GetController(ctx)
	if err != nil {
		a.logger.WithError(err).WithField("controller", controller.String()).Warn("Controller not readable")
	} else {
		a.logger.WithField("controller", controller.String()).
			WithField("token_count", record.TokenCount).
			Info("🏦 Controller initialized")
	}

	vault, err := a.vault()
	if err != nil {
		return nil
	}
	balance, err := a.client.GetTokenBalance(ctx, vault)
	if err != nil {
		return err
	}
	a.logger.LogBalance(vault.String(), balance)
	return nil
}

func (a *App) initialize(ctx context.Context) error {
	if err := a.requireWallet(); err != nil {
		return err
	}

	sig, err := a.client.Initialize(ctx, a.wallet)
	if err != nil {
		a.logger.LogInstructionFailed(anchor.InitializeInstructionName, err)
		return err
	}
	return a.report(ctx, sig)
}

func (a *App) deposit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("deposit", flag.ExitOnError)
	amount := fs.Uint64("amount", 0, "Raw token amount to deposit")
	source := fs.String("source", "", "Source token account (default: wallet ATA for pool.mint)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireWallet(); err != nil {
		return err
	}

	vault, err := a.vault()
	if err != nil {
		return err
	}
	from, err := a.tokenAccountOrATA(*source)
	if err != nil {
		return err
	}

	sig, err := a.client.Deposit(ctx, a.wallet, from, vault, *amount)
	if err != nil {
		a.logger.LogInstructionFailed(anchor.DepositInstructionName, err)
		return err
	}
	return a.report(ctx, sig)
}

func (a *App) swap(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("swap", flag.ExitOnError)
	amount := fs.Uint64("amount", 0, "Raw token amount to move out of the vault")
	recipient := fs.String("recipient", "", "Recipient token account (default: wallet ATA for pool.mint)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireWallet(); err != nil {
		return err
	}

	vault, err := a.vault()
	if err != nil {
		return err
	}
	to, err := a.tokenAccountOrATA(*recipient)
	if err != nil {
		return err
	}

	sig, err := a.client.Swap(ctx, a.wallet, vault, to, *amount)
	if err != nil {
		a.logger.LogInstructionFailed(anchor.SwapInstructionName, err)
		return err
	}
	return a.report(ctx, sig)
}

func (a *App) watch(ctx context.Context) error {
	watcher := client.NewLogWatcher(a.config.WSUrl, a.config.ProgramID(), a.logger.Logger)
	return watcher.Run(ctx, func(n *client.LogsNotification, event *pool.Event) error {
		a.logger.WithTransaction(n.Result.Value.Signature).Debug("Pool event received")
		a.logger.LogPoolEvent(event)
		return nil
	})
}

// report logs a confirmed signature and the completion records found in its logs
func (a *App) report(ctx context.Context, sig solana.Signature) error {
	a.logger.LogTransaction(sig.String(), "confirmed", 0)

	logs, err := a.client.GetTransactionLogs(ctx, sig)
	if err != nil {
		a.logger.WithError(err).Warn("Could not fetch transaction logs")
		return nil
	}
	events, err := pool.ParseEvents(logs)
	if err != nil {
		return err
	}
	for _, event := range events {
		a.logger.LogPoolEvent(event)
	}
	return nil
}

func (a *App) vault() (solana.PublicKey, error) {
	return utils.ParseAddress("pool.vault", a.config.Pool.Vault)
}

// tokenAccountOrATA parses an explicit token account, falling back to the wallet's ATA for pool.mint
func (a *App) tokenAccountOrATA(explicit string) (solana.PublicKey, error) {
	if explicit != "" {
		return utils.ParseAddress("token account", explicit)
	}
	mint, ok, err := utils.ParseOptionalAddress("pool.mint", a.config.Pool.Mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !ok {
		return solana.PublicKey{}, fmt.Errorf("no token account given and pool.mint is not configured")
	}
	return a.wallet.AssociatedTokenAddress(mint)
}
