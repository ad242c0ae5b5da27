package config

import (
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Solana network constants
const (
	SolanaMainnetRPC = "https://api.mainnet-beta.solana.com"
	SolanaDevnetRPC  = "https://api.devnet.solana.com"
	SolanaLocalRPC   = "http://127.0.0.1:8899"

	// WebSocket endpoints
	SolanaMainnetWS = "wss://api.mainnet-beta.solana.com"
	SolanaDevnetWS  = "wss://api.devnet.solana.com"
	SolanaLocalWS   = "ws://127.0.0.1:8900"

	// Transaction constants
	ConfirmTimeoutSec = 30
)

// Swap pool program addresses
var (
	// Deployed swap pool program
	DefaultProgramID = mustDecodeBase58("Ho5GQXQ7gUpb7d6uCoobVX11oiv8PefHR2yeu3iMtM9d")

	// System program
	SystemProgramID = mustDecodeBase58("11111111111111111111111111111111")

	// Token program
	TokenProgramID = mustDecodeBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// Upgradeable BPF loader, owner of every ProgramData account
	BPFLoaderUpgradeableID = mustDecodeBase58("BPFLoaderUpgradeab1e11111111111111111111111")
)

// Pool layout constants
const (
	// Seed of the vault controller PDA
	ControllerSeed = "token_account_pda"

	// ProgramData header: u32 enum tag + u64 slot + u8 option flag
	ProgramDataHeaderSize = 4 + 8
	// Offset of the upgrade authority key inside ProgramData
	UpgradeAuthorityOffset = ProgramDataHeaderSize + 1
	// Minimum ProgramData length that still carries an authority key
	ProgramDataMinSize = UpgradeAuthorityOffset + 32

	// Token account size of the SPL token program
	TokenAccountSize = 165
)

// Helper function to decode base58 addresses and panic on error
// Used for compile-time constant addresses that should never fail
func mustDecodeBase58(addr string) []byte {
	decoded, err := base58.Decode(addr)
	if err != nil {
		panic("Invalid base58 address: " + addr + ", error: " + err.Error())
	}
	return decoded
}

// ProgramKey converts one of the raw address constants above into a public key
func ProgramKey(raw []byte) solana.PublicKey {
	return solana.PublicKeyFromBytes(raw)
}

// GetRPCEndpoint returns RPC endpoint based on network
func GetRPCEndpoint(network string) string {
	switch network {
	case "mainnet":
		return SolanaMainnetRPC
	case "devnet":
		return SolanaDevnetRPC
	case "localnet":
		return SolanaLocalRPC
	default:
		return SolanaMainnetRPC
	}
}

// GetWSEndpoint returns WebSocket endpoint based on network
func GetWSEndpoint(network string) string {
	switch network {
	case "mainnet":
		return SolanaMainnetWS
	case "devnet":
		return SolanaDevnetWS
	case "localnet":
		return SolanaLocalWS
	default:
		return SolanaMainnetWS
	}
}
