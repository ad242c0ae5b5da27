package anchor

import (
	"fmt"
)

// IDL represents an Anchor Interface Definition Language file
type IDL struct {
	Version      string        `json:"version"`
	Name         string        `json:"name"`
	Instructions []Instruction `json:"instructions"`
	Accounts     []Account     `json:"accounts"`
	Errors       []Error       `json:"errors,omitempty"`
	Constants    []Constant    `json:"constants,omitempty"`
}

// Instruction represents an instruction definition
type Instruction struct {
	Name     string       `json:"name"`
	Accounts []IDLAccount `json:"accounts"`
	Args     []Field      `json:"args"`
}

// IDLAccount represents an account in instruction context
type IDLAccount struct {
	Name     string   `json:"name"`
	IsMut    bool     `json:"isMut"`
	IsSigner bool     `json:"isSigner"`
	Docs     []string `json:"docs,omitempty"`
}

// Account represents an account definition
type Account struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Type represents a type definition
type Type struct {
	Kind   string  `json:"kind"`
	Fields []Field `json:"fields,omitempty"`
}

// Field represents a field in a struct
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Error represents an error definition
type Error struct {
	Code int    `json:"code"`
	Name string `json:"name"`
	Msg  string `json:"msg,omitempty"`
}

// Constant represents a constant definition
type Constant struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// GetInstruction returns instruction by name
func (idl *IDL) GetInstruction(name string) (*Instruction, error) {
	for i := range idl.Instructions {
		if idl.Instructions[i].Name == name {
			return &idl.Instructions[i], nil
		}
	}
	return nil, fmt.Errorf("instruction '%s' not found", name)
}

// GetError returns error by code
func (idl *IDL) GetError(code int) (*Error, error) {
	for i := range idl.Errors {
		if idl.Errors[i].Code == code {
			return &idl.Errors[i], nil
		}
	}
	return nil, fmt.Errorf("error with code %d not found", code)
}

// AccountIndex returns the position of a named account in an instruction's account list
func (inst *Instruction) AccountIndex(name string) (int, error) {
	for i, acc := range inst.Accounts {
		if acc.Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("account '%s' not found in instruction '%s'", name, inst.Name)
}

// SwapPoolIDL represents the swap pool program IDL
var SwapPoolIDL = &IDL{
	Version: "0.1.0",
	Name:    "solana_swap_pool",
	Instructions: []Instruction{
		{
			Name: InitializeInstructionName,
			Accounts: []IDLAccount{
				{Name: "authority", IsMut: true, IsSigner: true},
				{Name: "tokenAccountPda", IsMut: true, IsSigner: false},
				{Name: "programData", IsMut: false, IsSigner: false},
				{Name: "program", IsMut: false, IsSigner: false},
				{Name: "systemProgram", IsMut: false, IsSigner: false},
			},
			Args: []Field{},
		},
		{
			Name: DepositInstructionName,
			Accounts: []IDLAccount{
				{Name: "user", IsMut: true, IsSigner: true},
				{Name: "userTokenAccount", IsMut: true, IsSigner: false},
				{Name: "fromTokenAccount", IsMut: true, IsSigner: false, Docs: []string{"Pool vault owned by the controller PDA"}},
				{Name: "tokenProgram", IsMut: false, IsSigner: false},
			},
			Args: []Field{
				{Name: "amount", Type: "u64"},
			},
		},
		{
			Name: SwapInstructionName,
			Accounts: []IDLAccount{
				{Name: "authority", IsMut: true, IsSigner: true},
				{Name: "tokenAccountPda", IsMut: false, IsSigner: false},
				{Name: "poolTokenAccount", IsMut: true, IsSigner: false},
				{Name: "recipientTokenAccount", IsMut: true, IsSigner: false},
				{Name: "programData", IsMut: false, IsSigner: false},
				{Name: "program", IsMut: false, IsSigner: false},
				{Name: "tokenProgram", IsMut: false, IsSigner: false},
			},
			Args: []Field{
				{Name: "amount", Type: "u64"},
			},
		},
	},
	Accounts: []Account{
		{
			Name: ControllerAccountName,
			Type: Type{
				Kind: "struct",
				Fields: []Field{
					{Name: "tokenCount", Type: "u64"},
				},
			},
		},
	},
	Errors: []Error{
		{Code: 6000, Name: "InsufficientPoolBalance"},
		{Code: 6001, Name: "UnauthorizedAccess"},
		{Code: 6002, Name: "InvalidProgramData"},
	},
	Constants: []Constant{
		{Name: "SEED_TOKEN_ACCOUNT_PDA", Type: "bytes", Value: "token_account_pda"},
	},
}
