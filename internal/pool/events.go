package pool

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// EventKind names a completed pool operation
type EventKind string

const (
	EventInitialized EventKind = "initialized"
	EventDeposit     EventKind = "deposit"
	EventSwap        EventKind = "swap"
)

// Event is a completion record emitted by a successful handler
type Event struct {
	Kind      EventKind
	PDA       solana.PublicKey
	User      solana.PublicKey
	Authority solana.PublicKey
	Recipient solana.PublicKey
	Amount    uint64
}

// InitializedEvent formats the initialize completion line
func InitializedEvent(pda solana.PublicKey) string {
	return fmt.Sprintf("Event: TokenAccountPda initialized successfully [pda=%s]", pda)
}

// DepositEvent formats the deposit completion line
func DepositEvent(user solana.PublicKey, amount uint64) string {
	return fmt.Sprintf("Event: Deposit completed [user=%s, amount=%d]", user, amount)
}

// SwapEvent formats the swap completion line
func SwapEvent(authority solana.PublicKey, amount uint64, recipient solana.PublicKey) string {
	return fmt.Sprintf("Event: Swap from pool completed [authority=%s, amount=%d, recipient=%s]", authority, amount, recipient)
}

const programLogPrefix = "Program log: "

var (
	initializedPattern = regexp.MustCompile(`^Event: TokenAccountPda initialized successfully \[pda=(\w+)\]$`)
	depositPattern     = regexp.MustCompile(`^Event: Deposit completed \[user=(\w+), amount=(\d+)\]$`)
	swapPattern        = regexp.MustCompile(`^Event: Swap from pool completed \[authority=(\w+), amount=(\d+), recipient=(\w+)\]$`)
)

// ParseEvent parses a completion line, with or without the program log prefix.
// Lines that are not completion records return nil and no error.
func ParseEvent(line string) (*Event, error) {
	line = strings.TrimPrefix(strings.TrimSpace(line), programLogPrefix)
	if !strings.HasPrefix(line, "Event: ") {
		return nil, nil
	}

	if m := initializedPattern.FindStringSubmatch(line); m != nil {
		pda, err := solana.PublicKeyFromBase58(m[1])
		if err != nil {
			return nil, fmt.Errorf("invalid pda in event: %w", err)
		}
		return &Event{Kind: EventInitialized, PDA: pda}, nil
	}

	if m := depositPattern.FindStringSubmatch(line); m != nil {
		user, err := solana.PublicKeyFromBase58(m[1])
		if err != nil {
			return nil, fmt.Errorf("invalid user in event: %w", err)
		}
		amount, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount in event: %w", err)
		}
		return &Event{Kind: EventDeposit, User: user, Amount: amount}, nil
	}

	if m := swapPattern.FindStringSubmatch(line); m != nil {
		authority, err := solana.PublicKeyFromBase58(m[1])
		if err != nil {
			return nil, fmt.Errorf("invalid authority in event: %w", err)
		}
		amount, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount in event: %w", err)
		}
		recipient, err := solana.PublicKeyFromBase58(m[3])
		if err != nil {
			return nil, fmt.Errorf("invalid recipient in event: %w", err)
		}
		return &Event{Kind: EventSwap, Authority: authority, Amount: amount, Recipient: recipient}, nil
	}

	return nil, fmt.Errorf("unrecognized event: %q", line)
}

// ParseEvents collects every completion record found in a transaction's logs
func ParseEvents(logs []string) ([]*Event, error) {
	var events []*Event
	for _, line := range logs {
		event, err := ParseEvent(line)
		if err != nil {
			return nil, err
		}
		if event != nil {
			events = append(events, event)
		}
	}
	return events, nil
}
