package logger

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swap-pool-go/internal/pool"
	"swap-pool-go/internal/runtime"
)

func newBufferedLogger(t *testing.T, format string) (*Logger, *bytes.Buffer) {
	t.Helper()
	l, err := NewLogger(LogConfig{Level: "debug", Format: format})
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	l.SetOutput(buf)
	return l, buf
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pool.log")
	l, err := NewLogger(LogConfig{Level: "info", Format: "json", LogToFile: true, LogFilePath: path})
	require.NoError(t, err)

	l.LogShutdown("test")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"reason":"test"`)
}

func TestCustomFormatterSortsFields(t *testing.T) {
	f := &CustomFormatter{DisableColors: true}
	entry := &logrus.Entry{
		Time:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.InfoLevel,
		Message: "hello",
		Data:    logrus.Fields{"b": 2, "a": 1},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02 03:04:05.000 [INFO] hello | a=1 b=2\n", string(out))
}

func TestLogPoolEvent(t *testing.T) {
	l, buf := newBufferedLogger(t, "json")
	recipient := solana.NewWallet().PublicKey()

	l.LogPoolEvent(&pool.Event{Kind: pool.EventSwap, Amount: 1000, Recipient: recipient})

	out := buf.String()
	assert.Contains(t, out, `"event":"pool_swap"`)
	assert.Contains(t, out, `"amount":1000`)
	assert.Contains(t, out, recipient.String())
}

func TestLogInstructionFailed(t *testing.T) {
	l, buf := newBufferedLogger(t, "json")

	err := &runtime.InstructionError{Index: 0, Err: fmt.Errorf("wrapped: %w", pool.ErrInsufficientPoolBalance)}
	l.LogInstructionFailed("swap_from_pool_dev", err)

	out := buf.String()
	assert.Contains(t, out, `"code":6000`)
	assert.Contains(t, out, `"name":"InsufficientPoolBalance"`)
	assert.Contains(t, out, `"index":0`)
}

func TestLogInstructionNamesPoolInstructions(t *testing.T) {
	l, buf := newBufferedLogger(t, "json")

	programID := solana.NewWallet().PublicKey()
	ix, err := pool.NewInitializeInstruction(programID, solana.NewWallet().PublicKey())
	require.NoError(t, err)

	l.LogInstruction(ix)

	out := buf.String()
	assert.Contains(t, out, `"name":"initialize_token_account_pda"`)
	assert.Contains(t, out, `"program":"`+programID.String()+`"`)
}

func TestLogInstructionSkippedAboveDebug(t *testing.T) {
	l, buf := newBufferedLogger(t, "json")
	l.SetLevel(logrus.InfoLevel)

	ix, err := pool.NewInitializeInstruction(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	require.NoError(t, err)

	l.LogInstruction(ix)
	assert.Empty(t, buf.String())
}
