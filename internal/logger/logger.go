package logger

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"swap-pool-go/internal/pool"
	"swap-pool-go/internal/runtime"
	"swap-pool-go/pkg/anchor"
)

// Logger represents the application logger
type Logger struct {
	*logrus.Logger
	config LogConfig
	file   *os.File
}

// LogConfig contains logger configuration
type LogConfig struct {
	Level       string
	Format      string // "json", "text" or anything else for the custom console format
	LogToFile   bool
	LogFilePath string
}

// NewLogger creates a new logger instance
func NewLogger(config LogConfig) (*Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", config.Level, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	switch strings.ToLower(config.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
			DisableQuote:    true,
		})
	default:
		log.SetFormatter(&CustomFormatter{})
	}

	l := &Logger{
		Logger: log,
		config: config,
	}

	// stdout always, plus the file when configured
	if config.LogToFile && config.LogFilePath != "" {
		logDir := filepath.Dir(config.LogFilePath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}

		file, err := os.OpenFile(config.LogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", config.LogFilePath, err)
		}
		l.file = file
		log.SetOutput(io.MultiWriter(os.Stdout, file))
	}

	return l, nil
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// CustomFormatter provides a clean, timestamped format for console output
type CustomFormatter struct {
	DisableColors bool
}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format("2006-01-02 15:04:05.000")
	level := strings.ToUpper(entry.Level.String())

	levelColor, resetColor := "", ""
	if !f.DisableColors {
		resetColor = "\033[0m"
		switch entry.Level {
		case logrus.DebugLevel, logrus.TraceLevel:
			levelColor = "\033[36m" // Cyan
		case logrus.InfoLevel:
			levelColor = "\033[32m" // Green
		case logrus.WarnLevel:
			levelColor = "\033[33m" // Yellow
		case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
			levelColor = "\033[31m" // Red
		default:
			levelColor = resetColor
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s%s%s] %s", timestamp, levelColor, level, resetColor, entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for key := range entry.Data {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		b.WriteString(" |")
		for _, key := range keys {
			fmt.Fprintf(&b, " %s=%v", key, entry.Data[key])
		}
	}

	b.WriteString("\n")
	return []byte(b.String()), nil
}

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.WithField("component", component)
}

// WithTransaction returns a logger with transaction context
func (l *Logger) WithTransaction(signature string) *logrus.Entry {
	return l.WithField("transaction", signature)
}

// Pool-specific logging methods

// LogPoolEvent logs a completion record emitted by the pool program
func (l *Logger) LogPoolEvent(event *pool.Event) {
	fields := logrus.Fields{
		"event": "pool_" + string(event.Kind),
	}

	switch event.Kind {
	case pool.EventInitialized:
		fields["pda"] = event.PDA.String()
		l.WithFields(fields).Info("🏦 Controller initialized")
	case pool.EventDeposit:
		fields["user"] = event.User.String()
		fields["amount"] = event.Amount
		l.WithFields(fields).Info("📥 Deposit completed")
	case pool.EventSwap:
		fields["authority"] = event.Authority.String()
		fields["recipient"] = event.Recipient.String()
		fields["amount"] = event.Amount
		l.WithFields(fields).Info("📤 Swap from pool completed")
	}
}

// LogInstructionFailed logs a failed pool instruction, decoding program and token error codes
func (l *Logger) LogInstructionFailed(instruction string, err error) {
	fields := logrus.Fields{
		"event":       "instruction_failed",
		"instruction": instruction,
	}

	var poolErr *pool.Error
	var tokenErr runtime.TokenError
	var ixErr *runtime.InstructionError
	switch {
	case errors.As(err, &poolErr):
		fields["code"] = poolErr.Code
		fields["name"] = poolErr.Name
	case errors.As(err, &tokenErr):
		fields["token_error"] = uint32(tokenErr)
	}
	if errors.As(err, &ixErr) {
		fields["index"] = ixErr.Index
	}

	l.WithFields(fields).WithError(err).Error("❌ Instruction failed")
}

// LogTransaction logs transaction information
func (l *Logger) LogTransaction(signature, status string, slot uint64) {
	l.WithFields(logrus.Fields{
		"event":     "transaction",
		"signature": signature,
		"status":    status,
		"slot":      slot,
	}).Info("📋 Transaction status")
}

// LogInstruction dumps an instruction's program, accounts and data at debug level
func (l *Logger) LogInstruction(ix solana.Instruction) {
	if !l.IsLevelEnabled(logrus.DebugLevel) {
		return
	}

	entry := l.WithField("program", ix.ProgramID().String())
	for i, acc := range ix.Accounts() {
		entry = entry.WithField(fmt.Sprintf("account_%d", i),
			fmt.Sprintf("%s signer=%v writable=%v", acc.PublicKey, acc.IsSigner, acc.IsWritable))
	}

	data, err := ix.Data()
	switch {
	case err != nil:
		entry = entry.WithField("data_error", err.Error())
	case len(data) > 0:
		entry = entry.WithField("data", hex.EncodeToString(data))
		if name, err := anchor.IdentifyInstruction(data); err == nil && name != "unknown" {
			entry = entry.WithField("name", name)
		}
	}

	entry.Debug("🧾 Instruction")
}

// LogBalance logs a token account balance
func (l *Logger) LogBalance(account string, amount uint64) {
	l.WithFields(logrus.Fields{
		"event":   "balance_check",
		"account": account,
		"amount":  amount,
	}).Info("💰 Token balance")
}

// LogConnection logs connection status
func (l *Logger) LogConnection(service, status string) {
	l.WithFields(logrus.Fields{
		"event":   "connection",
		"service": service,
		"status":  status,
	}).Info("🔗 Connection status")
}

// LogStartup logs application startup information
func (l *Logger) LogStartup(version, network, rpcURL, programID string) {
	l.WithFields(logrus.Fields{
		"event":      "startup",
		"version":    version,
		"network":    network,
		"rpc_url":    rpcURL,
		"program_id": programID,
	}).Info("🚀 Pool client starting up")
}

// LogShutdown logs application shutdown information
func (l *Logger) LogShutdown(reason string) {
	l.WithFields(logrus.Fields{
		"event":  "shutdown",
		"reason": reason,
	}).Info("🛑 Pool client shutting down")
}
