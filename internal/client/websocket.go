package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"swap-pool-go/internal/pool"
)

// EventHandler receives each completion record seen in the program's logs
type EventHandler func(notification *LogsNotification, event *pool.Event) error

// wsMessage is a JSON-RPC frame on the subscription socket
type wsMessage struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      *int              `json:"id,omitempty"`
	Method  string            `json:"method,omitempty"`
	Params  json.RawMessage   `json:"params,omitempty"`
	Result  json.RawMessage   `json:"result,omitempty"`
	Error   *jsonrpc.RPCError `json:"error,omitempty"`
}

// LogsNotification represents a logs notification
type LogsNotification struct {
	Subscription int `json:"subscription"`
	Result       struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Signature string      `json:"signature"`
			Err       interface{} `json:"err"`
			Logs      []string    `json:"logs"`
		} `json:"value"`
	} `json:"result"`
}

// LogWatcher streams the pool program's logs over logsSubscribe and hands
// parsed completion records to a handler. It reconnects until its context ends.
type LogWatcher struct {
	url            string
	programID      solana.PublicKey
	commitment     string
	logger         *logrus.Logger
	reconnectDelay time.Duration

	mu           sync.Mutex
	subscription int
	received     int
}

// NewLogWatcher creates a watcher for programID's logs
func NewLogWatcher(url string, programID solana.PublicKey, logger *logrus.Logger) *LogWatcher {
	return &LogWatcher{
		url:            url,
		programID:      programID,
		commitment:     "confirmed",
		logger:         logger,
		reconnectDelay: 5 * time.Second,
	}
}

// Run watches until ctx is cancelled, reconnecting after connection failures.
// A handler error stops the watcher and is returned.
func (w *LogWatcher) Run(ctx context.Context, handler EventHandler) error {
	for {
		err := w.watch(ctx, handler)
		if ctx.Err() != nil {
			return nil
		}
		var herr *handlerError
		if errors.As(err, &herr) {
			return herr.err
		}

		w.logger.WithError(err).WithField("retry_in", w.reconnectDelay).Warn("⚠️ Log subscription lost, reconnecting")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.reconnectDelay):
		}
	}
}

type handlerError struct{ err error }

func (e *handlerError) Error() string { return e.err.Error() }

// watch runs one connection until it fails or ctx ends
func (w *LogWatcher) watch(ctx context.Context, handler EventHandler) error {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, resp, err := dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		if resp != nil {
			w.logger.WithFields(logrus.Fields{
				"status":      resp.Status,
				"status_code": resp.StatusCode,
				"url":         w.url,
			}).Error("❌ WebSocket connection failed")
		}
		return fmt.Errorf("failed to connect to WebSocket: %w", err)
	}
	conn.SetReadLimit(1024 * 1024)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
			conn.Close()
		}
	}()

	w.logger.WithFields(logrus.Fields{
		"url":     w.url,
		"program": w.programID.String(),
	}).Info("🔌 WebSocket connected")

	if err := w.subscribe(conn); err != nil {
		return err
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("websocket read failed: %w", err)
		}

		if err := w.handleMessage(data, handler); err != nil {
			return err
		}
	}
}

func (w *LogWatcher) subscribe(conn *websocket.Conn) error {
	id := 1
	params, err := json.Marshal([]interface{}{
		map[string]interface{}{
			"mentions": []string{w.programID.String()},
		},
		map[string]interface{}{
			"commitment": w.commitment,
		},
	})
	if err != nil {
		return err
	}

	request := wsMessage{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  "logsSubscribe",
		Params:  params,
	}
	if err := conn.WriteJSON(request); err != nil {
		return fmt.Errorf("failed to send subscription: %w", err)
	}

	w.logger.WithField("program", w.programID.String()).Debug("📡 logsSubscribe sent")
	return nil
}

// handleMessage processes one frame. Only handler failures are returned as
// errors; malformed frames are logged and skipped.
func (w *LogWatcher) handleMessage(data []byte, handler EventHandler) error {
	var message wsMessage
	if err := json.Unmarshal(data, &message); err != nil {
		w.logger.WithError(err).Warn("❌ Failed to unmarshal WebSocket message")
		return nil
	}

	if message.Error != nil {
		w.logger.WithFields(logrus.Fields{
			"code":    message.Error.Code,
			"message": message.Error.Message,
		}).Error("❌ WebSocket error received")
		return nil
	}

	// subscription confirmation
	if message.ID != nil && len(message.Result) > 0 {
		var subscription int
		if err := json.Unmarshal(message.Result, &subscription); err == nil {
			w.mu.Lock()
			w.subscription = subscription
			w.mu.Unlock()
			w.logger.WithField("subscription", subscription).Info("✅ Log subscription confirmed")
		}
		return nil
	}

	if message.Method != "logsNotification" {
		return nil
	}

	var notification LogsNotification
	if err := json.Unmarshal(message.Params, &notification); err != nil {
		w.logger.WithError(err).Warn("❌ Failed to unmarshal logs notification")
		return nil
	}

	w.mu.Lock()
	w.received++
	w.mu.Unlock()

	value := notification.Result.Value
	if value.Err != nil {
		w.logger.WithField("signature", value.Signature).Debug("Skipping failed transaction")
		return nil
	}

	for _, line := range value.Logs {
		event, err := pool.ParseEvent(line)
		if err != nil {
			w.logger.WithError(err).WithField("signature", value.Signature).Debug("Skipping unparsable event line")
			continue
		}
		if event == nil {
			continue
		}
		if err := handler(&notification, event); err != nil {
			return &handlerError{err: err}
		}
	}

	return nil
}

// Stats returns the current subscription id and the number of notifications received
func (w *LogWatcher) Stats() (subscription int, received int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.subscription, w.received
}
