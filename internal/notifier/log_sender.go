package notifier

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"go.uber.org/zap"
)

// LogSender "delivers" notifications by logging them and, if w is non-nil,
// writing each one as a JSON line. Used for dry runs.
type LogSender struct {
	logger *zap.Logger
	mu     sync.Mutex
	w      io.Writer
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *zap.Logger, w io.Writer) *LogSender {
	return &LogSender{logger: logger.Named("log-sender"), w: w}
}

// Name implements Sender.
func (ls *LogSender) Name() string { return "log" }

// Send implements Sender.
func (ls *LogSender) Send(_ context.Context, n Notification) error {
	ls.logger.Info("Notification (dry run)",
		zap.String("pipeline", n.Pipeline),
		zap.String("recipient_id", n.RecipientID),
		zap.String("email", n.Email),
		zap.String("text", n.Message.Text),
	)
	if ls.w == nil {
		return nil
	}
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	_, err = ls.w.Write(append(data, '\n'))
	return err
}
