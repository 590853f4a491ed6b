package slack

import (
	"context"

	"go.uber.org/zap"

	"github.com/nemanjakrstic/snitch/internal/notifier"
)

type postMessageRequest struct {
	Channel string           `json:"channel"`
	Text    string           `json:"text"`
	Blocks  []notifier.Block `json:"blocks,omitempty"`
}

type postMessageResponse struct {
	response
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

// Name implements notifier.Sender.
func (c *Client) Name() string { return "slack" }

// Send implements notifier.Sender by posting a direct message to the
// recipient's user ID with chat.postMessage.
func (c *Client) Send(ctx context.Context, n notifier.Notification) error {
	var out postMessageResponse
	err := c.postJSON(ctx, "chat.postMessage", postMessageRequest{
		Channel: n.RecipientID,
		Text:    n.Message.Text,
		Blocks:  n.Message.Blocks,
	}, &out)
	if err != nil {
		return err
	}
	c.logger.Debug("Message posted",
		zap.String("channel", out.Channel),
		zap.String("ts", out.TS),
	)
	return nil
}
