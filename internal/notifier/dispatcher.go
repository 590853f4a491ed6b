package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nemanjakrstic/snitch/internal/recipients"
	"github.com/nemanjakrstic/snitch/internal/types"
)

// DispatcherOptions configures the Dispatcher behavior.
type DispatcherOptions struct {
	// OverrideRecipient, when set, redirects every delivery to this ID.
	// Only wired from an explicitly enabled debug configuration.
	OverrideRecipient string
}

// DefaultDispatcherOptions returns the production defaults: no override.
func DefaultDispatcherOptions() DispatcherOptions {
	return DispatcherOptions{}
}

// Outcome records the single delivery attempt made for one recipient.
type Outcome struct {
	Email       string
	RecipientID string
	Err         error
}

// Report summarizes a Dispatch call.
type Report struct {
	Outcomes []Outcome
}

// Delivered counts successful deliveries.
func (r Report) Delivered() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts failed deliveries.
func (r Report) Failed() int {
	return len(r.Outcomes) - r.Delivered()
}

// Dispatcher renders and delivers pipeline notifications, one per recipient.
type Dispatcher struct {
	logger  *zap.Logger
	sender  Sender
	builder *MessageBuilder
	opts    DispatcherOptions
}

// NewDispatcher creates a new Dispatcher delivering through sender.
func NewDispatcher(sender Sender, logger *zap.Logger, opts DispatcherOptions) *Dispatcher {
	d := &Dispatcher{
		logger:  logger.Named("dispatcher"),
		sender:  sender,
		builder: NewMessageBuilder(),
		opts:    opts,
	}
	if opts.OverrideRecipient != "" {
		d.logger.Warn("Recipient override is active, all notifications go to one ID",
			zap.String("recipient_id", opts.OverrideRecipient))
	}
	return d
}

// Dispatch sends exactly one notification per recipient, concurrently.
// Failures are logged and reported but never retried, and one recipient's
// failure never affects another. Outcomes follow the order of rs.
func (d *Dispatcher) Dispatch(ctx context.Context, e *types.PipelineEvent, rs []recipients.Recipient) Report {
	outcomes := make([]Outcome, len(rs))

	var wg sync.WaitGroup
	for i, r := range rs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					outcomes[i] = d.recovered(e, r, p)
				}
			}()
			outcomes[i] = d.deliver(ctx, e, r)
		}()
	}
	wg.Wait()

	return Report{Outcomes: outcomes}
}

// recovered turns a panic while rendering or sending into a failed outcome.
func (d *Dispatcher) recovered(e *types.PipelineEvent, r recipients.Recipient, p any) Outcome {
	recipientID := r.Identity.ID
	if d.opts.OverrideRecipient != "" {
		recipientID = d.opts.OverrideRecipient
	}
	err := fmt.Errorf("panic: %v", p)
	deliveryTotal.WithLabelValues(d.sender.Name(), "error").Inc()
	d.logger.Error("Delivery panicked",
		zap.String("sender", d.sender.Name()),
		zap.String("pipeline", e.Name),
		zap.String("email", r.Email),
		zap.Error(err),
	)
	return Outcome{Email: r.Email, RecipientID: recipientID, Err: err}
}

func (d *Dispatcher) deliver(ctx context.Context, e *types.PipelineEvent, r recipients.Recipient) Outcome {
	recipientID := r.Identity.ID
	if d.opts.OverrideRecipient != "" {
		recipientID = d.opts.OverrideRecipient
	}

	n := Notification{
		RecipientID: recipientID,
		Email:       r.Email,
		Pipeline:    e.Name,
		Counter:     e.Counter,
		Status:      e.Status,
		Message:     d.builder.Build(e, r.Identity),
	}

	start := time.Now()
	err := d.sender.Send(ctx, n)
	status := "success"
	if err != nil {
		status = "error"
	}
	deliveryTotal.WithLabelValues(d.sender.Name(), status).Inc()
	deliveryDuration.WithLabelValues(d.sender.Name(), status).Observe(time.Since(start).Seconds())

	if err != nil {
		d.logger.Error("Delivery failed",
			zap.String("sender", d.sender.Name()),
			zap.String("pipeline", e.Name),
			zap.String("email", r.Email),
			zap.String("recipient_id", recipientID),
			zap.Error(err),
		)
	} else {
		d.logger.Info("Dispatched notification",
			zap.String("sender", d.sender.Name()),
			zap.String("pipeline", e.Name),
			zap.String("email", r.Email),
			zap.String("recipient_id", recipientID),
		)
	}

	return Outcome{Email: r.Email, RecipientID: recipientID, Err: err}
}
