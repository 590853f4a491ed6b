// Package notifier renders pipeline notifications and delivers them to
// resolved recipients through a configured channel (Slack DM, webhook, log).
//
// # Contract
//
// The Dispatcher:
//  1. Receives a classified PipelineEvent (with its digest, if any) and the
//     recipients resolved for it
//  2. Renders one Message per recipient with MessageBuilder (Slack Block Kit):
//     - header:  "❌ {name} #{counter} failed" / "✅ {name} is green"
//     - greeting addressed to the recipient's display name
//     - digest lines in a code block, when a digest is attached
//     - committer / approver context, pipeline link button
//  3. Calls Sender.Send exactly once per recipient, concurrently
//
// # Failure handling
//
// Deliveries are best effort. A failed Send is logged at error level and
// counted in snitch_deliveries_total; it is never retried and never affects
// other recipients of the same event. There is no cross-event deduplication.
//
// # Types
//
//	type Dispatcher struct { ... }
//	func NewDispatcher(sender Sender, logger *zap.Logger, opts DispatcherOptions) *Dispatcher
//	func (d *Dispatcher) Dispatch(ctx context.Context, e *types.PipelineEvent, rs []recipients.Recipient) Report
//
//	type Sender interface {
//	    Name() string
//	    Send(ctx context.Context, n Notification) error
//	}
//
// # Debug override
//
// DispatcherOptions.OverrideRecipient redirects every delivery to a single
// ID. It is only set from an explicitly enabled debug configuration.
package notifier
