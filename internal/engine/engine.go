package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/nemanjakrstic/snitch/internal/digest"
	"github.com/nemanjakrstic/snitch/internal/eligibility"
	"github.com/nemanjakrstic/snitch/internal/notifier"
	"github.com/nemanjakrstic/snitch/internal/recipients"
	"github.com/nemanjakrstic/snitch/internal/testreport"
	"github.com/nemanjakrstic/snitch/internal/types"
)

// Classifier gates an event before any digest or recipient work.
type Classifier interface {
	Classify(ctx context.Context, e *types.PipelineEvent) eligibility.Decision
}

// ReportSource fetches test reports referenced (not inlined) by an event.
type ReportSource interface {
	Reports(ctx context.Context, e *types.PipelineEvent) []types.TestSuiteReport
}

// RecipientResolver maps an event to directory identities.
type RecipientResolver interface {
	Resolve(ctx context.Context, e *types.PipelineEvent) []recipients.Recipient
}

// Dispatcher delivers one notification per recipient.
type Dispatcher interface {
	Dispatch(ctx context.Context, e *types.PipelineEvent, rs []recipients.Recipient) notifier.Report
}

// DetailPolicy decides whether a pipeline gets message bodies in its digest.
type DetailPolicy interface {
	Detail(name string) bool
}

// Deps are the collaborators an Engine runs. Reports and Detail are optional.
type Deps struct {
	Classifier Classifier
	Reports    ReportSource
	Resolver   RecipientResolver
	Dispatcher Dispatcher
	Detail     DetailPolicy
}

// Outcome labels for snitch_events_total.
const (
	OutcomeDispatched   = "dispatched"
	OutcomeNoRecipients = "no-recipients"
)

// Result summarizes how one event was handled.
type Result struct {
	Pipeline   string
	Stopped    eligibility.Reason
	Digest     digest.Digest
	Recipients []recipients.Recipient
	Delivery   notifier.Report
}

// Dispatched reports whether at least one delivery was attempted.
func (r Result) Dispatched() bool {
	return len(r.Delivery.Outcomes) > 0
}

// Engine runs classifier, digest builder, resolver and dispatcher for one
// event at a time. It holds no per-event state and is safe for concurrent use.
type Engine struct {
	deps   Deps
	logger *zap.Logger
}

// New creates an Engine.
func New(deps Deps, logger *zap.Logger) *Engine {
	return &Engine{deps: deps, logger: logger.Named("engine")}
}

// Handle processes one event. Nothing here fails the caller: policy stops,
// lookup misses and delivery failures are reflected in the Result and logs.
func (en *Engine) Handle(ctx context.Context, e *types.PipelineEvent) Result {
	res := Result{Pipeline: e.Name}
	log := en.logger.With(zap.String("pipeline", e.Name), zap.Int("counter", e.Counter))

	decision := en.deps.Classifier.Classify(ctx, e)
	if !decision.Proceed {
		res.Stopped = decision.Reason
		eventsTotal.WithLabelValues(string(decision.Reason)).Inc()
		log.Debug("Event stopped", zap.String("reason", string(decision.Reason)))
		return res
	}

	reports := e.Reports
	if en.deps.Reports != nil && len(e.ReportURLs) > 0 {
		reports = append(append([]types.TestSuiteReport(nil), reports...), en.deps.Reports.Reports(ctx, e)...)
	}

	detail := en.deps.Detail != nil && en.deps.Detail.Detail(e.Name)
	res.Digest = digest.Build(testreport.FailingCases(reports), detail)
	digestLines.Observe(float64(res.Digest.Len()))
	if !res.Digest.Empty() {
		e.Failures = res.Digest.Lines()
	}

	res.Recipients = en.deps.Resolver.Resolve(ctx, e)
	if len(res.Recipients) == 0 {
		eventsTotal.WithLabelValues(OutcomeNoRecipients).Inc()
		log.Info("No recipients resolved")
		return res
	}

	res.Delivery = en.deps.Dispatcher.Dispatch(ctx, e, res.Recipients)
	eventsTotal.WithLabelValues(OutcomeDispatched).Inc()
	log.Info("Pipeline event handled",
		zap.String("status", string(e.Status)),
		zap.Int("failures", res.Digest.Len()),
		zap.Int("delivered", res.Delivery.Delivered()),
		zap.Int("failed", res.Delivery.Failed()),
	)
	return res
}
