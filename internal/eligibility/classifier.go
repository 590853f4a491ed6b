package eligibility

import (
	"context"

	"go.uber.org/zap"

	"github.com/nemanjakrstic/snitch/internal/types"
)

// GreenChecker answers whether every pipeline run sharing a name succeeded.
type GreenChecker interface {
	IsEntirePipelineGreen(ctx context.Context, name string) (bool, error)
}

// NotifyPolicy decides whether an event is wanted at all.
type NotifyPolicy interface {
	ShouldNotify(e *types.PipelineEvent) bool
}

// Reason explains why processing stopped.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonNotifyDisabled  Reason = "notify-disabled"
	ReasonNotFullyGreen   Reason = "not-fully-green"
	ReasonGreenCheckError Reason = "green-check-failed"
)

// Decision is the classifier's verdict for one event.
type Decision struct {
	Proceed bool
	Reason  Reason
}

// Classifier gates events before any digest or recipient work happens.
type Classifier struct {
	policy NotifyPolicy
	green  GreenChecker
	logger *zap.Logger
}

// NewClassifier creates a Classifier.
func NewClassifier(policy NotifyPolicy, green GreenChecker, logger *zap.Logger) *Classifier {
	return &Classifier{
		policy: policy,
		green:  green,
		logger: logger.Named("classifier"),
	}
}

// Classify decides whether the event proceeds. For succeeded runs it records
// the green-check result on the event. A failing green check is treated as
// "not fully green".
func (c *Classifier) Classify(ctx context.Context, e *types.PipelineEvent) Decision {
	if !c.policy.ShouldNotify(e) {
		c.logger.Info("Notifications disabled for pipeline", zap.String("pipeline", e.Name))
		return Decision{Reason: ReasonNotifyDisabled}
	}

	if !e.HasSucceeded() {
		return Decision{Proceed: true}
	}

	green, err := c.green.IsEntirePipelineGreen(ctx, e.Name)
	if err != nil {
		green = false
	}
	e.FullyGreen = &green
	if err != nil {
		c.logger.Warn("Green check failed, treating pipeline as not fully green",
			zap.String("pipeline", e.Name), zap.Error(err))
		return Decision{Reason: ReasonGreenCheckError}
	}
	if !green {
		c.logger.Info("Pipeline succeeded but is not fully green", zap.String("pipeline", e.Name))
		return Decision{Reason: ReasonNotFullyGreen}
	}
	return Decision{Proceed: true}
}
