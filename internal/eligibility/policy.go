package eligibility

import (
	"path"
	"sync"

	"go.uber.org/zap"

	"github.com/nemanjakrstic/snitch/internal/types"
)

// Rule matches pipelines by name glob (path.Match syntax) and decides whether
// they notify and at which digest detail.
type Rule struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	Notify  *bool  `yaml:"notify,omitempty" json:"notify,omitempty"`
	Detail  bool   `yaml:"detail,omitempty" json:"detail,omitempty"`
}

// Policy is a thread-safe store of notification rules. It is replaced
// wholesale on config reload and queried once per event.
type Policy struct {
	mu            sync.RWMutex
	rules         []Rule
	defaultNotify bool
	defaultDetail bool
	logger        *zap.Logger
}

// PolicyOptions configures a Policy.
type PolicyOptions struct {
	DefaultNotify bool
	DefaultDetail bool
	Rules         []Rule
}

// DefaultPolicyOptions notifies every pipeline at low detail.
func DefaultPolicyOptions() PolicyOptions {
	return PolicyOptions{DefaultNotify: true}
}

// NewPolicy creates a Policy. Rules with invalid patterns are dropped with a warning.
func NewPolicy(logger *zap.Logger, opts PolicyOptions) *Policy {
	p := &Policy{logger: logger.Named("policy")}
	p.Update(opts)
	return p
}

// Update replaces the active rule set.
func (p *Policy) Update(opts PolicyOptions) {
	valid := make([]Rule, 0, len(opts.Rules))
	for _, r := range opts.Rules {
		if _, err := path.Match(r.Pattern, ""); err != nil {
			p.logger.Warn("Ignoring notify rule with invalid pattern",
				zap.String("pattern", r.Pattern), zap.Error(err))
			continue
		}
		valid = append(valid, r)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules = valid
	p.defaultNotify = opts.DefaultNotify
	p.defaultDetail = opts.DefaultDetail
	p.logger.Info("Notify policy updated",
		zap.Int("rules", len(valid)),
		zap.Bool("default_notify", opts.DefaultNotify),
	)
}

// ShouldNotify decides whether the event should be processed at all.
// An explicit flag on the event wins over configured rules.
func (p *Policy) ShouldNotify(e *types.PipelineEvent) bool {
	if e.Notify != nil {
		return *e.Notify
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if r, ok := p.match(e.Name); ok && r.Notify != nil {
		return *r.Notify
	}
	return p.defaultNotify
}

// Detail returns whether digests for this pipeline should carry message bodies.
func (p *Policy) Detail(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if r, ok := p.match(name); ok {
		return r.Detail
	}
	return p.defaultDetail
}

// Rules returns a snapshot of the active rules.
func (p *Policy) Rules() []Rule {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

// match returns the first rule matching name. Caller holds the lock.
func (p *Policy) match(name string) (Rule, bool) {
	for _, r := range p.rules {
		if ok, _ := path.Match(r.Pattern, name); ok {
			return r, true
		}
	}
	return Rule{}, false
}
