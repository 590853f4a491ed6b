package eligibility

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/nemanjakrstic/snitch/internal/types"
)

func boolPtr(b bool) *bool { return &b }

func TestDefaultPolicyOptions(t *testing.T) {
	opts := DefaultPolicyOptions()
	assert.True(t, opts.DefaultNotify)
	assert.False(t, opts.DefaultDetail)
	assert.Empty(t, opts.Rules)
}

func TestPolicy_ShouldNotify(t *testing.T) {
	p := NewPolicy(zap.NewNop(), PolicyOptions{
		DefaultNotify: true,
		Rules: []Rule{
			{Pattern: "nightly-*", Notify: boolPtr(false)},
			{Pattern: "deploy-*", Detail: true},
		},
	})

	tests := []struct {
		name  string
		event types.PipelineEvent
		want  bool
	}{
		{name: "default", event: types.PipelineEvent{Name: "build"}, want: true},
		{name: "rule disables", event: types.PipelineEvent{Name: "nightly-e2e"}, want: false},
		{name: "rule without notify falls back", event: types.PipelineEvent{Name: "deploy-prod"}, want: true},
		{name: "event flag beats rule", event: types.PipelineEvent{Name: "nightly-e2e", Notify: boolPtr(true)}, want: true},
		{name: "event flag off", event: types.PipelineEvent{Name: "build", Notify: boolPtr(false)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ShouldNotify(&tt.event))
		})
	}
}

func TestPolicy_DefaultNotifyOff(t *testing.T) {
	p := NewPolicy(zap.NewNop(), PolicyOptions{
		DefaultNotify: false,
		Rules:         []Rule{{Pattern: "main", Notify: boolPtr(true)}},
	})
	assert.False(t, p.ShouldNotify(&types.PipelineEvent{Name: "feature"}))
	assert.True(t, p.ShouldNotify(&types.PipelineEvent{Name: "main"}))
}

func TestPolicy_Detail(t *testing.T) {
	p := NewPolicy(zap.NewNop(), PolicyOptions{
		DefaultDetail: false,
		Rules:         []Rule{{Pattern: "deploy-*", Detail: true}},
	})
	assert.True(t, p.Detail("deploy-prod"))
	assert.False(t, p.Detail("build"))
}

func TestPolicy_FirstMatchWins(t *testing.T) {
	p := NewPolicy(zap.NewNop(), PolicyOptions{
		DefaultNotify: true,
		Rules: []Rule{
			{Pattern: "app-*", Notify: boolPtr(false)},
			{Pattern: "app-web", Notify: boolPtr(true)},
		},
	})
	assert.False(t, p.ShouldNotify(&types.PipelineEvent{Name: "app-web"}))
}

func TestPolicy_InvalidPatternDropped(t *testing.T) {
	p := NewPolicy(zap.NewNop(), PolicyOptions{
		DefaultNotify: true,
		Rules: []Rule{
			{Pattern: "[", Notify: boolPtr(false)},
			{Pattern: "ok", Notify: boolPtr(false)},
		},
	})
	rules := p.Rules()
	assert.Len(t, rules, 1)
	assert.Equal(t, "ok", rules[0].Pattern)
}

func TestPolicy_Update(t *testing.T) {
	p := NewPolicy(zap.NewNop(), DefaultPolicyOptions())
	e := &types.PipelineEvent{Name: "build"}
	assert.True(t, p.ShouldNotify(e))

	p.Update(PolicyOptions{DefaultNotify: false})
	assert.False(t, p.ShouldNotify(e))
}

func TestPolicy_ConcurrentAccess(t *testing.T) {
	p := NewPolicy(zap.NewNop(), DefaultPolicyOptions())
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				p.Update(PolicyOptions{DefaultNotify: true, Rules: []Rule{{Pattern: "x-*"}}})
				return
			}
			_ = p.ShouldNotify(&types.PipelineEvent{Name: "x-1"})
			_ = p.Detail("x-1")
		}(i)
	}
	wg.Wait()
	assert.True(t, p.ShouldNotify(&types.PipelineEvent{Name: "x-1"}))
}
