package filters

import (
	"context"

	"group-guard-bot/internal/moderation"
	"group-guard-bot/internal/pipeline"
)

// PolicyFilter applies the chat's link filter and banned words.
type PolicyFilter struct{}

func NewPolicyFilter() *PolicyFilter {
	return &PolicyFilter{}
}

func (f *PolicyFilter) Name() string {
	return "policy_filter"
}

func (f *PolicyFilter) Process(_ context.Context, payload pipeline.Payload) (*pipeline.Result, error) {
	verdict := moderation.Check(payload.Text, payload.Settings, payload.Exempt)
	if !verdict.Blocked {
		return &pipeline.Result{IsAllowed: true}, nil
	}
	return &pipeline.Result{
		IsAllowed:  false,
		Reason:     verdict.Reason,
		Match:      verdict.Match,
		FilterName: f.Name(),
	}, nil
}
