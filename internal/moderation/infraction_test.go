package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideInfraction(t *testing.T) {
	tests := []struct {
		count      int
		limit      int
		wantAction Action
	}{
		{count: 1, limit: 5, wantAction: ActionMute},
		{count: 4, limit: 5, wantAction: ActionMute},
		{count: 5, limit: 5, wantAction: ActionBan},
		{count: 6, limit: 5, wantAction: ActionBan},
		{count: 2, limit: 2, wantAction: ActionBan},
		{count: 4, limit: 0, wantAction: ActionMute},
		{count: 5, limit: 0, wantAction: ActionBan},
	}
	for _, tt := range tests {
		got := DecideInfraction(tt.count, tt.limit)
		assert.Equal(t, tt.count, got.Count)
		assert.Equal(t, tt.wantAction, got.Action, "count=%d limit=%d", tt.count, tt.limit)
	}
}

func TestDecideInfraction_BansExactlyAtLimit(t *testing.T) {
	var actions []Action
	for count := 1; count <= DefaultWarnLimit; count++ {
		actions = append(actions, DecideInfraction(count, DefaultWarnLimit).Action)
	}
	assert.Equal(t, []Action{ActionMute, ActionMute, ActionMute, ActionMute, ActionBan}, actions)
}
