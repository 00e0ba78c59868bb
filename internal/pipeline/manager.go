package pipeline

import "context"

type Manager struct {
	filters []Filter
}

func NewManager(filters ...Filter) *Manager {
	return &Manager{filters: filters}
}

// Process runs the filters in order and stops at the first one that blocks.
func (m *Manager) Process(ctx context.Context, payload Payload) (*Result, error) {
	if payload.Exempt {
		return &Result{IsAllowed: true}, nil
	}
	for _, f := range m.filters {
		res, err := f.Process(ctx, payload)
		if err != nil {
			return nil, err
		}
		if !res.IsAllowed {
			return res, nil
		}
	}
	return &Result{IsAllowed: true}, nil
}
