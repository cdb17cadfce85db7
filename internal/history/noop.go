package history

import "context"

// NoopRecorder is used when no history database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ context.Context, _ *Run) error { return nil }
func (n *NoopRecorder) ListRuns(_ context.Context, _ ListOptions) ([]Run, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
