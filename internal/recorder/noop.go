package recorder

import "github.com/m09352000/my-stock-dashboard-sub000/internal/model"

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAnalysis(_ *model.AnalysisSnapshot) error { return nil }
func (n *NoopRecorder) RecordScan(_ *ScanRun) error                    { return nil }
func (n *NoopRecorder) RecentScans(_ int) ([]ScanRun, error)           { return nil, nil }
func (n *NoopRecorder) Close() error                                   { return nil }

func (n *NoopRecorder) RecentAnalyses(_ string, _ int) ([]model.AnalysisSnapshot, error) {
	return nil, nil
}
