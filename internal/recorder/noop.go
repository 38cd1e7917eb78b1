package recorder

import "RibbonSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordReport(_ string, _ *model.ReportRecord) error  { return nil }
func (n *NoopRecorder) RecordWave(_ string, _ *model.WavePrediction) error  { return nil }
func (n *NoopRecorder) RecordBand(_ string, _ *model.BandReading) error     { return nil }
func (n *NoopRecorder) Close() error                                        { return nil }
