package recorder

import "RibbonSentinel/internal/model"

// Recorder persists emitted pipeline results for later analysis.
// runID groups every row written by one scan or command.
type Recorder interface {
	RecordReport(runID string, r *model.ReportRecord) error
	RecordWave(runID string, w *model.WavePrediction) error
	RecordBand(runID string, b *model.BandReading) error
	Close() error
}
