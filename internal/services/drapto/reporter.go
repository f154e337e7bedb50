package drapto

import (
	"time"

	draptolib "github.com/five82/drapto"
)

// EventType classifies a progress update.
type EventType string

const (
	EventTypeStageProgress    EventType = "stage_progress"
	EventTypeEncodingStarted  EventType = "encoding_started"
	EventTypeEncodingProgress EventType = "encoding_progress"
	EventTypeValidation       EventType = "validation"
	EventTypeEncodingComplete EventType = "encoding_complete"
	EventTypeWarning          EventType = "warning"
	EventTypeError            EventType = "error"
	EventTypeInfo             EventType = "info"
)

// ProgressUpdate is one Drapto event reduced to what the caller logs.
type ProgressUpdate struct {
	Type       EventType
	Timestamp  time.Time
	Percent    float64
	Stage      string
	Message    string
	ETA        time.Duration
	Speed      float64
	FPS        float64
	OutputPath string
	Passed     bool
}

type reporter struct {
	callback func(ProgressUpdate)
}

func newReporter(callback func(ProgressUpdate)) *reporter {
	return &reporter{callback: callback}
}

func (r *reporter) emit(update ProgressUpdate) {
	update.Timestamp = time.Now()
	r.callback(update)
}

func (r *reporter) Hardware(s draptolib.HardwareSummary) {
	r.emit(ProgressUpdate{Type: EventTypeInfo, Stage: "hardware", Message: s.Hostname})
}

func (r *reporter) Initialization(s draptolib.InitializationSummary) {
	r.emit(ProgressUpdate{Type: EventTypeInfo, Stage: "initialization", Message: s.Resolution})
}

func (r *reporter) StageProgress(s draptolib.StageProgress) {
	var eta time.Duration
	if s.ETA != nil {
		eta = *s.ETA
	}
	r.emit(ProgressUpdate{
		Type:    EventTypeStageProgress,
		Percent: float64(s.Percent),
		Stage:   s.Stage,
		Message: s.Message,
		ETA:     eta,
	})
}

func (r *reporter) CropResult(s draptolib.CropSummary) {
	r.emit(ProgressUpdate{Type: EventTypeInfo, Stage: "crop", Message: s.Message})
}

func (r *reporter) EncodingConfig(s draptolib.EncodingConfigSummary) {
	r.emit(ProgressUpdate{Type: EventTypeInfo, Stage: "config", Message: s.Encoder + " " + s.Preset})
}

func (r *reporter) EncodingStarted(totalFrames uint64) {
	r.emit(ProgressUpdate{Type: EventTypeEncodingStarted, Stage: "encoding"})
}

func (r *reporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	r.emit(ProgressUpdate{
		Type:    EventTypeEncodingProgress,
		Percent: float64(s.Percent),
		Stage:   "encoding",
		Speed:   float64(s.Speed),
		FPS:     float64(s.FPS),
		ETA:     s.ETA,
	})
}

func (r *reporter) ValidationComplete(s draptolib.ValidationSummary) {
	r.emit(ProgressUpdate{Type: EventTypeValidation, Stage: "validation", Passed: s.Passed})
}

func (r *reporter) EncodingComplete(s draptolib.EncodingOutcome) {
	r.emit(ProgressUpdate{Type: EventTypeEncodingComplete, Percent: 100, Stage: "complete", OutputPath: s.OutputPath})
}

func (r *reporter) Warning(message string) {
	r.emit(ProgressUpdate{Type: EventTypeWarning, Message: message})
}

func (r *reporter) Error(e draptolib.ReporterError) {
	r.emit(ProgressUpdate{Type: EventTypeError, Stage: e.Title, Message: e.Message})
}

func (r *reporter) OperationComplete(message string) {
	r.emit(ProgressUpdate{Type: EventTypeInfo, Stage: "complete", Message: message})
}

func (r *reporter) BatchStarted(s draptolib.BatchStartInfo) {
	r.emit(ProgressUpdate{Type: EventTypeInfo, Stage: "batch", Message: s.OutputDir})
}

func (r *reporter) FileProgress(draptolib.FileProgressContext) {}

func (r *reporter) BatchComplete(draptolib.BatchSummary) {}

var _ draptolib.Reporter = (*reporter)(nil)
