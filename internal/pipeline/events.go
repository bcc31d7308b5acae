// Package pipeline orchestrates document-to-plan extraction: text
// acquisition, an optional AI attempt, the guaranteed heuristic
// fallback, and ordered progress events to a caller-supplied sink.
package pipeline

import (
	"fmt"

	"github.com/planora/planora/internal/plan"
)

// Stage names one phase of the extraction pipeline as reported to the
// caller. Stages are strictly ordered within a run; error may occur
// from any point and terminates the stream.
type Stage string

const (
	StageReading     Stage = "reading"
	StageExtracting  Stage = "extracting"
	StageAnalyzing   Stage = "analyzing"
	StageStructuring Stage = "structuring"
	StageCopying     Stage = "copying"
	StageDone        Stage = "done"
	StageError       Stage = "error"
)

// Baseline progress percentages per stage. The analyzing stage climbs
// from its baseline toward heartbeatCeiling while the AI call is in
// flight.
const (
	progressReading     = 5
	progressExtractOpen = 15
	progressExtractDone = 28
	progressAnalyzing   = 45
	progressStructuring = 75
	progressCopying     = 95
	progressDone        = 100

	heartbeatCeiling = 72
	heartbeatStep    = 3
)

// Event is one progress line. Terminal done events carry the plan and
// its source tag; terminal error events carry a human-readable message.
type Event struct {
	Stage    Stage      `json:"stage"`
	Progress int        `json:"progress"`
	Label    string     `json:"label,omitempty"`
	Plan     *plan.Plan `json:"plan,omitempty"`
	Source   string     `json:"source,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Stage == StageDone || e.Stage == StageError
}

// heartbeatLabels cycle while the AI call is outstanding so streaming
// callers see movement during the longest stage.
var heartbeatLabels = []string{
	"Analizando el contenido del documento...",
	"Identificando el itinerario día a día...",
	"Extrayendo hoteles, precios e inclusiones...",
	"Organizando los resultados...",
}

func greetingLabel(caller string) string {
	if caller == "" {
		return "Estoy revisando tu archivo..."
	}
	return fmt.Sprintf("%s, estoy revisando tu archivo...", caller)
}
