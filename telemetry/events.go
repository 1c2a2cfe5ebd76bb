// Package telemetry provides windowed developmental statistics and CSV output.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventStageTransition EventType = iota
	EventHomeoticSwap
	EventGeneFlip
	EventMorphogenPulse
	EventMatrixRebuild
	EventBodyPlanSelect
	EventReset
)

var eventNames = [...]string{
	"stage_transition",
	"homeotic_swap",
	"gene_flip",
	"morphogen_pulse",
	"matrix_rebuild",
	"bodyplan_select",
	"reset",
}

// String returns the event type name used in event logs.
func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// MarshalCSV writes the type name rather than the numeric value.
func (t EventType) MarshalCSV() (string, error) {
	return t.String(), nil
}

// Event represents a single developmental event.
type Event struct {
	Type EventType `csv:"type"`
	Tick int32     `csv:"tick"`
	Age  float64   `csv:"age"`

	// Subject of the event: stage name, gene name, morphogen name,
	// segment name or body-plan identity depending on Type.
	Subject string `csv:"subject"`

	// Detail carries the secondary participant where one exists,
	// e.g. the donor segment of a homeotic swap.
	Detail string `csv:"detail"`

	Amount float64 `csv:"amount"`
}

// NewStageTransitionEvent creates a stage transition event.
func NewStageTransitionEvent(tick int32, age float64, from, to string) Event {
	return Event{Type: EventStageTransition, Tick: tick, Age: age, Subject: to, Detail: from}
}

// NewHomeoticSwapEvent creates a homeotic identity swap event.
func NewHomeoticSwapEvent(tick int32, age float64, target, donor string) Event {
	return Event{Type: EventHomeoticSwap, Tick: tick, Age: age, Subject: target, Detail: donor}
}

// NewGeneFlipEvent creates a gene expression flip event.
func NewGeneFlipEvent(tick int32, age float64, gene string, expressed bool) Event {
	amount := 0.0
	if expressed {
		amount = 1.0
	}
	return Event{Type: EventGeneFlip, Tick: tick, Age: age, Subject: gene, Amount: amount}
}

// NewMorphogenPulseEvent creates a morphogen activation event.
func NewMorphogenPulseEvent(tick int32, age float64, morphogen string, amount float64) Event {
	return Event{Type: EventMorphogenPulse, Tick: tick, Age: age, Subject: morphogen, Amount: amount}
}

// NewMatrixRebuildEvent creates an interaction matrix rebuild event.
func NewMatrixRebuildEvent(tick int32, age float64, expressedGenes int) Event {
	return Event{Type: EventMatrixRebuild, Tick: tick, Age: age, Amount: float64(expressedGenes)}
}

// NewBodyPlanSelectEvent creates a body-plan selection event.
func NewBodyPlanSelectEvent(tick int32, age float64, identity string) Event {
	return Event{Type: EventBodyPlanSelect, Tick: tick, Age: age, Subject: identity}
}

// NewResetEvent creates a simulation reset event.
func NewResetEvent(tick int32) Event {
	return Event{Type: EventReset, Tick: tick}
}
