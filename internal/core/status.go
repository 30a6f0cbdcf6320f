package core

// Status is the position of an order in the production pipeline.
// It only moves forward along pipeline:
//
//	Pending → Fabric Purchased → Printing and Dyeing Sent → Printing and Dyeing Received
//	  → Cloth Cutting → Stitching → Extra Work → Finishing and Packing → Dispatched
type Status string

const (
	StatusPending          Status = "Pending"
	StatusFabricPurchased  Status = "Fabric Purchased"
	StatusDyeingSent       Status = "Printing and Dyeing Sent"
	StatusDyeingReceived   Status = "Printing and Dyeing Received"
	StatusClothCutting     Status = "Cloth Cutting"
	StatusStitching        Status = "Stitching"
	StatusExtraWork        Status = "Extra Work"
	StatusFinishingPacking Status = "Finishing and Packing"
	StatusDispatched       Status = "Dispatched"
)

var pipeline = []Status{
	StatusPending,
	StatusFabricPurchased,
	StatusDyeingSent,
	StatusDyeingReceived,
	StatusClothCutting,
	StatusStitching,
	StatusExtraWork,
	StatusFinishingPacking,
	StatusDispatched,
}

// Statuses returns every status in pipeline order.
func Statuses() []Status {
	out := make([]Status, len(pipeline))
	copy(out, pipeline)
	return out
}

// Position returns the 1-based position of s in the pipeline, or 0 if s is unknown.
func (s Status) Position() int {
	for i, p := range pipeline {
		if p == s {
			return i + 1
		}
	}
	return 0
}

// IsValid reports whether s is one of the pipeline statuses.
func (s Status) IsValid() bool {
	return s.Position() > 0
}

// Before reports whether s comes strictly earlier in the pipeline than other.
// Unknown statuses are never before anything.
func (s Status) Before(other Status) bool {
	a, b := s.Position(), other.Position()
	return a > 0 && b > 0 && a < b
}

// IsTerminal reports whether no further stage can be recorded.
func (s Status) IsTerminal() bool {
	return s == StatusDispatched
}

// InProgress reports whether the order has left Pending but is not yet dispatched.
func (s Status) InProgress() bool {
	return s.IsValid() && s != StatusPending && s != StatusDispatched
}

// StageKind identifies one of the stage record variants.
type StageKind string

const (
	StageFabricPurchase      StageKind = "fabric-purchase"
	StageDyeingSent          StageKind = "dyeing-sent"
	StageDyeingReceived      StageKind = "dyeing-received"
	StageClothCutting        StageKind = "cloth-cutting"
	StageStitching           StageKind = "stitching"
	StageExtraWork           StageKind = "extra-work"
	StageFinishingAndPacking StageKind = "finishing-and-packing"
	StageDispatch            StageKind = "dispatch"
)

// Transition is one row of the stage transition table.
//
// A stage record may be created while the order status is any of Allowed.
// Creating it moves the order from From to To; when the order is already
// past From (only possible for multi-valued stages) the status is left alone.
type Transition struct {
	Stage   StageKind
	Allowed []Status
	From    Status
	To      Status
	Multi   bool
	Table   string
}

// transitions is the single source of truth for the order state machine.
// The order matches the pipeline.
var transitions = []Transition{
	{Stage: StageFabricPurchase, Allowed: []Status{StatusPending}, From: StatusPending, To: StatusFabricPurchased, Table: "fabric_purchases"},
	{Stage: StageDyeingSent, Allowed: []Status{StatusFabricPurchased}, From: StatusFabricPurchased, To: StatusDyeingSent, Table: "dyeing_sent"},
	{Stage: StageDyeingReceived, Allowed: []Status{StatusDyeingSent}, From: StatusDyeingSent, To: StatusDyeingReceived, Table: "dyeing_received"},
	{Stage: StageClothCutting, Allowed: []Status{StatusDyeingReceived}, From: StatusDyeingReceived, To: StatusClothCutting, Table: "cloth_cuttings"},
	{Stage: StageStitching, Allowed: []Status{StatusClothCutting}, From: StatusClothCutting, To: StatusStitching, Table: "stitchings"},
	{Stage: StageExtraWork, Allowed: []Status{StatusStitching, StatusExtraWork}, From: StatusStitching, To: StatusExtraWork, Multi: true, Table: "extra_works"},
	{Stage: StageFinishingAndPacking, Allowed: []Status{StatusExtraWork}, From: StatusExtraWork, To: StatusFinishingPacking, Table: "finishing_packings"},
	{Stage: StageDispatch, Allowed: []Status{StatusFinishingPacking}, From: StatusFinishingPacking, To: StatusDispatched, Table: "dispatches"},
}

// Transitions returns a copy of the transition table in pipeline order.
func Transitions() []Transition {
	out := make([]Transition, len(transitions))
	copy(out, transitions)
	return out
}

// TransitionFor looks up the table row for a stage kind.
func TransitionFor(stage StageKind) (Transition, bool) {
	for _, t := range transitions {
		if t.Stage == stage {
			return t, true
		}
	}
	return Transition{}, false
}

// ParseStageKind validates a stage kind coming from an adapter.
func ParseStageKind(s string) (StageKind, error) {
	if _, ok := TransitionFor(StageKind(s)); !ok {
		return "", NewValidationError("stage", "unknown stage kind %q", s)
	}
	return StageKind(s), nil
}

// Permits reports whether a record of this stage may be created at status s.
func (t Transition) Permits(s Status) bool {
	for _, a := range t.Allowed {
		if a == s {
			return true
		}
	}
	return false
}

// CheckSequence returns a *SequenceError when stage cannot be recorded at current.
func CheckSequence(stage StageKind, current Status) error {
	t, ok := TransitionFor(stage)
	if !ok {
		return NewValidationError("stage", "unknown stage kind %q", string(stage))
	}
	if !t.Permits(current) {
		return &SequenceError{Stage: stage, Current: current, Required: t.Allowed}
	}
	return nil
}

// NextStages lists the stages a caller may offer for an order at status s.
func NextStages(s Status) []StageKind {
	var out []StageKind
	for _, t := range transitions {
		if t.Permits(s) {
			out = append(out, t.Stage)
		}
	}
	return out
}
