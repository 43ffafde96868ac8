package statebox

import "time"

// Operation names reported to observers and activity hooks.
const (
	OpInit    = "init"
	OpSet     = "set"
	OpMerge   = "merge"
	OpBatch   = "batch"
	OpUndo    = "undo"
	OpReset   = "reset"
	OpPersist = "persist"
	OpHydrate = "hydrate"
)

// OperationEvent describes one completed store operation.
type OperationEvent struct {
	Op            string
	Paths         []string
	Notifications int
	HistoryLen    int
	Duration      time.Duration
	OK            bool
}

// OperationObserver records store operations.
type OperationObserver interface {
	ObserveOperation(OperationEvent)
}

// OperationObserverFunc adapts a function to OperationObserver.
type OperationObserverFunc func(OperationEvent)

// ObserveOperation implements OperationObserver.
func (f OperationObserverFunc) ObserveOperation(event OperationEvent) {
	if f != nil {
		f(event)
	}
}

type noopObserver struct{}

func (noopObserver) ObserveOperation(OperationEvent) {}
