package compliance

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Engine lifecycle states. One scan walks them in order; any stage may fail.
const (
	StageIdle       = "idle"
	StageLoading    = "loading"
	StageBuilding   = "building"
	StageScanning   = "scanning"
	StageEvaluating = "evaluating"
	StageReporting  = "reporting"
	StageDone       = "done"
	StageFailed     = "failed"
)

// Lifecycle events.
const (
	EventLoad     = "load"
	EventBuild    = "build"
	EventScan     = "scan"
	EventEvaluate = "evaluate"
	EventReport   = "report"
	EventFinish   = "finish"
	EventFail     = "fail"
	EventReset    = "reset"
)

// LifecycleContext carries the scan root for diagnostics.
type LifecycleContext struct {
	Root string
}

// Lifecycle tracks the stage of a single engine run.
type Lifecycle struct {
	interpreter *statekit.Interpreter[LifecycleContext]
}

// NewLifecycle builds the engine state machine in the idle state.
func NewLifecycle(root string) (*Lifecycle, error) {
	builder := statekit.NewMachine[LifecycleContext]("scan-lifecycle").
		WithInitial(statekit.StateID(StageIdle)).
		WithContext(LifecycleContext{Root: root})

	builder.State(StageIdle).
		On(EventLoad).Target(StageLoading).
		On(EventFail).Target(StageFailed).
		Done()

	builder.State(StageLoading).
		On(EventBuild).Target(StageBuilding).
		On(EventFail).Target(StageFailed).
		Done()

	builder.State(StageBuilding).
		On(EventScan).Target(StageScanning).
		On(EventFail).Target(StageFailed).
		Done()

	builder.State(StageScanning).
		On(EventEvaluate).Target(StageEvaluating).
		On(EventFail).Target(StageFailed).
		Done()

	builder.State(StageEvaluating).
		On(EventReport).Target(StageReporting).
		Done()

	builder.State(StageReporting).
		On(EventFinish).Target(StageDone).
		Done()

	builder.State(StageDone).
		On(EventReset).Target(StageIdle).
		Done()

	builder.State(StageFailed).
		On(EventReset).Target(StageIdle).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build lifecycle machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &Lifecycle{interpreter: interpreter}, nil
}

// Advance sends event and errors when the current stage does not accept it.
func (l *Lifecycle) Advance(event string) error {
	before := l.Stage()
	l.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if l.Stage() == before {
		return fmt.Errorf("event %q is not allowed in stage %q", event, before)
	}
	return nil
}

// Stage returns the current stage name.
func (l *Lifecycle) Stage() string {
	return string(l.interpreter.State().Value)
}

// Failed reports whether the run ended in the failed stage.
func (l *Lifecycle) Failed() bool {
	return l.Stage() == StageFailed
}
