package vault

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/statekit"
)

// Phase is a step of the install protocol.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseReading          Phase = "reading"
	PhaseResolving        Phase = "resolving"
	PhasePreparing        Phase = "preparing"
	PhaseFetchingManifest Phase = "fetching_manifest"
	PhaseRetrieving       Phase = "retrieving"
	PhaseRecording        Phase = "recording"
	PhaseInstalled        Phase = "installed"
	PhaseFailed           Phase = "failed"
)

// Events for the install state machine.
const (
	EventBegin   = "BEGIN"
	EventAdvance = "ADVANCE"
	EventFail    = "FAIL"
	EventReset   = "RESET"
)

// installContext is the statekit context of one install attempt.
type installContext struct {
	PluginID string
}

// lifecycle tracks one install attempt through its phases.
type lifecycle struct {
	interp *statekit.Interpreter[installContext]

	mu          sync.Mutex
	failedPhase Phase
	lastErr     error
	history     []Phase
}

func newLifecycle(id string) (*lifecycle, error) {
	lc := &lifecycle{}

	machine, err := statekit.NewMachine[installContext]("plugin-install").
		WithInitial("idle").
		WithContext(installContext{PluginID: id}).
		WithAction("recordFailure", func(_ *installContext, event statekit.Event) {
			if err, ok := event.Payload.(error); ok {
				lc.mu.Lock()
				lc.lastErr = err
				lc.mu.Unlock()
			}
		}).
		State("idle").
		On(EventBegin).Target("reading").Done().
		State("reading").
		On(EventAdvance).Target("resolving").
		On(EventFail).Target("failed").Done().
		State("resolving").
		On(EventAdvance).Target("preparing").
		On(EventFail).Target("failed").Done().
		State("preparing").
		On(EventAdvance).Target("fetching_manifest").
		On(EventFail).Target("failed").Done().
		State("fetching_manifest").
		On(EventAdvance).Target("retrieving").
		On(EventFail).Target("failed").Done().
		State("retrieving").
		On(EventAdvance).Target("recording").
		On(EventFail).Target("failed").Done().
		State("recording").
		On(EventAdvance).Target("installed").
		On(EventFail).Target("failed").Done().
		State("installed").
		On(EventReset).Target("idle").Done().
		State("failed").
		OnEntry("recordFailure").
		On(EventReset).Target("idle").Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build install state machine: %w", err)
	}

	lc.interp = statekit.NewInterpreter(machine)
	lc.interp.Start()
	return lc, nil
}

// Phase returns the current phase.
func (lc *lifecycle) Phase() Phase {
	return Phase(lc.interp.State().Value)
}

func (lc *lifecycle) send(event statekit.Event) Phase {
	lc.interp.Send(event)
	p := lc.Phase()
	lc.mu.Lock()
	lc.history = append(lc.history, p)
	lc.mu.Unlock()
	return p
}

// Begin moves from idle to reading.
func (lc *lifecycle) Begin() Phase {
	return lc.send(statekit.Event{Type: EventBegin})
}

// Advance moves to the next phase.
func (lc *lifecycle) Advance() Phase {
	return lc.send(statekit.Event{Type: EventAdvance})
}

// Fail records err against the current phase and moves to failed.
func (lc *lifecycle) Fail(err error) Phase {
	lc.mu.Lock()
	lc.failedPhase = lc.Phase()
	lc.mu.Unlock()
	return lc.send(statekit.Event{Type: EventFail, Payload: err})
}

// FailedPhase returns the phase that was active when Fail was called.
func (lc *lifecycle) FailedPhase() Phase {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.failedPhase
}

// Err returns the error carried into the failed state.
func (lc *lifecycle) Err() error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.lastErr
}

// History returns every phase entered after idle.
func (lc *lifecycle) History() []Phase {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return append([]Phase(nil), lc.history...)
}

// Stop releases the interpreter.
func (lc *lifecycle) Stop() {
	lc.interp.Stop()
}
