package bootstrap

import (
	"context"
	"fmt"
)

// State is how far the procedure has gotten. Each phase advances the state
// one step down the chain; the first failure parks it at StateFailed, from
// which nothing runs.
type State string

const (
	StateInitial             State = "initial"
	StateBootstrapped        State = "bootstrapped"
	StatePartitioned         State = "partitioned"
	StateMounted             State = "mounted"
	StatePackageManagerReady State = "package-manager-ready"
	StateInstalled           State = "installed"
	StateFailed              State = "failed"
)

// Phase is one step of the procedure. From and To make the fail-fast chain
// auditable: a phase runs only when the procedure is exactly in From, and
// success moves it to To.
type Phase struct {
	ID   string
	Name string
	From State
	To   State
	Run  func(ctx context.Context) error
}

// PhaseError reports which phase failed. The wrapped cause carries the
// failing tool's exit status for the process exit code.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}
