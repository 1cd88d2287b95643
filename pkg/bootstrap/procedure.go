package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/schlarpc/nixos-scaleway/pkg/executor"
)

// Procedure runs the five provisioning phases in strict sequence.
type Procedure struct {
	cfg    Config
	exec   executor.Executor
	log    *logrus.Entry
	client *http.Client
	state  State
}

// New returns a procedure in the initial state.
func New(cfg Config, exec executor.Executor, log *logrus.Entry) *Procedure {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Procedure{
		cfg:   cfg,
		exec:  exec,
		log:   log,
		state: StateInitial,
	}
}

// SetHTTPClient overrides the client used for the installer fetch.
func (p *Procedure) SetHTTPClient(client *http.Client) {
	p.client = client
}

// State returns the state the procedure has reached.
func (p *Procedure) State() State {
	return p.state
}

// phaseDefs is the single definition of the chain; Phases and Config.Plan
// both render it.
var phaseDefs = []struct {
	ID   string
	Name string
	From State
	To   State
}{
	{"packages", "Package bootstrap", StateInitial, StateBootstrapped},
	{"partition", "Disk layout", StateBootstrapped, StatePartitioned},
	{"filesystems", "Filesystem creation and mount", StatePartitioned, StateMounted},
	{"package-manager", "Privilege and package manager bootstrap", StateMounted, StatePackageManagerReady},
	{"install", "System installation", StatePackageManagerReady, StateInstalled},
}

// Phases returns the ordered phase list. The chain of From and To states is
// the whole control flow: there are no other paths through the procedure.
func (p *Procedure) Phases() []Phase {
	runners := []func(ctx context.Context) error{
		p.installPackages,
		p.partitionDevice,
		p.makeFilesystems,
		p.bootstrapPackageManager,
		p.installSystem,
	}

	phases := make([]Phase, len(phaseDefs))
	for i, def := range phaseDefs {
		phases[i] = Phase{
			ID:   def.ID,
			Name: def.Name,
			From: def.From,
			To:   def.To,
			Run:  runners[i],
		}
	}
	return phases
}

// PhaseResult records one phase's outcome.
type PhaseResult struct {
	ID       string
	Duration time.Duration
	Err      error
}

// Report records what ran and how long it took.
type Report struct {
	Started  time.Time
	Finished time.Time
	Phases   []PhaseResult
}

// Run executes the phases in order, stopping at the first failure. The
// returned error is a *PhaseError naming the phase; nothing after a failed
// phase executes, including the final power-off.
func (p *Procedure) Run(ctx context.Context) (*Report, error) {
	report := &Report{Started: time.Now()}
	defer func() { report.Finished = time.Now() }()

	for _, phase := range p.Phases() {
		if p.state != phase.From {
			err := fmt.Errorf("requires state %q, but procedure is in %q", phase.From, p.state)
			p.state = StateFailed
			return report, &PhaseError{Phase: phase.ID, Err: err}
		}

		p.log.Infof("phase %s: %s", phase.ID, phase.Name)
		start := time.Now()

		if err := phase.Run(ctx); err != nil {
			p.state = StateFailed
			report.Phases = append(report.Phases, PhaseResult{
				ID:       phase.ID,
				Duration: time.Since(start),
				Err:      err,
			})
			return report, &PhaseError{Phase: phase.ID, Err: err}
		}

		p.state = phase.To
		report.Phases = append(report.Phases, PhaseResult{
			ID:       phase.ID,
			Duration: time.Since(start),
		})
	}

	return report, nil
}
