package bootstrap

import (
	"fmt"

	"github.com/schlarpc/nixos-scaleway/pkg/executor"
	"github.com/schlarpc/nixos-scaleway/pkg/nix"
)

// PlanStep is one step of a phase as the plan renders it: an external
// command, or an action the procedure performs in-process.
type PlanStep struct {
	Command string `yaml:"command,omitempty" json:"command,omitempty"`
	Action  string `yaml:"action,omitempty" json:"action,omitempty"`
}

// PhasePlan describes one phase without running anything.
type PhasePlan struct {
	ID    string     `yaml:"id" json:"id"`
	Name  string     `yaml:"name" json:"name"`
	From  State      `yaml:"from" json:"from"`
	To    State      `yaml:"to" json:"to"`
	Steps []PlanStep `yaml:"steps" json:"steps"`
}

func commandSteps(cmds []executor.Command) []PlanStep {
	steps := make([]PlanStep, 0, len(cmds))
	for _, cmd := range cmds {
		steps = append(steps, PlanStep{Command: cmd.String()})
	}
	return steps
}

func actionStep(format string, args ...interface{}) PlanStep {
	return PlanStep{Action: fmt.Sprintf(format, args...)}
}

// Plan renders the whole procedure as data. The command strings come from
// the same builders the phases execute, so the plan cannot drift from the
// run.
func (c Config) Plan() []PhasePlan {
	fragmentSource := "embedded fragments"
	if c.FragmentsDir != "" {
		fragmentSource = c.FragmentsDir
	}

	steps := [][]PlanStep{
		commandSteps(c.packageCommands()),
		commandSteps(c.partitionCommands()),
		append(append(
			commandSteps(c.mkfsCommands()),
			actionStep("resolve labels nixos and boot under %s", c.ByLabelDir)),
			commandSteps(c.mountCommands())...),
		append(append(
			commandSteps(c.principalCommands()),
			actionStep("write sudoers policy %s", c.SudoersFile),
			actionStep("fetch %s to %s", c.InstallerURL, c.InstallerPath),
			PlanStep{Command: nix.InstallScript(c.InstallerPath).String()}),
			commandSteps(c.channelCommands())...),
		append(append(
			[]PlanStep{actionStep("copy %s to %s", fragmentSource, c.ConfigDir())},
			commandSteps(c.closureCommands())...),
			actionStep("sync"),
			PlanStep{Command: powerOffCommand().String()}),
	}

	plans := make([]PhasePlan, len(phaseDefs))
	for i, def := range phaseDefs {
		plans[i] = PhasePlan{
			ID:    def.ID,
			Name:  def.Name,
			From:  def.From,
			To:    def.To,
			Steps: steps[i],
		}
	}
	return plans
}
