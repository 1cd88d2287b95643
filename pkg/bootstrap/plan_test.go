package bootstrap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPlanMirrorsPhaseChain(t *testing.T) {
	cfg := DefaultConfig()
	plan := cfg.Plan()

	require.Len(t, plan, 5)

	p := New(cfg, &stubExecutor{}, testLogger())
	for i, phase := range p.Phases() {
		assert.Equal(t, phase.ID, plan[i].ID)
		assert.Equal(t, phase.Name, plan[i].Name)
		assert.Equal(t, phase.From, plan[i].From)
		assert.Equal(t, phase.To, plan[i].To)
		assert.NotEmpty(t, plan[i].Steps)
	}
}

func TestPlanSpellsOutCommands(t *testing.T) {
	plan := DefaultConfig().Plan()

	assert.Equal(t, "apt-get update", plan[0].Steps[0].Command)

	var partition string
	for _, step := range plan[1].Steps {
		if strings.HasPrefix(step.Command, "parted") {
			partition = step.Command
		}
	}
	assert.Contains(t, partition, "mklabel gpt")
	assert.Contains(t, partition, "mkpart primary ext4 512MiB 100%")
	assert.Contains(t, partition, "mkpart ESP fat32 1MiB 512MiB")
	assert.Contains(t, partition, "set 2 esp on")

	last := plan[4].Steps[len(plan[4].Steps)-1]
	assert.Equal(t, "poweroff", last.Command, "the plan ends with the power-off")
}

func TestPlanMarshalsToYAML(t *testing.T) {
	plan := DefaultConfig().Plan()

	out, err := yaml.Marshal(plan)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "id: packages")
	assert.Contains(t, text, "id: install")
	assert.Contains(t, text, "command: poweroff")
}
