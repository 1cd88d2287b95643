package doctor

import (
	"context"
	"fmt"

	"github.com/schlarpc/nixos-scaleway/pkg/executor"
)

// Fixer runs fix commands for missing tools.
type Fixer struct {
	exec executor.Executor
}

// NewFixer creates a fixer.
func NewFixer(exec executor.Executor) *Fixer {
	return &Fixer{exec: exec}
}

// RunFix executes a fix command through the shell.
func (f *Fixer) RunFix(ctx context.Context, fix *FixCommand) error {
	if fix == nil {
		return fmt.Errorf("no fix command available")
	}

	cmd := executor.Command{Path: "sh", Args: []string{"-c", fix.Command}}
	if err := f.exec.Run(ctx, cmd); err != nil {
		return fmt.Errorf("fix failed: %w", err)
	}
	return nil
}

// FixAll runs the fix for every missing check that has one. It stops on the
// first failure.
func (f *Fixer) FixAll(ctx context.Context, groups []CheckGroup) (int, error) {
	fixed := 0
	for _, group := range groups {
		for _, check := range group.Checks {
			if check.Status != StatusMissing || check.FixCommand == nil {
				continue
			}
			if err := f.RunFix(ctx, check.FixCommand); err != nil {
				return fixed, fmt.Errorf("%s: %w", check.ID, err)
			}
			fixed++
		}
	}
	return fixed, nil
}
