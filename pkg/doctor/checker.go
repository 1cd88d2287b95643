package doctor

import (
	"context"
	"sync"

	"github.com/schlarpc/nixos-scaleway/pkg/executor"
)

// Checker runs dependency checks through an executor.
type Checker struct {
	exec executor.Executor
}

// NewChecker creates a checker.
func NewChecker(exec executor.Executor) *Checker {
	return &Checker{exec: exec}
}

// CheckAll runs all checks and returns groups with results.
func (c *Checker) CheckAll(ctx context.Context) []CheckGroup {
	var result []CheckGroup
	for _, def := range Groups() {
		result = append(result, c.CheckGroup(ctx, def.ID))
	}
	return result
}

// CheckAllAsync runs all groups concurrently and returns them in display
// order.
func (c *Checker) CheckAllAsync(ctx context.Context) []CheckGroup {
	groups := Groups()
	result := make([]CheckGroup, len(groups))
	var wg sync.WaitGroup

	for i, def := range groups {
		wg.Add(1)
		go func(idx int, id string) {
			defer wg.Done()
			result[idx] = c.CheckGroup(ctx, id)
		}(i, def.ID)
	}

	wg.Wait()
	return result
}

// CheckGroup runs all checks for a specific group.
func (c *Checker) CheckGroup(ctx context.Context, groupID string) CheckGroup {
	def, ok := GetGroupDefinition(groupID)
	if !ok {
		return CheckGroup{
			ID:   groupID,
			Name: "Unknown",
		}
	}

	group := CheckGroup{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
	}
	for _, checkID := range def.CheckIDs {
		group.Checks = append(group.Checks, c.runCheck(ctx, checkID))
	}
	return group
}

// runCheck runs a specific check by ID.
func (c *Checker) runCheck(ctx context.Context, checkID string) Check {
	switch checkID {
	case IDAptGet:
		return CheckAptGet(ctx, c.exec)
	case IDParted:
		return CheckParted(ctx, c.exec)
	case IDUdevadm:
		return CheckUdevadm(ctx, c.exec)
	case IDMkfsExt4:
		return CheckMkfsExt4(ctx, c.exec)
	case IDMkfsFat:
		return CheckMkfsFat(ctx, c.exec)
	case IDMount:
		return CheckMount(ctx, c.exec)
	case IDPoweroff:
		return CheckPoweroff(ctx, c.exec)
	default:
		return Check{
			ID:      checkID,
			Name:    checkID,
			Status:  StatusError,
			Message: "unknown check",
		}
	}
}

// GetCheck runs a single check by ID.
func (c *Checker) GetCheck(ctx context.Context, checkID string) Check {
	return c.runCheck(ctx, checkID)
}

// Summary represents an overall health summary.
type Summary struct {
	Total   int
	OK      int
	Missing int
	Errors  int
}

// GetSummary returns a summary of check results.
func (c *Checker) GetSummary(groups []CheckGroup) Summary {
	var summary Summary
	for _, group := range groups {
		for _, check := range group.Checks {
			summary.Total++
			switch check.Status {
			case StatusOK:
				summary.OK++
			case StatusMissing:
				summary.Missing++
			case StatusError:
				summary.Errors++
			}
		}
	}
	return summary
}

// HasIssues returns true if any checks have issues.
func (c *Checker) HasIssues(groups []CheckGroup) bool {
	summary := c.GetSummary(groups)
	return summary.Missing > 0 || summary.Errors > 0
}
