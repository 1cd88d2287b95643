// Package doctor checks that the host carries the tools the bootstrap
// procedure shells out to.
package doctor

// CheckStatus represents the status of a dependency check.
type CheckStatus int

const (
	// StatusOK indicates the tool is installed and working.
	StatusOK CheckStatus = iota
	// StatusMissing indicates the tool is not installed.
	StatusMissing
	// StatusError indicates an error occurred during the check.
	StatusError
)

// String returns the string representation of the status.
func (s CheckStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMissing:
		return "missing"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Check represents a single dependency check result.
type Check struct {
	ID          string      // Unique identifier, e.g. "parted"
	Name        string      // Display name
	Description string      // What this tool does in the procedure
	Status      CheckStatus // Current status
	Message     string      // Version info or error
	FixCommand  *FixCommand // How to fix if missing (nil if not fixable)
}

// FixCommand describes how to fix a missing dependency.
type FixCommand struct {
	Description string // Human-readable description of what the fix does
	Command     string // Shell command to run
	Sudo        bool   // Whether the command requires sudo
}

// CheckGroup represents a group of related dependency checks.
type CheckGroup struct {
	ID          string  // Unique identifier
	Name        string  // Display name
	Description string  // What this group is for
	Checks      []Check // Individual checks in this group
}

// GroupID constants for check groups.
const (
	GroupPackages = "packages"
	GroupDisk     = "disk"
	GroupSystem   = "system"
)

// CheckID constants for individual checks.
const (
	IDAptGet   = "apt-get"
	IDParted   = "parted"
	IDUdevadm  = "udevadm"
	IDMkfsExt4 = "mkfs.ext4"
	IDMkfsFat  = "mkfs.fat"
	IDMount    = "mount"
	IDPoweroff = "poweroff"
)

// GroupDefinition declares a group and the checks it contains.
type GroupDefinition struct {
	ID          string
	Name        string
	Description string
	CheckIDs    []string
}

// Groups returns the group definitions in display order.
func Groups() []GroupDefinition {
	return []GroupDefinition{
		{
			ID:          GroupPackages,
			Name:        "Package Bootstrap",
			Description: "Host package manager that installs the disk tools",
			CheckIDs:    []string{IDAptGet},
		},
		{
			ID:          GroupDisk,
			Name:        "Disk Tools",
			Description: "Partitioning, filesystem creation, and mounting",
			CheckIDs:    []string{IDParted, IDUdevadm, IDMkfsExt4, IDMkfsFat, IDMount},
		},
		{
			ID:          GroupSystem,
			Name:        "System",
			Description: "Shutdown control after installation",
			CheckIDs:    []string{IDPoweroff},
		},
	}
}

// GetGroupDefinition returns the definition for a group ID.
func GetGroupDefinition(groupID string) (GroupDefinition, bool) {
	for _, def := range Groups() {
		if def.ID == groupID {
			return def, true
		}
	}
	return GroupDefinition{}, false
}
