package nixos

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Severity represents the severity of a verification issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue represents a problem found in an embedded fragment.
type Issue struct {
	Fragment string   `json:"fragment"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Result holds all verification results.
type Result struct {
	Issues []Issue `json:"issues"`
}

// HasErrors returns true if there are any error-level issues.
func (r *Result) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

var (
	relativeImportRe = regexp.MustCompile(`\./[\w-]+\.nix`)
	stateVersionRe   = regexp.MustCompile(`system\.stateVersion\s*=\s*"[^"]+"\s*;`)
	maxJobsRe        = regexp.MustCompile(`nix\.maxJobs\s*=\s*\d+\s*;`)
)

// Verify checks the embedded fragment set against the contract the rest of
// the procedure assumes: three fragments, the top-level one importing
// exactly its two siblings, and the hardware fragment mounting the two
// labels the filesystem phase creates.
func Verify() *Result {
	return verifyFragments(Fragments())
}

func verifyFragments(fragments []Fragment) *Result {
	result := &Result{Issues: []Issue{}}

	byName := make(map[string]string, len(fragments))
	for _, f := range fragments {
		byName[f.Name] = f.Content
		if f.Content == "" {
			result.Issues = append(result.Issues, Issue{
				Fragment: f.Name,
				Message:  "fragment is empty",
				Severity: SeverityError,
			})
		} else if !strings.HasSuffix(f.Content, "\n") {
			result.Issues = append(result.Issues, Issue{
				Fragment: f.Name,
				Message:  "fragment does not end with a newline",
				Severity: SeverityWarning,
			})
		}
	}

	expected := []string{"configuration.nix", "hardware-configuration.nix", "scaleway.nix"}
	for _, name := range expected {
		if _, ok := byName[name]; !ok {
			result.Issues = append(result.Issues, Issue{
				Fragment: name,
				Message:  "fragment is missing",
				Severity: SeverityError,
			})
		}
	}
	if len(fragments) != len(expected) {
		result.Issues = append(result.Issues, Issue{
			Fragment: "",
			Message:  fmt.Sprintf("expected %d fragments, found %d", len(expected), len(fragments)),
			Severity: SeverityError,
		})
	}

	if top, ok := byName["configuration.nix"]; ok {
		result.Issues = append(result.Issues, verifyTopLevel(top)...)
	}
	if hw, ok := byName["hardware-configuration.nix"]; ok {
		result.Issues = append(result.Issues, verifyHardware(hw)...)
	}
	if scw, ok := byName["scaleway.nix"]; ok {
		result.Issues = append(result.Issues, verifyScaleway(scw)...)
	}

	return result
}

// verifyTopLevel checks that configuration.nix imports exactly its two
// siblings and declares the state version.
func verifyTopLevel(content string) []Issue {
	var issues []Issue

	imports := relativeImportRe.FindAllString(content, -1)
	sort.Strings(imports)
	want := []string{"./hardware-configuration.nix", "./scaleway.nix"}
	if strings.Join(imports, " ") != strings.Join(want, " ") {
		issues = append(issues, Issue{
			Fragment: "configuration.nix",
			Message:  fmt.Sprintf("must import exactly %v, found %v", want, imports),
			Severity: SeverityError,
		})
	}

	if !stateVersionRe.MatchString(content) {
		issues = append(issues, Issue{
			Fragment: "configuration.nix",
			Message:  "missing system.stateVersion",
			Severity: SeverityError,
		})
	}

	return issues
}

// verifyHardware checks the kernel module lists and the two by-label mounts.
func verifyHardware(content string) []Issue {
	var issues []Issue

	required := map[string]string{
		"boot.initrd.availableKernelModules": "missing initrd kernel module list",
		"boot.kernelModules":                 "missing kernel module list",
		`fileSystems."/"`:                    "missing root filesystem declaration",
		`fileSystems."/boot"`:                "missing boot filesystem declaration",
		"/dev/disk/by-label/nixos":           "root filesystem must mount by the nixos label",
		"/dev/disk/by-label/boot":            "boot filesystem must mount by the boot label",
		`"ext4"`:                             "root filesystem type must be ext4",
		`"vfat"`:                             "boot filesystem type must be vfat",
	}
	for needle, message := range required {
		if !strings.Contains(content, needle) {
			issues = append(issues, Issue{
				Fragment: "hardware-configuration.nix",
				Message:  message,
				Severity: SeverityError,
			})
		}
	}

	return issues
}

// verifyScaleway checks the guest profile import and the parallelism hint.
func verifyScaleway(content string) []Issue {
	var issues []Issue

	if !strings.Contains(content, "qemu-guest.nix") {
		issues = append(issues, Issue{
			Fragment: "scaleway.nix",
			Message:  "missing QEMU guest profile import",
			Severity: SeverityError,
		})
	}
	if !maxJobsRe.MatchString(content) {
		issues = append(issues, Issue{
			Fragment: "scaleway.nix",
			Message:  "missing nix.maxJobs",
			Severity: SeverityError,
		})
	}

	return issues
}
