package nixos

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"
)

// Fragment is one configuration file shipped to the target.
type Fragment struct {
	Name    string
	Content string
}

// Fragments returns the fragments in install order. The top-level file goes
// last so a partially written directory never imports a missing sibling.
func Fragments() []Fragment {
	return []Fragment{
		{Name: "hardware-configuration.nix", Content: HardwareConfiguration},
		{Name: "scaleway.nix", Content: Scaleway},
		{Name: "configuration.nix", Content: Configuration},
	}
}

// Install writes every fragment into dir, creating the directory if needed.
// Each write is atomic and the installed bytes are exactly the embedded
// bytes; nothing is templated or rewritten on the way out.
func Install(dir string) error {
	return install(Fragments(), dir)
}

// InstallFrom installs the fragment set from srcDir instead of the embedded
// copies, for runs that carry the fragments beside the binary. All three
// files must be present; their bytes are shipped untouched.
func InstallFrom(srcDir, dir string) error {
	fragments := make([]Fragment, 0, 3)
	for _, f := range Fragments() {
		data, err := os.ReadFile(filepath.Join(srcDir, f.Name))
		if err != nil {
			return fmt.Errorf("reading fragment %s: %w", f.Name, err)
		}
		fragments = append(fragments, Fragment{Name: f.Name, Content: string(data)})
	}
	return install(fragments, dir)
}

func install(fragments []Fragment, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	for _, f := range fragments {
		path := filepath.Join(dir, f.Name)
		if err := renameio.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}
	return nil
}
