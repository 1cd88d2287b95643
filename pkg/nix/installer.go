package nix

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/renameio"
)

// FetchInstaller downloads the package-manager install script from url and
// writes it to dest, executable and atomically. Plain HTTP with no integrity
// check, exactly as the pinned release's installation instructions do it.
func FetchInstaller(ctx context.Context, client *http.Client, url, dest string) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building installer request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching installer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching installer: unexpected status %s", resp.Status)
	}

	script, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading installer: %w", err)
	}

	if err := renameio.WriteFile(dest, script, 0o755); err != nil {
		return fmt.Errorf("writing installer to %s: %w", dest, err)
	}
	return nil
}
