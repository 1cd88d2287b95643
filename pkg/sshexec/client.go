package sshexec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/sync/errgroup"
)

// Dialer connects to a freshly booted server, retrying until sshd answers.
type Dialer struct {
	User     string
	Signer   ssh.Signer
	Attempts int
	Interval time.Duration
	Timeout  time.Duration
}

// NewDialer returns a dialer for root with the run's key pair.
func NewDialer(key *KeyPair) *Dialer {
	return &Dialer{
		User:     "root",
		Signer:   key.Signer,
		Attempts: 30,
		Interval: time.Second,
		Timeout:  5 * time.Second,
	}
}

func (d *Dialer) attempts() int {
	if d.Attempts > 0 {
		return d.Attempts
	}
	return 30
}

func (d *Dialer) interval() time.Duration {
	if d.Interval > 0 {
		return d.Interval
	}
	return time.Second
}

// Dial connects to addr (host:port), retrying while the server boots. The
// host key is not checked: the server was created seconds ago with a
// single-use key and is thrown away after the run.
func (d *Dialer) Dial(ctx context.Context, addr string) (*Client, error) {
	config := &ssh.ClientConfig{
		User:            d.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(d.Signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         d.Timeout,
	}

	var lastErr error
	for attempt := 0; attempt < d.attempts(); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(d.interval()):
			}
		}
		client, err := ssh.Dial("tcp", addr, config)
		if err == nil {
			return &Client{ssh: client}, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("ssh to %s failed after %d attempts: %w", addr, d.attempts(), lastErr)
}

// Client is an established SSH connection to the builder server.
type Client struct {
	ssh *ssh.Client
}

// Close tears down the connection.
func (c *Client) Close() error {
	return c.ssh.Close()
}

// Upload writes content to path on the remote host with the given mode.
func (c *Client) Upload(path string, content []byte, mode os.FileMode) error {
	client, err := sftp.NewClient(c.ssh)
	if err != nil {
		return fmt.Errorf("failed to open sftp: %w", err)
	}
	defer client.Close()

	f, err := client.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := client.Chmod(path, mode); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	return nil
}

// Stream runs a command and hands every non-empty output line, stdout and
// stderr interleaved and whitespace-flattened, to handle. It returns the
// command's exit status; -1 means the connection went away before a status
// arrived, which is what a successful power-off looks like.
func (c *Client) Stream(cmd string, handle func(line string)) (int, error) {
	session, err := c.ssh.NewSession()
	if err != nil {
		return -1, fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close()

	stdout, err := session.StdoutPipe()
	if err != nil {
		return -1, err
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		return -1, err
	}

	if err := session.Start(cmd); err != nil {
		return -1, fmt.Errorf("failed to start %q: %w", cmd, err)
	}

	lines := make(chan string)
	var readers errgroup.Group
	for _, stream := range []io.Reader{stdout, stderr} {
		readers.Go(func() error {
			scanner := bufio.NewScanner(stream)
			for scanner.Scan() {
				lines <- scanner.Text()
			}
			return scanner.Err()
		})
	}
	go func() {
		_ = readers.Wait()
		close(lines)
	}()

	for line := range lines {
		if flat := FlattenWhitespace(line); flat != "" {
			handle(flat)
		}
	}
	if err := readers.Wait(); err != nil {
		_ = session.Wait()
		return -1, fmt.Errorf("failed to read output: %w", err)
	}

	err = session.Wait()
	var exitErr *ssh.ExitError
	var missingErr *ssh.ExitMissingError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr):
		return exitErr.ExitStatus(), nil
	case errors.As(err, &missingErr):
		return -1, nil
	default:
		return -1, err
	}
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// FlattenWhitespace collapses whitespace runs to single spaces and trims the
// ends; blank lines become empty strings.
func FlattenWhitespace(line string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(line, " "))
}
