// Package builder drives one image build end to end: boot a throwaway
// Ubuntu server, run the bootstrap payload on it, and snapshot the second
// volume into a bootable NixOS image.
package builder

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/schlarpc/nixos-scaleway/pkg/scaleway"
	"github.com/schlarpc/nixos-scaleway/pkg/sshexec"
)

// API is the slice of the Scaleway client the builder uses.
type API interface {
	DefaultOrganization(ctx context.Context) (string, error)
	MarketplaceImages(ctx context.Context) ([]scaleway.MarketplaceImage, error)
	CreateServer(ctx context.Context, zone string, spec scaleway.ServerSpec) (*scaleway.Server, error)
	ServerAction(ctx context.Context, zone, id, action string) error
	WaitServerState(ctx context.Context, zone, id, state string) (*scaleway.Server, error)
	CreateSnapshot(ctx context.Context, zone string, spec scaleway.SnapshotSpec) (*scaleway.Snapshot, error)
	WaitSnapshotState(ctx context.Context, zone, id, state string) (*scaleway.Snapshot, error)
	CreateImage(ctx context.Context, zone string, spec scaleway.ImageSpec) (*scaleway.Image, error)
}

// Remote runs commands on the booted server. sshexec.Client implements it.
type Remote interface {
	Upload(path string, content []byte, mode os.FileMode) error
	Stream(cmd string, handle func(line string)) (int, error)
	Close() error
}

// DialFunc connects to the booted server as root.
type DialFunc func(ctx context.Context, addr string, key *sshexec.KeyPair) (Remote, error)

func dialSSH(ctx context.Context, addr string, key *sshexec.KeyPair) (Remote, error) {
	return sshexec.NewDialer(key).Dial(ctx, addr)
}

// Options configures one build.
type Options struct {
	Zone            string // e.g. fr-par-1
	InstanceType    string // commercial type of the build server
	BootstrapDiskGB int    // boot disk size in decimal gigabytes
	ImagePrefix     string // image names become <prefix>-<timestamp>
	ServerName      string // name of the throwaway build server
	BootstrapBinary string // payload path; empty means the running executable
	KeepOnFailure   bool   // keep the server around for debugging
}

// DefaultOptions returns the standard build parameters.
func DefaultOptions() Options {
	return Options{
		Zone:            "fr-par-1",
		InstanceType:    "DEV1-M",
		BootstrapDiskGB: 20,
		ImagePrefix:     "nixos",
		ServerName:      "nixos-image-builder",
	}
}

// Result is the outcome of a build.
type Result struct {
	Success    bool
	ServerID   string
	SnapshotID string
	ImageID    string
	ImageName  string
	Duration   time.Duration
	Logs       []string // bootstrap output lines
	Error      error
}

const (
	remotePayloadPath = "/tmp/nixos-bootstrap"
	nixosVolumeSize   = 20_000_000_000
	bytesPerGB        = 1_000_000_000
)

// Builder owns an API client and a way to reach booted servers.
type Builder struct {
	api  API
	dial DialFunc
	log  *logrus.Entry
	now  func() time.Time
}

// New creates a builder on top of an API client.
func New(api API, log *logrus.Entry) *Builder {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Builder{
		api:  api,
		dial: dialSSH,
		log:  log,
		now:  time.Now,
	}
}

// Validate checks the options before anything is provisioned.
func (b *Builder) Validate(opts Options) error {
	if opts.Zone == "" {
		return fmt.Errorf("zone is required")
	}
	if opts.InstanceType == "" {
		return fmt.Errorf("instance type is required")
	}
	if opts.BootstrapDiskGB <= 0 {
		return fmt.Errorf("bootstrap disk size must be positive")
	}
	if opts.ImagePrefix == "" {
		return fmt.Errorf("image prefix is required")
	}
	if opts.ServerName == "" {
		return fmt.Errorf("server name is required")
	}
	return nil
}

// imageName stamps the image with the build time, matching how the era
// console sorted images by name.
func (b *Builder) imageName(prefix string) string {
	return prefix + "-" + b.now().UTC().Format("2006-01-02T15:04:05")
}

// readPayload loads the binary that will run on the build server. Release
// builds ship a linux/amd64 binary, so the default is the running
// executable.
func readPayload(opts Options) ([]byte, error) {
	path := opts.BootstrapBinary
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to locate own binary: %w", err)
		}
		path = exe
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bootstrap payload: %w", err)
	}
	return payload, nil
}

// Build runs the whole pipeline and reports progress along the way. On
// failure the build server is terminated unless KeepOnFailure is set.
func (b *Builder) Build(ctx context.Context, opts Options, progress ProgressCallback) (*Result, error) {
	if progress == nil {
		progress = NoOpProgress
	}
	result := &Result{}
	start := time.Now()

	fail := func(err error) (*Result, error) {
		progress(NewErrorEvent(err.Error()))
		result.Success = false
		result.Error = err
		result.Duration = time.Since(start)
		b.cleanup(ctx, result, opts)
		return result, err
	}

	progress(NewProgressEvent(StageValidate, "Validating build options...", 2))
	if err := b.Validate(opts); err != nil {
		return fail(err)
	}
	payload, err := readPayload(opts)
	if err != nil {
		return fail(err)
	}

	progress(NewProgressEvent(StageOrganization, "Looking up organization...", 4))
	organization, err := b.api.DefaultOrganization(ctx)
	if err != nil {
		return fail(err)
	}
	b.log.Infof("using organization %s", organization)

	progress(NewProgressEvent(StageImage, "Finding bootstrap image...", 6))
	catalog, err := b.api.MarketplaceImages(ctx)
	if err != nil {
		return fail(err)
	}
	imageID, err := scaleway.FindBootstrapImage(catalog, opts.Zone, opts.InstanceType)
	if err != nil {
		return fail(err)
	}
	b.log.Infof("using bootstrap image %s", imageID)

	progress(NewProgressEvent(StageKey, "Generating SSH key...", 8))
	key, err := sshexec.GenerateKey()
	if err != nil {
		return fail(err)
	}

	progress(NewProgressEventWithDetail(StageProvision, "Provisioning build server...", opts.InstanceType, 10))
	server, err := b.api.CreateServer(ctx, opts.Zone, scaleway.ServerSpec{
		Organization:   organization,
		Name:           opts.ServerName,
		Image:          imageID,
		CommercialType: opts.InstanceType,
		Volumes: map[string]scaleway.Volume{
			"0": {Size: uint64(opts.BootstrapDiskGB) * bytesPerGB},
			"1": {
				Name:         "nixos-volume",
				Organization: organization,
				VolumeType:   "l_ssd",
				Size:         nixosVolumeSize,
			},
		},
		BootType: "local",
		Tags:     []string{key.Tag()},
	})
	if err != nil {
		return fail(err)
	}
	result.ServerID = server.ID
	b.log.Infof("provisioned server %s", server.ID)

	progress(NewProgressEvent(StageBoot, "Starting server, this may take a bit...", 15))
	if err := b.api.ServerAction(ctx, opts.Zone, server.ID, scaleway.ActionPowerOn); err != nil {
		return fail(err)
	}
	server, err = b.api.WaitServerState(ctx, opts.Zone, server.ID, scaleway.ServerStateRunning)
	if err != nil {
		return fail(err)
	}
	if server.PublicIP == nil || server.PublicIP.Address == "" {
		return fail(fmt.Errorf("server %s has no public address", server.ID))
	}

	progress(NewProgressEventWithDetail(StageConnect, "Connecting over SSH...",
		"root@"+server.PublicIP.Address, 30))
	remote, err := b.dial(ctx, net.JoinHostPort(server.PublicIP.Address, "22"), key)
	if err != nil {
		return fail(err)
	}
	defer remote.Close()

	progress(NewProgressEvent(StageUpload, "Uploading bootstrap payload...", 35))
	if err := remote.Upload(remotePayloadPath, payload, 0o755); err != nil {
		return fail(err)
	}

	progress(NewProgressEvent(StageBootstrap, "Running NixOS bootstrap...", 40))
	status, err := remote.Stream(remotePayloadPath+" bootstrap", func(line string) {
		result.Logs = append(result.Logs, line)
		b.log.Info(line)
		progress(NewProgressEventWithDetail(StageBootstrap, "Running NixOS bootstrap...", line, 40))
	})
	if err != nil {
		return fail(err)
	}
	b.log.Infof("bootstrap exited with status %d", status)
	// -1 means the power-off cut the connection before a status arrived,
	// which is how a successful run ends.
	if status != 0 && status != -1 {
		return fail(fmt.Errorf("bootstrap exited with status %d", status))
	}

	progress(NewProgressEvent(StageShutdown, "Waiting for server to stop...", 70))
	server, err = b.api.WaitServerState(ctx, opts.Zone, server.ID, scaleway.ServerStateStoppedInPlace)
	if err != nil {
		return fail(err)
	}

	name := b.imageName(opts.ImagePrefix)
	volume, ok := server.Volumes["1"]
	if !ok {
		return fail(fmt.Errorf("server %s has no image volume", server.ID))
	}
	progress(NewProgressEventWithDetail(StageSnapshot, "Snapshotting NixOS volume...", name, 80))
	snapshot, err := b.api.CreateSnapshot(ctx, opts.Zone, scaleway.SnapshotSpec{
		Organization: organization,
		VolumeID:     volume.ID,
		Name:         name,
	})
	if err != nil {
		return fail(err)
	}
	result.SnapshotID = snapshot.ID
	b.log.Infof("created snapshot %s", snapshot.ID)

	snapshot, err = b.api.WaitSnapshotState(ctx, opts.Zone, snapshot.ID, scaleway.SnapshotStateAvailable)
	if err != nil {
		return fail(err)
	}

	progress(NewProgressEventWithDetail(StageRegister, "Registering image...", name, 90))
	image, err := b.api.CreateImage(ctx, opts.Zone, scaleway.ImageSpec{
		Organization: organization,
		Name:         name,
		RootVolume:   snapshot.ID,
		Arch:         server.Arch,
	})
	if err != nil {
		return fail(err)
	}
	result.ImageID = image.ID
	result.ImageName = name
	b.log.Infof("created image %s", image.ID)

	progress(NewProgressEvent(StageCleanup, "Terminating build server...", 95))
	if err := b.api.ServerAction(ctx, opts.Zone, server.ID, scaleway.ActionTerminate); err != nil {
		return fail(err)
	}

	progress(NewProgressEvent(StageComplete, fmt.Sprintf("Image %s ready", name), 100))
	result.Success = true
	result.Duration = time.Since(start)
	return result, nil
}

// cleanup terminates the build server after a failure so a broken run does
// not keep billing.
func (b *Builder) cleanup(ctx context.Context, result *Result, opts Options) {
	if result.ServerID == "" {
		return
	}
	if opts.KeepOnFailure {
		b.log.Warnf("keeping server %s for debugging", result.ServerID)
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := b.api.ServerAction(ctx, opts.Zone, result.ServerID, scaleway.ActionTerminate); err != nil {
		b.log.Warnf("failed to terminate server %s: %v", result.ServerID, err)
	}
}
