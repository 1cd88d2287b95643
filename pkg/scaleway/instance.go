package scaleway

import (
	"context"
	"fmt"
	"time"
)

// Server states the builder waits on. "stopped in place" is what a
// power-off from inside the guest leaves behind.
const (
	ServerStateRunning        = "running"
	ServerStateStoppedInPlace = "stopped in place"
)

// SnapshotStateAvailable is the terminal state of a finished snapshot.
const SnapshotStateAvailable = "available"

// Server actions accepted by ServerAction.
const (
	ActionPowerOn   = "poweron"
	ActionTerminate = "terminate"
)

// Volume describes one attached disk. The same shape serves creation
// requests, where unset fields stay off the wire.
type Volume struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	Organization string `json:"organization,omitempty"`
	VolumeType   string `json:"volume_type,omitempty"`
	Size         uint64 `json:"size,omitempty"`
}

// PublicIP is the address assigned to a running server.
type PublicIP struct {
	Address string `json:"address"`
}

// Server is the instance API's view of one server.
type Server struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	State    string            `json:"state"`
	Arch     string            `json:"arch"`
	PublicIP *PublicIP         `json:"public_ip"`
	Volumes  map[string]Volume `json:"volumes"`
}

// ServerSpec is a server creation request.
type ServerSpec struct {
	Organization   string            `json:"organization"`
	Name           string            `json:"name"`
	Image          string            `json:"image"`
	CommercialType string            `json:"commercial_type"`
	Volumes        map[string]Volume `json:"volumes"`
	BootType       string            `json:"boot_type"`
	Tags           []string          `json:"tags"`
}

// SnapshotSpec is a snapshot creation request.
type SnapshotSpec struct {
	Organization string `json:"organization"`
	VolumeID     string `json:"volume_id"`
	Name         string `json:"name"`
}

// Snapshot is the instance API's view of one volume snapshot.
type Snapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// ImageSpec is an image creation request.
type ImageSpec struct {
	Organization string `json:"organization"`
	Name         string `json:"name"`
	RootVolume   string `json:"root_volume"`
	Arch         string `json:"arch"`
}

// Image is a bootable image built from a snapshot.
type Image struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Arch string `json:"arch"`
}

func (c *Client) zoneURL(zone, path string) string {
	return fmt.Sprintf("%s/instance/v1/zones/%s%s", c.InstanceURL, zone, path)
}

// CreateServer provisions a server. It does not start it.
func (c *Client) CreateServer(ctx context.Context, zone string, spec ServerSpec) (*Server, error) {
	var out struct {
		Server Server `json:"server"`
	}
	if err := c.do(ctx, "POST", c.zoneURL(zone, "/servers"), spec, &out); err != nil {
		return nil, err
	}
	return &out.Server, nil
}

// Server fetches the current view of a server.
func (c *Client) Server(ctx context.Context, zone, id string) (*Server, error) {
	var out struct {
		Server Server `json:"server"`
	}
	if err := c.do(ctx, "GET", c.zoneURL(zone, "/servers/"+id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Server, nil
}

// ServerAction posts a lifecycle action (poweron, terminate).
func (c *Client) ServerAction(ctx context.Context, zone, id, action string) error {
	body := struct {
		Action string `json:"action"`
	}{Action: action}
	return c.do(ctx, "POST", c.zoneURL(zone, "/servers/"+id+"/action"), body, nil)
}

// WaitServerState polls the server until it reports the wanted state.
func (c *Client) WaitServerState(ctx context.Context, zone, id, state string) (*Server, error) {
	for {
		server, err := c.Server(ctx, zone, id)
		if err != nil {
			return nil, err
		}
		if server.State == state {
			return server, nil
		}
		if err := c.sleep(ctx); err != nil {
			return nil, err
		}
	}
}

// CreateSnapshot snapshots a volume.
func (c *Client) CreateSnapshot(ctx context.Context, zone string, spec SnapshotSpec) (*Snapshot, error) {
	var out struct {
		Snapshot Snapshot `json:"snapshot"`
	}
	if err := c.do(ctx, "POST", c.zoneURL(zone, "/snapshots"), spec, &out); err != nil {
		return nil, err
	}
	return &out.Snapshot, nil
}

// Snapshot fetches the current view of a snapshot.
func (c *Client) Snapshot(ctx context.Context, zone, id string) (*Snapshot, error) {
	var out struct {
		Snapshot Snapshot `json:"snapshot"`
	}
	if err := c.do(ctx, "GET", c.zoneURL(zone, "/snapshots/"+id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Snapshot, nil
}

// WaitSnapshotState polls the snapshot until it reports the wanted state.
func (c *Client) WaitSnapshotState(ctx context.Context, zone, id, state string) (*Snapshot, error) {
	for {
		snapshot, err := c.Snapshot(ctx, zone, id)
		if err != nil {
			return nil, err
		}
		if snapshot.State == state {
			return snapshot, nil
		}
		if err := c.sleep(ctx); err != nil {
			return nil, err
		}
	}
}

// CreateImage registers a bootable image backed by a snapshot.
func (c *Client) CreateImage(ctx context.Context, zone string, spec ImageSpec) (*Image, error) {
	var out struct {
		Image Image `json:"image"`
	}
	if err := c.do(ctx, "POST", c.zoneURL(zone, "/images"), spec, &out); err != nil {
		return nil, err
	}
	return &out.Image, nil
}

func (c *Client) sleep(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.pollInterval()):
		return nil
	}
}
