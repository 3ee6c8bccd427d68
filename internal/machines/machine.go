package machines

import (
	"context"
	"fmt"
	"time"

	"github.com/alexjbarnes/build-cli/internal/config"
	builderr "github.com/alexjbarnes/build-cli/internal/errors"
	"golang.org/x/sync/singleflight"
)

const (
	// machineLifecycleTimeout bounds machine create and stop, which wait
	// for the VM to boot or shut down.
	machineLifecycleTimeout = 4 * time.Minute

	// Default machine shape.
	DefaultRegion = "fra1"
	DefaultSize   = "s-1vcpu-2gb"
)

// Machine controls the user's single remote machine and owns the
// process-wide IP cache. Start and Stop invalidate the cache themselves.
type Machine struct {
	client *Client
	ttl    time.Duration
	now    func() time.Time

	cache ipCache
	group singleflight.Group
}

// NewMachine creates a machine controller over client. A non-positive ttl
// falls back to DefaultIPCacheTTL.
func NewMachine(client *Client, ttl time.Duration) *Machine {
	if ttl <= 0 {
		ttl = DefaultIPCacheTTL
	}

	return &Machine{client: client, ttl: ttl, now: time.Now}
}

// Status returns the machine state reported by the control plane.
func (m *Machine) Status(ctx context.Context) (string, error) {
	resp, err := m.client.Run(ctx, "status", nil)
	if err != nil {
		return "", fmt.Errorf("machine status: %w", err)
	}

	return resp.String("status")
}

// Start creates (boots) the machine in region with size. Both are checked
// against the available lists before any request is made.
func (m *Machine) Start(ctx context.Context, region, size string) (Response, error) {
	if err := config.ValidateRegion(region); err != nil {
		return Response{}, err
	}

	if err := config.ValidateSize(size); err != nil {
		return Response{}, err
	}

	m.cache.invalidate()

	resp, err := m.client.Run(ctx, "create", map[string]any{
		"region": region,
		"size":   size,
	}, WithTimeout(machineLifecycleTimeout))
	if err != nil {
		return Response{}, fmt.Errorf("starting machine: %w", err)
	}

	return resp, nil
}

// Stop shuts the machine down and forgets its address.
func (m *Machine) Stop(ctx context.Context) (Response, error) {
	resp, err := m.client.Run(ctx, "stop", nil, WithTimeout(machineLifecycleTimeout))
	if err != nil {
		return Response{}, fmt.Errorf("stopping machine: %w", err)
	}

	m.cache.invalidate()

	return resp, nil
}

// IP returns the machine address. A fresh cached value is returned without
// a request unless forceRefresh is set. Concurrent misses share a single
// request. An empty address means the machine is not running.
func (m *Machine) IP(ctx context.Context, forceRefresh bool) (string, error) {
	if !forceRefresh {
		if ip, ok := m.cache.lookup(m.now(), m.ttl); ok {
			return ip, nil
		}
	}

	gen := m.cache.generation()

	v, err, _ := m.group.Do("ip", func() (any, error) {
		resp, err := m.client.Run(ctx, "ip", nil)
		if err != nil {
			return "", err
		}

		ip, err := resp.String("ip")
		if err != nil {
			return "", err
		}

		if ip == "" {
			return "", builderr.ErrMachineNotStarted
		}

		m.cache.store(gen, ip, m.now())

		return ip, nil
	})
	if err != nil {
		return "", fmt.Errorf("machine ip: %w", err)
	}

	return v.(string), nil
}

// CachedIP returns the current cache entry, if any.
func (m *Machine) CachedIP() (CachedIP, bool) {
	return m.cache.snapshot()
}

// InvalidateIP drops the cached address.
func (m *Machine) InvalidateIP() {
	m.cache.invalidate()
}

// Containers returns the container service on the container/ sub-route.
func (m *Machine) Containers() *Containers {
	return NewContainers(m.client.SubRoute("container"))
}

// Images returns the saved image service on the image/ sub-route.
func (m *Machine) Images() *Images {
	return &Images{client: m.client.SubRoute("image")}
}

// SSHKeys returns the authorized key service on the root route.
func (m *Machine) SSHKeys() *SSHKeys {
	return &SSHKeys{client: m.client}
}
