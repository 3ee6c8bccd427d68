package machines

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	containerCreateTimeout = 3 * time.Minute
	containerSaveTimeout   = 4 * time.Minute

	// buildRoot is the reserved volume source prefix for the machine's
	// persistent disk.
	buildRoot = "$BUILD/"
)

// ContainerSpec describes a container to create.
type ContainerSpec struct {
	Name            string
	Image           string
	Ports           []string
	PublishAllPorts bool
	// User runs the container process as this user when set.
	User    string
	Env     []string
	Volumes []string
}

// Validate checks the name, ports and volumes. The name may carry the
// blink/ registry prefix.
func (s ContainerSpec) Validate() error {
	if err := ValidateRegistryName(s.Name); err != nil {
		return err
	}

	if err := ValidatePortMappings(s.Ports); err != nil {
		return err
	}

	for _, v := range s.Volumes {
		if err := ValidateVolumeMapping(v); err != nil {
			return err
		}
	}

	return nil
}

// Containers manages containers on the machine.
type Containers struct {
	client    *Client
	lookupEnv func(string) (string, bool)
}

// NewContainers creates a container service over a client already bound
// to the container/ sub-route.
func NewContainers(client *Client) *Containers {
	return &Containers{client: client, lookupEnv: os.LookupEnv}
}

// Start creates and runs a container. Ports without a protocol get /tcp,
// bare env names are expanded from the local environment (and dropped
// when unset), and volume sources are placed under $BUILD/ unless they
// already are.
func (c *Containers) Start(ctx context.Context, spec ContainerSpec) (Response, error) {
	if err := spec.Validate(); err != nil {
		return Response{}, err
	}

	args := map[string]any{
		"name":              spec.Name,
		"image":             spec.Image,
		"ports":             normalizePorts(spec.Ports),
		"publish_all_ports": spec.PublishAllPorts,
		"env":               expandEnv(spec.Env, c.lookupEnv),
		"disk_mount":        normalizeVolumes(spec.Volumes),
	}

	if spec.User != "" {
		args["run_as_user"] = spec.User
	}

	resp, err := c.client.Run(ctx, "create", args, WithTimeout(containerCreateTimeout))
	if err != nil {
		return Response{}, fmt.Errorf("creating container %s: %w", spec.Name, err)
	}

	return resp, nil
}

// Stop stops a running container.
func (c *Containers) Stop(ctx context.Context, name string) (Response, error) {
	return c.named(ctx, "stop", name)
}

// Remove deletes a container.
func (c *Containers) Remove(ctx context.Context, name string) (Response, error) {
	return c.named(ctx, "remove", name)
}

// Reboot restarts a container.
func (c *Containers) Reboot(ctx context.Context, name string) (Response, error) {
	return c.named(ctx, "reboot", name)
}

// Save commits a container to the registry. An empty image lets the
// backend choose the image name.
func (c *Containers) Save(ctx context.Context, name, image string) (Response, error) {
	if err := ValidateContainerName(name); err != nil {
		return Response{}, err
	}

	var img any
	if image != "" {
		img = image
	}

	resp, err := c.client.Run(ctx, "save", map[string]any{"name": name, "image": img}, WithTimeout(containerSaveTimeout))
	if err != nil {
		return Response{}, fmt.Errorf("saving container %s: %w", name, err)
	}

	return resp, nil
}

// List returns running containers, or every container when all is set.
func (c *Containers) List(ctx context.Context, all bool) (Response, error) {
	resp, err := c.client.Run(ctx, "list", map[string]any{"all": all})
	if err != nil {
		return Response{}, fmt.Errorf("listing containers: %w", err)
	}

	return resp, nil
}

// Token returns a registry token for the user's containers.
func (c *Containers) Token(ctx context.Context) (Response, error) {
	resp, err := c.client.Run(ctx, "token", nil)
	if err != nil {
		return Response{}, fmt.Errorf("container token: %w", err)
	}

	return resp, nil
}

func (c *Containers) named(ctx context.Context, command, name string) (Response, error) {
	if err := ValidateContainerName(name); err != nil {
		return Response{}, err
	}

	resp, err := c.client.Run(ctx, command, map[string]any{"name": name})
	if err != nil {
		return Response{}, fmt.Errorf("%s container %s: %w", command, name, err)
	}

	return resp, nil
}

func normalizePorts(ports []string) []string {
	out := make([]string, 0, len(ports))
	for _, p := range ports {
		if !strings.Contains(p, "/") {
			p += "/tcp"
		}

		out = append(out, p)
	}

	return out
}

func expandEnv(env []string, lookup func(string) (string, bool)) []string {
	out := make([]string, 0, len(env))
	for _, e := range env {
		if strings.Contains(e, "=") {
			out = append(out, e)
			continue
		}

		if v, ok := lookup(e); ok {
			out = append(out, e+"="+v)
		}
	}

	return out
}

func normalizeVolumes(volumes []string) []string {
	out := make([]string, 0, len(volumes))
	for _, v := range volumes {
		if !strings.HasPrefix(strings.ToLower(v), strings.ToLower(buildRoot)) {
			v = buildRoot + v
		}

		out = append(out, v)
	}

	return out
}
