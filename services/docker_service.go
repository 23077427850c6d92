// file: services/docker_service.go
package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"
)

// Default resource caps for challenge containers.
const (
	defaultMemoryBytes = 256 * 1024 * 1024 // 256MB
	defaultNanoCPUs    = 500000000         // 0.5 core
)

// ContainerSpec is everything the engine needs materialized: the image, the
// container port to publish, the host port to publish it on, and the flag
// injected via the environment.
type ContainerSpec struct {
	Name        string
	Image       string
	ExposedPort string // e.g. "22/tcp"
	HostPort    int
	Flag        string
	MemoryBytes int64
	NanoCPUs    int64
}

// DockerAdapter is the engine's only window onto the container engine, so
// tests can swap in a fake without a daemon.
type DockerAdapter interface {
	CreateAndStart(ctx context.Context, spec ContainerSpec) (string, error)
	Kill(ctx context.Context, handle string) error
	Delete(ctx context.Context, handle string) error
	Inspect(ctx context.Context, handle string) (string, error)
}

// DockerService implements DockerAdapter against a real daemon.
type DockerService struct {
	cli *client.Client
}

// NewDockerService connects a client. An empty host uses the system default
// socket, matching the daemon discovery of the docker CLI.
func NewDockerService(host string) (*DockerService, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, err
	}
	return &DockerService{cli: cli}, nil
}

// Ping verifies the daemon is reachable.
func (s *DockerService) Ping(ctx context.Context) error {
	_, err := s.cli.Ping(ctx)
	return err
}

// CreateAndStart materializes the spec and returns the container ID. A
// container that was created but failed to start is removed before the
// error is surfaced, so no half-started instance is left behind.
func (s *DockerService) CreateAndStart(ctx context.Context, spec ContainerSpec) (string, error) {
	port := nat.Port(spec.ExposedPort)
	memory := spec.MemoryBytes
	if memory == 0 {
		memory = defaultMemoryBytes
	}
	cpus := spec.NanoCPUs
	if cpus == 0 {
		cpus = defaultNanoCPUs
	}

	cfg := &container.Config{
		Image: spec.Image,
		Env:   []string{"PWNCORE_FLAG=" + spec.Flag},
		ExposedPorts: nat.PortSet{
			port: struct{}{},
		},
	}
	hostCfg := &container.HostConfig{
		PortBindings: nat.PortMap{
			port: []nat.PortBinding{
				{HostIP: "0.0.0.0", HostPort: strconv.Itoa(spec.HostPort)},
			},
		},
		Resources: container.Resources{
			Memory:   memory,
			NanoCPUs: cpus,
		},
	}

	resp, err := s.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, spec.Name)
	if err != nil {
		return "", wrapEngineErr("create", err)
	}

	if err := s.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = s.cli.ContainerRemove(context.WithoutCancel(ctx), resp.ID, container.RemoveOptions{Force: true})
		return "", wrapEngineErr("start", err)
	}

	return resp.ID, nil
}

// Kill sends SIGKILL. A container that is already stopped or gone counts
// as success, so teardown stays idempotent.
func (s *DockerService) Kill(ctx context.Context, handle string) error {
	err := s.cli.ContainerKill(ctx, handle, "KILL")
	if err == nil || errdefs.IsNotFound(err) || errdefs.IsConflict(err) {
		return nil
	}
	return wrapEngineErr("kill", err)
}

// Delete force-removes the container. Already-deleted handles are success.
func (s *DockerService) Delete(ctx context.Context, handle string) error {
	err := s.cli.ContainerRemove(ctx, handle, container.RemoveOptions{Force: true, RemoveVolumes: true})
	if err == nil || errdefs.IsNotFound(err) {
		return nil
	}
	return wrapEngineErr("delete", err)
}

// Inspect returns the engine's status string for the handle.
func (s *DockerService) Inspect(ctx context.Context, handle string) (string, error) {
	info, err := s.cli.ContainerInspect(ctx, handle)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return "", ErrHandleNotFound
		}
		return "", wrapEngineErr("inspect", err)
	}
	if info.State == nil {
		return "", wrapEngineErr("inspect", errors.New("inspect returned no state"))
	}
	return info.State.Status, nil
}

// wrapEngineErr classifies a daemon failure. Bad input (unknown image,
// invalid config, conflicts) will not heal on retry; timeouts and daemon
// errors might.
func wrapEngineErr(op string, err error) error {
	retryable := true
	switch {
	case errdefs.IsNotFound(err),
		errdefs.IsInvalidParameter(err),
		errdefs.IsConflict(err),
		errdefs.IsForbidden(err),
		errdefs.IsUnauthorized(err):
		retryable = false
	case errors.Is(err, context.Canceled):
		retryable = false
	}
	return &EngineError{Op: op, Retryable: retryable, Err: err}
}
