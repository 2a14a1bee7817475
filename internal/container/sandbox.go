// Package container runs editor code inside throwaway Docker containers and
// sweeps up what those runs leave behind.
package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"

	"github.com/aetherdebug/aetherdebug/internal/domain"
	"github.com/aetherdebug/aetherdebug/internal/runner"
)

const (
	// Container configuration.
	containerUser = "65534"
	workingDir    = "/tmp"
	namePrefix    = "aether-sandbox-"

	// Labels identify sandbox containers for the janitor.
	labelSandbox  = "aetherdebug.sandbox"
	labelLanguage = "aetherdebug.language"

	// Resource limits.
	memoryLimitBytes = 128 * 1024 * 1024 // 128MB
	cpuQuota         = 50000             // 0.5 CPU
	pidsLimit        = 64

	maxOutputBytes = 64 * 1024
	removeTimeout  = 10 * time.Second
)

// Sandbox implements runner.Runner by executing code in a fresh container
// built from the language's catalog image.
type Sandbox struct {
	cli     *client.Client
	runtime string // Container runtime: "" = default (runc), "runsc" = gVisor
	timeout time.Duration
}

// NewSandbox creates a Docker-backed sandbox runner.
// runtime can be "" for default Docker runtime or "runsc" for gVisor.
func NewSandbox(runtime string, timeout time.Duration) (*Sandbox, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	if runtime == "" {
		slog.Info("Docker client initialized", "runtime", "default")
	} else {
		slog.Info("Docker client initialized", "runtime", runtime)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sandbox{cli: cli, runtime: runtime, timeout: timeout}, nil
}

// Name implements runner.Runner.
func (s *Sandbox) Name() string { return "docker" }

// Ping checks that the Docker daemon is reachable.
func (s *Sandbox) Ping(ctx context.Context) error {
	if _, err := s.cli.Ping(ctx); err != nil {
		return fmt.Errorf("ping docker daemon: %w", err)
	}
	return nil
}

// Close releases the Docker client.
func (s *Sandbox) Close() error {
	return s.cli.Close()
}

// Run implements runner.Runner.
func (s *Sandbox) Run(ctx context.Context, lang domain.Language, code string) (runner.Result, error) {
	if lang.Sandbox == nil || lang.Sandbox.Image == "" {
		return runner.Result{}, fmt.Errorf("language %q has no sandbox image", lang.ID)
	}

	id, err := s.create(ctx, lang, code)
	if err != nil {
		return runner.Result{}, err
	}
	defer s.remove(id)

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.cli.ContainerStart(runCtx, id, container.StartOptions{}); err != nil {
		return runner.Result{}, fmt.Errorf("start container %s: %w", id, err)
	}

	exitCode, timedOut, err := s.wait(runCtx, id)
	if err != nil {
		return runner.Result{}, err
	}

	stdout := runner.NewTailBuffer(maxOutputBytes)
	stderr := runner.NewTailBuffer(maxOutputBytes)
	if err := s.collectLogs(ctx, id, stdout, stderr); err != nil {
		return runner.Result{}, err
	}

	if timedOut {
		msg := fmt.Sprintf("Execution timed out after %s", s.timeout)
		return failedResult(lang.Label, msg, msg, stdout.String(), stderr.String()), nil
	}
	return buildResult(lang.Label, exitCode, stdout.String(), stderr.String()), nil
}

func (s *Sandbox) create(ctx context.Context, lang domain.Language, code string) (string, error) {
	config, hostConfig := s.containerConfig(lang, code)
	name := namePrefix + uuid.NewString()

	resp, err := s.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, name)
	if errdefs.IsNotFound(err) {
		if pullErr := s.pull(ctx, lang.Sandbox.Image); pullErr != nil {
			return "", pullErr
		}
		resp, err = s.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, name)
	}
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}
	slog.Debug("Sandbox container created", "container_id", resp.ID, "language", lang.ID)
	return resp.ID, nil
}

func (s *Sandbox) containerConfig(lang domain.Language, code string) (*container.Config, *container.HostConfig) {
	cmd := make([]string, 0, len(lang.Sandbox.Command)+1)
	cmd = append(cmd, lang.Sandbox.Command...)
	cmd = append(cmd, code)

	config := &container.Config{
		Image:           lang.Sandbox.Image,
		Cmd:             cmd,
		User:            containerUser,
		WorkingDir:      workingDir,
		NetworkDisabled: true,
		Labels: map[string]string{
			labelSandbox:  "true",
			labelLanguage: lang.ID,
		},
	}

	hostConfig := &container.HostConfig{
		Runtime:        s.runtime,
		NetworkMode:    container.NetworkMode("none"),
		ReadonlyRootfs: true,
		Tmpfs:          map[string]string{workingDir: "rw,size=16m"},
		CapDrop:        []string{"ALL"},
		SecurityOpt:    []string{"no-new-privileges"},
		Resources: container.Resources{
			Memory:    memoryLimitBytes,
			CPUQuota:  cpuQuota,
			PidsLimit: ptr(int64(pidsLimit)),
		},
	}
	return config, hostConfig
}

func (s *Sandbox) pull(ctx context.Context, ref string) error {
	slog.Info("Pulling sandbox image", "image", ref)
	rc, err := s.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", ref, err)
	}
	defer rc.Close()
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("read pull progress for %s: %w", ref, err)
	}
	return nil
}

// wait blocks until the container exits or ctx expires.
func (s *Sandbox) wait(ctx context.Context, id string) (exitCode int64, timedOut bool, err error) {
	statusCh, errCh := s.cli.ContainerWait(ctx, id, container.WaitConditionNotRunning)
	select {
	case status := <-statusCh:
		if status.Error != nil {
			return 0, false, fmt.Errorf("wait container %s: %s", id, status.Error.Message)
		}
		return status.StatusCode, false, nil
	case err := <-errCh:
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, true, nil
		}
		return 0, false, fmt.Errorf("wait container %s: %w", id, err)
	}
}

func (s *Sandbox) collectLogs(ctx context.Context, id string, stdout, stderr io.Writer) error {
	rc, err := s.cli.ContainerLogs(ctx, id, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return fmt.Errorf("read logs of container %s: %w", id, err)
	}
	defer rc.Close()
	if _, err := stdcopy.StdCopy(stdout, stderr, rc); err != nil {
		return fmt.Errorf("demultiplex logs of container %s: %w", id, err)
	}
	return nil
}

// remove force-removes a container. It runs detached from the request
// context so a cancelled request still cleans up.
func (s *Sandbox) remove(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), removeTimeout)
	defer cancel()

	err := s.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
	switch {
	case err == nil:
		slog.Debug("Sandbox container removed", "container_id", id)
	case errdefs.IsNotFound(err), strings.Contains(err.Error(), "is already in progress"):
	default:
		slog.Warn("Failed to remove sandbox container", "container_id", id, "error", err)
	}
}

// RemoveStale removes sandbox containers created more than olderThan ago.
func (s *Sandbox) RemoveStale(ctx context.Context, olderThan time.Duration) (int, error) {
	list, err := s.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", labelSandbox+"=true")),
	})
	if err != nil {
		return 0, fmt.Errorf("list sandbox containers: %w", err)
	}

	cutoff := time.Now().Add(-olderThan).Unix()
	removed := 0
	for _, c := range list {
		if c.Created > cutoff {
			continue
		}
		if err := s.cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true}); err != nil {
			if errdefs.IsNotFound(err) {
				continue
			}
			slog.Warn("Failed to remove stale sandbox container", "container_id", c.ID, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// buildResult converts a finished container run into a runner.Result.
func buildResult(label string, exitCode int64, stdout, stderr string) runner.Result {
	if exitCode != 0 {
		msg := lastLine(stderr)
		if msg == "" {
			msg = fmt.Sprintf("process exited with status %d", exitCode)
		}
		desc := strings.TrimSpace(stderr)
		if desc == "" {
			desc = msg
		}
		return failedResult(label, msg, desc, stdout, stderr)
	}

	output := strings.TrimRight(stdout, "\n")
	if errOut := strings.TrimRight(stderr, "\n"); errOut != "" {
		if output != "" {
			output += "\n"
		}
		output += errOut
	}
	if output == "" {
		output = label + " code executed successfully. No output written to stdout."
	}
	return runner.Result{Output: output, Live: true}
}

func failedResult(label, msg, desc, stdout, stderr string) runner.Result {
	return runner.Result{
		Output: fmt.Sprintf("Error executing %s:\n%s\nStderr:\n%s\n\nCaptured Output:\n%s",
			label, msg, strings.TrimRight(stderr, "\n"), strings.TrimRight(stdout, "\n")),
		ErrorMessage:     msg,
		ErrorDescription: desc,
		Failed:           true,
		Live:             true,
	}
}

// lastLine returns the last non-empty line of s.
func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func ptr[T any](v T) *T {
	return &v
}
