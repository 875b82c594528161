// Package lifecycle translates dashboard operations into lifecycle script
// invocations or runtime calls. Nothing is retried.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/convox/logger"
	"github.com/rusenback/webtopd/internal/backup"
	"github.com/rusenback/webtopd/internal/docker"
	"github.com/rusenback/webtopd/internal/executor"
	"github.com/rusenback/webtopd/internal/model"
)

// RegistryWriter records declared containers
type RegistryWriter interface {
	Put(cfg model.ContainerConfig) error
	Delete(name string) error
}

// Manager forwards lifecycle operations
type Manager struct {
	Exec     executor.Runner
	Runtime  docker.Runtime
	Registry RegistryWriter
	Catalog  *backup.Catalog
	Cloud    backup.CloudUploader
	Prefix   string
	Logger   *logger.Logger
}

// Create runs `up --name <n>`, adding `--<environment>` for non-development
// environments and `--auth` when requested. The config is registered once
// the script succeeds.
func (m *Manager) Create(ctx context.Context, cfg model.ContainerConfig) model.CommandResult {
	args := []string{"up", "--name", cfg.Name}
	if cfg.Environment != "" && cfg.Environment != "development" {
		args = append(args, "--"+cfg.Environment)
	}
	if cfg.EnableAuth {
		args = append(args, "--auth")
	}

	res := m.Exec.Run(ctx, args...)
	if res.Success {
		if err := m.Registry.Put(cfg); err != nil {
			m.Logger.At("create").Error(err)
		}
	}

	return res
}

// Delete runs `remove <n>` and unregisters the name on success
func (m *Manager) Delete(ctx context.Context, name string) model.CommandResult {
	res := m.Exec.Run(ctx, "remove", name)
	if res.Success {
		if err := m.Registry.Delete(name); err != nil {
			m.Logger.At("delete").Error(err)
		}
	}

	return res
}

// Start brings a container up through the script
func (m *Manager) Start(ctx context.Context, name string) model.CommandResult {
	return m.Exec.Run(ctx, "up", "--name", name)
}

// Stop stops the runtime container directly
func (m *Manager) Stop(ctx context.Context, name string) model.CommandResult {
	if err := m.Runtime.StopContainer(ctx, m.Prefix+name); err != nil {
		m.Logger.At("stop").Error(err)
		return model.Failure(err)
	}

	return model.CommandResult{Success: true, Message: fmt.Sprintf("Container %s stopped", name)}
}

// Restart restarts the runtime container directly
func (m *Manager) Restart(ctx context.Context, name string) model.CommandResult {
	if err := m.Runtime.RestartContainer(ctx, m.Prefix+name); err != nil {
		m.Logger.At("restart").Error(err)
		return model.Failure(err)
	}

	return model.CommandResult{Success: true, Message: fmt.Sprintf("Container %s restarted", name)}
}

// Logs returns the last lines of the container's output
func (m *Manager) Logs(ctx context.Context, name string, lines int) (string, error) {
	return m.Runtime.ContainerLogs(ctx, m.Prefix+name, lines)
}

// Processes lists the top processes of the container
func (m *Manager) Processes(ctx context.Context, name string) ([]model.Process, error) {
	return m.Runtime.ContainerProcesses(ctx, m.Prefix+name)
}

// Backup runs `backup <n>`. The cloud step runs only when requested and
// the primary backup succeeded; its result is nested as cloud_backup.
func (m *Manager) Backup(ctx context.Context, name string, cfg model.BackupConfig) model.CommandResult {
	res := m.Exec.Run(ctx, "backup", name)

	if cfg.CloudStorage && res.Success && m.Cloud != nil {
		cloud := m.Cloud.Upload(ctx, name)
		res.CloudBackup = &cloud
	}

	return res
}

// Backups lists the container's backups, newest first
func (m *Manager) Backups(name string) ([]model.BackupInfo, error) {
	return m.Catalog.List(name)
}

// Restore runs `restore <n> <backup>`
func (m *Manager) Restore(ctx context.Context, name, backupName string) model.CommandResult {
	return m.Exec.Run(ctx, "restore", name, backupName)
}

// Templates runs `template list`
func (m *Manager) Templates(ctx context.Context) model.CommandResult {
	return m.Exec.Run(ctx, "template", "list")
}

// SaveTemplate runs `template save <container> <template>`
func (m *Manager) SaveTemplate(ctx context.Context, container, template string) model.CommandResult {
	return m.Exec.Run(ctx, "template", "save", container, template)
}

// CreateFromTemplate runs `template create <container> <template>`
func (m *Manager) CreateFromTemplate(ctx context.Context, template, container string) model.CommandResult {
	return m.Exec.Run(ctx, "template", "create", container, template)
}

// Health runs `health check`
func (m *Manager) Health(ctx context.Context) model.CommandResult {
	return m.Exec.Run(ctx, "health", "check")
}

// Performance runs `performance report`
func (m *Manager) Performance(ctx context.Context) model.CommandResult {
	return m.Exec.Run(ctx, "performance", "report")
}

// Optimize tunes one container, or the whole host when container is empty
func (m *Manager) Optimize(ctx context.Context, container string) model.CommandResult {
	if container != "" {
		return m.Exec.Run(ctx, "performance", "optimize", "container", container)
	}
	return m.Exec.Run(ctx, "performance", "optimize", "auto")
}
