package model

import (
	"encoding/json"
	"time"
)

// Container is a managed container as seen by the runtime
type Container struct {
	ID      string
	Name    string
	Image   string
	Status  string
	State   string
	Created time.Time
}

// Running reports whether the runtime considers the container running
func (c Container) Running() bool {
	return c.State == "running"
}

// ContainerConfig is the configuration a caller declares when creating a
// container. It is stored verbatim in the registry.
type ContainerConfig struct {
	Name        string `json:"name"`
	Environment string `json:"environment"`
	Profile     string `json:"profile"`
	MemoryLimit string `json:"memory_limit"`
	CPULimit    string `json:"cpu_limit"`
	EnableAuth  bool   `json:"enable_auth"`
}

// DefaultContainerConfig returns a config carrying the creation defaults
func DefaultContainerConfig() ContainerConfig {
	return ContainerConfig{
		Environment: "development",
		Profile:     "standard",
		MemoryLimit: "8g",
		CPULimit:    "4",
	}
}

// ContainerView joins a registry entry with its current stats
type ContainerView struct {
	Name   string          `json:"name"`
	Config json.RawMessage `json:"config"`
	Stats  ContainerStats  `json:"stats"`
}
