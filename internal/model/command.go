package model

import "github.com/rusenback/webtopd/internal/fault"

// CommandResult is the outcome of a forwarded lifecycle operation
type CommandResult struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message,omitempty"`
	Stdout      string         `json:"stdout,omitempty"`
	Stderr      string         `json:"stderr,omitempty"`
	Error       string         `json:"error,omitempty"`
	ErrorKind   fault.Kind     `json:"error_kind,omitempty"`
	CloudBackup *CommandResult `json:"cloud_backup,omitempty"`
}

// Failure builds a failed result from a (possibly tagged) error
func Failure(err error) CommandResult {
	return CommandResult{
		Success:   false,
		Error:     err.Error(),
		ErrorKind: fault.KindOf(err),
	}
}
