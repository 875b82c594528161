package model

import "time"

// BackupConfig are the options of a backup request
type BackupConfig struct {
	BackupType    string `json:"backup_type"`
	CloudStorage  bool   `json:"cloud_storage"`
	RetentionDays int    `json:"retention_days"`
}

func DefaultBackupConfig() BackupConfig {
	return BackupConfig{BackupType: "full", RetentionDays: 30}
}

// BackupInfo describes one backup directory
type BackupInfo struct {
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
	SizeMB  float64   `json:"size_mb"`
}
