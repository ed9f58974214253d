package models

import (
	"encoding/json"
	"time"
)

type BackupType string

const (
	BackupTypeFull        BackupType = "FULL"
	BackupTypeIncremental BackupType = "INCREMENTAL"
)

type BackupStatus string

const BackupStatusCreated BackupStatus = "CREATED"

type BackupRecord struct {
	ID          string          `json:"id" db:"id"`
	TenantID    string          `json:"tenant_id" db:"tenant_id"`
	BackupType  BackupType      `json:"backup_type" db:"backup_type"`
	StoragePath string          `json:"storage_path" db:"storage_path"`
	SizeBytes   int64           `json:"size_bytes" db:"size_bytes"`
	Status      BackupStatus    `json:"status" db:"status"`
	Metadata    json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
