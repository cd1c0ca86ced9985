// Package domain defines the audit trail's data model.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded by the audit trail. Dotted verb form: entity.operation.
const (
	ActionIncidentCreate = "incident.create"
	ActionIncidentUpdate = "incident.update"
	ActionIncidentDelete = "incident.delete"

	ActionPersonalDetailsCreate = "personal_details.create"

	ActionWitnessCreate = "witness.create"
	ActionWitnessDelete = "witness.delete"

	ActionLostArticleDetailsCreate = "lost_article.details_create"
	ActionLostArticleDetailsDelete = "lost_article.details_delete"

	ActionFileUpload          = "file.upload"
	ActionFileSignURL         = "file.sign_url"
	ActionFileDownload        = "file.download"
	ActionFileDownloadDenied  = "file.download_denied"
	ActionFileDownloadMissing = "file.download_missing"
)

// Record is one immutable line of the audit trail, written after a sensitive
// action completes or is denied. ActorID is nil when no identity could be
// resolved; "unknown" actors are valid. Path is stored redacted. Metadata is
// caller-supplied structured data that must already exclude raw PII; that is
// a contract on callers, not something this layer can enforce.
type Record struct {
	ID        uuid.UUID      `json:"id"`
	Timestamp time.Time      `json:"ts"`
	ActorID   *string        `json:"user_id"`
	IP        string         `json:"ip"`
	UserAgent string         `json:"ua"`
	Method    string         `json:"method"`
	Path      string         `json:"path"`
	Action    string         `json:"action"`
	Entity    string         `json:"entity,omitempty"`
	EntityID  *string        `json:"entity_id"`
	Metadata  map[string]any `json:"meta,omitempty"`
	// Signature is the HMAC-SHA256 tamper-evidence seal computed over the
	// canonicalized record before it is persisted.
	Signature []byte `json:"sig,omitempty"`
}

// Event describes a sensitive action from the caller's point of view.
type Event struct {
	Action   string
	Entity   string
	EntityID string
	Metadata map[string]any
}
