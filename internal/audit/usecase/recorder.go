// Package usecase implements the audit trail recorder.
package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/guardianlk/guardian/internal/audit/domain"
	"github.com/guardianlk/guardian/internal/redact"
)

// RecordRepository persists audit records. Implementations are append-only.
type RecordRepository interface {
	Create(ctx context.Context, rec *auditDomain.Record) error
}

// RecordSigner seals records for tamper evidence. Optional: a nil signer
// writes unsigned records.
type RecordSigner interface {
	Sign(rec *auditDomain.Record) ([]byte, error)
}

// SubjectDecoder extracts the subject from a bearer credential. Used as the
// last-resort actor resolution step; failures mean "unknown actor", never an
// audit error. The recorder must not become a second authentication gate.
type SubjectDecoder interface {
	DecodeSubject(token string) (string, error)
}

// RequestInfo carries the request context an audit record is built from.
// ActorID is the identity already resolved by upstream authentication, empty
// when the request was anonymous.
type RequestInfo struct {
	Method        string
	Path          string
	IP            string
	UserAgent     string
	Authorization string
	ActorID       string
}

// NewRequestInfo builds RequestInfo from an HTTP request and the identity
// attached to it by upstream middleware (empty when none).
func NewRequestInfo(r *http.Request, actorID string) RequestInfo {
	return RequestInfo{
		Method:        r.Method,
		Path:          r.URL.RequestURI(),
		IP:            r.RemoteAddr,
		UserAgent:     r.UserAgent(),
		Authorization: r.Header.Get("Authorization"),
		ActorID:       actorID,
	}
}

// Option configures a single Record call.
type Option func(*recordOptions)

type recordOptions struct {
	actorOverride string
}

// WithActor overrides actor resolution for this record. Used when the acting
// identity comes from somewhere other than the request, e.g. the subject of a
// verified download token.
func WithActor(id string) Option {
	return func(o *recordOptions) {
		o.actorOverride = id
	}
}

// Recorder writes one audit record per sensitive action.
//
// Record is fire-and-forget: it never returns an error and never panics into
// the caller. A failed audit write must not abort the business operation that
// triggered it; failures surface through the optional result hook (tests) and
// debug logging outside production.
type Recorder struct {
	repo       RecordRepository
	signer     RecordSigner
	decoder    SubjectDecoder
	logger     *slog.Logger
	production bool
	resultHook func(error)
}

// NewRecorder creates an audit recorder. signer and decoder may be nil.
func NewRecorder(
	repo RecordRepository,
	signer RecordSigner,
	decoder SubjectDecoder,
	logger *slog.Logger,
	production bool,
) *Recorder {
	return &Recorder{
		repo:       repo,
		signer:     signer,
		decoder:    decoder,
		logger:     logger,
		production: production,
	}
}

// SetResultHook installs a callback invoked with the outcome of every write
// (nil on success). Intended for tests that need to observe swallowed
// failures.
func (r *Recorder) SetResultHook(hook func(error)) {
	r.resultHook = hook
}

// Record writes one audit record for the given event. The request path is
// redacted before storage; raw request bodies are never recorded, only the
// caller-supplied metadata.
func (r *Recorder) Record(ctx context.Context, info RequestInfo, event auditDomain.Event, opts ...Option) {
	options := &recordOptions{}
	for _, opt := range opts {
		opt(options)
	}

	rec := &auditDomain.Record{
		ID:        uuid.Must(uuid.NewV7()),
		Timestamp: time.Now().UTC(),
		ActorID:   r.resolveActor(info, options),
		IP:        info.IP,
		UserAgent: info.UserAgent,
		Method:    info.Method,
		Path:      redact.Path(info.Path),
		Action:    event.Action,
		Entity:    event.Entity,
		Metadata:  event.Metadata,
	}
	if event.EntityID != "" {
		entityID := event.EntityID
		rec.EntityID = &entityID
	}

	if r.signer != nil {
		sig, err := r.signer.Sign(rec)
		if err != nil {
			r.reportFailure(err)
			return
		}
		rec.Signature = sig
	}

	if err := r.repo.Create(ctx, rec); err != nil {
		r.reportFailure(err)
		return
	}

	if r.resultHook != nil {
		r.resultHook(nil)
	}
}

// resolveActor picks the actor id: explicit override first, then the identity
// resolved by upstream authentication, then a best-effort decode of the
// bearer credential. Decode failures yield a nil actor, not an error.
func (r *Recorder) resolveActor(info RequestInfo, options *recordOptions) *string {
	if options.actorOverride != "" {
		return &options.actorOverride
	}
	if info.ActorID != "" {
		return &info.ActorID
	}

	const bearerPrefix = "bearer "
	auth := info.Authorization
	if r.decoder != nil &&
		len(auth) > len(bearerPrefix) &&
		strings.EqualFold(auth[:len(bearerPrefix)], bearerPrefix) {
		if sub, err := r.decoder.DecodeSubject(auth[len(bearerPrefix):]); err == nil && sub != "" {
			return &sub
		}
	}

	return nil
}

// reportFailure swallows an audit failure, surfacing it only through the
// result hook and non-production debug output.
func (r *Recorder) reportFailure(err error) {
	if r.resultHook != nil {
		r.resultHook(err)
	}
	if !r.production && r.logger != nil {
		r.logger.Debug("audit write failed", slog.Any("error", err))
	}
}
