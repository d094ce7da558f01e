// Package mutation implements the create and delete actions of the catalog:
// validation before anything is sent, a confirmation step for deletes,
// invalidation of the listing after a successful write and a notification
// for every outcome.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/space-catalog/pkg/catalog"
	"github.com/Sternrassler/space-catalog/pkg/notify"
)

// ErrNoPendingDelete is returned by ConfirmDelete when nothing awaits
// confirmation.
var ErrNoPendingDelete = errors.New("mutation: no pending delete")

// Notification texts.
const (
	MsgCreated      = "Space object added"
	MsgCreateFailed = "Failed to add space object"
	MsgDeleted      = "Space object deleted"
	MsgDeleteFailed = "Failed to delete space object"
)

// Backend performs the writes, normally *client.Client.
type Backend interface {
	Create(ctx context.Context, draft catalog.Draft) (catalog.SpaceObject, error)
	Delete(ctx context.Context, id string) error
}

// Invalidator drops cached listings after a write, normally a
// *pagination.Fetcher.
type Invalidator interface {
	Invalidate()
}

// InvalidatorFunc adapts a function to Invalidator.
type InvalidatorFunc func()

// Invalidate calls f.
func (f InvalidatorFunc) Invalidate() { f() }

// PendingDelete is a delete waiting for confirmation.
type PendingDelete struct {
	ID          string
	Name        string
	RequestedAt time.Time
}

// Handler runs create and delete mutations.
type Handler struct {
	backend     Backend
	invalidator Invalidator
	notifier    notify.Notifier
	now         func() time.Time
	logger      zerolog.Logger

	mu      sync.Mutex
	pending *PendingDelete
}

// NewHandler creates a handler. invalidator and notifier may be nil.
func NewHandler(backend Backend, invalidator Invalidator, notifier notify.Notifier) *Handler {
	if notifier == nil {
		notifier = notify.NotifierFunc(func(notify.Notification) {})
	}
	return &Handler{
		backend:     backend,
		invalidator: invalidator,
		notifier:    notifier,
		now:         time.Now,
		logger:      log.With().Str("component", "mutation").Logger(),
	}
}

// Create validates draft and sends it. An invalid draft returns a
// *catalog.ValidationError without a request or a notification. A failed
// request notifies and leaves the listing untouched.
func (h *Handler) Create(ctx context.Context, draft catalog.Draft) (catalog.SpaceObject, error) {
	if err := catalog.Validate(draft, h.now()); err != nil {
		mutationsTotal.WithLabelValues("create", "invalid").Inc()
		return catalog.SpaceObject{}, err
	}

	created, err := h.backend.Create(ctx, draft)
	if err != nil {
		mutationsTotal.WithLabelValues("create", "failure").Inc()
		h.logger.Error().Err(err).Str("name", draft.Name).Msg("Create failed")
		h.notifier.Notify(notify.Error(MsgCreateFailed))
		return catalog.SpaceObject{}, fmt.Errorf("create space object: %w", err)
	}

	mutationsTotal.WithLabelValues("create", "success").Inc()
	h.logger.Info().Str("id", created.ID).Str("name", created.Name).Msg("Space object created")
	h.invalidate()
	h.notifier.Notify(notify.Success(MsgCreated))
	return created, nil
}

// RequestDelete starts the delete of obj and returns the pending delete. It
// replaces any earlier pending delete. Nothing is sent until ConfirmDelete.
func (h *Handler) RequestDelete(obj catalog.SpaceObject) *PendingDelete {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.pending = &PendingDelete{ID: obj.ID, Name: obj.Name, RequestedAt: h.now()}
	p := *h.pending
	return &p
}

// Pending returns the delete awaiting confirmation, or nil.
func (h *Handler) Pending() *PendingDelete {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pending == nil {
		return nil
	}
	p := *h.pending
	return &p
}

// CancelDelete drops the pending delete.
func (h *Handler) CancelDelete() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pending != nil {
		h.logger.Debug().Str("id", h.pending.ID).Msg("Delete cancelled")
	}
	h.pending = nil
}

// ConfirmDelete sends the pending delete. The pending state is cleared
// whatever the outcome.
func (h *Handler) ConfirmDelete(ctx context.Context) error {
	h.mu.Lock()
	p := h.pending
	h.pending = nil
	h.mu.Unlock()

	if p == nil {
		return ErrNoPendingDelete
	}
	return h.Delete(ctx, p.ID)
}

// Delete removes id without a confirmation step. Success invalidates the
// listing; failure only notifies.
func (h *Handler) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("delete space object: id is required")
	}

	if err := h.backend.Delete(ctx, id); err != nil {
		mutationsTotal.WithLabelValues("delete", "failure").Inc()
		h.logger.Error().Err(err).Str("id", id).Msg("Delete failed")
		h.notifier.Notify(notify.Error(MsgDeleteFailed))
		return fmt.Errorf("delete space object %s: %w", id, err)
	}

	mutationsTotal.WithLabelValues("delete", "success").Inc()
	h.logger.Info().Str("id", id).Msg("Space object deleted")
	h.invalidate()
	h.notifier.Notify(notify.Success(MsgDeleted))
	return nil
}

func (h *Handler) invalidate() {
	if h.invalidator != nil {
		h.invalidator.Invalidate()
	}
}
