package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ndbelov/stockwear/internal/core/domain"
	"github.com/ndbelov/stockwear/internal/core/port"
	"github.com/vincent-petithory/dataurl"
)

var _ port.ProductEditor = (*Editor)(nil)

var (
	ErrSessionNotFound    = errors.New("edit session not found")
	ErrLabelNotInCategory = errors.New("size label not in current category")
)

// session owns one draft. The draft is seeded from the product snapshot
// at open time and never re-synced. The mutex serializes the session's
// operations, concurrent image completions land last-write-wins.
type session struct {
	mu        sync.Mutex
	productID string
	createdAt time.Time
	draft     domain.Draft
	cameraOn  bool
}

// Editor implements the edit-session core: it opens drafts from product
// snapshots, routes field updates into them and hands the assembled
// payload to the applier exactly once on submit.
type Editor struct {
	products port.ProductReader
	applier  port.EditApplier
	device   port.CaptureDevice

	mu       sync.Mutex
	sessions map[string]*session
}

func NewEditor(
	products port.ProductReader,
	applier port.EditApplier,
	device port.CaptureDevice,
) *Editor {
	return &Editor{
		products: products,
		applier:  applier,
		device:   device,
		sessions: make(map[string]*session),
	}
}

func (e *Editor) Open(
	ctx context.Context, productID string,
) (string, domain.Draft, error) {
	const op = "Editor.Open"
	log := slog.With("op", op)

	p, err := e.products.ReadProduct(ctx, productID)
	if err != nil {
		return "", domain.Draft{}, fmt.Errorf("%s: %w", op, err)
	}

	s := &session{
		productID: p.ID,
		createdAt: p.CreatedAt,
		draft:     domain.NewDraft(p),
	}

	sessionID := uuid.NewString()
	e.mu.Lock()
	e.sessions[sessionID] = s
	e.mu.Unlock()

	log.Info("session opened", "sessionID", sessionID, "productID", p.ID)
	return sessionID, s.draft.Clone(), nil
}

func (e *Editor) Draft(sessionID string) (domain.Draft, error) {
	const op = "Editor.Draft"

	s, err := e.session(sessionID)
	if err != nil {
		return domain.Draft{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone(), nil
}

func (e *Editor) SetName(sessionID, name string) (domain.Draft, error) {
	const op = "Editor.SetName"
	return e.update(op, sessionID, func(s *session) error {
		s.draft.Name = name
		return nil
	})
}

func (e *Editor) SetPriceText(sessionID, priceText string) (domain.Draft, error) {
	const op = "Editor.SetPriceText"
	return e.update(op, sessionID, func(s *session) error {
		s.draft.PriceText = priceText
		return nil
	})
}

// SetCategory switches the active size-label set. Counts entered under
// the previous category stay in the draft, they are dropped only when
// the payload is assembled.
func (e *Editor) SetCategory(
	sessionID string, c domain.Category,
) (domain.Draft, error) {
	const op = "Editor.SetCategory"
	return e.update(op, sessionID, func(s *session) error {
		if !c.Valid() {
			return fmt.Errorf("%w: %q", domain.ErrUnknownCategory, c)
		}
		s.draft.Category = c
		return nil
	})
}

func (e *Editor) SetStock(
	sessionID string, label domain.SizeLabel, raw string,
) (domain.Draft, error) {
	const op = "Editor.SetStock"
	return e.update(op, sessionID, func(s *session) error {
		if !domain.HasSizeLabel(s.draft.Category, label) {
			return fmt.Errorf("%w: %q", ErrLabelNotInCategory, label)
		}
		s.draft.SetStock(label, raw)
		return nil
	})
}

// AttachImage stores uploaded file bytes into the image slot as an
// inline data URI. Empty input is a no-op: no image change, no error.
func (e *Editor) AttachImage(
	sessionID string, data []byte, mediaType string,
) (domain.Draft, error) {
	const op = "Editor.AttachImage"
	return e.update(op, sessionID, func(s *session) error {
		if len(data) == 0 {
			return nil
		}
		if mediaType == "" {
			mediaType = http.DetectContentType(data)
		}
		s.draft.Image = dataurl.New(data, mediaType).String()
		return nil
	})
}

// StartCamera acquires the capture device. This is the only operation
// that touches a permission-gated host capability and may fail, the
// draft stays untouched on failure. Retrying after a failure is the
// caller's recovery path.
func (e *Editor) StartCamera(ctx context.Context, sessionID string) error {
	const op = "Editor.StartCamera"
	log := slog.With("op", op)

	s, err := e.session(sessionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cameraOn {
		return nil
	}
	if err := e.device.Start(ctx); err != nil {
		log.Warn("capture device unavailable", "sessionID", sessionID, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	s.cameraOn = true
	return nil
}

// CaptureFrame snapshots the live frame into the image slot as an inline
// JPEG payload and releases the device.
func (e *Editor) CaptureFrame(sessionID string) (domain.Draft, error) {
	const op = "Editor.CaptureFrame"
	return e.update(op, sessionID, func(s *session) error {
		if !s.cameraOn {
			return port.ErrDeviceNotStarted
		}
		frame, err := e.device.Snapshot()
		if err != nil {
			return err
		}
		s.draft.Image = dataurl.New(frame, "image/jpeg").String()
		e.device.Stop()
		s.cameraOn = false
		return nil
	})
}

// StopCamera releases the device without touching the image slot. It is
// reachable from explicit cancellation and is idempotent.
func (e *Editor) StopCamera(sessionID string) error {
	const op = "Editor.StopCamera"

	s, err := e.session(sessionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e.releaseCamera(s)
	return nil
}

// Submit assembles the payload from the draft and hands it to the
// applier exactly once, then discards the session. The creation
// timestamp of the snapshot is carried over untouched. On applier
// failure the session stays open so the operator can retry.
func (e *Editor) Submit(ctx context.Context, sessionID string) error {
	const op = "Editor.Submit"
	log := slog.With("op", op)

	s, err := e.session(sessionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payload := s.draft.Assemble(s.createdAt)
	if err := e.applier.ApplyEdit(ctx, s.productID, payload); err != nil {
		log.Error("failed to apply edit", "sessionID", sessionID, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	e.releaseCamera(s)
	e.drop(sessionID)
	log.Info("session submitted", "sessionID", sessionID, "productID", s.productID)
	return nil
}

// Cancel discards the draft and releases the device if it is held.
func (e *Editor) Cancel(sessionID string) error {
	const op = "Editor.Cancel"
	log := slog.With("op", op)

	s, err := e.session(sessionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e.releaseCamera(s)
	e.drop(sessionID)
	log.Info("session cancelled", "sessionID", sessionID)
	return nil
}

func (e *Editor) session(sessionID string) (*session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (e *Editor) update(
	op, sessionID string, fn func(*session) error,
) (domain.Draft, error) {
	s, err := e.session(sessionID)
	if err != nil {
		return domain.Draft{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s); err != nil {
		return domain.Draft{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.draft.Clone(), nil
}

func (e *Editor) releaseCamera(s *session) {
	if s.cameraOn {
		e.device.Stop()
		s.cameraOn = false
	}
}

func (e *Editor) drop(sessionID string) {
	e.mu.Lock()
	delete(e.sessions, sessionID)
	e.mu.Unlock()
}
