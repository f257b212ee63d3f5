package port

import (
	"context"
	"errors"

	"github.com/ndbelov/stockwear/internal/core/domain"
)

var (
	ErrDeviceBusy       = errors.New("capture device is busy")
	ErrDeviceNotStarted = errors.New("capture device is not started")
	ErrNoFrame          = errors.New("no frame available yet")
)

// ProductEditor is the inbound port of the edit-session core. One session
// owns one draft; every mutation is a synchronous local operation except
// StartCamera, which acquires a permission-gated host capability.
type ProductEditor interface {
	Open(ctx context.Context, productID string) (string, domain.Draft, error)
	Draft(sessionID string) (domain.Draft, error)
	SetName(sessionID, name string) (domain.Draft, error)
	SetPriceText(sessionID, priceText string) (domain.Draft, error)
	SetCategory(sessionID string, c domain.Category) (domain.Draft, error)
	SetStock(sessionID string, label domain.SizeLabel, raw string) (domain.Draft, error)
	AttachImage(sessionID string, data []byte, mediaType string) (domain.Draft, error)
	StartCamera(ctx context.Context, sessionID string) error
	CaptureFrame(sessionID string) (domain.Draft, error)
	StopCamera(sessionID string) error
	Submit(ctx context.Context, sessionID string) error
	Cancel(sessionID string) error
}

type ProductReader interface {
	ReadProduct(ctx context.Context, id string) (domain.Product, error)
}

type ProductWriter interface {
	UpdateProduct(ctx context.Context, id string, p domain.Product) error
}

// EditApplier receives the assembled payload exactly once per submission.
type EditApplier interface {
	ApplyEdit(ctx context.Context, productID string, p domain.Product) error
}

type ProductUpdatePublisher interface {
	PublishProductUpdate(ctx context.Context, productID string, p domain.Product) error
}

type EditAuditor interface {
	RecordEdit(ctx context.Context, rec domain.EditRecord) error
}

// CaptureDevice is the live video capability. Start acquires the device
// exclusively, Snapshot returns the latest frame as JPEG bytes at the
// stream's native resolution, Stop releases the device. Stop must be
// reachable from every exit path, a leaked handle is a correctness bug.
type CaptureDevice interface {
	Start(ctx context.Context) error
	Snapshot() ([]byte, error)
	Stop()
}
