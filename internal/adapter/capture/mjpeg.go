package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"sync"

	_ "image/jpeg"

	"github.com/ndbelov/stockwear/internal/core/port"
)

var _ port.CaptureDevice = (*MJPEGDevice)(nil)

// MJPEGDevice acquires a network camera streaming JPEG frames over
// multipart/x-mixed-replace. While started, a reader goroutine keeps the
// latest frame as the preview buffer; Snapshot returns that frame at the
// stream's native resolution. The device is exclusive: a second Start
// while active fails with [port.ErrDeviceBusy], and Stop always halts the
// reader and closes the stream.
type MJPEGDevice struct {
	url    string
	client *http.Client

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc
	done   chan struct{}
	frame  []byte
}

func NewMJPEGDevice(streamURL string) *MJPEGDevice {
	return &MJPEGDevice{url: streamURL, client: &http.Client{}}
}

func (d *MJPEGDevice) Start(ctx context.Context) error {
	const op = "MJPEGDevice.Start"
	log := slog.With("op", op)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return fmt.Errorf("%s: %w", op, port.ErrDeviceBusy)
	}

	// The stream must outlive the request that started it, so its
	// lifetime is bound to Stop, not to the caller's context.
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, d.url, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("%s: %w", op, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		cancel()
		return fmt.Errorf("%s: %w", op, err)
	}

	mr, err := streamReader(resp)
	if err != nil {
		_ = resp.Body.Close()
		cancel()
		return fmt.Errorf("%s: %w", op, err)
	}

	d.active = true
	d.cancel = cancel
	d.frame = nil
	d.done = make(chan struct{})
	go d.readFrames(mr, resp.Body, d.done)

	log.Info("capture device started", "url", d.url)
	return nil
}

// Snapshot returns a copy of the latest frame.
func (d *MJPEGDevice) Snapshot() ([]byte, error) {
	const op = "MJPEGDevice.Snapshot"
	log := slog.With("op", op)

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil, fmt.Errorf("%s: %w", op, port.ErrDeviceNotStarted)
	}
	if d.frame == nil {
		return nil, fmt.Errorf("%s: %w", op, port.ErrNoFrame)
	}

	frame := make([]byte, len(d.frame))
	copy(frame, d.frame)

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(frame)); err == nil {
		log.Debug("frame captured", "width", cfg.Width, "height", cfg.Height)
	}
	return frame, nil
}

// Stop releases the device: the reader goroutine halts and the stream
// closes before Stop returns. Safe to call when not started.
func (d *MJPEGDevice) Stop() {
	const op = "MJPEGDevice.Stop"
	log := slog.With("op", op)

	d.mu.Lock()
	if !d.active {
		d.mu.Unlock()
		return
	}
	cancel, done := d.cancel, d.done
	d.active = false
	d.cancel = nil
	d.frame = nil
	d.mu.Unlock()

	cancel()
	<-done
	log.Info("capture device stopped")
}

func (d *MJPEGDevice) readFrames(
	mr *multipart.Reader, body io.Closer, done chan struct{},
) {
	defer close(done)
	defer body.Close()

	for {
		part, err := mr.NextPart()
		if err != nil {
			return
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return
		}

		d.mu.Lock()
		if d.active && d.done == done {
			d.frame = data
		}
		d.mu.Unlock()
	}
}

func streamReader(resp *http.Response) (*multipart.Reader, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %q", resp.Status)
	}

	mt, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("invalid content type: %w", err)
	}
	if mt != "multipart/x-mixed-replace" || params["boundary"] == "" {
		return nil, fmt.Errorf("not an mjpeg stream: %q", mt)
	}
	return multipart.NewReader(resp.Body, params["boundary"]), nil
}
