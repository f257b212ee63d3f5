package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ndbelov/stockwear/internal/core/domain"
	"github.com/ndbelov/stockwear/internal/core/port"
	"github.com/ndbelov/stockwear/internal/core/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	products map[string]domain.Product
}

func (r fakeReader) ReadProduct(
	_ context.Context, id string,
) (domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

type recordingApplier struct {
	calls     int
	productID string
	payload   domain.Product
	err       error
}

func (a *recordingApplier) ApplyEdit(
	_ context.Context, productID string, p domain.Product,
) error {
	if a.err != nil {
		return a.err
	}
	a.calls++
	a.productID = productID
	a.payload = p
	return nil
}

type MockCaptureDevice struct {
	mock.Mock
}

func (d *MockCaptureDevice) Start(ctx context.Context) error {
	args := d.Called(ctx)
	return args.Error(0)
}

func (d *MockCaptureDevice) Snapshot() ([]byte, error) {
	args := d.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (d *MockCaptureDevice) Stop() {
	d.Called()
}

func clothingSizes() map[domain.SizeLabel]int {
	sizes := make(map[domain.SizeLabel]int)
	for _, label := range domain.SizeLabels(domain.CategoryClothing) {
		sizes[label] = 0
	}
	sizes["S"] = 2
	return sizes
}

func sourceProduct() domain.Product {
	return domain.Product{
		ID:        "p1",
		Name:      "hoodie",
		Image:     "https://cdn.example.com/hoodie.jpg",
		Price:     decimal.NewFromInt(100),
		Category:  domain.CategoryClothing,
		Sizes:     clothingSizes(),
		CreatedAt: time.UnixMilli(1000),
	}
}

func newEditor(
	applier *recordingApplier, device *MockCaptureDevice,
) *service.Editor {
	reader := fakeReader{map[string]domain.Product{"p1": sourceProduct()}}
	return service.NewEditor(reader, applier, device)
}

func TestEditorOpen(t *testing.T) {
	t.Run("UnknownProduct", func(t *testing.T) {
		e := newEditor(&recordingApplier{}, new(MockCaptureDevice))
		_, _, err := e.Open(t.Context(), "missing")
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("SeedsDraft", func(t *testing.T) {
		e := newEditor(&recordingApplier{}, new(MockCaptureDevice))
		sessionID, draft, err := e.Open(t.Context(), "p1")
		require.NoError(t, err)
		require.NotEmpty(t, sessionID)

		assert.Equal(t, "hoodie", draft.Name)
		assert.Equal(t, "100", draft.PriceText)
		assert.Equal(t, domain.CategoryClothing, draft.Category)
		assert.Equal(t, 2, draft.Sizes["S"])
	})
}

func TestEditorSubmit(t *testing.T) {
	t.Run("UntouchedDraftEqualsSource", func(t *testing.T) {
		applier := &recordingApplier{}
		e := newEditor(applier, new(MockCaptureDevice))

		sessionID, _, err := e.Open(t.Context(), "p1")
		require.NoError(t, err)
		require.NoError(t, e.Submit(t.Context(), sessionID))

		p := sourceProduct()
		require.Equal(t, 1, applier.calls)
		assert.Equal(t, "p1", applier.productID)
		assert.Empty(t, applier.payload.ID)
		assert.Equal(t, p.Name, applier.payload.Name)
		assert.Equal(t, p.Image, applier.payload.Image)
		assert.True(t, p.Price.Equal(applier.payload.Price))
		assert.Equal(t, p.Sizes, applier.payload.Sizes)
		assert.Equal(t, p.CreatedAt, applier.payload.CreatedAt)

		_, err = e.Draft(sessionID)
		assert.ErrorIs(t, err, service.ErrSessionNotFound)
	})

	t.Run("PriceTextScenario", func(t *testing.T) {
		applier := &recordingApplier{}
		e := newEditor(applier, new(MockCaptureDevice))

		sessionID, _, err := e.Open(t.Context(), "p1")
		require.NoError(t, err)

		_, err = e.SetPriceText(sessionID, "150.50")
		require.NoError(t, err)
		require.NoError(t, e.Submit(t.Context(), sessionID))

		assert.True(t,
			decimal.RequireFromString("150.5").Equal(applier.payload.Price))
		assert.Equal(t, sourceProduct().Sizes, applier.payload.Sizes)
		assert.Equal(t, time.UnixMilli(1000), applier.payload.CreatedAt)
	})

	t.Run("CategoryRoundTripRetainsCounts", func(t *testing.T) {
		applier := &recordingApplier{}
		e := newEditor(applier, new(MockCaptureDevice))

		sessionID, _, err := e.Open(t.Context(), "p1")
		require.NoError(t, err)

		_, err = e.SetStock(sessionID, "M", "7")
		require.NoError(t, err)
		_, err = e.SetCategory(sessionID, domain.CategoryShoes)
		require.NoError(t, err)
		_, err = e.SetCategory(sessionID, domain.CategoryClothing)
		require.NoError(t, err)
		require.NoError(t, e.Submit(t.Context(), sessionID))

		assert.Equal(t, 7, applier.payload.Sizes["M"])
		assert.Equal(t, 2, applier.payload.Sizes["S"])
	})

	t.Run("ShoesEmitExactlyShoeLabels", func(t *testing.T) {
		applier := &recordingApplier{}
		e := newEditor(applier, new(MockCaptureDevice))

		sessionID, _, err := e.Open(t.Context(), "p1")
		require.NoError(t, err)

		_, err = e.SetCategory(sessionID, domain.CategoryShoes)
		require.NoError(t, err)
		require.NoError(t, e.Submit(t.Context(), sessionID))

		require.Len(t, applier.payload.Sizes, 10)
		assert.NotContains(t, applier.payload.Sizes, domain.SizeLabel("S"))
	})

	t.Run("ApplierErrorKeepsSession", func(t *testing.T) {
		applier := &recordingApplier{err: errors.New("store is down")}
		e := newEditor(applier, new(MockCaptureDevice))

		sessionID, _, err := e.Open(t.Context(), "p1")
		require.NoError(t, err)

		require.Error(t, e.Submit(t.Context(), sessionID))

		_, err = e.Draft(sessionID)
		assert.NoError(t, err)
	})
}

func TestEditorFields(t *testing.T) {
	t.Run("StockCoercion", func(t *testing.T) {
		e := newEditor(&recordingApplier{}, new(MockCaptureDevice))
		sessionID, _, err := e.Open(t.Context(), "p1")
		require.NoError(t, err)

		draft, err := e.SetStock(sessionID, "M", "abc")
		require.NoError(t, err)
		assert.Equal(t, 0, draft.Sizes["M"])

		draft, err = e.SetStock(sessionID, "M", "-2")
		require.NoError(t, err)
		assert.Equal(t, 0, draft.Sizes["M"])

		draft, err = e.SetStock(sessionID, "M", "12")
		require.NoError(t, err)
		assert.Equal(t, 12, draft.Sizes["M"])
	})

	t.Run("LabelOutsideCategory", func(t *testing.T) {
		e := newEditor(&recordingApplier{}, new(MockCaptureDevice))
		sessionID, _, err := e.Open(t.Context(), "p1")
		require.NoError(t, err)

		_, err = e.SetStock(sessionID, "42", "1")
		assert.ErrorIs(t, err, service.ErrLabelNotInCategory)
	})

	t.Run("UnknownCategory", func(t *testing.T) {
		e := newEditor(&recordingApplier{}, new(MockCaptureDevice))
		sessionID, _, err := e.Open(t.Context(), "p1")
		require.NoError(t, err)

		_, err = e.SetCategory(sessionID, "hats")
		assert.ErrorIs(t, err, domain.ErrUnknownCategory)
	})
}

func TestEditorAttachImage(t *testing.T) {
	t.Run("EncodesDataURI", func(t *testing.T) {
		e := newEditor(&recordingApplier{}, new(MockCaptureDevice))
		sessionID, _, err := e.Open(t.Context(), "p1")
		require.NoError(t, err)

		draft, err := e.AttachImage(sessionID, []byte("png-bytes"), "image/png")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(draft.Image, "data:image/png;base64,"))
	})

	t.Run("EmptyFileIsNoop", func(t *testing.T) {
		e := newEditor(&recordingApplier{}, new(MockCaptureDevice))
		sessionID, before, err := e.Open(t.Context(), "p1")
		require.NoError(t, err)

		draft, err := e.AttachImage(sessionID, nil, "")
		require.NoError(t, err)
		assert.Equal(t, before.Image, draft.Image)
	})
}

func TestEditorCamera(t *testing.T) {
	t.Run("StartStopLeavesImageUntouched", func(t *testing.T) {
		device := new(MockCaptureDevice)
		device.On("Start", mock.Anything).Return(nil)
		device.On("Stop").Return()

		e := newEditor(&recordingApplier{}, device)
		sessionID, before, err := e.Open(t.Context(), "p1")
		require.NoError(t, err)

		require.NoError(t, e.StartCamera(t.Context(), sessionID))
		require.NoError(t, e.StopCamera(sessionID))

		draft, err := e.Draft(sessionID)
		require.NoError(t, err)
		assert.Equal(t, before.Image, draft.Image)
		device.AssertNumberOfCalls(t, "Stop", 1)
	})

	t.Run("CaptureOverwritesImageAndReleasesDevice", func(t *testing.T) {
		device := new(MockCaptureDevice)
		device.On("Start", mock.Anything).Return(nil)
		device.On("Snapshot").Return([]byte("jpeg-frame"), nil)
		device.On("Stop").Return()

		e := newEditor(&recordingApplier{}, device)
		sessionID, before, err := e.Open(t.Context(), "p1")
		require.NoError(t, err)

		require.NoError(t, e.StartCamera(t.Context(), sessionID))
		draft, err := e.CaptureFrame(sessionID)
		require.NoError(t, err)

		assert.NotEqual(t, before.Image, draft.Image)
		assert.True(t, strings.HasPrefix(draft.Image, "data:image/jpeg;base64,"))
		device.AssertNumberOfCalls(t, "Stop", 1)

		_, err = e.CaptureFrame(sessionID)
		assert.ErrorIs(t, err, port.ErrDeviceNotStarted)
	})

	t.Run("StartFailureLeavesDraftUntouched", func(t *testing.T) {
		device := new(MockCaptureDevice)
		device.On("Start", mock.Anything).Return(port.ErrDeviceBusy)

		e := newEditor(&recordingApplier{}, device)
		sessionID, before, err := e.Open(t.Context(), "p1")
		require.NoError(t, err)

		err = e.StartCamera(t.Context(), sessionID)
		assert.ErrorIs(t, err, port.ErrDeviceBusy)

		draft, err := e.Draft(sessionID)
		require.NoError(t, err)
		assert.Equal(t, before.Image, draft.Image)
	})

	t.Run("CancelReleasesDevice", func(t *testing.T) {
		device := new(MockCaptureDevice)
		device.On("Start", mock.Anything).Return(nil)
		device.On("Stop").Return()

		e := newEditor(&recordingApplier{}, device)
		sessionID, _, err := e.Open(t.Context(), "p1")
		require.NoError(t, err)

		require.NoError(t, e.StartCamera(t.Context(), sessionID))
		require.NoError(t, e.Cancel(sessionID))

		device.AssertNumberOfCalls(t, "Stop", 1)
		_, err = e.Draft(sessionID)
		assert.ErrorIs(t, err, service.ErrSessionNotFound)
	})

	t.Run("SubmitReleasesDevice", func(t *testing.T) {
		device := new(MockCaptureDevice)
		device.On("Start", mock.Anything).Return(nil)
		device.On("Stop").Return()

		applier := &recordingApplier{}
		e := newEditor(applier, device)
		sessionID, _, err := e.Open(t.Context(), "p1")
		require.NoError(t, err)

		require.NoError(t, e.StartCamera(t.Context(), sessionID))
		require.NoError(t, e.Submit(t.Context(), sessionID))

		device.AssertNumberOfCalls(t, "Stop", 1)
		assert.Equal(t, 1, applier.calls)
	})
}
