package httphandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ndbelov/stockwear/internal/core/domain"
	"github.com/ndbelov/stockwear/internal/core/port"
	"github.com/ndbelov/stockwear/internal/core/service"
)

// POST v1/sessions JSON {"product_id"} (201 Created, 404 Not found)
// PATCH v1/sessions/{id} JSON field updates (200 OK, 400 Bad request)
// POST v1/sessions/{id}/camera/start (204, 409 busy, 503 unavailable)
// POST v1/sessions/{id}/submit (200 OK, 502 Bad gateway)

const maxImageBytes = 8 << 20

type SessionsHandler struct {
	editor port.ProductEditor
}

func RegisterSessions(mux *http.ServeMux, editor port.ProductEditor) {
	h := SessionsHandler{editor}
	mux.HandleFunc("POST /v1/sessions", h.OpenSession)
	mux.HandleFunc("GET /v1/sessions/{id}", h.GetDraft)
	mux.HandleFunc("PATCH /v1/sessions/{id}", h.UpdateFields)
	mux.HandleFunc("DELETE /v1/sessions/{id}", h.CancelSession)
	mux.HandleFunc("PUT /v1/sessions/{id}/sizes/{label}", h.PutStock)
	mux.HandleFunc("POST /v1/sessions/{id}/image", h.UploadImage)
	mux.HandleFunc("POST /v1/sessions/{id}/camera/start", h.StartCamera)
	mux.HandleFunc("POST /v1/sessions/{id}/camera/capture", h.CaptureFrame)
	mux.HandleFunc("POST /v1/sessions/{id}/camera/stop", h.StopCamera)
	mux.HandleFunc("POST /v1/sessions/{id}/submit", h.SubmitSession)
}

func (h SessionsHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	const op = "SessionsHandler.OpenSession"
	log := slog.With("op", op)

	var req OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}
	if req.ProductID == "" {
		http.Error(w, "product_id is required", http.StatusBadRequest)
		return
	}

	sessionID, draft, err := h.editor.Open(r.Context(), req.ProductID)
	if err != nil {
		h.writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, draftView(sessionID, draft))
}

func (h SessionsHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	const op = "SessionsHandler.GetDraft"
	log := slog.With("op", op)

	sessionID := r.PathValue("id")
	draft, err := h.editor.Draft(sessionID)
	if err != nil {
		h.writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, draftView(sessionID, draft))
}

func (h SessionsHandler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	const op = "SessionsHandler.UpdateFields"
	log := slog.With("op", op)

	sessionID := r.PathValue("id")

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	draft, err := h.applyUpdates(sessionID, req)
	if err != nil {
		h.writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, draftView(sessionID, draft))
}

func (h SessionsHandler) applyUpdates(
	sessionID string, req UpdateRequest,
) (draft domain.Draft, err error) {
	draft, err = h.editor.Draft(sessionID)
	if err != nil {
		return domain.Draft{}, err
	}
	if req.Name != nil {
		if draft, err = h.editor.SetName(sessionID, *req.Name); err != nil {
			return domain.Draft{}, err
		}
	}
	if req.Price != nil {
		if draft, err = h.editor.SetPriceText(sessionID, *req.Price); err != nil {
			return domain.Draft{}, err
		}
	}
	if req.Category != nil {
		c := domain.Category(*req.Category)
		if draft, err = h.editor.SetCategory(sessionID, c); err != nil {
			return domain.Draft{}, err
		}
	}
	return draft, nil
}

func (h SessionsHandler) PutStock(w http.ResponseWriter, r *http.Request) {
	const op = "SessionsHandler.PutStock"
	log := slog.With("op", op)

	sessionID := r.PathValue("id")
	label := domain.SizeLabel(r.PathValue("label"))

	var req StockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	draft, err := h.editor.SetStock(sessionID, label, req.Count)
	if err != nil {
		h.writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, draftView(sessionID, draft))
}

// UploadImage is the file-pick acquisition path: the uploaded bytes are
// read fully and stored into the image slot as an inline data URI. A
// missing file part is a no-op, the current draft is returned unchanged.
func (h SessionsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	const op = "SessionsHandler.UploadImage"
	log := slog.With("op", op)

	sessionID := r.PathValue("id")

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		http.Error(w, "invalid multipart data", http.StatusBadRequest)
		log.Warn("failed to parse multipart form", "err", err)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			draft, derr := h.editor.Draft(sessionID)
			if derr != nil {
				h.writeError(w, log, derr)
				return
			}
			writeJSON(w, http.StatusOK, draftView(sessionID, draft))
			return
		}
		http.Error(w, "invalid multipart data", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		log.Warn("failed to read uploaded file", "err", err)
		return
	}

	mediaType := header.Header.Get("Content-Type")
	draft, err := h.editor.AttachImage(sessionID, data, mediaType)
	if err != nil {
		h.writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, draftView(sessionID, draft))
}

func (h SessionsHandler) StartCamera(w http.ResponseWriter, r *http.Request) {
	const op = "SessionsHandler.StartCamera"
	log := slog.With("op", op)

	sessionID := r.PathValue("id")
	err := h.editor.StartCamera(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, port.ErrDeviceBusy):
			writeJSON(w, http.StatusConflict, Notice{"camera is in use"})
		default:
			// The permission/device failure surface: a blocking,
			// dismiss-only notice. Draft state is unaffected and the
			// operator may retry.
			log.Warn("camera start failed", "sessionID", sessionID, "err", err)
			writeJSON(w, http.StatusServiceUnavailable,
				Notice{"camera unavailable"})
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h SessionsHandler) CaptureFrame(w http.ResponseWriter, r *http.Request) {
	const op = "SessionsHandler.CaptureFrame"
	log := slog.With("op", op)

	sessionID := r.PathValue("id")
	draft, err := h.editor.CaptureFrame(sessionID)
	if err != nil {
		h.writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, draftView(sessionID, draft))
}

func (h SessionsHandler) StopCamera(w http.ResponseWriter, r *http.Request) {
	const op = "SessionsHandler.StopCamera"
	log := slog.With("op", op)

	sessionID := r.PathValue("id")
	if err := h.editor.StopCamera(sessionID); err != nil {
		h.writeError(w, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h SessionsHandler) SubmitSession(w http.ResponseWriter, r *http.Request) {
	const op = "SessionsHandler.SubmitSession"
	log := slog.With("op", op)

	sessionID := r.PathValue("id")
	if err := h.editor.Submit(r.Context(), sessionID); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		log.Error("failed to submit session", "sessionID", sessionID, "err", err)
		http.Error(w, "failed to apply edit", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h SessionsHandler) CancelSession(w http.ResponseWriter, r *http.Request) {
	const op = "SessionsHandler.CancelSession"
	log := slog.With("op", op)

	sessionID := r.PathValue("id")
	if err := h.editor.Cancel(sessionID); err != nil {
		h.writeError(w, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h SessionsHandler) writeError(
	w http.ResponseWriter, log *slog.Logger, err error,
) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, domain.ErrProductNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrUnknownCategory),
		errors.Is(err, service.ErrLabelNotInCategory):
		http.Error(w, "bad request", http.StatusBadRequest)
	case errors.Is(err, port.ErrDeviceBusy),
		errors.Is(err, port.ErrDeviceNotStarted),
		errors.Is(err, port.ErrNoFrame):
		http.Error(w, "camera conflict", http.StatusConflict)
	default:
		log.Error("internal error", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func draftView(sessionID string, d domain.Draft) DraftView {
	labels := domain.SizeLabels(d.Category)
	sizes := make([]SizeCount, 0, len(labels))
	for _, label := range labels {
		sizes = append(sizes, SizeCount{Label: string(label), Count: d.Sizes[label]})
	}
	return DraftView{
		SessionID: sessionID,
		Name:      d.Name,
		Price:     d.PriceText,
		Image:     d.Image,
		Category:  string(d.Category),
		Sizes:     sizes,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
