package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/orderitems"
)

var errBodyRequired = errors.New("request body is required")

func (h *Handler) getOrderItems(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	summary, err := h.view.Summary(r.Context(), orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(summary))
}

func (h *Handler) appendOrderLine(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	line, err := domain.ParseRawOrderLine(body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	line.OrderID = chi.URLParam(r, "orderID")

	stored, err := h.view.AppendLine(r.Context(), line)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lineResponse{
		ID:        stored.ID,
		OrderID:   stored.OrderID,
		CreatedAt: stored.CreatedAt,
	})
}

func (h *Handler) formatOrderItems(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	lines, err := domain.ParseRawOrderLines(body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(h.view.Format(lines)))
}

func (h *Handler) formatSizesDisplay(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sizes, err := domain.ParseSizeEntries(body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, displayResponse{Display: orderitems.FormatSizesDisplay(sizes)})
}

func (h *Handler) ensureTodayCashbox(w http.ResponseWriter, r *http.Request) {
	if h.provisioner == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "cashbox provisioning is disabled"})
		return
	}

	cashbox, created, err := h.provisioner.EnsureForDay(r.Context(), h.clock())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	writeJSON(w, code, newCashboxResponse(cashbox))
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errBodyRequired
	}
	return body, nil
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrCashboxNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrOrderIDRequired),
		errors.Is(err, domain.ErrLineInvalid),
		errors.Is(err, domain.ErrSizesInvalid),
		errors.Is(err, domain.ErrLineQuantityInvalid),
		errors.Is(err, errBodyRequired):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &maxBytesErr):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body is too large"})
	default:
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
