package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/navikt/roombooking/internal/models"
	"github.com/navikt/roombooking/internal/service"
	"go.uber.org/zap"
)

// UserIDHeader carries the identity of the requester. Authentication happens upstream.
const UserIDHeader = "X-User-ID"

// BookingHandler handles booking submission and lifecycle endpoints
type BookingHandler struct {
	bookings BookingServicer
	logger   *zap.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings BookingServicer, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// submitPayload is the body of POST /api/bookings. Times are "HH:MM".
type submitPayload struct {
	RoomID string `json:"room_id"`
	Date   string `json:"date"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Notes  string `json:"notes"`
}

// bookingResponse adds clock times to a record
type bookingResponse struct {
	*models.BookingRecord
	Start string `json:"start"`
	End   string `json:"end"`
}

func newBookingResponse(b *models.BookingRecord) bookingResponse {
	return bookingResponse{
		BookingRecord: b,
		Start:         models.FormatClock(b.Interval.Start),
		End:           models.FormatClock(b.Interval.End),
	}
}

func newBookingResponses(records []*models.BookingRecord) []bookingResponse {
	out := make([]bookingResponse, 0, len(records))
	for _, b := range records {
		out = append(out, newBookingResponse(b))
	}
	return out
}

// Submit handles POST /api/bookings
func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requesterID, ok := h.requester(w, r)
	if !ok {
		return
	}

	var payload submitPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, h.logger, err)
		return
	}

	start, err := models.ParseClock(payload.Start)
	if err != nil {
		writeError(w, h.logger, invalidInput("start must be a time formatted as HH:MM"))
		return
	}
	end, err := models.ParseClock(payload.End)
	if err != nil {
		writeError(w, h.logger, invalidInput("end must be a time formatted as HH:MM"))
		return
	}

	record, err := h.bookings.Submit(r.Context(), models.BookingRequest{
		RoomID:      payload.RoomID,
		Date:        payload.Date,
		Interval:    models.TimeInterval{Start: start, End: end},
		RequesterID: requesterID,
		Notes:       payload.Notes,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.write(w, http.StatusCreated, newBookingResponse(record))
}

// Get handles GET /api/bookings/:id
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	record, err := h.bookings.GetBooking(r.Context(), ps.ByName("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.write(w, http.StatusOK, newBookingResponse(record))
}

// List handles GET /api/bookings
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	filter := service.BookingFilter{
		RoomID:      q.Get("room"),
		Date:        q.Get("date"),
		RequesterID: q.Get("requester"),
	}
	if status := q.Get("status"); status != "" {
		parsed, err := models.ParseBookingStatus(status)
		if err != nil {
			writeError(w, h.logger, invalidInput(err.Error()))
			return
		}
		filter.Status = parsed
	}

	records, err := h.bookings.ListBookings(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.write(w, http.StatusOK, newBookingResponses(records))
}

// CancelOwn handles POST /api/bookings/:id/cancel
func (h *BookingHandler) CancelOwn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requesterID, ok := h.requester(w, r)
	if !ok {
		return
	}

	record, err := h.bookings.CancelOwn(r.Context(), ps.ByName("id"), requesterID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.write(w, http.StatusOK, newBookingResponse(record))
}

// AdminTransition handles POST /api/admin/bookings/:id/:action
func (h *BookingHandler) AdminTransition(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	action := models.Action(ps.ByName("action"))
	switch action {
	case models.ActionApprove, models.ActionReject, models.ActionCancel:
	default:
		writeError(w, h.logger, &AppError{Code: CodeNotFound, Message: "unknown action", HTTPStatus: http.StatusNotFound})
		return
	}

	record, err := h.bookings.Transition(r.Context(), ps.ByName("id"), action)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.write(w, http.StatusOK, newBookingResponse(record))
}

func (h *BookingHandler) requester(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(UserIDHeader)
	if id == "" {
		writeError(w, h.logger, invalidInput(UserIDHeader+" header is required"))
		return "", false
	}
	return id, true
}

func (h *BookingHandler) write(w http.ResponseWriter, status int, data any) {
	if err := WriteJSON(w, status, data); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
