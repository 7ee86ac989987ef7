package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/navikt/roombooking/internal/models"
	"github.com/navikt/roombooking/internal/service"
	"go.uber.org/zap"
)

// RoomHandler handles room search and schedule endpoints
type RoomHandler struct {
	rooms  RoomServicer
	logger *zap.Logger
	now    func() time.Time
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms RoomServicer, logger *zap.Logger, now func() time.Time) *RoomHandler {
	if now == nil {
		now = time.Now
	}
	return &RoomHandler{rooms: rooms, logger: logger, now: now}
}

// roomPayload is the body of PUT /api/rooms/:id
type roomPayload struct {
	Name     string `json:"name"`
	Building string `json:"building"`
	Type     string `json:"type"`
	Capacity int    `json:"capacity"`
}

// Search handles GET /api/rooms
func (h *RoomHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	query := service.RoomQuery{
		Building: q.Get("building"),
		Search:   q.Get("q"),
		Date:     q.Get("date"),
	}

	var err error
	if query.MinCapacity, err = optionalInt(q.Get("min_capacity")); err != nil {
		writeError(w, h.logger, invalidInput("min_capacity must be a number"))
		return
	}
	// A slot search needs both start and duration; the date defaults to today
	start, duration := q.Get("start"), q.Get("duration")
	switch {
	case start == "" && duration == "":
	case start == "":
		writeError(w, h.logger, invalidInput("start is required when searching by duration"))
		return
	case duration == "":
		writeError(w, h.logger, invalidInput("duration is required when searching by start time"))
		return
	default:
		if query.StartMinute, err = models.ParseClock(start); err != nil {
			writeError(w, h.logger, invalidInput("start must be a time formatted as HH:MM"))
			return
		}
		if query.DurationMinutes, err = strconv.Atoi(duration); err != nil || query.DurationMinutes <= 0 {
			writeError(w, h.logger, invalidInput("duration must be a positive number of minutes"))
			return
		}
		query.Date = dateOrToday(r, service.MomentOf(h.now()))
	}

	rooms, err := h.rooms.SearchAvailable(r.Context(), query)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.write(w, http.StatusOK, rooms)
}

// Get handles GET /api/rooms/:id
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	room, err := h.rooms.GetRoom(r.Context(), ps.ByName("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.write(w, http.StatusOK, room)
}

// Put handles PUT /api/rooms/:id
func (h *RoomHandler) Put(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var payload roomPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, h.logger, err)
		return
	}

	room := &models.Room{
		ID:       ps.ByName("id"),
		Name:     payload.Name,
		Building: payload.Building,
		Type:     payload.Type,
		Capacity: payload.Capacity,
	}
	if err := h.rooms.SaveRoom(r.Context(), room); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.write(w, http.StatusOK, room)
}

// Schedule handles GET /api/rooms/:id/schedule
func (h *RoomHandler) Schedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	now := service.MomentOf(h.now())
	date := dateOrToday(r, now)

	view, err := h.rooms.DaySchedule(r.Context(), ps.ByName("id"), date, now)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.write(w, http.StatusOK, view)
}

// Status handles GET /api/rooms/:id/status
func (h *RoomHandler) Status(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	now := service.MomentOf(h.now())
	date := dateOrToday(r, now)

	minute := now.Minute
	if at := r.URL.Query().Get("at"); at != "" {
		var err error
		if minute, err = models.ParseClock(at); err != nil {
			writeError(w, h.logger, invalidInput("at must be a time formatted as HH:MM"))
			return
		}
	}

	status, err := h.rooms.Status(r.Context(), ps.ByName("id"), date, minute)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.write(w, http.StatusOK, status)
}

// Week handles GET /api/rooms/:id/week
func (h *RoomHandler) Week(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	now := service.MomentOf(h.now())
	date := dateOrToday(r, now)

	week, err := h.rooms.Week(r.Context(), ps.ByName("id"), date, now)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.write(w, http.StatusOK, week)
}

func (h *RoomHandler) write(w http.ResponseWriter, status int, data any) {
	if err := WriteJSON(w, status, data); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func dateOrToday(r *http.Request, now service.Moment) string {
	if date := r.URL.Query().Get("date"); date != "" {
		return date
	}
	return now.Date
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// maxBodyBytes bounds request bodies
const maxBodyBytes = 64 << 10

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return invalidInput("invalid request body: " + err.Error())
	}
	return nil
}
