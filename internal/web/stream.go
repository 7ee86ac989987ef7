package web

import (
	"encoding/json"
	"net/http"

	"github.com/navikt/roombooking/internal/models"
	"github.com/r3labs/sse/v2"
	"go.uber.org/zap"
)

// BookingStreamID is the SSE stream carrying booking updates
const BookingStreamID = "bookings"

// BookingUpdate is the payload sent for every booking change
type BookingUpdate struct {
	ID       string               `json:"id"`
	RoomID   string               `json:"room_id"`
	Date     string               `json:"date"`
	Interval models.TimeInterval  `json:"interval"`
	Status   models.BookingStatus `json:"status"`
}

// BookingStream pushes booking updates to browsers over server-sent events
type BookingStream struct {
	server *sse.Server
	logger *zap.Logger
}

// NewBookingStream creates the stream server
func NewBookingStream(logger *zap.Logger) *BookingStream {
	if logger == nil {
		logger = zap.NewNop()
	}

	server := sse.New()
	server.AutoReplay = false
	server.Headers = map[string]string{
		"Access-Control-Allow-Origin": "*",
		// Disable nginx proxy buffering
		"X-Accel-Buffering": "no",
	}
	server.CreateStream(BookingStreamID)
	server.OnSubscribe = func(streamID string, _ *sse.Subscriber) {
		logger.Debug("SSE client connected", zap.String("stream", streamID))
	}
	server.OnUnsubscribe = func(streamID string, _ *sse.Subscriber) {
		logger.Debug("SSE client disconnected", zap.String("stream", streamID))
	}

	return &BookingStream{server: server, logger: logger.Named("sse")}
}

// ServeHTTP implements the http.Handler interface for SSE connections.
// Requests without a stream parameter subscribe to the booking stream.
func (s *BookingStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("stream") == "" {
		r = r.Clone(r.Context())
		q := r.URL.Query()
		q.Set("stream", BookingStreamID)
		r.URL.RawQuery = q.Encode()
	}
	s.server.ServeHTTP(w, r)
}

// NotifyBookingUpdate publishes a booking change to every connected client
func (s *BookingStream) NotifyBookingUpdate(booking *models.BookingRecord) {
	data, err := json.Marshal(BookingUpdate{
		ID:       booking.ID,
		RoomID:   booking.RoomID,
		Date:     booking.Date,
		Interval: booking.Interval,
		Status:   booking.Status,
	})
	if err != nil {
		s.logger.Error("Failed to encode booking update", zap.Error(err))
		return
	}

	s.server.Publish(BookingStreamID, &sse.Event{
		ID:    []byte(booking.ID),
		Event: []byte("booking"),
		Data:  data,
	})
}

// Close disconnects all clients
func (s *BookingStream) Close() {
	s.server.Close()
}
