package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/derekprior/leaguenight/internal/league"
	"github.com/derekprior/leaguenight/internal/season"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans season events out to the websocket viewers of each week. It
// implements season.Publisher.
type Hub struct {
	logger *slog.Logger

	mu     sync.RWMutex
	rooms  map[int]map[*viewer]struct{}
	closed bool
}

type viewer struct {
	week int
	conn *websocket.Conn
	send chan []byte
}

var _ season.Publisher = (*Hub)(nil)

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		rooms:  make(map[int]map[*viewer]struct{}),
	}
}

// Publish sends e to every viewer of its week. Slow viewers miss the event.
func (h *Hub) Publish(e season.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("encoding event", slog.String("type", string(e.Type)), slog.Any("error", err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for v := range h.rooms[e.Week] {
		select {
		case v.send <- data:
		default:
			h.logger.Warn("viewer too slow, event dropped", slog.Int("week", e.Week), slog.String("type", string(e.Type)))
		}
	}
}

// Viewers returns how many connections watch week.
func (h *Hub) Viewers(week int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[week])
}

func (h *Hub) join(v *viewer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if h.rooms[v.week] == nil {
		h.rooms[v.week] = make(map[*viewer]struct{})
	}
	h.rooms[v.week][v] = struct{}{}
	return true
}

// leave removes v and closes its send channel. Safe to call twice.
func (h *Hub) leave(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[v.week]
	if _, ok := room[v]; !ok {
		return
	}
	delete(room, v)
	close(v.send)
	if len(room) == 0 {
		delete(h.rooms, v.week)
	}
}

// Close disconnects every viewer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for week, room := range h.rooms {
		for v := range room {
			close(v.send)
		}
		delete(h.rooms, week)
	}
}

// handleWeekSocket upgrades the request and streams the week's events,
// starting with a snapshot of its matches and state.
func handleWeekSocket(logger *slog.Logger, svc *season.Service, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		week, ok := intParam(r, "week")
		if !ok || week < 1 {
			writeError(w, http.StatusBadRequest, "week must be a positive number")
			return
		}
		matches, err := svc.Matches(r.Context(), week)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("websocket upgrade failed", "error", err)
			return
		}

		v := &viewer{week: week, conn: conn, send: make(chan []byte, sendBuffer)}
		snapshot, _ := json.Marshal(season.Event{
			Type:    season.EventSnapshot,
			Week:    week,
			State:   league.DeriveState(matches),
			Matches: matches,
		})
		v.send <- snapshot
		if !hub.join(v) {
			conn.Close()
			return
		}
		logger.Debug("viewer joined", slog.Int("week", week), slog.Int("viewers", hub.Viewers(week)))

		go v.writePump(logger)
		v.readPump(hub, logger)
	}
}

// readPump discards client messages and notices disconnects.
func (v *viewer) readPump(hub *Hub, logger *slog.Logger) {
	defer func() {
		hub.leave(v)
		v.conn.Close()
	}()
	v.conn.SetReadLimit(maxMessageSize)
	v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("viewer read ended", slog.Int("week", v.week), slog.Any("error", err))
			}
			return
		}
	}
}

func (v *viewer) writePump(logger *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				v.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("viewer write failed", slog.Int("week", v.week), slog.Any("error", err))
				return
			}
		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
