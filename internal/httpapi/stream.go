package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yungbote/media-orchestrator/internal/eventbus"
	"github.com/yungbote/media-orchestrator/internal/jobstore"
	"github.com/yungbote/media-orchestrator/internal/platform/logger"
)

// StreamHandler serves a job's live events as SSE or WebSocket, fanning
// a single per-job channel out to every connected client.
type StreamHandler struct {
	store    *jobstore.Store
	bus      *eventbus.Bus
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewStreamHandler(store *jobstore.Store, bus *eventbus.Bus, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		store: store,
		bus:   bus,
		log:   log.With("component", "stream_handler"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func writeSSE(w http.ResponseWriter, event string, data string) error {
	if strings.TrimSpace(event) != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", strings.TrimSpace(event)); err != nil {
			return err
		}
	}
	for _, line := range strings.Split(data, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}

// GET /jobs/:job_id/events — SSE. Emits an initial "snapshot" of the job's
// current state, then forwards every subsequent bus event until the job
// reaches a terminal state or the client disconnects.
func (h *StreamHandler) JobEventsSSE(c *gin.Context) {
	jobID := c.Param("job_id")
	job, err := h.store.Get(jobID)
	if err != nil {
		respondError(c, http.StatusNotFound, "job_not_found", err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		respondError(c, http.StatusInternalServerError, "streaming_unsupported", nil)
		return
	}

	snap, _ := json.Marshal(job)
	if err := writeSSE(c.Writer, string(eventbus.EventSnapshot), string(snap)); err != nil {
		return
	}
	flusher.Flush()

	if job.Status.Terminal() {
		return
	}

	sub := h.bus.Subscribe(jobID)
	defer h.bus.Unsubscribe(jobID, sub)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(c.Writer, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			b, err := json.Marshal(evt.Data)
			if err != nil {
				continue
			}
			if err := writeSSE(c.Writer, string(evt.Name), string(b)); err != nil {
				return
			}
			flusher.Flush()
			if evt.Name == eventbus.EventDone || evt.Name == eventbus.EventFailed {
				return
			}
		}
	}
}

// wsEnvelope is what every WebSocket frame carries; progress is normalized
// to a 0-100 float and the log tail is capped to keep push payloads small.
type wsEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

const wsLogTail = 8

// GET /ws/jobs/:job_id — WebSocket. Sends an initial snapshot message, then
// one JSON message per bus event until the connection closes or the job
// finishes.
func (h *StreamHandler) JobEventsWS(c *gin.Context) {
	jobID := c.Param("job_id")
	job, err := h.store.Get(jobID)
	if err != nil {
		conn, upErr := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if upErr == nil {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(4404, "job not found"), time.Now().Add(time.Second))
			conn.Close()
		}
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	snapshot := wsEnvelope{
		Event: string(eventbus.EventSnapshot),
		Data: gin.H{
			"job_id":   job.ID,
			"status":   job.Status,
			"stage":    job.Stage,
			"progress": job.Progress * 100,
			"logs":     job.LogsTail(wsLogTail),
			"assets":   job.Assets,
		},
	}
	if err := conn.WriteJSON(snapshot); err != nil {
		return
	}
	if job.Status.Terminal() {
		conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		return
	}

	sub := h.bus.Subscribe(jobID)
	defer h.bus.Unsubscribe(jobID, sub)

	// Drain client-initiated reads purely to detect disconnects; this
	// stream is one-directional from the server's point of view.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			env := wsEnvelope{Event: string(evt.Name), Data: evt.Data}
			if evt.Name == eventbus.EventStatus {
				if m, ok := evt.Data.(map[string]any); ok {
					if p, ok := m["progress"].(float64); ok {
						scaled := make(map[string]any, len(m))
						for k, v := range m {
							scaled[k] = v
						}
						scaled["progress"] = p * 100
						env.Data = scaled
					}
				}
			}
			if err := conn.WriteJSON(env); err != nil {
				return
			}
			if evt.Name == eventbus.EventDone || evt.Name == eventbus.EventFailed {
				conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
				return
			}
		}
	}
}
