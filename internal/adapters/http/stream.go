package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// EventType names a portfolio change.
type EventType string

const (
	EventProjectCreated EventType = "project.created"
	EventProjectDeleted EventType = "project.deleted"
	EventMediaAdded     EventType = "media.added"
	EventMediaRemoved   EventType = "media.removed"
)

// Event is pushed to admin clients after a successful mutation.
type Event struct {
	Type      EventType `json:"type"`
	ProjectID string    `json:"project_id"`
	MediaID   string    `json:"media_id,omitempty"`
}

// allProjects is the subscription key for clients that watch every project.
const allProjects = ""

// StreamManager fans portfolio events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{} // ProjectID -> set of channels
	logger      *slog.Logger
}

// NewStreamManager creates a StreamManager that reports dropped events to logger.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan Event]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for projectID ("" for all projects).
// The returned func unregisters and closes it.
func (sm *StreamManager) Subscribe(projectID string) (<-chan Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Event, 10)
	if _, ok := sm.subscribers[projectID]; !ok {
		sm.subscribers[projectID] = make(map[chan Event]struct{})
	}
	sm.subscribers[projectID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[projectID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, projectID)
				}
			}
		})
	}
}

// Publish delivers ev to the project's subscribers and to global subscribers.
// Slow clients lose events instead of blocking the request.
func (sm *StreamManager) Publish(ev Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	keys := []string{allProjects}
	if ev.ProjectID != allProjects {
		keys = append(keys, ev.ProjectID)
	}
	for _, key := range keys {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- ev:
			default:
				sm.logger.Warn("SSE: client buffer full, dropping event", "project_id", ev.ProjectID, "type", ev.Type)
			}
		}
	}
}

// Subscribers reports how many clients listen on projectID.
func (sm *StreamManager) Subscribers(projectID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[projectID])
}

// SubscribeEvents handles the GET /admin/events request (SSE).
// Optional query params: project (single project) and watch (comma separated event types).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody("streaming not supported"))
		return
	}

	projectID := r.URL.Query().Get("project")
	watch := map[EventType]bool{}
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			watch[EventType(strings.TrimSpace(t))] = true
		}
	}

	ch, cancel := s.Streams.Subscribe(projectID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("SSE: admin client subscribed", "project_id", projectID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: admin client disconnected", "project_id", projectID)
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !watch[ev.Type] {
				continue
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
			flusher.Flush()
		}
	}
}
