package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"busters/inference"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Snapshots buffered per client before newer ones are dropped.
	clientBuffer = 16
	shutdownWait = 5 * time.Second
)

// Source exposes the beliefs of a running hunt, e.g. a tracker.Manager.
type Source interface {
	IDs() []string
	Beliefs() []inference.Distribution
	Living() []bool
	Turns() int
}

type Adversary struct {
	ID     string                 `json:"id"`
	Living bool                   `json:"living"`
	Belief inference.Distribution `json:"belief"`
}

type Snapshot struct {
	Turn        int         `json:"turn"`
	Adversaries []Adversary `json:"adversaries"`
}

// Server serves belief snapshots as JSON and streams them to websocket clients
// after every turn.
type Server struct {
	addr     string
	router   *mux.Router
	upgrader websocket.Upgrader

	mu      sync.Mutex
	source  Source
	clients map[chan Snapshot]struct{}
}

func NewServer(addr string) *Server {
	s := &Server{
		addr:    addr,
		router:  mux.NewRouter(),
		clients: make(map[chan Snapshot]struct{}),
	}
	s.router.HandleFunc("/beliefs", s.handleBeliefs).Methods(http.MethodGet)
	s.router.HandleFunc("/beliefs/{id}", s.handleBelief).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWebsocket).Methods(http.MethodGet)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// SetSource switches the served beliefs, e.g. at the start of an episode.
func (s *Server) SetSource(source Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = source
}

// Publish sends the current snapshot to every websocket client. Slow clients miss snapshots.
func (s *Server) Publish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return
	}
	snapshot := takeSnapshot(s.source)
	for client := range s.clients {
		select {
		case client <- snapshot:
		default:
			log.Debug().Msgf("dropping snapshot of turn %d for a slow client", snapshot.Turn)
		}
	}
}

// Serve blocks until ctx is done or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errs := make(chan error, 1)
	go func() {
		log.Info().Msgf("serving beliefs on %s", s.addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) snapshot() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return Snapshot{}, false
	}
	return takeSnapshot(s.source), true
}

func takeSnapshot(source Source) Snapshot {
	ids := source.IDs()
	beliefs := source.Beliefs()
	living := source.Living()

	n := min(len(ids), len(beliefs), len(living))
	snapshot := Snapshot{Turn: source.Turns(), Adversaries: make([]Adversary, n)}
	for i := range n {
		snapshot.Adversaries[i] = Adversary{ID: ids[i], Living: living[i], Belief: beliefs[i]}
	}
	return snapshot
}

func (s *Server) handleBeliefs(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.snapshot()
	if !ok {
		http.Error(w, "no hunt in progress", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snapshot)
}

func (s *Server) handleBelief(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.snapshot()
	if !ok {
		http.Error(w, "no hunt in progress", http.StatusServiceUnavailable)
		return
	}
	id := mux.Vars(r)["id"]
	for _, adversary := range snapshot.Adversaries {
		if adversary.ID == id {
			writeJSON(w, adversary)
			return
		}
	}
	http.Error(w, "unknown adversary "+id, http.StatusNotFound)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode beliefs: "+err.Error(), http.StatusInternalServerError)
	}
}

// handleWebsocket sends the current snapshot, then every published one until the client leaves.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer ws.Close()

	updates := make(chan Snapshot, clientBuffer)
	s.mu.Lock()
	s.clients[updates] = struct{}{}
	var initial *Snapshot
	if s.source != nil {
		snapshot := takeSnapshot(s.source)
		initial = &snapshot
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, updates)
		s.mu.Unlock()
	}()

	// The client only speaks to close the connection
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(snapshot Snapshot) bool {
		if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return false
		}
		if err := ws.WriteJSON(snapshot); err != nil {
			log.Debug().Err(err).Msg("websocket client gone")
			return false
		}
		return true
	}

	if initial != nil && !send(*initial) {
		return
	}
	for {
		select {
		case snapshot := <-updates:
			if !send(snapshot) {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
