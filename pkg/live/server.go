package live

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/recera/tmapview/internal/storage"
	"github.com/recera/tmapview/pkg/dataset"
)

// PathPrefix is where sessions are served; the session ID follows it
const PathPrefix = "/tmap/live/"

// BookmarkStore persists saved selections. *storage.Manager implements it.
type BookmarkStore interface {
	Save(b *storage.Bookmark) error
	Load(dataset, name string) (*storage.Bookmark, error)
}

// Options configures the server
type Options struct {
	// Width and Height are the initial viewport until the client reports
	// its own. Default 800x600.
	Width  float64
	Height float64

	// ExportTimeout cancels exports the client never completes. Default 10s.
	ExportTimeout time.Duration

	// DevicePixelRatio and ZoomPadding are passed to every session's viewer
	DevicePixelRatio float64
	ZoomPadding      float64

	Strict      bool
	Bookmarks   BookmarkStore
	CheckOrigin func(r *http.Request) bool
	Logger      *zerolog.Logger
}

func (o *Options) applyDefaults() {
	if o.Width <= 0 {
		o.Width = 800
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	if o.ExportTimeout <= 0 {
		o.ExportTimeout = 10 * time.Second
	}
	if o.CheckOrigin == nil {
		o.CheckOrigin = func(r *http.Request) bool { return true }
	}
}

// Server handles WebSocket connections. Every session gets its own event
// loop and viewer over the current dataset.
type Server struct {
	upgrader websocket.Upgrader
	opts     Options
	log      zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	data     *dataset.Dataset
	dataName string
}

// NewServer creates a live server over a dataset. name identifies the
// dataset in bookmarks and reload messages.
func NewServer(d *dataset.Dataset, name string, opts Options) *Server {
	opts.applyDefaults()
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "live").Logger()
	}
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin:     opts.CheckOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		opts:     opts,
		log:      log,
		sessions: make(map[string]*Session),
		data:     d,
		dataName: name,
	}
}

// Handler returns a mux serving the live endpoint
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+PathPrefix+"{session}", s.HandleWebSocket)
	return mux
}

// HandleWebSocket handles the WebSocket upgrade and runs the session
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	if sessionID == "" {
		sessionID = strings.TrimPrefix(r.URL.Path, PathPrefix)
	}
	if sessionID == "" || strings.Contains(sessionID, "/") {
		http.Error(w, "Session ID required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to upgrade connection")
		return
	}

	session := s.newSession(sessionID, conn)
	go session.handleConnection()
}

// newSession registers a session, closing any older one with the same ID
func (s *Server) newSession(id string, conn *websocket.Conn) *Session {
	session := newSession(id, s, conn)

	s.mu.Lock()
	old := s.sessions[id]
	s.sessions[id] = session
	s.mu.Unlock()

	if old != nil {
		s.log.Info().Str("session", id).Msg("Replacing session")
		old.Close()
	}
	return session
}

// GetSession retrieves a session by ID
func (s *Server) GetSession(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

// removeSession removes a session unless it was already replaced
func (s *Server) removeSession(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[session.ID] == session {
		delete(s.sessions, session.ID)
	}
}

// Sessions returns the number of connected sessions
func (s *Server) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Dataset returns the dataset new sessions are built from
func (s *Server) Dataset() (*dataset.Dataset, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data, s.dataName
}

// SetDataset swaps the dataset and rebuilds every session's viewer on its
// own loop. Clients receive a reload message and must re-register watchers.
func (s *Server) SetDataset(d *dataset.Dataset, name string) {
	s.mu.Lock()
	s.data, s.dataName = d, name
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.Unlock()

	s.log.Info().Str("dataset", name).Int("sessions", len(sessions)).Msg("Dataset reloaded")
	for _, session := range sessions {
		session.reload(d, name)
	}
}

// Close closes every session
func (s *Server) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}
