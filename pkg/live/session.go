package live

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/recera/tmapview/internal/storage"
	"github.com/recera/tmapview/pkg/dataset"
	"github.com/recera/tmapview/pkg/host"
	"github.com/recera/tmapview/pkg/scheduler"
	"github.com/recera/tmapview/pkg/viewer"
)

var errNoBookmarks = errors.New("live: bookmarks are not enabled")

// Session is one connected browser with its own event loop and viewer.
// Everything below the loop field is only touched from the loop.
type Session struct {
	ID string

	server       *Server
	conn         *websocket.Conn
	sendChan     chan []byte
	sendTextChan chan []byte
	closeChan    chan struct{}
	closeOnce    sync.Once
	loop         *scheduler.Scheduler
	log          zerolog.Logger

	scene       *host.Scene
	dataset     string
	width       float64
	height      float64
	exportTimer *scheduler.Task
}

func newSession(id string, server *Server, conn *websocket.Conn) *Session {
	log := server.log.With().Str("session", id).Logger()
	s := &Session{
		ID:           id,
		server:       server,
		conn:         conn,
		sendChan:     make(chan []byte, 256),
		sendTextChan: make(chan []byte, 256),
		closeChan:    make(chan struct{}),
		log:          log,
		width:        server.opts.Width,
		height:       server.opts.Height,
	}
	s.loop = scheduler.NewScheduler(
		scheduler.WithLogger(log),
		scheduler.WithErrorHandler(func(err error) bool {
			log.Error().Err(err).Msg("Session handler panicked")
			s.sendError(errors.New("live: internal error"))
			return true
		}),
	)
	return s
}

// Close stops the session and its loop. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closeChan)
		s.conn.Close()
	})
}

// handleConnection manages the WebSocket connection for a session
func (s *Session) handleConnection() {
	defer func() {
		s.Close()
		s.loop.Stop()
		if s.scene != nil {
			s.scene.Close()
		}
		s.server.removeSession(s)
		s.log.Info().Msg("Session closed")
	}()

	go s.writer()

	s.loop.Start()
	d, name := s.server.Dataset()
	s.sendBinary(EncodeControl("HELLO", s.ID, name))
	s.loop.Post(func() {
		if err := s.build(d, name); err != nil {
			s.sendError(err)
		}
	})

	s.conn.SetReadDeadline(time.Now().Add(300 * time.Second))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(300 * time.Second))
		return nil
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(300 * time.Second))

		switch messageType {
		case websocket.BinaryMessage:
			s.handleBinaryMessage(data)
		case websocket.TextMessage:
			s.handleTextMessage(data)
		}
	}
}

// writer handles writing messages to the WebSocket
func (s *Session) writer() {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message := <-s.sendChan:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				s.log.Debug().Err(err).Msg("Failed to write binary message")
				s.Close()
				return
			}

		case message := <-s.sendTextChan:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.log.Debug().Err(err).Msg("Failed to write text message")
				s.Close()
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}

		case <-s.closeChan:
			return
		}
	}
}

func (s *Session) sendBinary(data []byte) {
	select {
	case s.sendChan <- data:
	case <-s.closeChan:
	default:
		s.log.Warn().Int("bytes", len(data)).Msg("Send buffer full, dropping frame")
	}
}

func (s *Session) sendJSON(msg Outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Str("type", msg.Type).Msg("Failed to encode message")
		return
	}
	select {
	case s.sendTextChan <- data:
	case <-s.closeChan:
	default:
		s.log.Warn().Str("type", msg.Type).Msg("Send buffer full, dropping message")
	}
}

func (s *Session) sendError(err error) {
	s.sendJSON(Outbound{Type: MsgError, Error: err.Error()})
}

// handleBinaryMessage answers control frames
func (s *Session) handleBinaryMessage(data []byte) {
	if len(data) == 0 || MessageType(data[0]) != FrameControl {
		return
	}
	decoder := NewDecoder(bytes.NewReader(data[1:]))
	msgType, err := decoder.ReadString()
	if err != nil {
		s.log.Debug().Err(err).Msg("Failed to decode control message")
		return
	}
	if msgType == "PING" {
		s.sendBinary(EncodeControl("PONG"))
	}
}

// handleTextMessage decodes a JSON message and runs it on the loop
func (s *Session) handleTextMessage(data []byte) {
	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(fmt.Errorf("live: bad message: %w", err))
		return
	}
	if err := s.loop.Post(func() {
		if err := s.handle(msg); err != nil {
			s.log.Debug().Err(err).Str("type", msg.Type).Msg("Message failed")
			s.sendError(err)
		}
	}); err != nil {
		s.log.Debug().Err(err).Msg("Dropping message")
	}
}

// reload rebuilds the viewer over a new dataset
func (s *Session) reload(d *dataset.Dataset, name string) {
	err := s.loop.Post(func() {
		if err := s.build(d, name); err != nil {
			s.sendError(err)
			return
		}
		s.sendJSON(Outbound{Type: MsgReload, Dataset: name})
	})
	if err != nil {
		s.log.Debug().Err(err).Msg("Session not running, skipping reload")
	}
}

// build replaces the scene. Runs on the loop.
func (s *Session) build(d *dataset.Dataset, name string) error {
	if s.scene != nil {
		s.scene.Close()
		s.scene = nil
	}
	if s.exportTimer != nil {
		s.exportTimer.Cancel()
		s.exportTimer = nil
	}

	opts := s.server.opts
	sc, err := host.NewScene(d.Series, s.width, s.height, &annotator{s: s}, &viewer.Options{
		DevicePixelRatio: opts.DevicePixelRatio,
		ZoomPadding:      opts.ZoomPadding,
		Strict:           opts.Strict,
		Logger:           &s.log,
	})
	if err != nil {
		return err
	}
	if d.PointScale > 0 {
		for _, p := range sc.Points {
			p.SetBaseSize(d.PointScale)
		}
	}

	v := sc.Viewer
	v.OnVertexClick(func(vi viewer.VertexInfo) {
		vm := vertexMsg(vi)
		if _, it, ok := v.CurrentSelection(); ok && it.Index == vi.Index {
			vm.Series = string(it.Series)
		}
		s.sendJSON(Outbound{Type: MsgClick, Vertex: vm})
	})
	for _, id := range v.SeriesIDs() {
		series := string(id)
		colors, _ := v.Colors(id)
		colors.OnVariantChange(func(variant viewer.Variant) {
			n := int(variant)
			s.sendJSON(Outbound{Type: MsgVariant, Series: series, Variant: &n})
		})
	}

	s.scene = sc
	s.dataset = name
	v.ZoomToScene(viewer.DefaultZoomPadding)
	return nil
}

func vertexMsg(vi viewer.VertexInfo) *VertexMsg {
	return &VertexMsg{Index: vi.Index, X: vi.X, Y: vi.Y, Color: vi.Color.Hex()}
}

// handle runs one inbound message. Runs on the loop.
func (s *Session) handle(msg Inbound) error {
	if s.scene == nil {
		return errors.New("live: no dataset loaded")
	}
	sc := s.scene
	v := sc.Viewer
	series := viewer.SeriesID(msg.Series)

	switch msg.Type {
	case MsgViewport:
		if msg.Width <= 0 || msg.Height <= 0 {
			return fmt.Errorf("live: invalid viewport %vx%v", msg.Width, msg.Height)
		}
		s.width, s.height = msg.Width, msg.Height
		sc.Camera.SetViewport(msg.Width, msg.Height)

	case MsgCamera:
		sc.Camera.Batch(func() {
			if msg.LookAt != nil {
				sc.Camera.SetLookAt(*msg.LookAt)
			}
			if msg.Zoom != nil {
				sc.Camera.SetZoom(*msg.Zoom)
			}
			if msg.PanX != 0 || msg.PanY != 0 {
				sc.Camera.Pan(msg.PanX, msg.PanY)
			}
		})

	case MsgPointer:
		switch msg.Action {
		case PointerMove:
			sc.Group.Hover(msg.X, msg.Y)
		case PointerLeave:
			sc.Group.Leave()
		case PointerClick:
			sc.Group.Click(msg.X, msg.Y)
		default:
			return fmt.Errorf("live: unknown pointer action %q", msg.Action)
		}

	case MsgSelect:
		return v.Select(series, msg.Index)

	case MsgDeselect:
		return v.Deselect(series, msg.Index)

	case MsgClear:
		if msg.Series == "" {
			v.ClearSelection()
			return nil
		}
		return v.ClearSeriesSelection(series)

	case MsgCycle:
		d := viewer.Forward
		if msg.Direction < 0 {
			d = viewer.Backward
		}
		v.CycleSelection(d)

	case MsgWatch:
		name := msg.Name
		return v.RegisterWatcher(series, name, msg.Indices, func(vs []viewer.VertexInfo) {
			s.sendBinary(EncodeWatchFrame(WatchFrame{Series: msg.Series, Name: name, Vertices: watchVertices(vs)}))
		})

	case MsgUnwatch:
		v.RemoveWatcher(series, msg.Name)

	case MsgColor:
		return v.SetVertexColor(series, msg.Index, viewer.RGB(msg.Color), msg.Backup)

	case MsgResetColors:
		return v.ResetVertexColors(series)

	case MsgZoomTo:
		padding := -1.0
		if msg.Padding != nil {
			padding = *msg.Padding
		}
		return v.ZoomTo(series, msg.Indices, padding)

	case MsgZoomToFit:
		padding := 0.0
		if msg.Padding != nil {
			padding = *msg.Padding
		}
		if msg.Series == "" {
			v.ZoomToScene(padding)
			return nil
		}
		return v.ZoomToFit(series, padding)

	case MsgCenter:
		return v.CenterOn(series, msg.Index)

	case MsgVariant:
		data, ok := v.Series(series)
		if !ok {
			return fmt.Errorf("%w: %s", viewer.ErrUnknownSeries, series)
		}
		variant, err := viewer.ParseVariant(string(msg.Variant), len(data.Variants))
		if err != nil {
			return err
		}
		return v.ChangeVariant(series, variant)

	case MsgSearch:
		return s.search(msg)

	case MsgExport:
		return s.beginExport(msg.Scale)

	case MsgExportDone:
		return s.finishExport(msg.Export, msg.Cancel)

	case MsgBookmarkSave:
		return s.saveBookmark(msg.Name, series)

	case MsgBookmarkLoad:
		return s.loadBookmark(msg.Name)

	default:
		return fmt.Errorf("live: unknown message type %q", msg.Type)
	}
	return nil
}

func (s *Session) search(msg Inbound) error {
	v := s.scene.Viewer
	results, err := v.Search(msg.Term)
	if err != nil {
		return err
	}
	out := Outbound{Type: MsgResults, Results: make([]ResultMsg, len(results))}
	for i, r := range results {
		out.Results[i] = ResultMsg{Series: string(r.Series), Indices: r.Indices}
	}
	if msg.SelectAll {
		n, err := v.SelectMatches(msg.Term)
		if err != nil {
			return err
		}
		out.Selected = n
	}
	s.sendJSON(out)
	return nil
}

func (s *Session) beginExport(scale float64) error {
	v := s.scene.Viewer
	tok, err := v.BeginExport(context.Background(), scale)
	if err != nil {
		return err
	}
	s.exportTimer = s.loop.After(s.server.opts.ExportTimeout, func() {
		if pending, ok := v.ExportPending(); ok && pending == tok {
			s.log.Warn().Uint64("export", tok.ID).Msg("Export timed out")
			v.CancelExport(tok)
			s.sendJSON(Outbound{Type: MsgExport, Export: &ExportMsg{ID: tok.ID, Scale: tok.Scale, Done: true}})
		}
	})
	s.sendJSON(Outbound{Type: MsgExport, Export: &ExportMsg{ID: tok.ID, Scale: tok.Scale}})
	return nil
}

func (s *Session) finishExport(id uint64, cancel bool) error {
	v := s.scene.Viewer
	tok, ok := v.ExportPending()
	if !ok || tok.ID != id {
		return viewer.ErrStaleExport
	}
	if s.exportTimer != nil {
		s.exportTimer.Cancel()
		s.exportTimer = nil
	}
	if cancel {
		v.CancelExport(tok)
	} else if err := v.CompleteExport(tok); err != nil {
		return err
	}
	s.sendJSON(Outbound{Type: MsgExport, Export: &ExportMsg{ID: tok.ID, Scale: tok.Scale, Done: true}})
	return nil
}

func (s *Session) saveBookmark(name string, series viewer.SeriesID) error {
	store := s.server.opts.Bookmarks
	if store == nil {
		return errNoBookmarks
	}
	var indices []int
	for _, it := range s.scene.Viewer.Selection() {
		if it.Series == series {
			indices = append(indices, it.Index)
		}
	}
	cam := s.scene.Camera
	b, err := storage.NewBookmark(s.dataset, name, string(series), indices, cam.Zoom(), cam.LookAt())
	if err != nil {
		return err
	}
	if err := store.Save(b); err != nil {
		return err
	}
	s.sendJSON(Outbound{Type: MsgBookmark, Name: name, Series: string(series), Dataset: s.dataset})
	return nil
}

func (s *Session) loadBookmark(name string) error {
	store := s.server.opts.Bookmarks
	if store == nil {
		return errNoBookmarks
	}
	b, err := store.Load(s.dataset, name)
	if err != nil {
		return err
	}
	indices, err := b.IndexList()
	if err != nil {
		return err
	}

	v := s.scene.Viewer
	series := viewer.SeriesID(b.Series)
	if err := v.ClearSeriesSelection(series); err != nil {
		return err
	}
	for _, i := range indices {
		if err := v.Select(series, i); err != nil {
			return err
		}
	}
	cam := s.scene.Camera
	cam.Batch(func() {
		if la, ok := b.LookAtPoint(); ok {
			cam.SetLookAt(la)
		}
		cam.SetZoom(b.Zoom)
	})
	s.sendJSON(Outbound{Type: MsgBookmark, Name: name, Series: b.Series, Dataset: s.dataset})
	return nil
}
