package ws

import (
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"github.com/kiliankoe/impostor/internal/game"
)

// StatusSource is the read side of the orchestrator.
type StatusSource interface {
	Status(groupID string) game.Status
}

type broadcaster interface {
	BroadcastToRoom(namespace, room, event string, args ...interface{}) bool
}

type ConnCtx struct {
	GroupID string
}

// Server is a read-only spectator feed. Clients emit group:watch and then
// receive game:state every time that group's session changes.
type Server struct {
	games StatusSource

	mu       sync.Mutex
	io       broadcaster
	watchers map[string]map[string]struct{} // groupID -> socketID
}

func New(games StatusSource) *Server {
	return &Server{games: games, watchers: make(map[string]map[string]struct{})}
}

// Mount attaches the Socket.IO server to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)
	srv.mu.Lock()
	srv.io = io
	srv.mu.Unlock()

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "group:watch", func(s socketio.Conn, payload struct {
		GroupID string `json:"groupId"`
	}) map[string]any {
		if payload.GroupID == "" {
			s.Emit("error", map[string]any{"code": "bad_request", "message": "groupId is required"})
			return map[string]any{"error": "groupId is required"}
		}
		if ctx, ok := s.Context().(*ConnCtx); ok && ctx.GroupID != "" {
			s.Leave(ctx.GroupID)
			srv.removeWatcher(ctx.GroupID, s.ID())
		}
		s.SetContext(&ConnCtx{GroupID: payload.GroupID})
		s.Join(payload.GroupID)
		srv.addWatcher(payload.GroupID, s.ID())
		log.Info().Str("sid", s.ID()).Str("group", payload.GroupID).Msg("group:watch")
		s.Emit("game:state", srv.games.Status(payload.GroupID))
		return map[string]any{"ok": true}
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if ctx, ok := s.Context().(*ConnCtx); ok && ctx.GroupID != "" {
			srv.removeWatcher(ctx.GroupID, s.ID())
		}
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))
	return io
}

// SessionChanged pushes st to everyone watching its group.
func (srv *Server) SessionChanged(st game.Status) {
	srv.mu.Lock()
	io := srv.io
	srv.mu.Unlock()
	if io == nil {
		return
	}
	io.BroadcastToRoom("/", st.GroupID, "game:state", st)
}

// Watchers returns how many spectators follow groupID.
func (srv *Server) Watchers(groupID string) int {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return len(srv.watchers[groupID])
}

func (srv *Server) addWatcher(groupID, sid string) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.watchers[groupID] == nil {
		srv.watchers[groupID] = make(map[string]struct{})
	}
	srv.watchers[groupID][sid] = struct{}{}
}

func (srv *Server) removeWatcher(groupID, sid string) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if m := srv.watchers[groupID]; m != nil {
		delete(m, sid)
		if len(m) == 0 {
			delete(srv.watchers, groupID)
		}
	}
}

var _ game.Observer = (*Server)(nil)
