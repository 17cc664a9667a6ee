package ws

import (
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kiliankoe/impostor/internal/game"
)

type staticStatus struct{}

func (staticStatus) Status(groupID string) game.Status {
	return game.Status{GroupID: groupID, Phase: game.PhaseIdle}
}

type broadcast struct {
	room, event string
	args        []interface{}
}

type fakeBroadcaster struct{ sent []broadcast }

func (f *fakeBroadcaster) BroadcastToRoom(_, room, event string, args ...interface{}) bool {
	f.sent = append(f.sent, broadcast{room: room, event: event, args: args})
	return true
}

func TestSessionChangedBroadcastsToGroupRoom(t *testing.T) {
	srv := New(staticStatus{})
	srv.SessionChanged(game.Status{GroupID: "g1"}) // not mounted yet: no-op

	fb := &fakeBroadcaster{}
	srv.io = fb
	srv.SessionChanged(game.Status{GroupID: "g1", Phase: game.PhaseVoting})

	if len(fb.sent) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(fb.sent))
	}
	got := fb.sent[0]
	if got.room != "g1" || got.event != "game:state" {
		t.Fatalf("unexpected broadcast %+v", got)
	}
	if st, ok := got.args[0].(game.Status); !ok || st.Phase != game.PhaseVoting {
		t.Fatalf("unexpected payload %+v", got.args)
	}
}

func TestWatcherBookkeeping(t *testing.T) {
	srv := New(staticStatus{})
	srv.addWatcher("g1", "a")
	srv.addWatcher("g1", "b")
	srv.addWatcher("g2", "c")
	srv.removeWatcher("g1", "a")
	srv.removeWatcher("g3", "x")

	if srv.Watchers("g1") != 1 || srv.Watchers("g2") != 1 || srv.Watchers("g3") != 0 {
		t.Fatalf("unexpected counts g1=%d g2=%d", srv.Watchers("g1"), srv.Watchers("g2"))
	}
	srv.removeWatcher("g1", "b")
	if _, ok := srv.watchers["g1"]; ok {
		t.Fatal("empty groups should be dropped")
	}
}

func TestMountRegistersRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	io := New(staticStatus{}).Mount(r)
	defer io.Close()

	seen := map[string]bool{}
	for _, rt := range r.Routes() {
		seen[rt.Method+" "+rt.Path] = true
	}
	if !seen["GET /socket.io/*any"] || !seen["POST /socket.io/*any"] {
		t.Fatalf("socket.io routes missing: %v", seen)
	}
}
