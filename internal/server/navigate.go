package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/healthviz/internal/chart"
	"github.com/ziadkadry99/healthviz/internal/config"
	"github.com/ziadkadry99/healthviz/internal/detail"
	"github.com/ziadkadry99/healthviz/internal/hierarchy"
	"github.com/ziadkadry99/healthviz/internal/navigator"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message types of the navigate protocol.
const (
	msgFrame      = "frame"
	msgTransition = "transition"
	msgSelection  = "selection"
	msgError      = "error"
)

// navRequest is the incoming WebSocket message format.
type navRequest struct {
	Type string `json:"type"` // "click", "background", "dblclick" or "frame"
	Key  string `json:"key,omitempty"`
}

// navResponse is the outgoing WebSocket message format.
type navResponse struct {
	Type       string                `json:"type"` // "transition", "selection", "frame" or "error"
	SessionID  string                `json:"session_id"`
	Breadcrumb string                `json:"breadcrumb,omitempty"`
	Transition *navigator.Transition `json:"transition,omitempty"`
	Frame      *navigator.Frame      `json:"frame,omitempty"`
	Detail     *detail.View          `json:"detail,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// session is one connected chart. Its navigator is touched only by the
// connection's read loop.
type session struct {
	id    string
	conn  *websocket.Conn
	nav   *navigator.Navigator
	panel *detail.Panel
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v, err := config.ParseVariant(q.Get("variant"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var root *hierarchy.Node
	switch name := q.Get("chart"); {
	case name != "":
		var ok bool
		if root, ok = s.loadTreeNamed(w, r, name); !ok {
			return
		}
	case v == config.VariantBubble:
		f, err := s.defaultFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if root, err = s.bubbleTree(r.Context(), f); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	default:
		http.Error(w, "chart is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	kit := chart.New(s.cfg.Charts, v)
	sess := &session{
		id:    uuid.New().String(),
		conn:  conn,
		nav:   kit.Navigator(root),
		panel: kit.Panel,
	}
	if sess.panel == nil {
		sess.panel = detail.New(nil, float64(kit.Render.Width), float64(kit.Render.Height))
	}
	sess.sendTransition(sess.nav.Start(), nil)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req navRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			sess.sendError("invalid message format")
			continue
		}

		switch req.Type {
		case msgFrame:
			f := sess.nav.Frame()
			sess.send(navResponse{Type: msgFrame, Frame: &f})
		case string(navigator.EventClick), string(navigator.EventBackground), string(navigator.EventDoubleClick):
			sess.handleEvent(navigator.Event{Kind: navigator.EventKind(req.Type), Key: req.Key})
		default:
			sess.sendError("unknown message type: " + req.Type)
		}
	}
}

func (sess *session) handleEvent(ev navigator.Event) {
	res, err := sess.nav.Handle(ev)
	if err != nil {
		sess.sendError(err.Error())
		return
	}

	switch {
	case res.Selected != nil:
		view, err := sess.panel.Show(res.Selected, shapeOf(sess.nav.Frame(), res.Selected.Key()))
		if err != nil {
			sess.sendError(err.Error())
			return
		}
		sess.send(navResponse{Type: msgSelection, Detail: &view})
	case res.Transition != nil:
		var cleared *detail.View
		if res.Transition.Action == navigator.ActionReset {
			v := sess.panel.Clear()
			cleared = &v
		}
		sess.sendTransition(res.Transition, cleared)
	default:
		// Drill-up at the root leaves the view as it is.
		f := sess.nav.Frame()
		sess.send(navResponse{Type: msgFrame, Frame: &f})
	}
}

func (sess *session) sendTransition(t *navigator.Transition, d *detail.View) {
	sess.send(navResponse{Type: msgTransition, Transition: t, Detail: d})
}

func (sess *session) sendError(msg string) {
	sess.send(navResponse{Type: msgError, Error: msg})
}

func (sess *session) send(resp navResponse) {
	resp.SessionID = sess.id
	resp.Breadcrumb = sess.nav.Breadcrumb()
	if err := sess.conn.WriteJSON(resp); err != nil {
		log.Printf("server: websocket write: %v", err)
	}
}
