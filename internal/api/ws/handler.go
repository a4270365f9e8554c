package ws

import (
	"context"
	"time"

	"github.com/GriffinCanCode/homescreen/internal/domain/gesture"
	"github.com/GriffinCanCode/homescreen/internal/domain/shell"
	"github.com/GriffinCanCode/homescreen/internal/shared/id"
	"github.com/GriffinCanCode/homescreen/internal/shared/types"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Shell is what inbound messages act on
type Shell interface {
	State() types.ShellState
	PointerDown(p shell.Pointer)
	PointerMove(p shell.Pointer)
	PointerUp(p shell.Pointer) gesture.Resolution
	ElementRemoved(target gesture.Target, index int)
	CancelGesture(reason string)
	SetViewport(width, height float64)
	HandleStyleChange(ctx context.Context, change types.StyleChange) error
	Relay(origin string, env types.Envelope) bool
}

// Inbound message types
const (
	MsgPointerDown    = "pointer_down"
	MsgPointerMove    = "pointer_move"
	MsgPointerUp      = "pointer_up"
	MsgElementRemoved = "element_removed"
	MsgViewport       = "viewport"
	MsgStyleChange    = "style_change"
	MsgMessage        = "message"
	MsgPing           = "ping"
)

// HandleConnection upgrades the request and serves the page until it
// disconnects. The page receives the full state first, then every event.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{id: id.NewConnID(), conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(cl)
	h.logger.Info("Page connected", zap.String("conn_id", cl.id.String()))

	go h.writePump(cl)

	h.mu.RLock()
	sh := h.shell
	h.mu.RUnlock()
	if sh != nil {
		h.sendTo(cl, types.EventState, sh.State())
	}

	h.readPump(c.Request.Context(), cl, sh)

	h.remove(cl)
	if sh != nil {
		// a page that vanished mid-drag never sends pointer_up
		sh.CancelGesture("connection closed")
	}
	h.logger.Info("Page disconnected", zap.String("conn_id", cl.id.String()))
}

func (h *Hub) readPump(ctx context.Context, cl *client, sh Shell) {
	conn := cl.conn
	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg types.WSMessage
		if err := sonic.Unmarshal(raw, &msg); err != nil {
			h.sendError(cl, "malformed message")
			continue
		}
		h.metrics.RecordWSMessage("in", msg.Type)
		h.dispatch(ctx, cl, sh, msg)
	}
}

func (h *Hub) dispatch(ctx context.Context, cl *client, sh Shell, msg types.WSMessage) {
	if msg.Type == MsgPing {
		h.sendTo(cl, types.EventPong, nil)
		return
	}
	if sh == nil {
		h.sendError(cl, "shell not ready")
		return
	}

	switch msg.Type {
	case MsgPointerDown:
		sh.PointerDown(pointer(msg))
	case MsgPointerMove:
		sh.PointerMove(pointer(msg))
	case MsgPointerUp:
		sh.PointerUp(pointer(msg))
	case MsgElementRemoved:
		sh.ElementRemoved(gesture.Target(msg.Target), msg.Index)
	case MsgViewport:
		sh.SetViewport(msg.Width, msg.Height)
	case MsgStyleChange:
		change := types.StyleChange{Key: msg.Key, Value: msg.Value, EntryID: msg.EntryID}
		if err := sh.HandleStyleChange(ctx, change); err != nil {
			h.sendError(cl, err.Error())
		}
	case MsgMessage:
		if msg.Data == nil {
			h.sendError(cl, "message without data")
			return
		}
		sh.Relay(msg.Origin, *msg.Data)
	default:
		h.sendError(cl, "unknown message type")
	}
}

func pointer(msg types.WSMessage) shell.Pointer {
	return shell.Pointer{
		Target: gesture.Target(msg.Target),
		Index:  msg.Index,
		Pitch:  msg.DotPitch,
		X:      msg.X,
		Y:      msg.Y,
		At:     msg.T,
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.logger.Debug("WebSocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) sendError(cl *client, msg string) {
	h.sendTo(cl, types.EventError, map[string]string{"message": msg})
}
