package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoosight/internal/automation"
	"github.com/yoockh/yoosight/internal/overlay"
	"github.com/yoockh/yoosight/internal/utils"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsPingEvery    = 25 * time.Second
)

type WSHandler struct {
	hub      *overlay.Hub
	ctrl     SessionController
	auto     *automation.AutoConfirm
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *overlay.Hub, ctrl SessionController, auto *automation.AutoConfirm, log *logrus.Logger) *WSHandler {
	if log == nil {
		log = logrus.New()
	}
	return &WSHandler{
		hub:  hub,
		ctrl: ctrl,
		auto: auto,
		log:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // overlay clients are native apps
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) write(messageType int, b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.c.WriteMessage(messageType, b)
}

func (w *wsConn) writeCommand(cmd overlay.Command) error {
	b, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	return w.write(websocket.TextMessage, b)
}

func (h *WSHandler) Overlay(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	id := clientID(c)
	if id == "" {
		id = uuid.NewString()
	}
	wc := &wsConn{c: conn}
	client := h.hub.Register(id)
	defer h.hub.Unregister(client)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// writer: hub -> WS
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		defer conn.Close() // unblocks the reader
		ping := time.NewTicker(wsPingEvery)
		defer ping.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case b, ok := <-client.Send():
				if !ok {
					return
				}
				if err := wc.write(websocket.TextMessage, b); err != nil {
					cancel()
					return
				}
			case <-ping.C:
				if err := wc.write(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	// current state for a late joiner
	if sess, ok := h.ctrl.Status(); ok {
		_ = wc.writeCommand(overlay.Command{Type: overlay.CmdState, SessionID: sess.ID, State: sess.State, Language: sess.LanguageCode})
	}

	// reader: WS -> coordinator
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})
	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var msg overlay.Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeCommand(overlay.Command{Type: overlay.CmdError, Code: string(utils.CodeInvalidArgument), Message: "invalid json"})
			continue
		}
		if err := h.dispatch(ctx, msg); err != nil {
			_ = wc.writeCommand(overlay.Command{Type: overlay.CmdError, Code: string(utils.CodeOf(err, utils.CodeInternal)), Message: utils.MessageOf(err)})
		}
	}

	cancel()
	<-writeDone
}

func (h *WSHandler) dispatch(ctx context.Context, msg overlay.Inbound) error {
	const op = "WSHandler.dispatch"

	switch msg.Type {
	case overlay.MsgTrigger:
		_, err := h.ctrl.Trigger(ctx, msg.Language)
		return err

	case overlay.MsgToggle:
		_, err := h.ctrl.Toggle(ctx, msg.Language)
		return err

	case overlay.MsgInterrupt:
		h.ctrl.Interrupt()
		return nil

	case overlay.MsgPermissionResult:
		if msg.SessionID == "" {
			return utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
		}
		h.ctrl.OnPermissionResult(msg.SessionID, msg.Granted, msg.Payload)
		return nil

	case overlay.MsgWindowState:
		if h.auto == nil {
			return nil
		}
		_, err := h.auto.OnWindowState(ctx, automation.WindowState{
			Package:      msg.Package,
			Texts:        msg.Texts,
			ScreenWidth:  msg.ScreenWidth,
			ScreenHeight: msg.ScreenHeight,
		})
		if err != nil {
			h.log.WithError(err).Warn("auto-confirm tap failed")
		}
		return nil

	case overlay.MsgSpeechState:
		h.hub.SetSpeaking(msg.Speaking)
		return nil

	default:
		return utils.E(utils.CodeInvalidArgument, op, "unknown message type", nil)
	}
}
