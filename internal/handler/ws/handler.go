package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	sessionService "github.com/zhouzirui/prepzone/backend/internal/service/session"
)

const (
	writeTimeout = 10 * time.Second
	// commandQueue 是等待执行的命令上限，超出时直接回错误
	commandQueue = 8
)

// Handler WebSocket会话处理器：入站为玩家命令，出站为状态快照
type Handler struct {
	sessions *sessionService.Service
	upgrader websocket.Upgrader

	// pingPeriod must stay below readTimeout so pongs keep the connection alive.
	readTimeout time.Duration
	pingPeriod  time.Duration
}

// New 创建WebSocket处理器
func New(sessions *sessionService.Service) *Handler {
	return &Handler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		readTimeout: 60 * time.Second,
		pingPeriod:  54 * time.Second,
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func newOutgoing(kind string, data any) outgoingMessage {
	return outgoingMessage{Type: kind, Data: data, Timestamp: time.Now().Unix()}
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	errs := make(chan outgoingMessage, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(ctx, conn, updates, errs)
	}()

	// 命令在单独的goroutine里执行，读循环不会因为内容生成而错过读超时
	commands := make(chan inboundMessage, commandQueue)
	worked := make(chan struct{})
	go func() {
		defer close(worked)
		for msg := range commands {
			if ctx.Err() != nil {
				continue
			}
			if err := h.handleMessage(ctx, sess, msg); err != nil {
				select {
				case errs <- commandError(msg, err):
				case <-ctx.Done():
				}
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.readTimeout))
		return nil
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(h.readTimeout))

		select {
		case commands <- msg:
		default:
			select {
			case errs <- commandError(msg, sessionService.ErrBusy):
			case <-done:
			}
		}
	}

	cancel()
	close(commands)
	<-worked
	<-done
	log.Printf("[websocket] connection closed for session: %s", sessionID)
}

func commandError(msg inboundMessage, err error) outgoingMessage {
	return newOutgoing("error", map[string]string{"message": err.Error(), "command": msg.Type})
}

// handleMessage 把入站消息转换为命令；状态变化通过订阅推送，这里只返回错误
func (h *Handler) handleMessage(ctx context.Context, sess *sessionService.Session, msg inboundMessage) error {
	var cmd sessionService.Command
	if len(msg.Data) > 0 && string(msg.Data) != "null" {
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return err
		}
	}
	cmd.Type = msg.Type

	_, err := sess.Apply(ctx, cmd)
	return err
}

// writeLoop 是连接上唯一的写入者
func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, updates <-chan sessionService.Snapshot, errs <-chan outgoingMessage) {
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	write := func(msg outgoingMessage) bool {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("[websocket] write failed: %v", err)
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				deadline := time.Now().Add(writeTimeout)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"), deadline)
				conn.Close()
				return
			}
			if !write(newOutgoing("snapshot", snap)) {
				conn.Close()
				return
			}
		case msg := <-errs:
			if !write(msg) {
				conn.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				conn.Close()
				return
			}
		}
	}
}
