package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"hackhub/internal/models"
)

// 客戶端送出的事件
const (
	EventAuthenticate      = "authenticate"
	EventJoinTeamChat      = "joinTeamChat"
	EventJoinMentorChat    = "joinMentorChat"
	EventSendTeamMessage   = "sendTeamMessage"
	EventSendMentorMessage = "sendMentorMessage"
)

// 伺服器送出的事件
const (
	EventAuthenticated    = "authenticated"
	EventPreviousMessages = "previousMessages"
	EventReceiveMessage   = "receiveMessage"
	EventChatError        = "chatError"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Frame 是 WebSocket 上傳輸的訊息格式
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type GatewayConfig struct {
	AuthTimeout     time.Duration
	SendBuffer      int
	MaxMessageBytes int64
}

// Client 代表一個 WebSocket 客戶端連接
type Client struct {
	ID   string
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan outboundFrame // 消息發送通道，由 writePump 寫出
	closed bool

	principal atomic.Pointer[Principal]
}

func newClient(conn *websocket.Conn, buffer int) *Client {
	return &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan outboundFrame, buffer),
	}
}

// Send 將事件排入發送佇列；佇列已滿時關閉連線
func (c *Client) Send(event string, data any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- outboundFrame{Event: event, Data: data}:
		return true
	default:
		log.Printf("chat: send queue full, dropping connection %s", c.ID)
		c.closeLocked()
		return false
	}
}

func (c *Client) sendError(reason string) {
	c.Send(EventChatError, reason)
}

// Close 關閉發送佇列；writePump 送完剩餘訊息後關閉連線
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) Principal() *Principal {
	return c.principal.Load()
}

// ChatGateway 管理即時聊天連線：驗證、加入房間、廣播與歷史回放
type ChatGateway struct {
	auth  Authenticator
	chat  *ChatService
	rooms *RoomRegistry
	cfg   GatewayConfig

	connections atomic.Int64
}

func NewChatGateway(auth Authenticator, chat *ChatService, rooms *RoomRegistry, cfg GatewayConfig) *ChatGateway {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	if cfg.AuthTimeout <= 0 {
		cfg.AuthTimeout = 10 * time.Second
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = 4096
	}
	return &ChatGateway{auth: auth, chat: chat, rooms: rooms, cfg: cfg}
}

// ConnectionCount 回傳目前開啟的連線數
func (g *ChatGateway) ConnectionCount() int64 {
	return g.connections.Load()
}

// HandleConnection 處理一條已升級的 WebSocket 連線，直到連線關閉才返回
//
// 連線必須在 AuthTimeout 內完成 authenticate，否則會被關閉。
func (g *ChatGateway) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	client := newClient(conn, g.cfg.SendBuffer)
	g.connections.Add(1)

	done := make(chan struct{})
	go func() {
		g.writePump(client)
		close(done)
	}()

	timer := time.AfterFunc(g.cfg.AuthTimeout, func() {
		if client.Principal() == nil {
			client.sendError("Authentication timed out")
			client.Close()
		}
	})

	defer func() {
		timer.Stop()
		g.rooms.Unbind(client.ID)
		client.Close()
		<-done
		g.connections.Add(-1)
	}()

	g.readPump(ctx, client)
}

// readPump 持續監聽並處理從客戶端接收的消息
func (g *ChatGateway) readPump(ctx context.Context, client *Client) {
	client.conn.SetReadLimit(g.cfg.MaxMessageBytes)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("chat: websocket unexpected close error: %v", err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			client.sendError("Invalid message format")
			continue
		}

		if !g.dispatch(ctx, client, frame) {
			return
		}
	}
}

// writePump 處理向客戶端發送消息的邏輯
func (g *ChatGateway) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := client.conn.WriteJSON(frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch 處理單一事件；回傳 false 表示連線應該結束
func (g *ChatGateway) dispatch(ctx context.Context, client *Client, frame Frame) bool {
	if frame.Event == EventAuthenticate {
		return g.handleAuthenticate(ctx, client, frame.Data)
	}

	principal := client.Principal()
	if principal == nil {
		client.sendError("Authentication required")
		return true
	}

	switch frame.Event {
	case EventJoinTeamChat:
		var payload struct {
			TeamID      uint `json:"teamId"`
			HackathonID uint `json:"hackathonId"`
		}
		if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.TeamID == 0 || payload.HackathonID == 0 {
			client.sendError("Invalid join payload")
			return true
		}
		g.join(ctx, client, principal, TeamRoom(payload.HackathonID, payload.TeamID))

	case EventJoinMentorChat:
		var payload struct {
			HackathonID   uint `json:"hackathonId"`
			MentorID      uint `json:"mentorId"`
			ParticipantID uint `json:"participantId"`
		}
		if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.HackathonID == 0 || payload.MentorID == 0 {
			client.sendError("Invalid join payload")
			return true
		}
		g.join(ctx, client, principal, MentorRoomFor(principal, payload.HackathonID, payload.MentorID, payload.ParticipantID))

	case EventSendTeamMessage:
		var payload struct {
			TeamID      uint   `json:"teamId"`
			HackathonID uint   `json:"hackathonId"`
			Content     string `json:"content"`
		}
		if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.TeamID == 0 || payload.HackathonID == 0 {
			client.sendError("Invalid message payload")
			return true
		}
		g.send(ctx, client, principal, TeamRoom(payload.HackathonID, payload.TeamID), payload.Content)

	case EventSendMentorMessage:
		var payload struct {
			HackathonID   uint   `json:"hackathonId"`
			MentorID      uint   `json:"mentorId"`
			ParticipantID uint   `json:"participantId"`
			Content       string `json:"content"`
		}
		if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.HackathonID == 0 || payload.MentorID == 0 {
			client.sendError("Invalid message payload")
			return true
		}
		room := MentorRoomFor(principal, payload.HackathonID, payload.MentorID, payload.ParticipantID)
		g.send(ctx, client, principal, room, payload.Content)

	default:
		client.sendError("Unsupported event")
	}
	return true
}

// handleAuthenticate 驗證失敗時直接關閉連線，不保留任何部分信任
func (g *ChatGateway) handleAuthenticate(ctx context.Context, client *Client, data json.RawMessage) bool {
	if client.Principal() != nil {
		client.sendError("Already authenticated")
		return true
	}

	principal, err := g.auth.Authenticate(ctx, decodeToken(data))
	if err != nil || principal == nil {
		if err != nil && !errors.Is(err, ErrUnauthenticated) {
			log.Printf("chat: authentication failed for connection %s: %v", client.ID, err)
		}
		client.sendError("Authentication failed")
		client.Close()
		return false
	}

	client.principal.Store(principal)
	client.Send(EventAuthenticated, principal)
	return true
}

// join 授權後綁定房間並只對這條連線回放歷史
//
// 授權檢查與綁定在同一個房間鎖內，讓並行的 RevokeTeamAccess 不會被綁定蓋過。
func (g *ChatGateway) join(ctx context.Context, client *Client, principal *Principal, room Room) {
	key := room.Key()
	err := g.rooms.WithRoom(key, func() error {
		if err := g.chat.CanJoin(ctx, principal, room); err != nil {
			return err
		}
		history, err := g.chat.History(ctx, room)
		if err != nil {
			return err
		}
		g.rooms.Bind(client.ID, principal.UserID, key, client)
		client.Send(EventPreviousMessages, history)
		return nil
	})
	if err != nil {
		g.reportFailure(client, "join "+key, err)
	}
}

// RevokeTeamAccess 將已離開隊伍的用戶連線從隊伍聊天室移除，並通知這些連線
func (g *ChatGateway) RevokeTeamAccess(teamID uint, userIDs ...uint) {
	key := TeamRoom(0, teamID).Key()
	_ = g.rooms.WithRoom(key, func() error {
		for _, userID := range userIDs {
			for _, sub := range g.rooms.UnbindUser(userID, key) {
				sub.Send(EventChatError, ErrForbiddenRoom.Error())
			}
		}
		return nil
	})
}

func (g *ChatGateway) send(ctx context.Context, client *Client, principal *Principal, room Room, content string) {
	if !g.rooms.IsBound(client.ID, room.Key()) {
		client.sendError("Join the chat before sending")
		return
	}
	if _, err := g.Publish(ctx, principal, room, content); err != nil {
		g.reportFailure(client, "send "+room.Key(), err)
	}
}

// Publish 授權、保存並廣播訊息給房間內所有連線（包含發送者自己）
//
// REST 的訊息新增也經過這裡，所以綁定在房間上的連線同樣會收到。
func (g *ChatGateway) Publish(ctx context.Context, principal *Principal, room Room, content string) (*models.ChatMessage, error) {
	if err := g.chat.CanJoin(ctx, principal, room); err != nil {
		return nil, err
	}
	msg, err := g.chat.NewMessage(principal, room, content)
	if err != nil {
		return nil, err
	}

	key := room.Key()
	err = g.rooms.WithRoom(key, func() error {
		if err := g.chat.Append(ctx, msg); err != nil {
			return err
		}
		g.rooms.Broadcast(key, EventReceiveMessage, *msg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// reportFailure 將錯誤轉為 chatError；非用戶可處理的錯誤只記錄在日誌
func (g *ChatGateway) reportFailure(client *Client, op string, err error) {
	for _, userErr := range []error{ErrForbiddenRoom, ErrTeamNotFound, ErrInvalidMessage, ErrUnauthenticated} {
		if errors.Is(err, userErr) {
			client.sendError(userErr.Error())
			return
		}
	}
	log.Printf("chat: %s failed for connection %s: %v", op, client.ID, err)
	client.sendError("Internal server error")
}

func decodeToken(data json.RawMessage) string {
	var token string
	if err := json.Unmarshal(data, &token); err == nil {
		return strings.TrimSpace(token)
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		return strings.TrimSpace(payload.Token)
	}
	return ""
}
