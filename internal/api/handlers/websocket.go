package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"hackhub/internal/service"
)

// WebSocketHandler 將 HTTP 連接升級後交給聊天閘道
//
// 身分驗證在連線建立後透過 authenticate 事件完成，所以這個端點本身是公開的。
type WebSocketHandler struct {
	gateway  *service.ChatGateway
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler；allowedOrigins 為空時允許所有來源
func NewWebSocketHandler(gateway *service.ChatGateway, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		gateway: gateway,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

// HandleWebSocket 處理 WebSocket 連接請求，連線結束前不會返回
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	// 升級失敗時 upgrader 已經寫出錯誤回應
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("handlers: websocket upgrade: %v", err)
		return
	}

	// 連線由閘道負責關閉
	h.gateway.HandleConnection(c.Request.Context(), conn)
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[strings.TrimRight(strings.ToLower(origin), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.TrimRight(strings.ToLower(origin), "/")]
		return ok
	}
}
