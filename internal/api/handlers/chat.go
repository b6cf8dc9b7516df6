package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hackhub/internal/service"
)

// ChatHandler 是即時聊天的 REST 備援：讀取歷史與新增訊息
type ChatHandler struct {
	chat    *service.ChatService
	gateway *service.ChatGateway
}

func NewChatHandler(chat *service.ChatService, gateway *service.ChatGateway) *ChatHandler {
	return &ChatHandler{chat: chat, gateway: gateway}
}

type sendInput struct {
	Content string `json:"content" binding:"required"`
}

func (h *ChatHandler) TeamHistory(c *gin.Context) {
	h.history(c, h.teamRoom)
}

func (h *ChatHandler) SendTeamMessage(c *gin.Context) {
	h.publish(c, h.teamRoom)
}

func (h *ChatHandler) MentorHistory(c *gin.Context) {
	h.history(c, h.mentorRoom)
}

func (h *ChatHandler) SendMentorMessage(c *gin.Context) {
	h.publish(c, h.mentorRoom)
}

func (h *ChatHandler) teamRoom(c *gin.Context, _ *service.Principal) (service.Room, bool) {
	hackathonID, ok := pathID(c, "hackathonId")
	if !ok {
		return service.Room{}, false
	}
	teamID, ok := pathID(c, "teamId")
	if !ok {
		return service.Room{}, false
	}
	return service.TeamRoom(hackathonID, teamID), true
}

// mentorRoom 解析導師聊天室；導師本人需以 ?participantId= 指定對象
func (h *ChatHandler) mentorRoom(c *gin.Context, principal *service.Principal) (service.Room, bool) {
	hackathonID, ok := pathID(c, "hackathonId")
	if !ok {
		return service.Room{}, false
	}
	mentorID, ok := pathID(c, "mentorId")
	if !ok {
		return service.Room{}, false
	}
	participantID, ok := queryID(c, "participantId")
	if !ok {
		return service.Room{}, false
	}
	return service.MentorRoomFor(principal, hackathonID, mentorID, participantID), true
}

func (h *ChatHandler) history(c *gin.Context, resolve func(*gin.Context, *service.Principal) (service.Room, bool)) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	room, ok := resolve(c, principal)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.chat.CanJoin(ctx, principal, room); err != nil {
		respondError(c, err)
		return
	}
	messages, err := h.chat.History(ctx, room)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) publish(c *gin.Context, resolve func(*gin.Context, *service.Principal) (service.Room, bool)) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	room, ok := resolve(c, principal)
	if !ok {
		return
	}
	var input sendInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	msg, err := h.gateway.Publish(c.Request.Context(), principal, room, input.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
