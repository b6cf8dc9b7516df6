package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"hackhub/internal/models"
	"hackhub/internal/service"
)

// TeamHandler 處理隊伍建立與成員異動的請求
type TeamHandler struct {
	membership *service.MembershipService
}

func NewTeamHandler(membership *service.MembershipService) *TeamHandler {
	return &TeamHandler{membership: membership}
}

// CreateTeam 處理創建新隊伍的請求，建立者成為隊長
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var input struct {
		Name        string `json:"name" binding:"required"`
		HackathonID uint   `json:"hackathonId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	team, err := h.membership.CreateTeam(c.Request.Context(), input.HackathonID, principal.UserID, input.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

func (h *TeamHandler) GetTeam(c *gin.Context) {
	teamID, ok := pathID(c, "id")
	if !ok {
		return
	}
	team, err := h.membership.GetTeam(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

func (h *TeamHandler) Join(c *gin.Context) {
	h.mutate(c, func(p *service.Principal, teamID uint) (*models.Team, error) {
		return h.membership.Join(c.Request.Context(), teamID, p.UserID)
	})
}

func (h *TeamHandler) Leave(c *gin.Context) {
	h.mutate(c, func(p *service.Principal, teamID uint) (*models.Team, error) {
		return h.membership.Leave(c.Request.Context(), teamID, p.UserID)
	})
}

// Invite 邀請用戶加入隊伍；請求體可帶 target（ID 或電子郵件）、email 或 userId
func (h *TeamHandler) Invite(c *gin.Context) {
	var input struct {
		Target string `json:"target"`
		Email  string `json:"email"`
		UserID uint   `json:"userId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	target := strings.TrimSpace(input.Target)
	switch {
	case target != "":
	case input.Email != "":
		target = input.Email
	case input.UserID != 0:
		target = strconv.FormatUint(uint64(input.UserID), 10)
	default:
		badRequest(c, "target, email or userId is required")
		return
	}

	h.mutate(c, func(p *service.Principal, teamID uint) (*models.Team, error) {
		return h.membership.Invite(c.Request.Context(), teamID, p.UserID, target)
	})
}

// RespondInvite 處理 /invite/accept 與 /invite/reject
func (h *TeamHandler) RespondInvite(c *gin.Context) {
	action := service.InviteAction(c.Param("action"))
	h.mutate(c, func(p *service.Principal, teamID uint) (*models.Team, error) {
		return h.membership.Respond(c.Request.Context(), teamID, p.UserID, action)
	})
}

func (h *TeamHandler) RemoveMember(c *gin.Context) {
	target, ok := pathID(c, "userId")
	if !ok {
		return
	}
	h.mutate(c, func(p *service.Principal, teamID uint) (*models.Team, error) {
		return h.membership.RemoveMember(c.Request.Context(), teamID, p.UserID, target)
	})
}

func (h *TeamHandler) TransferLeadership(c *gin.Context) {
	target, ok := pathID(c, "userId")
	if !ok {
		return
	}
	h.mutate(c, func(p *service.Principal, teamID uint) (*models.Team, error) {
		return h.membership.TransferLeadership(c.Request.Context(), teamID, p.UserID, target)
	})
}

func (h *TeamHandler) Disband(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	teamID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.membership.Disband(c.Request.Context(), teamID, principal.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PendingInvites 回傳目前用戶尚未回覆邀請的隊伍
func (h *TeamHandler) PendingInvites(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	teams, err := h.membership.PendingInvites(c.Request.Context(), principal.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

func (h *TeamHandler) ListHackathonTeams(c *gin.Context) {
	hackathonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	teams, err := h.membership.TeamsForHackathon(c.Request.Context(), hackathonID)
	if err != nil {
		respondError(c, err)
		return
	}
	if teams == nil {
		teams = []models.Team{}
	}
	c.JSON(http.StatusOK, teams)
}

func (h *TeamHandler) MyTeam(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	hackathonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	team, err := h.membership.MyTeam(c.Request.Context(), hackathonID, principal.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// mutate 解析身分與隊伍 ID 後執行成員異動，回傳更新後的隊伍
func (h *TeamHandler) mutate(c *gin.Context, fn func(p *service.Principal, teamID uint) (*models.Team, error)) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	teamID, ok := pathID(c, "id")
	if !ok {
		return
	}

	team, err := fn(principal, teamID)
	if err != nil {
		respondError(c, err)
		return
	}
	if team == nil {
		// 最後一位成員離開，隊伍已刪除
		c.JSON(http.StatusOK, gin.H{"message": "team deleted"})
		return
	}
	c.JSON(http.StatusOK, team)
}
