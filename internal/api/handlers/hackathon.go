package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hackhub/internal/service"
)

// HackathonHandler 提供組織者建立黑客松與配對導師的端點
type HackathonHandler struct {
	hackathons *service.HackathonService
}

func NewHackathonHandler(hackathons *service.HackathonService) *HackathonHandler {
	return &HackathonHandler{hackathons: hackathons}
}

func (h *HackathonHandler) Create(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	hackathon, err := h.hackathons.Create(c.Request.Context(), principal, input.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hackathon)
}

func (h *HackathonHandler) AssignMentor(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	hackathonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input struct {
		MentorID      uint `json:"mentorId" binding:"required"`
		ParticipantID uint `json:"participantId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	assignment, err := h.hackathons.AssignMentor(c.Request.Context(), principal, hackathonID, input.MentorID, input.ParticipantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

// Participation 回報目前用戶是否已登記參加該場黑客松
func (h *HackathonHandler) Participation(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	hackathonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	participant, err := h.hackathons.IsParticipant(c.Request.Context(), hackathonID, principal.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hackathonId": hackathonID, "participant": participant})
}
