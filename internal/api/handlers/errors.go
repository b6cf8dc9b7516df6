package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hackhub/internal/middleware"
	"hackhub/internal/service"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrTeamNotFound, http.StatusNotFound},
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrHackathonNotFound, http.StatusNotFound},

	{service.ErrNotLeader, http.StatusForbidden},
	{service.ErrNotAMember, http.StatusForbidden},
	{service.ErrForbiddenRoom, http.StatusForbidden},
	{service.ErrNotOrganizer, http.StatusForbidden},

	{service.ErrUnauthenticated, http.StatusUnauthorized},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},

	{service.ErrAlreadyOnTeam, http.StatusConflict},
	{service.ErrAlreadyMember, http.StatusConflict},
	{service.ErrNoPendingInvite, http.StatusConflict},
	{service.ErrEmailTaken, http.StatusConflict},
	{service.ErrAlreadyAssigned, http.StatusConflict},

	{service.ErrLeaderCannotLeave, http.StatusBadRequest},
	{service.ErrCannotRemoveSelf, http.StatusBadRequest},
	{service.ErrInvalidTeamName, http.StatusBadRequest},
	{service.ErrInvalidHackathonName, http.StatusBadRequest},
	{service.ErrInvalidMessage, http.StatusBadRequest},
	{service.ErrInvalidAction, http.StatusBadRequest},
	{service.ErrInvalidRole, http.StatusBadRequest},
	{service.ErrNotMentor, http.StatusBadRequest},
}

// respondError 將服務層錯誤轉為 HTTP 狀態碼；未知錯誤記錄後回傳 500
func respondError(c *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"message": e.err.Error()})
			return
		}
	}
	log.Printf("handlers: %s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}

// pathID 解析路徑參數中的 ID，失敗時直接回應 400
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// queryID 解析選填的查詢參數，缺少時回傳 0
func queryID(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func currentPrincipal(c *gin.Context) (*service.Principal, bool) {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		respondError(c, service.ErrUnauthenticated)
	}
	return principal, ok
}
