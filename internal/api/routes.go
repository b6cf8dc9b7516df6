package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hackhub/internal/api/handlers"
	"hackhub/internal/middleware"
	"hackhub/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services, allowedOrigins []string) {
	// 初始化 handlers
	authHandler := handlers.NewAuthHandler(services.User)
	teamHandler := handlers.NewTeamHandler(services.Membership)
	hackathonHandler := handlers.NewHackathonHandler(services.Hackathon)
	chatHandler := handlers.NewChatHandler(services.Chat, services.Gateway)
	wsHandler := handlers.NewWebSocketHandler(services.Gateway, allowedOrigins)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message": "Not found",
		})
	})

	// 公開路由
	{
		// 用戶認證相關
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":      "ok",
				"connections": services.Gateway.ConnectionCount(),
				"rooms":       services.Rooms.RoomCount(),
			})
		})

		// WebSocket 連接，驗證透過 authenticate 事件進行
		api.GET("/ws", wsHandler.HandleWebSocket)
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(middleware.AuthMiddleware(services.User))
	{
		authorized.GET("/me", authHandler.Me)

		teams := authorized.Group("/teams")
		{
			teams.POST("", teamHandler.CreateTeam)
			teams.GET("/invites", teamHandler.PendingInvites) // 待回覆的邀請
			teams.GET("/:id", teamHandler.GetTeam)
			teams.DELETE("/:id", teamHandler.Disband)

			// 成員異動
			teams.PUT("/:id/join", teamHandler.Join)
			teams.PUT("/:id/leave", teamHandler.Leave)
			teams.PUT("/:id/invite", teamHandler.Invite)
			teams.PUT("/:id/invite/:action", teamHandler.RespondInvite)
			teams.PUT("/:id/remove/:userId", teamHandler.RemoveMember)
			teams.PUT("/:id/transfer/:userId", teamHandler.TransferLeadership)
		}

		hackathons := authorized.Group("/hackathons")
		{
			hackathons.POST("", hackathonHandler.Create)
			hackathons.POST("/:id/mentors", hackathonHandler.AssignMentor)
			hackathons.GET("/:id/teams", teamHandler.ListHackathonTeams)
			hackathons.GET("/:id/my-team", teamHandler.MyTeam)
			hackathons.GET("/:id/participation", hackathonHandler.Participation)
		}

		// 聊天的 REST 備援
		chat := authorized.Group("/chat")
		{
			chat.GET("/team/:hackathonId/:teamId", chatHandler.TeamHistory)
			chat.POST("/team/:hackathonId/:teamId", chatHandler.SendTeamMessage)
			chat.GET("/mentor/:hackathonId/:mentorId", chatHandler.MentorHistory)
			chat.POST("/mentor/:hackathonId/:mentorId", chatHandler.SendMentorMessage)
		}
	}
}
