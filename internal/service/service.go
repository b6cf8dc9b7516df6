package service

import (
	"hackhub/internal/repository"
	"hackhub/internal/utils"
	"hackhub/pkg/config"
)

type Services struct {
	User       *UserService
	Hackathon  *HackathonService
	Membership *MembershipService
	Chat       *ChatService
	Rooms      *RoomRegistry
	Gateway    *ChatGateway
}

func NewServices(repos *repository.Repositories, jwt *utils.JWTManager, chatCfg config.ChatConfig) *Services {
	userService := NewUserService(repos.User, jwt)
	chatService := NewChatService(repos, chatCfg.MaxContentRunes)
	rooms := NewRoomRegistry()

	gateway := NewChatGateway(userService, chatService, rooms, GatewayConfig{
		AuthTimeout:     chatCfg.AuthTimeout,
		SendBuffer:      chatCfg.SendBuffer,
		MaxMessageBytes: chatCfg.MaxMessageBytes,
	})

	membership := NewMembershipService(repos)
	membership.SetAccessRevoker(gateway)

	return &Services{
		User:       userService,
		Hackathon:  NewHackathonService(repos.Hackathon, repos.User),
		Membership: membership,
		Chat:       chatService,
		Rooms:      rooms,
		Gateway:    gateway,
	}
}
