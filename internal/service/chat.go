package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"hackhub/internal/models"
	"hackhub/internal/repository"
)

// Room 是聊天廣播的範圍：一支隊伍，或同一黑客松中的一組導師與參賽者
type Room struct {
	Type          models.MessageType
	HackathonID   uint
	TeamID        uint
	MentorID      uint
	ParticipantID uint
}

func TeamRoom(hackathonID, teamID uint) Room {
	return Room{Type: models.MessageTypeTeam, HackathonID: hackathonID, TeamID: teamID}
}

func MentorRoom(hackathonID, mentorID, participantID uint) Room {
	return Room{Type: models.MessageTypeMentor, HackathonID: hackathonID, MentorID: mentorID, ParticipantID: participantID}
}

// Key 回傳房間鍵：team-<teamId> 或 mentor-<hackathonId>-<mentorId>-<participantId>
func (r Room) Key() string {
	if r.Type == models.MessageTypeTeam {
		return fmt.Sprintf("team-%d", r.TeamID)
	}
	return fmt.Sprintf("mentor-%d-%d-%d", r.HackathonID, r.MentorID, r.ParticipantID)
}

// counterpart 回傳導師聊天中另一方的用戶 ID
func (r Room) counterpart(userID uint) uint {
	if userID == r.MentorID {
		return r.ParticipantID
	}
	return r.MentorID
}

// ChatService 負責訊息的新增、查詢與聊天室的授權判斷
type ChatService struct {
	messageRepo     repository.ChatMessageRepository
	teamRepo        repository.TeamRepository
	hackathonRepo   repository.HackathonRepository
	maxContentRunes int
	now             func() time.Time
}

func NewChatService(repos *repository.Repositories, maxContentRunes int) *ChatService {
	return &ChatService{
		messageRepo:     repos.ChatMessage,
		teamRepo:        repos.Team,
		hackathonRepo:   repos.Hackathon,
		maxContentRunes: maxContentRunes,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// MentorRoomFor 解析導師聊天室；participantID 為 0 時呼叫者本人即為參賽者
func MentorRoomFor(principal *Principal, hackathonID, mentorID, participantID uint) Room {
	if participantID == 0 {
		participantID = principal.UserID
	}
	return MentorRoom(hackathonID, mentorID, participantID)
}

// CanJoin 檢查 principal 是否可以加入房間
//
// 隊伍聊天需要是該隊 accepted 成員；導師聊天需要是配對中的一方且配對存在。
func (s *ChatService) CanJoin(ctx context.Context, principal *Principal, room Room) error {
	if principal == nil {
		return ErrUnauthenticated
	}

	switch room.Type {
	case models.MessageTypeTeam:
		team, err := s.teamRepo.FindByID(ctx, room.TeamID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		if team.HackathonID != room.HackathonID {
			return ErrForbiddenRoom
		}
		member, ok := team.Member(principal.UserID)
		if !ok || member.Status != models.MemberStatusAccepted {
			return ErrForbiddenRoom
		}
		return nil

	case models.MessageTypeMentor:
		if room.MentorID == room.ParticipantID {
			return ErrForbiddenRoom
		}
		if principal.UserID != room.MentorID && principal.UserID != room.ParticipantID {
			return ErrForbiddenRoom
		}
		linked, err := s.hackathonRepo.IsMentorLinked(ctx, room.HackathonID, room.MentorID, room.ParticipantID)
		if err != nil {
			return err
		}
		if !linked {
			return ErrForbiddenRoom
		}
		return nil
	}
	return ErrForbiddenRoom
}

// NewMessage 依房間建立尚未保存的訊息
func (s *ChatService) NewMessage(principal *Principal, room Room, content string) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrInvalidMessage
	}
	if s.maxContentRunes > 0 && utf8.RuneCountInString(content) > s.maxContentRunes {
		return nil, ErrInvalidMessage
	}

	msg := &models.ChatMessage{
		HackathonID: room.HackathonID,
		MessageType: room.Type,
		SenderID:    principal.UserID,
		SenderName:  principal.Name,
		Message:     content,
	}
	switch room.Type {
	case models.MessageTypeTeam:
		teamID := room.TeamID
		msg.TeamID = &teamID
	case models.MessageTypeMentor:
		recipient := room.counterpart(principal.UserID)
		msg.RecipientID = &recipient
	}
	return msg, nil
}

// Append 驗證並保存訊息，時間戳記在同一房間內不會倒退
//
// 呼叫者需要依房間序列化 Append（閘道在房間鎖內呼叫）。
func (s *ChatService) Append(ctx context.Context, msg *models.ChatMessage) error {
	if err := validateMessage(msg); err != nil {
		return err
	}

	latest, err := s.messageRepo.LatestTimestamp(ctx, msg)
	if err != nil {
		return fmt.Errorf("load latest chat timestamp: %w", err)
	}
	msg.ID = 0
	msg.Timestamp = s.now()
	if msg.Timestamp.Before(latest) {
		msg.Timestamp = latest
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

// History 依時間遞增回傳房間內所有訊息
func (s *ChatService) History(ctx context.Context, room Room) ([]models.ChatMessage, error) {
	var (
		messages []models.ChatMessage
		err      error
	)
	switch room.Type {
	case models.MessageTypeTeam:
		messages, err = s.messageRepo.FindTeamMessages(ctx, room.TeamID)
	case models.MessageTypeMentor:
		messages, err = s.messageRepo.FindConversation(ctx, room.HackathonID, room.MentorID, room.ParticipantID)
	default:
		return nil, ErrInvalidMessage
	}
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	return messages, nil
}

func validateMessage(msg *models.ChatMessage) error {
	if msg == nil || strings.TrimSpace(msg.Message) == "" || msg.SenderID == 0 || msg.HackathonID == 0 {
		return ErrInvalidMessage
	}
	switch msg.MessageType {
	case models.MessageTypeTeam:
		if msg.TeamID == nil || msg.RecipientID != nil {
			return ErrInvalidMessage
		}
	case models.MessageTypeMentor:
		if msg.RecipientID == nil || msg.TeamID != nil || *msg.RecipientID == msg.SenderID {
			return ErrInvalidMessage
		}
	default:
		return ErrInvalidMessage
	}
	return nil
}
