package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"hackhub/internal/models"
)

// ChatMessageRepository 只提供新增與查詢，訊息不會被修改或刪除
type ChatMessageRepository interface {
	Create(ctx context.Context, message *models.ChatMessage) error
	FindTeamMessages(ctx context.Context, teamID uint) ([]models.ChatMessage, error)
	// FindConversation 回傳 a 與 b 在該黑客松中雙向的導師訊息
	FindConversation(ctx context.Context, hackathonID, a, b uint) ([]models.ChatMessage, error)
	// LatestTimestamp 回傳與 message 同一個聊天室中最新一則訊息的時間，沒有訊息時回傳零值
	LatestTimestamp(ctx context.Context, message *models.ChatMessage) (time.Time, error)
}

type chatMessageRepository struct {
	db *gorm.DB
}

func NewChatMessageRepository(db *gorm.DB) ChatMessageRepository {
	return &chatMessageRepository{db: db}
}

func (r *chatMessageRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	return translate(r.db.WithContext(ctx).Create(message).Error)
}

func (r *chatMessageRepository) FindTeamMessages(ctx context.Context, teamID uint) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("message_type = ? AND team_id = ?", models.MessageTypeTeam, teamID).
		Order("timestamp asc, id asc").
		Find(&messages).Error
	return messages, translate(err)
}

func (r *chatMessageRepository) FindConversation(ctx context.Context, hackathonID, a, b uint) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("message_type = ? AND hackathon_id = ?", models.MessageTypeMentor, hackathonID).
		Where("((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?))", a, b, b, a).
		Order("timestamp asc, id asc").
		Find(&messages).Error
	return messages, translate(err)
}

func (r *chatMessageRepository) LatestTimestamp(ctx context.Context, message *models.ChatMessage) (time.Time, error) {
	query := r.db.WithContext(ctx).Where("message_type = ?", message.MessageType)
	switch message.MessageType {
	case models.MessageTypeTeam:
		if message.TeamID == nil {
			return time.Time{}, nil
		}
		query = query.Where("team_id = ?", *message.TeamID)
	default:
		if message.RecipientID == nil {
			return time.Time{}, nil
		}
		a, b := message.SenderID, *message.RecipientID
		query = query.Where("hackathon_id = ?", message.HackathonID).
			Where("((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?))", a, b, b, a)
	}

	var latest models.ChatMessage
	err := query.Order("timestamp desc, id desc").Take(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, translate(err)
	}
	return latest.Timestamp, nil
}
