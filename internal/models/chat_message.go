package models

import (
	"time"
)

// MessageType 定義聊天訊息的種類
type MessageType string

const (
	MessageTypeTeam   MessageType = "team"
	MessageTypeMentor MessageType = "mentor"
)

// ChatMessage 是持久化的聊天訊息，建立後不可變
//
// team 類型必須有 TeamID 且沒有 RecipientID；mentor 類型必須有 RecipientID 且沒有 TeamID。
type ChatMessage struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	HackathonID uint        `gorm:"index;not null" json:"hackathonId"`
	MessageType MessageType `gorm:"type:varchar(20);not null" json:"messageType"`
	TeamID      *uint       `gorm:"index" json:"team,omitempty"`
	SenderID    uint        `gorm:"index;not null" json:"sender"`
	RecipientID *uint       `gorm:"index" json:"recipient,omitempty"`
	SenderName  string      `json:"senderName"`
	Message     string      `gorm:"type:text;not null" json:"message"`
	Timestamp   time.Time   `gorm:"index;not null" json:"timestamp"`
}
