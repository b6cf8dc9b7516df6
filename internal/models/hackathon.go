package models

import (
	"time"

	"gorm.io/gorm"
)

// Hackathon 表示一場黑客松活動
type Hackathon struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	OrganizerID uint   `gorm:"index" json:"organizerId"`
}

// HackathonParticipant 記錄用戶參加某場黑客松的反向關聯
type HackathonParticipant struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	HackathonID uint      `gorm:"uniqueIndex:idx_hackathon_participant;not null" json:"hackathonId"`
	UserID      uint      `gorm:"uniqueIndex:idx_hackathon_participant;not null" json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MentorAssignment 將導師與參賽者在某場黑客松中配對
type MentorAssignment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	HackathonID   uint      `gorm:"uniqueIndex:idx_mentor_pair;not null" json:"hackathonId"`
	MentorID      uint      `gorm:"uniqueIndex:idx_mentor_pair;not null" json:"mentorId"`
	ParticipantID uint      `gorm:"uniqueIndex:idx_mentor_pair;not null" json:"participantId"`
	CreatedAt     time.Time `json:"createdAt"`
}
