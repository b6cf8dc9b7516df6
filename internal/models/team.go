package models

import (
	"time"
)

// Team 表示一支黑客松隊伍
//
// 隊長一定是 accepted 成員；同一場黑客松中，一個用戶最多只能在一支隊伍中為 accepted。
// 後者由 team_members 上的部分唯一索引保證。
type Team struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"not null" json:"name"`
	HackathonID  uint         `gorm:"index;not null" json:"hackathonId"`
	LeaderID     uint         `gorm:"not null" json:"leaderId"`
	SubmissionID *uint        `json:"submissionId,omitempty"`
	Members      []TeamMember `gorm:"foreignKey:TeamID" json:"members"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// MemberStatus 定義成員狀態
type MemberStatus string

const (
	MemberStatusPending  MemberStatus = "pending"
	MemberStatusAccepted MemberStatus = "accepted"
	MemberStatusRejected MemberStatus = "rejected"
)

// TeamMember 是隊伍成員列表中的一筆 (userId, status)
//
// HackathonID 冗餘存放，讓 (hackathon_id, user_id) 的 accepted 唯一性可以用索引表達。
// 不使用軟刪除，否則刪除的紀錄仍會佔用唯一索引。
type TeamMember struct {
	ID          uint         `gorm:"primaryKey" json:"-"`
	TeamID      uint         `gorm:"uniqueIndex:idx_team_member;not null" json:"-"`
	HackathonID uint         `gorm:"uniqueIndex:idx_accepted_membership,where:status = 'accepted';not null" json:"-"`
	UserID      uint         `gorm:"uniqueIndex:idx_team_member;uniqueIndex:idx_accepted_membership,where:status = 'accepted';not null" json:"userId"`
	Status      MemberStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt   time.Time    `json:"-"`
	UpdatedAt   time.Time    `json:"-"`
}

// Member 回傳指定用戶在隊伍中的成員紀錄
func (t *Team) Member(userID uint) (*TeamMember, bool) {
	for i := range t.Members {
		if t.Members[i].UserID == userID {
			return &t.Members[i], true
		}
	}
	return nil, false
}

// IsLeader 回報用戶是否為隊長
func (t *Team) IsLeader(userID uint) bool {
	return t.LeaderID == userID
}
