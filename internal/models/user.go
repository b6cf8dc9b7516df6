package models

import (
	"gorm.io/gorm"
)

// User 表示系統中的用戶
type User struct {
	gorm.Model          // 內嵌 gorm.Model，提供 ID、CreatedAt、UpdatedAt 和 DeletedAt 字段
	Name       string   `gorm:"not null" json:"name"`
	Email      string   `gorm:"uniqueIndex;not null" json:"email"` // 電子郵件，必須唯一
	Password   string   `gorm:"not null" json:"-"`                 // 密碼，json 序列化時會被忽略
	Role       UserRole `gorm:"type:varchar(20);not null" json:"role"`
}

// UserRole 定義用戶角色的類型
type UserRole string

const (
	RoleParticipant UserRole = "participant"
	RoleOrganizer   UserRole = "organizer"
	RoleMentor      UserRole = "mentor"
	RoleJudge       UserRole = "judge"
)

// Valid 回報角色是否為已知角色
func (r UserRole) Valid() bool {
	switch r {
	case RoleParticipant, RoleOrganizer, RoleMentor, RoleJudge:
		return true
	}
	return false
}
