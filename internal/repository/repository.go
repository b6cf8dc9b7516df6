package repository

import (
	"context"

	"gorm.io/gorm"

	"hackhub/internal/storage"
)

type Repositories struct {
	db          *gorm.DB
	User        UserRepository
	Hackathon   HackathonRepository
	Team        TeamRepository
	ChatMessage ChatMessageRepository
}

func NewRepositories(db *storage.Database) *Repositories {
	return newRepositories(db.DB)
}

func newRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:          db,
		User:        NewUserRepository(db),
		Hackathon:   NewHackathonRepository(db),
		Team:        NewTeamRepository(db),
		ChatMessage: NewChatMessageRepository(db),
	}
}

// Transaction 在同一個資料庫交易中執行 fn，fn 收到的 Repositories 全部綁定此交易
//
// fn 內只能使用 tx，不可使用外層的 Repositories。
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepositories(tx))
	})
}
