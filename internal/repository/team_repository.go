package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hackhub/internal/models"
)

// TeamRepository 管理隊伍與成員紀錄
//
// 修改成員的操作應在 Repositories.Transaction 中先呼叫 LockByID，
// 讓同一支隊伍的變更依序進行。
type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	FindByID(ctx context.Context, id uint) (*models.Team, error)
	// LockByID 以 SELECT ... FOR UPDATE 讀取隊伍與成員
	LockByID(ctx context.Context, id uint) (*models.Team, error)
	FindByHackathon(ctx context.Context, hackathonID uint) ([]models.Team, error)
	Delete(ctx context.Context, id uint) error
	UpdateLeader(ctx context.Context, teamID, leaderID uint) error

	// AddMember 新增成員紀錄；違反 (team, user) 或 accepted 唯一索引時回傳 ErrDuplicate
	AddMember(ctx context.Context, member *models.TeamMember) error
	// UpdateMemberStatus 只在目前狀態為 from 時才更新，回傳是否有更新
	UpdateMemberStatus(ctx context.Context, teamID, userID uint, from, to models.MemberStatus) (bool, error)
	RemoveMember(ctx context.Context, teamID, userID uint) (bool, error)
	CountMembers(ctx context.Context, teamID uint) (int64, error)

	// FindAcceptedMembership 回傳用戶在該黑客松中 accepted 的成員紀錄
	FindAcceptedMembership(ctx context.Context, hackathonID, userID uint) (*models.TeamMember, error)
	FindPendingByUser(ctx context.Context, userID uint) ([]models.TeamMember, error)
	IsAcceptedMember(ctx context.Context, teamID, userID uint) (bool, error)
}

type teamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

func orderedMembers(db *gorm.DB) *gorm.DB {
	return db.Order("id asc")
}

// Create 新增隊伍後逐筆新增成員
//
// gorm 儲存關聯時使用 ON CONFLICT DO NOTHING，會吞掉唯一索引衝突，
// 所以成員不經由關聯寫入。需在交易中呼叫才具原子性。
func (r *teamRepository) Create(ctx context.Context, team *models.Team) error {
	db := r.db.WithContext(ctx)
	members := team.Members
	if err := db.Omit("Members").Create(team).Error; err != nil {
		return translate(err)
	}
	for i := range members {
		members[i].TeamID = team.ID
		if members[i].HackathonID == 0 {
			members[i].HackathonID = team.HackathonID
		}
		if err := db.Create(&members[i]).Error; err != nil {
			return translate(err)
		}
	}
	team.Members = members
	return nil
}

func (r *teamRepository) FindByID(ctx context.Context, id uint) (*models.Team, error) {
	var team models.Team
	err := r.db.WithContext(ctx).Preload("Members", orderedMembers).First(&team, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &team, nil
}

func (r *teamRepository) LockByID(ctx context.Context, id uint) (*models.Team, error) {
	var team models.Team
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&team, id).Error
	if err != nil {
		return nil, translate(err)
	}

	var members []models.TeamMember
	if err := r.db.WithContext(ctx).Where("team_id = ?", id).Order("id asc").Find(&members).Error; err != nil {
		return nil, translate(err)
	}
	team.Members = members
	return &team, nil
}

func (r *teamRepository) FindByHackathon(ctx context.Context, hackathonID uint) ([]models.Team, error) {
	var teams []models.Team
	err := r.db.WithContext(ctx).
		Where("hackathon_id = ?", hackathonID).
		Preload("Members", orderedMembers).
		Order("id asc").
		Find(&teams).Error
	return teams, translate(err)
}

func (r *teamRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("team_id = ?", id).Delete(&models.TeamMember{}).Error; err != nil {
		return translate(err)
	}
	return translate(db.Delete(&models.Team{}, id).Error)
}

func (r *teamRepository) UpdateLeader(ctx context.Context, teamID, leaderID uint) error {
	return translate(r.db.WithContext(ctx).Model(&models.Team{}).
		Where("id = ?", teamID).
		Update("leader_id", leaderID).Error)
}

func (r *teamRepository) AddMember(ctx context.Context, member *models.TeamMember) error {
	return translate(r.db.WithContext(ctx).Create(member).Error)
}

func (r *teamRepository) UpdateMemberStatus(ctx context.Context, teamID, userID uint, from, to models.MemberStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ? AND status = ?", teamID, userID, from).
		Update("status", to)
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *teamRepository) RemoveMember(ctx context.Context, teamID, userID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&models.TeamMember{})
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *teamRepository) CountMembers(ctx context.Context, teamID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TeamMember{}).Where("team_id = ?", teamID).Count(&count).Error
	return count, translate(err)
}

func (r *teamRepository) FindAcceptedMembership(ctx context.Context, hackathonID, userID uint) (*models.TeamMember, error) {
	var member models.TeamMember
	err := r.db.WithContext(ctx).
		Where("hackathon_id = ? AND user_id = ? AND status = ?", hackathonID, userID, models.MemberStatusAccepted).
		First(&member).Error
	if err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

func (r *teamRepository) FindPendingByUser(ctx context.Context, userID uint) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.MemberStatusPending).
		Order("id asc").
		Find(&members).Error
	return members, translate(err)
}

func (r *teamRepository) IsAcceptedMember(ctx context.Context, teamID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ? AND status = ?", teamID, userID, models.MemberStatusAccepted).
		Count(&count).Error
	return count > 0, translate(err)
}
