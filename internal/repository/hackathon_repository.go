package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hackhub/internal/models"
)

// HackathonRepository 管理黑客松、參賽者反向關聯與導師配對
type HackathonRepository interface {
	Create(ctx context.Context, hackathon *models.Hackathon) error
	FindByID(ctx context.Context, id uint) (*models.Hackathon, error)
	// AddParticipant 記錄參賽者，已存在時不做任何事
	AddParticipant(ctx context.Context, hackathonID, userID uint) error
	IsParticipant(ctx context.Context, hackathonID, userID uint) (bool, error)
	AssignMentor(ctx context.Context, assignment *models.MentorAssignment) error
	IsMentorLinked(ctx context.Context, hackathonID, mentorID, participantID uint) (bool, error)
}

type hackathonRepository struct {
	db *gorm.DB
}

func NewHackathonRepository(db *gorm.DB) HackathonRepository {
	return &hackathonRepository{db: db}
}

func (r *hackathonRepository) Create(ctx context.Context, hackathon *models.Hackathon) error {
	return translate(r.db.WithContext(ctx).Create(hackathon).Error)
}

func (r *hackathonRepository) FindByID(ctx context.Context, id uint) (*models.Hackathon, error) {
	var hackathon models.Hackathon
	if err := r.db.WithContext(ctx).First(&hackathon, id).Error; err != nil {
		return nil, translate(err)
	}
	return &hackathon, nil
}

func (r *hackathonRepository) AddParticipant(ctx context.Context, hackathonID, userID uint) error {
	participant := models.HackathonParticipant{HackathonID: hackathonID, UserID: userID}
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&participant).Error)
}

func (r *hackathonRepository) IsParticipant(ctx context.Context, hackathonID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.HackathonParticipant{}).
		Where("hackathon_id = ? AND user_id = ?", hackathonID, userID).
		Count(&count).Error
	return count > 0, translate(err)
}

func (r *hackathonRepository) AssignMentor(ctx context.Context, assignment *models.MentorAssignment) error {
	return translate(r.db.WithContext(ctx).Create(assignment).Error)
}

func (r *hackathonRepository) IsMentorLinked(ctx context.Context, hackathonID, mentorID, participantID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MentorAssignment{}).
		Where("hackathon_id = ? AND mentor_id = ? AND participant_id = ?", hackathonID, mentorID, participantID).
		Count(&count).Error
	return count > 0, translate(err)
}
