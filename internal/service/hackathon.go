package service

import (
	"context"
	"errors"
	"strings"

	"hackhub/internal/models"
	"hackhub/internal/repository"
)

// HackathonService 提供組織者建立黑客松與配對導師的最小介面
type HackathonService struct {
	hackathonRepo repository.HackathonRepository
	userRepo      repository.UserRepository
}

func NewHackathonService(hackathonRepo repository.HackathonRepository, userRepo repository.UserRepository) *HackathonService {
	return &HackathonService{hackathonRepo: hackathonRepo, userRepo: userRepo}
}

func (s *HackathonService) Create(ctx context.Context, organizer *Principal, name string) (*models.Hackathon, error) {
	if organizer.Role != models.RoleOrganizer {
		return nil, ErrNotOrganizer
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidHackathonName
	}
	hackathon := &models.Hackathon{Name: name, OrganizerID: organizer.UserID}
	if err := s.hackathonRepo.Create(ctx, hackathon); err != nil {
		return nil, err
	}
	return hackathon, nil
}

// AssignMentor 將導師與參賽者配對，導師聊天室的授權依此判斷；只有該場黑客松的組織者可以配對
func (s *HackathonService) AssignMentor(ctx context.Context, organizer *Principal, hackathonID, mentorID, participantID uint) (*models.MentorAssignment, error) {
	if organizer.Role != models.RoleOrganizer {
		return nil, ErrNotOrganizer
	}
	hackathon, err := s.hackathonRepo.FindByID(ctx, hackathonID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrHackathonNotFound
		}
		return nil, err
	}
	if hackathon.OrganizerID != organizer.UserID {
		return nil, ErrNotOrganizer
	}

	mentor, err := s.findUser(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	if mentor.Role != models.RoleMentor {
		return nil, ErrNotMentor
	}
	if _, err := s.findUser(ctx, participantID); err != nil {
		return nil, err
	}

	assignment := &models.MentorAssignment{
		HackathonID:   hackathonID,
		MentorID:      mentorID,
		ParticipantID: participantID,
	}
	if err := s.hackathonRepo.AssignMentor(ctx, assignment); err != nil {
		return nil, duplicateAs(err, ErrAlreadyAssigned)
	}
	return assignment, nil
}

// IsParticipant 回報用戶是否已登記參加該場黑客松
func (s *HackathonService) IsParticipant(ctx context.Context, hackathonID, userID uint) (bool, error) {
	if _, err := s.hackathonRepo.FindByID(ctx, hackathonID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrHackathonNotFound
		}
		return false, err
	}
	return s.hackathonRepo.IsParticipant(ctx, hackathonID, userID)
}

func (s *HackathonService) findUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}
