package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"hackhub/internal/models"
	"hackhub/internal/repository"
)

// InviteAction 是回覆邀請的動作
type InviteAction string

const (
	InviteAccept InviteAction = "accept"
	InviteReject InviteAction = "reject"
)

// MembershipService 實作隊伍成員的狀態機
//
// 每個會改變成員的操作都在單一交易中進行，並先鎖住隊伍紀錄。
// 「同一黑客松最多一支 accepted 隊伍」由資料庫的部分唯一索引保證，
// 所以兩個並行的 join/accept/create 最多只有一個會成功。
type MembershipService struct {
	repos   *repository.Repositories
	revoker TeamAccessRevoker
}

// TeamAccessRevoker 在成員離開隊伍的交易提交後收到通知
type TeamAccessRevoker interface {
	RevokeTeamAccess(teamID uint, userIDs ...uint)
}

func NewMembershipService(repos *repository.Repositories) *MembershipService {
	return &MembershipService{repos: repos}
}

// SetAccessRevoker 設定離隊通知的對象，通常是聊天閘道
func (s *MembershipService) SetAccessRevoker(revoker TeamAccessRevoker) {
	s.revoker = revoker
}

// CreateTeam 建立隊伍，建立者自動成為 accepted 的隊長
func (s *MembershipService) CreateTeam(ctx context.Context, hackathonID, leaderID uint, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidTeamName
	}

	var created *models.Team
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := tx.Hackathon.FindByID(ctx, hackathonID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrHackathonNotFound
			}
			return err
		}
		if err := ensureNotOnOtherTeam(ctx, tx, hackathonID, leaderID, 0); err != nil {
			return err
		}

		team := &models.Team{
			Name:        name,
			HackathonID: hackathonID,
			LeaderID:    leaderID,
			Members: []models.TeamMember{{
				HackathonID: hackathonID,
				UserID:      leaderID,
				Status:      models.MemberStatusAccepted,
			}},
		}
		if err := tx.Team.Create(ctx, team); err != nil {
			return duplicateAs(err, ErrAlreadyOnTeam)
		}
		if err := tx.Hackathon.AddParticipant(ctx, hackathonID, leaderID); err != nil {
			return err
		}
		created = team
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Invite 由隊長邀請用戶，target 可以是用戶 ID 或電子郵件
func (s *MembershipService) Invite(ctx context.Context, teamID, byUserID uint, target string) (*models.Team, error) {
	return s.mutate(ctx, teamID, func(tx *repository.Repositories, team *models.Team) error {
		if !team.IsLeader(byUserID) {
			return ErrNotLeader
		}

		user, err := resolveUser(ctx, tx, target)
		if err != nil {
			return err
		}
		if _, ok := team.Member(user.ID); ok {
			return ErrAlreadyMember
		}
		if err := ensureNotOnOtherTeam(ctx, tx, team.HackathonID, user.ID, team.ID); err != nil {
			return err
		}

		member := &models.TeamMember{
			TeamID:      team.ID,
			HackathonID: team.HackathonID,
			UserID:      user.ID,
			Status:      models.MemberStatusPending,
		}
		return duplicateAs(tx.Team.AddMember(ctx, member), ErrAlreadyMember)
	})
}

// Respond 接受或拒絕邀請
//
// 接受時會重新檢查用戶是否已經在其他隊伍成為 accepted，
// 避免同時接受兩個邀請。
func (s *MembershipService) Respond(ctx context.Context, teamID, userID uint, action InviteAction) (*models.Team, error) {
	if action != InviteAccept && action != InviteReject {
		return nil, ErrInvalidAction
	}

	return s.mutate(ctx, teamID, func(tx *repository.Repositories, team *models.Team) error {
		member, ok := team.Member(userID)
		if !ok || member.Status != models.MemberStatusPending {
			return ErrNoPendingInvite
		}

		if action == InviteReject {
			_, err := tx.Team.RemoveMember(ctx, team.ID, userID)
			return err
		}

		if err := ensureNotOnOtherTeam(ctx, tx, team.HackathonID, userID, team.ID); err != nil {
			return err
		}
		updated, err := tx.Team.UpdateMemberStatus(ctx, team.ID, userID, models.MemberStatusPending, models.MemberStatusAccepted)
		if err != nil {
			return duplicateAs(err, ErrAlreadyOnTeam)
		}
		if !updated {
			return ErrNoPendingInvite
		}
		return tx.Hackathon.AddParticipant(ctx, team.HackathonID, userID)
	})
}

// Join 直接加入隊伍，不經過邀請
func (s *MembershipService) Join(ctx context.Context, teamID, userID uint) (*models.Team, error) {
	return s.mutate(ctx, teamID, func(tx *repository.Repositories, team *models.Team) error {
		if _, ok := team.Member(userID); ok {
			return ErrAlreadyMember
		}
		if err := ensureNotOnOtherTeam(ctx, tx, team.HackathonID, userID, team.ID); err != nil {
			return err
		}

		member := &models.TeamMember{
			TeamID:      team.ID,
			HackathonID: team.HackathonID,
			UserID:      userID,
			Status:      models.MemberStatusAccepted,
		}
		if err := tx.Team.AddMember(ctx, member); err != nil {
			return duplicateAs(err, ErrAlreadyOnTeam)
		}
		return tx.Hackathon.AddParticipant(ctx, team.HackathonID, userID)
	})
}

// Leave 讓成員離開隊伍；隊長不能離開。成員清空時刪除隊伍並回傳 nil。
func (s *MembershipService) Leave(ctx context.Context, teamID, userID uint) (*models.Team, error) {
	team, err := s.mutate(ctx, teamID, func(tx *repository.Repositories, team *models.Team) error {
		if team.IsLeader(userID) {
			return ErrLeaderCannotLeave
		}
		member, ok := team.Member(userID)
		if !ok || member.Status != models.MemberStatusAccepted {
			return ErrNotAMember
		}
		return removeAndPrune(ctx, tx, team.ID, userID)
	})
	if err != nil {
		return nil, err
	}
	s.revoke(teamID, userID)
	return team, nil
}

// RemoveMember 由隊長移除成員或撤回尚未回覆的邀請
func (s *MembershipService) RemoveMember(ctx context.Context, teamID, byUserID, targetUserID uint) (*models.Team, error) {
	team, err := s.mutate(ctx, teamID, func(tx *repository.Repositories, team *models.Team) error {
		if !team.IsLeader(byUserID) {
			return ErrNotLeader
		}
		if team.IsLeader(targetUserID) {
			return ErrCannotRemoveSelf
		}
		if _, ok := team.Member(targetUserID); !ok {
			return ErrNotAMember
		}
		return removeAndPrune(ctx, tx, team.ID, targetUserID)
	})
	if err != nil {
		return nil, err
	}
	s.revoke(teamID, targetUserID)
	return team, nil
}

// TransferLeadership 將隊長轉移給另一位 accepted 成員
func (s *MembershipService) TransferLeadership(ctx context.Context, teamID, byUserID, newLeaderID uint) (*models.Team, error) {
	return s.mutate(ctx, teamID, func(tx *repository.Repositories, team *models.Team) error {
		if !team.IsLeader(byUserID) {
			return ErrNotLeader
		}
		member, ok := team.Member(newLeaderID)
		if !ok || member.Status != models.MemberStatusAccepted {
			return ErrNotAMember
		}
		return tx.Team.UpdateLeader(ctx, team.ID, newLeaderID)
	})
}

// Disband 由隊長解散隊伍
func (s *MembershipService) Disband(ctx context.Context, teamID, byUserID uint) error {
	var members []uint
	_, err := s.mutate(ctx, teamID, func(tx *repository.Repositories, team *models.Team) error {
		if !team.IsLeader(byUserID) {
			return ErrNotLeader
		}
		for _, m := range team.Members {
			members = append(members, m.UserID)
		}
		return tx.Team.Delete(ctx, team.ID)
	})
	if err != nil {
		return err
	}
	s.revoke(teamID, members...)
	return nil
}

func (s *MembershipService) GetTeam(ctx context.Context, teamID uint) (*models.Team, error) {
	team, err := s.repos.Team.FindByID(ctx, teamID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTeamNotFound
	}
	return team, err
}

func (s *MembershipService) TeamsForHackathon(ctx context.Context, hackathonID uint) ([]models.Team, error) {
	return s.repos.Team.FindByHackathon(ctx, hackathonID)
}

// MyTeam 回傳用戶在該黑客松中 accepted 的隊伍
func (s *MembershipService) MyTeam(ctx context.Context, hackathonID, userID uint) (*models.Team, error) {
	member, err := s.repos.Team.FindAcceptedMembership(ctx, hackathonID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return s.GetTeam(ctx, member.TeamID)
}

// PendingInvites 回傳用戶尚未回覆邀請的隊伍
func (s *MembershipService) PendingInvites(ctx context.Context, userID uint) ([]models.Team, error) {
	pending, err := s.repos.Team.FindPendingByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	teams := make([]models.Team, 0, len(pending))
	for _, member := range pending {
		team, err := s.repos.Team.FindByID(ctx, member.TeamID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		teams = append(teams, *team)
	}
	return teams, nil
}

func (s *MembershipService) IsAcceptedMember(ctx context.Context, teamID, userID uint) (bool, error) {
	return s.repos.Team.IsAcceptedMember(ctx, teamID, userID)
}

// revoke 只在交易提交後呼叫
func (s *MembershipService) revoke(teamID uint, userIDs ...uint) {
	if s.revoker != nil && len(userIDs) > 0 {
		s.revoker.RevokeTeamAccess(teamID, userIDs...)
	}
}

// mutate 鎖住隊伍後執行 fn，成功時回傳更新後的隊伍；隊伍被刪除時回傳 nil
func (s *MembershipService) mutate(ctx context.Context, teamID uint, fn func(tx *repository.Repositories, team *models.Team) error) (*models.Team, error) {
	var result *models.Team
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		team, err := tx.Team.LockByID(ctx, teamID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTeamNotFound
			}
			return err
		}

		if err := fn(tx, team); err != nil {
			return err
		}

		result, err = tx.Team.FindByID(ctx, teamID)
		if errors.Is(err, repository.ErrNotFound) {
			result = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func ensureNotOnOtherTeam(ctx context.Context, tx *repository.Repositories, hackathonID, userID, teamID uint) error {
	member, err := tx.Team.FindAcceptedMembership(ctx, hackathonID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if member.TeamID != teamID {
		return ErrAlreadyOnTeam
	}
	return nil
}

func removeAndPrune(ctx context.Context, tx *repository.Repositories, teamID, userID uint) error {
	if _, err := tx.Team.RemoveMember(ctx, teamID, userID); err != nil {
		return err
	}
	remaining, err := tx.Team.CountMembers(ctx, teamID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		return tx.Team.Delete(ctx, teamID)
	}
	return nil
}

func resolveUser(ctx context.Context, tx *repository.Repositories, target string) (*models.User, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, ErrUserNotFound
	}

	var (
		user *models.User
		err  error
	)
	if id, parseErr := strconv.ParseUint(target, 10, 64); parseErr == nil {
		user, err = tx.User.FindByID(ctx, uint(id))
	} else {
		user, err = tx.User.FindByEmail(ctx, normalizeEmail(target))
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func duplicateAs(err, target error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return target
	}
	return err
}
