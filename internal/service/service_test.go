package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"hackhub/internal/models"
	"hackhub/internal/repository"
	"hackhub/internal/storage"
	"hackhub/internal/utils"
	"hackhub/pkg/config"
)

type testEnv struct {
	repos    *repository.Repositories
	services *Services
	jwt      *utils.JWTManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := storage.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"), false)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repos := repository.NewRepositories(db)
	jwt := utils.NewJWTManager("test-secret", time.Hour)
	services := NewServices(repos, jwt, config.ChatConfig{
		AuthTimeout:     2 * time.Second,
		SendBuffer:      64,
		MaxMessageBytes: 4096,
		MaxContentRunes: 200,
	})
	return &testEnv{repos: repos, services: services, jwt: jwt}
}

func (e *testEnv) user(t *testing.T, name string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "x",
		Role:     role,
	}
	if err := e.repos.User.Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func (e *testEnv) hackathon(t *testing.T, name string) *models.Hackathon {
	t.Helper()
	hackathon := &models.Hackathon{Name: name}
	if err := e.repos.Hackathon.Create(context.Background(), hackathon); err != nil {
		t.Fatalf("create hackathon: %v", err)
	}
	return hackathon
}

func (e *testEnv) team(t *testing.T, hackathonID, leaderID uint, name string) *models.Team {
	t.Helper()
	team, err := e.services.Membership.CreateTeam(context.Background(), hackathonID, leaderID, name)
	if err != nil {
		t.Fatalf("create team %s: %v", name, err)
	}
	return team
}

func (e *testEnv) principal(user *models.User) *Principal {
	return &Principal{UserID: user.ID, Role: user.Role, Name: user.Name}
}

func (e *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := e.jwt.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

// acceptedTeams 計算用戶在黑客松中為 accepted 的隊伍數
func (e *testEnv) acceptedTeams(t *testing.T, hackathonID, userID uint) int {
	t.Helper()
	teams, err := e.repos.Team.FindByHackathon(context.Background(), hackathonID)
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	count := 0
	for _, team := range teams {
		if m, ok := team.Member(userID); ok && m.Status == models.MemberStatusAccepted {
			count++
		}
	}
	return count
}

func memberStatuses(team *models.Team) map[uint]models.MemberStatus {
	out := make(map[uint]models.MemberStatus, len(team.Members))
	for _, m := range team.Members {
		out[m.UserID] = m.Status
	}
	return out
}
