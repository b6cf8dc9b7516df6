package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"hackhub/internal/models"
	"hackhub/internal/repository"
	"hackhub/internal/service"
	"hackhub/internal/storage"
	"hackhub/internal/utils"
	"hackhub/pkg/config"
)

type apiEnv struct {
	t      *testing.T
	router *gin.Engine
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := storage.NewSQLiteDB(filepath.Join(t.TempDir(), "api.db"), false)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	services := service.NewServices(repository.NewRepositories(db), utils.NewJWTManager("api-secret", time.Hour), config.ChatConfig{
		AuthTimeout:     time.Second,
		SendBuffer:      16,
		MaxMessageBytes: 4096,
		MaxContentRunes: 500,
	})
	r := gin.New()
	SetupRoutes(r, services, nil)
	return &apiEnv{t: t, router: r}
}

// do 送出請求並把回應解碼到 out（out 可為 nil）
func (e *apiEnv) do(method, path, token string, body any, out any) int {
	e.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	if out != nil && w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			e.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code
}

type session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (e *apiEnv) signup(name string, role models.UserRole) session {
	e.t.Helper()
	email := name + "@example.com"
	if code := e.do(http.MethodPost, "/api/register", "", gin.H{
		"name": name, "email": email, "password": "password", "role": role,
	}, nil); code != http.StatusCreated {
		e.t.Fatalf("register %s: status %d", name, code)
	}
	var s session
	if code := e.do(http.MethodPost, "/api/login", "", gin.H{"email": email, "password": "password"}, &s); code != http.StatusOK {
		e.t.Fatalf("login %s: status %d", name, code)
	}
	return s
}

func TestHealthAndNotFound(t *testing.T) {
	env := newAPIEnv(t)

	var health map[string]any
	if code := env.do(http.MethodGet, "/api/health", "", nil, &health); code != http.StatusOK {
		t.Fatalf("health status %d", code)
	}
	if health["status"] != "ok" || health["connections"] != float64(0) || health["rooms"] != float64(0) {
		t.Fatalf("health = %v", health)
	}

	if code := env.do(http.MethodGet, "/nope", "", nil, nil); code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", code)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newAPIEnv(t)

	var body map[string]string
	if code := env.do(http.MethodPost, "/api/teams", "", gin.H{"name": "t", "hackathonId": 1}, &body); code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", code)
	}
	if body["message"] == "" {
		t.Fatalf("body = %v", body)
	}
	if code := env.do(http.MethodPost, "/api/teams", "bad-token", gin.H{"name": "t", "hackathonId": 1}, nil); code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", code)
	}
}

func TestRegisterLoginErrors(t *testing.T) {
	env := newAPIEnv(t)
	env.signup("amy", models.RoleParticipant)

	if code := env.do(http.MethodPost, "/api/register", "", gin.H{
		"name": "amy", "email": "amy@example.com", "password": "password",
	}, nil); code != http.StatusConflict {
		t.Fatalf("duplicate register status %d, want 409", code)
	}
	if code := env.do(http.MethodPost, "/api/login", "", gin.H{"email": "amy@example.com", "password": "wrong-one"}, nil); code != http.StatusUnauthorized {
		t.Fatalf("bad login status %d, want 401", code)
	}
	if code := env.do(http.MethodPost, "/api/register", "", gin.H{"name": "x"}, nil); code != http.StatusBadRequest {
		t.Fatalf("missing fields status %d, want 400", code)
	}

	var me models.User
	bob := env.signup("bob", models.RoleMentor)
	if code := env.do(http.MethodGet, "/api/me", bob.Token, nil, &me); code != http.StatusOK {
		t.Fatalf("me status %d", code)
	}
	if me.ID != bob.User.ID || me.Role != models.RoleMentor {
		t.Fatalf("me = %+v", me)
	}
	if code := env.do(http.MethodGet, "/api/me", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous me status %d, want 401", code)
	}
}

func TestTeamLifecycleOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	org := env.signup("org", models.RoleOrganizer)
	leader := env.signup("leader", models.RoleParticipant)
	member := env.signup("member", models.RoleParticipant)

	var hackathon models.Hackathon
	if code := env.do(http.MethodPost, "/api/hackathons", leader.Token, gin.H{"name": "h"}, nil); code != http.StatusForbidden {
		t.Fatalf("participant create hackathon status %d, want 403", code)
	}
	if code := env.do(http.MethodPost, "/api/hackathons", org.Token, gin.H{"name": "  "}, nil); code != http.StatusBadRequest {
		t.Fatalf("blank hackathon name status %d, want 400", code)
	}
	if code := env.do(http.MethodPost, "/api/hackathons", org.Token, gin.H{"name": "h"}, &hackathon); code != http.StatusCreated {
		t.Fatalf("create hackathon status %d", code)
	}

	participationPath := fmt.Sprintf("/api/hackathons/%d/participation", hackathon.ID)
	var participation struct {
		HackathonID uint `json:"hackathonId"`
		Participant bool `json:"participant"`
	}
	if code := env.do(http.MethodGet, participationPath, leader.Token, nil, &participation); code != http.StatusOK || participation.Participant {
		t.Fatalf("participation before team status %d: %+v", code, participation)
	}
	if code := env.do(http.MethodGet, "/api/hackathons/999/participation", leader.Token, nil, nil); code != http.StatusNotFound {
		t.Fatalf("unknown hackathon participation status %d, want 404", code)
	}

	var team models.Team
	if code := env.do(http.MethodPost, "/api/teams", leader.Token, gin.H{"name": "alpha", "hackathonId": hackathon.ID}, &team); code != http.StatusCreated {
		t.Fatalf("create team status %d", code)
	}
	if code := env.do(http.MethodPost, "/api/teams", leader.Token, gin.H{"name": "beta", "hackathonId": hackathon.ID}, nil); code != http.StatusConflict {
		t.Fatalf("second team status %d, want 409", code)
	}
	if code := env.do(http.MethodGet, participationPath, leader.Token, nil, &participation); code != http.StatusOK || !participation.Participant || participation.HackathonID != hackathon.ID {
		t.Fatalf("participation after team status %d: %+v", code, participation)
	}

	teamPath := fmt.Sprintf("/api/teams/%d", team.ID)
	if code := env.do(http.MethodPut, teamPath+"/invite", member.Token, gin.H{"email": "leader@example.com"}, nil); code != http.StatusForbidden {
		t.Fatalf("non-leader invite status %d, want 403", code)
	}
	if code := env.do(http.MethodPut, teamPath+"/invite", leader.Token, gin.H{"email": "member@example.com"}, &team); code != http.StatusOK {
		t.Fatalf("invite status %d", code)
	}

	var invites []models.Team
	if code := env.do(http.MethodGet, "/api/teams/invites", member.Token, nil, &invites); code != http.StatusOK || len(invites) != 1 {
		t.Fatalf("invites status %d: %+v", code, invites)
	}

	if code := env.do(http.MethodPut, teamPath+"/invite/maybe", member.Token, nil, nil); code != http.StatusBadRequest {
		t.Fatalf("bad action status %d, want 400", code)
	}
	if code := env.do(http.MethodPut, teamPath+"/invite/accept", member.Token, nil, &team); code != http.StatusOK {
		t.Fatalf("accept status %d", code)
	}
	if code := env.do(http.MethodPut, teamPath+"/invite/accept", member.Token, nil, nil); code != http.StatusConflict {
		t.Fatalf("second accept status %d, want 409", code)
	}
	if len(team.Members) != 2 {
		t.Fatalf("members = %+v", team.Members)
	}

	var mine models.Team
	if code := env.do(http.MethodGet, fmt.Sprintf("/api/hackathons/%d/my-team", hackathon.ID), member.Token, nil, &mine); code != http.StatusOK || mine.ID != team.ID {
		t.Fatalf("my team status %d: %+v", code, mine)
	}

	if code := env.do(http.MethodPut, teamPath+"/leave", leader.Token, nil, nil); code != http.StatusBadRequest {
		t.Fatalf("leader leave status %d, want 400", code)
	}
	if code := env.do(http.MethodPut, fmt.Sprintf("%s/remove/%d", teamPath, leader.User.ID), leader.Token, nil, nil); code != http.StatusBadRequest {
		t.Fatalf("remove self status %d, want 400", code)
	}
	if code := env.do(http.MethodPut, fmt.Sprintf("%s/remove/%d", teamPath, member.User.ID), leader.Token, nil, &team); code != http.StatusOK || len(team.Members) != 1 {
		t.Fatalf("remove status %d: %+v", code, team.Members)
	}
	if code := env.do(http.MethodPut, teamPath+"/leave", member.Token, nil, nil); code != http.StatusForbidden {
		t.Fatalf("leave after removal status %d, want 403", code)
	}

	if code := env.do(http.MethodDelete, teamPath, leader.Token, nil, nil); code != http.StatusNoContent {
		t.Fatalf("disband status %d", code)
	}
	if code := env.do(http.MethodGet, teamPath, leader.Token, nil, nil); code != http.StatusNotFound {
		t.Fatalf("get after disband status %d, want 404", code)
	}
	if code := env.do(http.MethodGet, "/api/teams/abc", leader.Token, nil, nil); code != http.StatusBadRequest {
		t.Fatalf("bad id status %d, want 400", code)
	}
}

func TestChatRESTFallback(t *testing.T) {
	env := newAPIEnv(t)
	org := env.signup("org", models.RoleOrganizer)
	leader := env.signup("leader", models.RoleParticipant)
	outsider := env.signup("outsider", models.RoleParticipant)
	mentor := env.signup("mentor", models.RoleMentor)

	var hackathon models.Hackathon
	env.do(http.MethodPost, "/api/hackathons", org.Token, gin.H{"name": "h"}, &hackathon)
	var team models.Team
	env.do(http.MethodPost, "/api/teams", leader.Token, gin.H{"name": "alpha", "hackathonId": hackathon.ID}, &team)

	teamChat := fmt.Sprintf("/api/chat/team/%d/%d", hackathon.ID, team.ID)
	var msg models.ChatMessage
	if code := env.do(http.MethodPost, teamChat, leader.Token, gin.H{"content": "hi team"}, &msg); code != http.StatusCreated {
		t.Fatalf("post status %d", code)
	}
	if msg.ID == 0 || msg.SenderID != leader.User.ID || msg.TeamID == nil || *msg.TeamID != team.ID {
		t.Fatalf("msg = %+v", msg)
	}
	if code := env.do(http.MethodPost, teamChat, outsider.Token, gin.H{"content": "let me in"}, nil); code != http.StatusForbidden {
		t.Fatalf("outsider post status %d, want 403", code)
	}
	if code := env.do(http.MethodGet, teamChat, outsider.Token, nil, nil); code != http.StatusForbidden {
		t.Fatalf("outsider get status %d, want 403", code)
	}

	var history []models.ChatMessage
	if code := env.do(http.MethodGet, teamChat, leader.Token, nil, &history); code != http.StatusOK || len(history) != 1 {
		t.Fatalf("history status %d: %+v", code, history)
	}

	mentorChat := fmt.Sprintf("/api/chat/mentor/%d/%d", hackathon.ID, mentor.User.ID)
	if code := env.do(http.MethodGet, mentorChat, leader.Token, nil, nil); code != http.StatusForbidden {
		t.Fatalf("unassigned mentor chat status %d, want 403", code)
	}
	if code := env.do(http.MethodPost, fmt.Sprintf("/api/hackathons/%d/mentors", hackathon.ID), org.Token, gin.H{
		"mentorId": mentor.User.ID, "participantId": leader.User.ID,
	}, nil); code != http.StatusCreated {
		t.Fatalf("assign status %d", code)
	}
	if code := env.do(http.MethodPost, mentorChat, leader.Token, gin.H{"content": "question"}, nil); code != http.StatusCreated {
		t.Fatalf("mentor post status %d", code)
	}

	history = nil
	path := fmt.Sprintf("%s?participantId=%d", mentorChat, leader.User.ID)
	if code := env.do(http.MethodGet, path, mentor.Token, nil, &history); code != http.StatusOK || len(history) != 1 {
		t.Fatalf("mentor history status %d: %+v", code, history)
	}
	if history[0].RecipientID == nil || *history[0].RecipientID != mentor.User.ID {
		t.Fatalf("recipient = %v", history[0].RecipientID)
	}
}
