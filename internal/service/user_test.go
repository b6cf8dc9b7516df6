package service

import (
	"context"
	"errors"
	"testing"

	"hackhub/internal/models"
)

func TestRegisterLoginAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	users := env.services.User

	user, err := users.Register(ctx, " Amy ", "Amy@Example.com ", "secret", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "amy@example.com" || user.Role != models.RoleParticipant || user.Password == "secret" {
		t.Fatalf("user = %+v", user)
	}

	if _, err := users.Register(ctx, "amy2", "amy@example.com", "x", models.RoleMentor); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate err = %v, want ErrEmailTaken", err)
	}
	if _, err := users.Register(ctx, "bob", "bob@example.com", "x", "wizard"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("role err = %v, want ErrInvalidRole", err)
	}

	if _, _, err := users.Login(ctx, "amy@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, _, err := users.Login(ctx, "nobody@example.com", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email err = %v", err)
	}

	token, loggedIn, err := users.Login(ctx, "AMY@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("logged in as %d, want %d", loggedIn.ID, user.ID)
	}

	principal, err := users.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	want := Principal{UserID: user.ID, Role: models.RoleParticipant, Name: "Amy"}
	if *principal != want {
		t.Fatalf("principal = %+v, want %+v", *principal, want)
	}
}

func TestAuthenticateFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	users := env.services.User

	ghost, err := env.jwt.GenerateToken(4242, string(models.RoleParticipant))
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	for _, token := range []string{"", "   ", "not-a-jwt", ghost} {
		if _, err := users.Authenticate(ctx, token); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("token %q: err = %v, want ErrUnauthenticated", token, err)
		}
	}
}

func TestHackathonService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.principal(env.user(t, "org", models.RoleOrganizer))
	participant := env.user(t, "p", models.RoleParticipant)
	mentor := env.user(t, "m", models.RoleMentor)
	hackathons := env.services.Hackathon

	if _, err := hackathons.Create(ctx, env.principal(participant), "nope"); !errors.Is(err, ErrNotOrganizer) {
		t.Fatalf("err = %v, want ErrNotOrganizer", err)
	}
	if _, err := hackathons.Create(ctx, organizer, "   "); !errors.Is(err, ErrInvalidHackathonName) {
		t.Fatalf("err = %v, want ErrInvalidHackathonName", err)
	}
	h, err := hackathons.Create(ctx, organizer, " Spring Hack ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if h.Name != "Spring Hack" || h.OrganizerID != organizer.UserID {
		t.Fatalf("hackathon = %+v", h)
	}

	// 其他組織者不能替這場黑客松配對導師
	rival := env.principal(env.user(t, "rival", models.RoleOrganizer))
	if _, err := hackathons.AssignMentor(ctx, rival, h.ID, mentor.ID, participant.ID); !errors.Is(err, ErrNotOrganizer) {
		t.Fatalf("err = %v, want ErrNotOrganizer", err)
	}

	if _, err := hackathons.AssignMentor(ctx, organizer, h.ID, participant.ID, mentor.ID); !errors.Is(err, ErrNotMentor) {
		t.Fatalf("err = %v, want ErrNotMentor", err)
	}
	if _, err := hackathons.AssignMentor(ctx, organizer, 999, mentor.ID, participant.ID); !errors.Is(err, ErrHackathonNotFound) {
		t.Fatalf("err = %v, want ErrHackathonNotFound", err)
	}
	if _, err := hackathons.AssignMentor(ctx, organizer, h.ID, mentor.ID, 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
	if _, err := hackathons.AssignMentor(ctx, organizer, h.ID, mentor.ID, participant.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := hackathons.AssignMentor(ctx, organizer, h.ID, mentor.ID, participant.ID); !errors.Is(err, ErrAlreadyAssigned) {
		t.Fatalf("err = %v, want ErrAlreadyAssigned", err)
	}

	room := MentorRoom(h.ID, mentor.ID, participant.ID)
	if err := env.services.Chat.CanJoin(ctx, env.principal(participant), room); err != nil {
		t.Fatalf("assigned pair cannot chat: %v", err)
	}

	if ok, err := hackathons.IsParticipant(ctx, h.ID, participant.ID); err != nil || ok {
		t.Fatalf("participant before joining a team = %v, %v", ok, err)
	}
	env.team(t, h.ID, participant.ID, "t")
	if ok, err := hackathons.IsParticipant(ctx, h.ID, participant.ID); err != nil || !ok {
		t.Fatalf("participant after creating a team = %v, %v", ok, err)
	}
	if _, err := hackathons.IsParticipant(ctx, 999, participant.ID); !errors.Is(err, ErrHackathonNotFound) {
		t.Fatalf("err = %v, want ErrHackathonNotFound", err)
	}
}
