package service

import "errors"

// 授權錯誤
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrNotLeader       = errors.New("only the team leader can do this")
	ErrNotAMember      = errors.New("user is not a member of this team")
	ErrForbiddenRoom   = errors.New("not authorized to join this chat")
	ErrNotOrganizer    = errors.New("organizer role required")
)

// 衝突錯誤，狀態改變後可以重試
var (
	ErrAlreadyOnTeam   = errors.New("user already belongs to a team in this hackathon")
	ErrAlreadyMember   = errors.New("user already has a membership entry on this team")
	ErrNoPendingInvite = errors.New("no pending invite for this team")
	ErrEmailTaken      = errors.New("email already registered")
	ErrAlreadyAssigned = errors.New("mentor already assigned to this participant")
)

// 找不到資源
var (
	ErrTeamNotFound      = errors.New("team not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrHackathonNotFound = errors.New("hackathon not found")
)

// 輸入錯誤
var (
	ErrLeaderCannotLeave    = errors.New("team leader cannot leave; transfer leadership or disband the team")
	ErrCannotRemoveSelf     = errors.New("team leader cannot remove themselves")
	ErrInvalidTeamName      = errors.New("team name is required")
	ErrInvalidHackathonName = errors.New("hackathon name is required")
	ErrInvalidAction        = errors.New("action must be accept or reject")
	ErrInvalidMessage       = errors.New("message content is empty, too long, or has no valid target")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInvalidRole          = errors.New("invalid role")
	ErrNotMentor            = errors.New("user is not a mentor")
)
