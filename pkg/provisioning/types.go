package provisioning

import (
	"time"

	"github.com/google/uuid"
)

// Pipeline selects which kind of entry a run provisions.
type Pipeline string

const (
	PipelineInvite Pipeline = "invite"
	PipelineCreate Pipeline = "create"
)

// Status is the terminal outcome of one processed row.
type Status string

const (
	StatusCreated         Status = "Created"
	StatusInvited         Status = "Invited"
	StatusSkippedExisting Status = "SkippedExisting"
	StatusDryRun          Status = "DryRun"
	StatusError           Status = "Error"
)

// Statuses lists every status in log/summary order.
var Statuses = []Status{StatusCreated, StatusInvited, StatusSkippedExisting, StatusDryRun, StatusError}

// RowResult is the outcome of one row. It is created once by the processor and
// only touched again by the group-add follow-up.
type RowResult struct {
	Line            int
	Identifier      string
	DisplayName     string
	Status          Status
	RemoteID        string
	AddedToGroup    bool
	GeneratedSecret string
	ErrorMessage    string
}

// InvitationEntry is a normalized invite row.
type InvitationEntry struct {
	Line          int
	Name          string
	Email         string
	DisplayName   string
	Message       string
	RedirectURL   string
	GroupOverride string
}

// Key returns the identifying key used for duplicate detection.
func (e InvitationEntry) Key() string { return identifyingKey(e.Email) }

// MemberEntry is a normalized create row.
type MemberEntry struct {
	Line                int
	UserPrincipalName   string
	DisplayName         string
	MailNickname        string
	Password            string
	GivenName           string
	Surname             string
	UsageLocation       string
	JobTitle            string
	Department          string
	ForceChangePassword *bool
	AccountEnabled      bool
	GroupOverride       string
}

// Key returns the identifying key used for duplicate detection.
func (e MemberEntry) Key() string { return identifyingKey(e.UserPrincipalName) }

// User is the subset of a directory principal the engine cares about.
type User struct {
	ID                string
	DisplayName       string
	UserPrincipalName string
	Mail              string
	UserType          string
}

// IsGuest reports whether the principal is a guest (external) identity.
func (u *User) IsGuest() bool {
	return u != nil && equalFold(u.UserType, "Guest")
}

// NewUser is the create-user request. Nil optional fields are omitted from the
// outbound request rather than sent as null.
type NewUser struct {
	AccountEnabled      bool
	DisplayName         string
	MailNickname        string
	UserPrincipalName   string
	Password            string
	ForceChangePassword bool

	GivenName     *string
	Surname       *string
	UsageLocation *string
	JobTitle      *string
	Department    *string
}

// InvitationRequest is the invite-guest request.
type InvitationRequest struct {
	Email                 string
	DisplayName           string
	RedirectURL           string
	MessageBody           string
	SendInvitationMessage bool
}

// Invitation is the directory's answer to an invite.
type Invitation struct {
	ID        string
	RedeemURL string
	Status    string
	User      *User
}

// Report is everything a run produced.
type Report struct {
	RunID      uuid.UUID
	Pipeline   Pipeline
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []RowResult
	Summary    map[Status]int
	Rejected   Rejections
}

// Rejections counts rows dropped before processing. They never appear in the log.
type Rejections struct {
	Malformed int
	Duplicate int
}

func newSummary() map[Status]int {
	s := make(map[Status]int, len(Statuses))
	for _, st := range Statuses {
		s[st] = 0
	}
	return s
}
