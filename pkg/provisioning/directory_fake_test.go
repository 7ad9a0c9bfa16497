package provisioning

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type fakeCall struct {
	Op   string
	Args []string
}

// fakeDirectory is an in-memory Directory keyed by lower-cased UPN or mail.
type fakeDirectory struct {
	mu     sync.Mutex
	users  map[string]*User
	groups map[string]map[string]bool
	calls  []fakeCall
	nextID int

	findErr   error
	createErr map[string]error
	inviteErr map[string]error
	groupErr  error
	closed    bool
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users:     make(map[string]*User),
		groups:    make(map[string]map[string]bool),
		createErr: make(map[string]error),
		inviteErr: make(map[string]error),
	}
}

func (d *fakeDirectory) addUser(u User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := u
	if cp.UserPrincipalName != "" {
		d.users[strings.ToLower(cp.UserPrincipalName)] = &cp
	}
	if cp.Mail != "" {
		d.users[strings.ToLower(cp.Mail)] = &cp
	}
}

func (d *fakeDirectory) record(op string, args ...string) {
	d.calls = append(d.calls, fakeCall{Op: op, Args: args})
}

func (d *fakeDirectory) callCount(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (d *fakeDirectory) mutatingCalls() int {
	return d.callCount(OpCreateUser) + d.callCount(OpInvite) + d.callCount(OpAddToGroup)
}

func (d *fakeDirectory) FindUserByIdentifier(ctx context.Context, key string) (*User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(OpFindUser, key)
	if d.findErr != nil {
		return nil, d.findErr
	}
	if u, ok := d.users[strings.ToLower(key)]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (d *fakeDirectory) CreateUser(ctx context.Context, user NewUser) (*User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(OpCreateUser, user.UserPrincipalName, user.Password, fmt.Sprint(user.ForceChangePassword))
	if err := d.createErr[strings.ToLower(user.UserPrincipalName)]; err != nil {
		return nil, err
	}
	d.nextID++
	u := &User{
		ID:                fmt.Sprintf("user-%d", d.nextID),
		DisplayName:       user.DisplayName,
		UserPrincipalName: user.UserPrincipalName,
		UserType:          "Member",
	}
	d.users[strings.ToLower(user.UserPrincipalName)] = u
	return u, nil
}

func (d *fakeDirectory) InviteGuestUser(ctx context.Context, req InvitationRequest) (*Invitation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(OpInvite, req.Email, req.DisplayName, req.RedirectURL, req.MessageBody)
	if err := d.inviteErr[strings.ToLower(req.Email)]; err != nil {
		return nil, err
	}
	d.nextID++
	u := &User{
		ID:          fmt.Sprintf("guest-%d", d.nextID),
		DisplayName: req.DisplayName,
		Mail:        req.Email,
		UserType:    "Guest",
	}
	d.users[strings.ToLower(req.Email)] = u
	return &Invitation{ID: "inv-" + u.ID, Status: "PendingAcceptance", User: u}, nil
}

func (d *fakeDirectory) AddUserToGroup(ctx context.Context, groupID, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(OpAddToGroup, groupID, userID)
	if d.groupErr != nil {
		return d.groupErr
	}
	if d.groups[groupID] == nil {
		d.groups[groupID] = make(map[string]bool)
	}
	d.groups[groupID][userID] = true
	return nil
}

func (d *fakeDirectory) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
