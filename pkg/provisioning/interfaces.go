package provisioning

import "context"

// Directory is the identity provider the engine provisions into. A Directory is
// acquired once per run and closed when the run ends.
type Directory interface {
	// FindUserByIdentifier returns nil, nil when no principal matches key.
	FindUserByIdentifier(ctx context.Context, key string) (*User, error)
	CreateUser(ctx context.Context, user NewUser) (*User, error)
	InviteGuestUser(ctx context.Context, req InvitationRequest) (*Invitation, error)
	AddUserToGroup(ctx context.Context, groupID, userID string) error
	Close() error
}
