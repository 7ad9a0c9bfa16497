package graphdir

import (
	"context"
	"strings"

	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/users"

	"github.com/entra-ops/entra-provision/pkg/provisioning"
)

var userSelect = []string{"id", "displayName", "userPrincipalName", "mail", "userType"}

// FindUserByIdentifier matches key against userPrincipalName or mail.
func (c *Client) FindUserByIdentifier(ctx context.Context, key string) (*provisioning.User, error) {
	graph, err := c.session(provisioning.OpFindUser)
	if err != nil {
		return nil, err
	}

	top := int32(1)
	filter := userFilter(key)
	resp, err := graph.Users().Get(ctx, &users.UsersRequestBuilderGetRequestConfiguration{
		QueryParameters: &users.UsersRequestBuilderGetQueryParameters{
			Filter: &filter,
			Select: userSelect,
			Top:    &top,
		},
	})
	if err != nil {
		return nil, remoteError(provisioning.OpFindUser, err)
	}
	if resp == nil || len(resp.GetValue()) == 0 {
		return nil, nil
	}
	return userFromModel(resp.GetValue()[0]), nil
}

// CreateUser posts a member user.
func (c *Client) CreateUser(ctx context.Context, user provisioning.NewUser) (*provisioning.User, error) {
	graph, err := c.session(provisioning.OpCreateUser)
	if err != nil {
		return nil, err
	}
	created, err := graph.Users().Post(ctx, userBody(user), nil)
	if err != nil {
		return nil, remoteError(provisioning.OpCreateUser, err)
	}
	return userFromModel(created), nil
}

// userFilter builds the OData filter. Single quotes are doubled per OData rules.
func userFilter(key string) string {
	k := strings.ReplaceAll(strings.TrimSpace(key), "'", "''")
	return "userPrincipalName eq '" + k + "' or mail eq '" + k + "'"
}

func userBody(u provisioning.NewUser) models.Userable {
	body := models.NewUser()
	body.SetAccountEnabled(boolPtr(u.AccountEnabled))
	body.SetDisplayName(strPtr(u.DisplayName))
	body.SetMailNickname(strPtr(u.MailNickname))
	body.SetUserPrincipalName(strPtr(u.UserPrincipalName))

	profile := models.NewPasswordProfile()
	profile.SetPassword(strPtr(u.Password))
	profile.SetForceChangePasswordNextSignIn(boolPtr(u.ForceChangePassword))
	body.SetPasswordProfile(profile)

	if u.GivenName != nil {
		body.SetGivenName(u.GivenName)
	}
	if u.Surname != nil {
		body.SetSurname(u.Surname)
	}
	if u.UsageLocation != nil {
		body.SetUsageLocation(u.UsageLocation)
	}
	if u.JobTitle != nil {
		body.SetJobTitle(u.JobTitle)
	}
	if u.Department != nil {
		body.SetDepartment(u.Department)
	}
	return body
}

func userFromModel(u models.Userable) *provisioning.User {
	if u == nil {
		return nil
	}
	return &provisioning.User{
		ID:                deref(u.GetId()),
		DisplayName:       deref(u.GetDisplayName()),
		UserPrincipalName: deref(u.GetUserPrincipalName()),
		Mail:              deref(u.GetMail()),
		UserType:          deref(u.GetUserType()),
	}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
