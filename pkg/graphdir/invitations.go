package graphdir

import (
	"context"
	"strings"

	"github.com/microsoftgraph/msgraph-sdk-go/models"

	"github.com/entra-ops/entra-provision/pkg/provisioning"
)

// InviteGuestUser posts a B2B invitation.
func (c *Client) InviteGuestUser(ctx context.Context, req provisioning.InvitationRequest) (*provisioning.Invitation, error) {
	graph, err := c.session(provisioning.OpInvite)
	if err != nil {
		return nil, err
	}
	inv, err := graph.Invitations().Post(ctx, invitationBody(req), nil)
	if err != nil {
		return nil, remoteError(provisioning.OpInvite, err)
	}
	return &provisioning.Invitation{
		ID:        deref(inv.GetId()),
		RedeemURL: deref(inv.GetInviteRedeemUrl()),
		Status:    deref(inv.GetStatus()),
		User:      userFromModel(inv.GetInvitedUser()),
	}, nil
}

func invitationBody(req provisioning.InvitationRequest) models.Invitationable {
	body := models.NewInvitation()
	body.SetInvitedUserEmailAddress(strPtr(req.Email))
	body.SetInviteRedirectUrl(strPtr(req.RedirectURL))
	body.SetSendInvitationMessage(boolPtr(req.SendInvitationMessage))
	if req.DisplayName != "" {
		body.SetInvitedUserDisplayName(strPtr(req.DisplayName))
	}
	if strings.TrimSpace(req.MessageBody) != "" {
		info := models.NewInvitedUserMessageInfo()
		info.SetCustomizedMessageBody(strPtr(req.MessageBody))
		body.SetInvitedUserMessageInfo(info)
	}
	return body
}
