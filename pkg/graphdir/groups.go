package graphdir

import (
	"context"

	"github.com/microsoftgraph/msgraph-sdk-go/models"

	"github.com/entra-ops/entra-provision/pkg/provisioning"
)

// AddUserToGroup adds a directory object reference to the group's members.
func (c *Client) AddUserToGroup(ctx context.Context, groupID, userID string) error {
	graph, err := c.session(provisioning.OpAddToGroup)
	if err != nil {
		return err
	}
	if err := graph.Groups().ByGroupId(groupID).Members().Ref().Post(ctx, memberRef(userID), nil); err != nil {
		return remoteError(provisioning.OpAddToGroup, err)
	}
	return nil
}

func memberRef(userID string) models.ReferenceCreateable {
	ref := models.NewReferenceCreate()
	ref.SetOdataId(strPtr(GraphBaseURL + "/directoryObjects/" + userID))
	return ref
}
