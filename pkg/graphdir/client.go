// Package graphdir is the Microsoft Graph backed directory used by the
// provisioning engine.
package graphdir

import (
	"context"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/entra-ops/entra-provision/pkg/provisioning"
)

const (
	GraphBaseURL = "https://graph.microsoft.com/v1.0"
	AppScope     = "https://graph.microsoft.com/.default"
)

// DelegatedScopes are requested for interactive (device code) sign-in.
var DelegatedScopes = []string{
	"User.ReadWrite.All",
	"User.Invite.All",
	"GroupMember.ReadWrite.All",
}

// AuthOptions selects how the session authenticates. A non-empty ClientSecret
// means app-only auth, otherwise the device code flow is used.
type AuthOptions struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Logger       *logrus.Entry
}

// Client is one authenticated Graph session. It is safe to Close more than once.
type Client struct {
	mu     sync.RWMutex
	graph  *msgraphsdk.GraphServiceClient
	logger *logrus.Entry
}

var _ provisioning.Directory = (*Client)(nil)

// Connect builds a credential and the Graph client. No request is sent until
// the first directory call, which is when device code sign-in prompts.
func Connect(ctx context.Context, opts AuthOptions) (*Client, error) {
	if opts.TenantID == "" {
		return nil, errors.New("graphdir: tenant id is required")
	}
	if opts.ClientID == "" {
		return nil, errors.New("graphdir: client id is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	cred, scopes, err := credential(opts, logger)
	if err != nil {
		return nil, errors.Wrap(err, "graphdir: create credential")
	}
	graph, err := msgraphsdk.NewGraphServiceClientWithCredentials(cred, scopes)
	if err != nil {
		return nil, errors.Wrap(err, "graphdir: create graph client")
	}

	logger.WithFields(logrus.Fields{
		"tenant_id": opts.TenantID,
		"auth":      authMode(opts),
	}).Info("graphdir: connected")
	return &Client{graph: graph, logger: logger}, nil
}

func credential(opts AuthOptions, logger *logrus.Entry) (azcore.TokenCredential, []string, error) {
	if opts.ClientSecret != "" {
		cred, err := azidentity.NewClientSecretCredential(opts.TenantID, opts.ClientID, opts.ClientSecret, nil)
		return cred, []string{AppScope}, err
	}
	cred, err := azidentity.NewDeviceCodeCredential(&azidentity.DeviceCodeCredentialOptions{
		TenantID: opts.TenantID,
		ClientID: opts.ClientID,
		UserPrompt: func(ctx context.Context, msg azidentity.DeviceCodeMessage) error {
			logger.Warn(msg.Message)
			return nil
		},
	})
	return cred, DelegatedScopes, err
}

func authMode(opts AuthOptions) string {
	if opts.ClientSecret != "" {
		return "client_secret"
	}
	return "device_code"
}

// Close drops the session. Later calls fail with a session_closed RemoteError.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.graph != nil {
		c.graph = nil
		c.logger.Debug("graphdir: session closed")
	}
	return nil
}

func (c *Client) session(op string) (*msgraphsdk.GraphServiceClient, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.graph == nil {
		return nil, &provisioning.RemoteError{Op: op, Code: CodeSessionClosed, Message: "directory session is closed"}
	}
	return c.graph, nil
}
