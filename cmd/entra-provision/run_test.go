package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entra-ops/entra-provision/pkg/graphdir"
	"github.com/entra-ops/entra-provision/pkg/provisioning"
)

type stubDirectory struct {
	created []provisioning.NewUser
	invited []provisioning.InvitationRequest
	closed  bool
}

func (d *stubDirectory) FindUserByIdentifier(ctx context.Context, key string) (*provisioning.User, error) {
	return nil, nil
}

func (d *stubDirectory) CreateUser(ctx context.Context, user provisioning.NewUser) (*provisioning.User, error) {
	d.created = append(d.created, user)
	return &provisioning.User{ID: "id-" + user.MailNickname, UserPrincipalName: user.UserPrincipalName}, nil
}

func (d *stubDirectory) InviteGuestUser(ctx context.Context, req provisioning.InvitationRequest) (*provisioning.Invitation, error) {
	d.invited = append(d.invited, req)
	return &provisioning.Invitation{ID: "inv", User: &provisioning.User{ID: "guest-" + req.Email, UserType: "Guest"}}, nil
}

func (d *stubDirectory) AddUserToGroup(ctx context.Context, groupID, userID string) error {
	return nil
}

func (d *stubDirectory) Close() error {
	d.closed = true
	return nil
}

func useStubDirectory(t *testing.T) (*stubDirectory, *graphdir.AuthOptions) {
	t.Helper()
	dir := &stubDirectory{}
	var seen graphdir.AuthOptions
	orig := connectDirectory
	connectDirectory = func(ctx context.Context, opts graphdir.AuthOptions) (provisioning.Directory, error) {
		seen = opts
		return dir, nil
	}
	t.Cleanup(func() { connectDirectory = orig })
	return dir, &seen
}

func inTempDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("LOG_LEVEL", "silent")
	t.Setenv("ENTRA_TENANT_ID", "env-tenant.onmicrosoft.com")
	t.Setenv("PUSHGATEWAY_URL", "")
	return tmp
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCreate_EndToEnd(t *testing.T) {
	tmp := inTempDir(t)
	dir, auth := useStubDirectory(t)

	csvPath := filepath.Join(tmp, "users.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"UserPrincipalName,DisplayName\n"+
			"a@x.com,A\n"+
			"a@x.com,A2\n"+
			"b@x.com,\n"), 0o600))
	logPath := filepath.Join(tmp, "out", "create.csv")

	out, err := execute(t, "create", "--csv", csvPath, "--log-path", logPath, "--json")
	require.NoError(t, err)
	require.True(t, dir.closed)
	require.Len(t, dir.created, 1)
	require.Equal(t, "env-tenant.onmicrosoft.com", auth.TenantID)

	var summary runSummary
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &summary))
	require.Equal(t, "create", summary.Pipeline)
	require.Equal(t, 1, summary.Counts["Created"])
	require.Equal(t, 1, summary.RejectedDuplicate)
	require.Equal(t, 1, summary.RejectedMalformed)
	require.Equal(t, logPath, summary.LogPath)

	b, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[1], "a@x.com,A,Created,id-a,false,"))
}

func TestInvite_DryRunDefaultLogPath(t *testing.T) {
	tmp := inTempDir(t)
	dir, auth := useStubDirectory(t)

	csvPath := filepath.Join(tmp, "guests.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Email,Name\ng@ext.com,Guest\n"), 0o600))

	out, err := execute(t, "invite", "--csv", csvPath, "--dry-run", "--tenant-id", "flag-tenant")
	require.NoError(t, err)
	require.Empty(t, dir.invited)
	require.Equal(t, "flag-tenant", auth.TenantID)
	require.Contains(t, out, "(dry run)")
	require.Contains(t, out, "DryRun")

	matches, err := filepath.Glob(filepath.Join(tmp, "invite-results-*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestInputErrorNeverConnects(t *testing.T) {
	tmp := inTempDir(t)
	called := false
	orig := connectDirectory
	connectDirectory = func(ctx context.Context, opts graphdir.AuthOptions) (provisioning.Directory, error) {
		called = true
		return &stubDirectory{}, nil
	}
	t.Cleanup(func() { connectDirectory = orig })

	csvPath := filepath.Join(tmp, "bad.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Name\nx\n"), 0o600))

	_, err := execute(t, "invite", "--csv", csvPath)
	require.Error(t, err)
	require.Equal(t, exitInput, exitCode(err))
	require.False(t, called)

	matches, _ := filepath.Glob(filepath.Join(tmp, "invite-results-*.csv"))
	require.Empty(t, matches)
}

func TestRunFileAndFlagPrecedence(t *testing.T) {
	tmp := inTempDir(t)
	dir, _ := useStubDirectory(t)

	csvPath := filepath.Join(tmp, "guests.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Email\ng@ext.com\n"), 0o600))
	runFile := filepath.Join(tmp, "run.yaml")
	require.NoError(t, os.WriteFile(runFile, []byte(
		"csvPath: "+csvPath+"\n"+
			"customMessage: from file\n"+
			"redirectUrl: https://file.example.com\n"), 0o600))

	_, err := execute(t, "invite", "--config", runFile, "--redirect-url", "https://flag.example.com")
	require.NoError(t, err)
	require.Len(t, dir.invited, 1)
	require.Equal(t, "from file", dir.invited[0].MessageBody)
	require.Equal(t, "https://flag.example.com", dir.invited[0].RedirectURL)
	require.True(t, dir.invited[0].SendInvitationMessage)
}

func TestUsageErrors(t *testing.T) {
	inTempDir(t)
	useStubDirectory(t)

	_, err := execute(t, "create")
	require.Equal(t, exitUsage, exitCode(err))

	_, err = execute(t, "create", "--csv", "x.csv", "--throttle-delay", "-1")
	require.Equal(t, exitUsage, exitCode(err))

	_, err = execute(t, "invite", "--csv", "x.csv", "--group-id", "not-a-guid")
	require.Equal(t, exitUsage, exitCode(err))
}
