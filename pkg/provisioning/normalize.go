package provisioning

import (
	"strings"

	"github.com/entra-ops/entra-provision/pkg/tabular"
)

// Input columns. Matching is case-insensitive.
const (
	ColEmail       = "Email"
	ColName        = "Name"
	ColDisplayName = "DisplayName"
	ColMessage     = "Message"
	ColRedirectURL = "RedirectUrl"
	ColGroupID     = "GroupId"

	ColUserPrincipalName   = "UserPrincipalName"
	ColMailNickname        = "MailNickname"
	ColPassword            = "Password"
	ColGivenName           = "GivenName"
	ColSurname             = "Surname"
	ColUsageLocation       = "UsageLocation"
	ColJobTitle            = "JobTitle"
	ColDepartment          = "Department"
	ColForceChangePassword = "ForceChangePassword"
	ColAccountEnabled      = "AccountEnabled"
)

// RequiredColumns returns the header columns a pipeline cannot run without.
func RequiredColumns(p Pipeline) []string {
	if p == PipelineCreate {
		return []string{ColUserPrincipalName, ColDisplayName}
	}
	return []string{ColEmail}
}

// NormalizeInvitation resolves an invite row against the run defaults.
func NormalizeInvitation(row tabular.RawRow, opts Options) (InvitationEntry, error) {
	email := strings.TrimSpace(row.Get(ColEmail))
	if email == "" {
		return InvitationEntry{}, &ValidationError{Line: row.Line, Field: ColEmail, Reason: ReasonMissingField}
	}

	e := InvitationEntry{
		Line:          row.Line,
		Name:          strings.TrimSpace(row.Get(ColName)),
		Email:         email,
		DisplayName:   strings.TrimSpace(row.Get(ColDisplayName)),
		Message:       row.Get(ColMessage),
		RedirectURL:   strings.TrimSpace(row.Get(ColRedirectURL)),
		GroupOverride: strings.TrimSpace(row.Get(ColGroupID)),
	}
	if e.DisplayName == "" {
		e.DisplayName = e.Name
	}
	if e.DisplayName == "" {
		e.DisplayName = email
	}
	if strings.TrimSpace(e.Message) == "" {
		e.Message = opts.CustomMessage
	}
	if e.RedirectURL == "" {
		e.RedirectURL = opts.RedirectURL
	}
	return e, nil
}

// NormalizeMember resolves a create row against the run defaults.
func NormalizeMember(row tabular.RawRow, opts Options) (MemberEntry, error) {
	upn := strings.TrimSpace(row.Get(ColUserPrincipalName))
	if upn == "" {
		return MemberEntry{}, &ValidationError{Line: row.Line, Field: ColUserPrincipalName, Reason: ReasonMissingField}
	}
	displayName := strings.TrimSpace(row.Get(ColDisplayName))
	if displayName == "" {
		return MemberEntry{}, &ValidationError{Line: row.Line, Field: ColDisplayName, Reason: ReasonMissingField}
	}

	if !strings.Contains(upn, "@") && opts.DomainSuffix != "" {
		upn = upn + "@" + strings.TrimPrefix(strings.TrimSpace(opts.DomainSuffix), "@")
	}

	e := MemberEntry{
		Line:              row.Line,
		UserPrincipalName: upn,
		DisplayName:       displayName,
		MailNickname:      strings.TrimSpace(row.Get(ColMailNickname)),
		Password:          row.Get(ColPassword),
		GivenName:         strings.TrimSpace(row.Get(ColGivenName)),
		Surname:           strings.TrimSpace(row.Get(ColSurname)),
		UsageLocation:     strings.TrimSpace(row.Get(ColUsageLocation)),
		JobTitle:          strings.TrimSpace(row.Get(ColJobTitle)),
		Department:        strings.TrimSpace(row.Get(ColDepartment)),
		AccountEnabled:    true,
		GroupOverride:     strings.TrimSpace(row.Get(ColGroupID)),
	}
	if e.MailNickname == "" {
		e.MailNickname = localPart(upn)
	}
	if e.UsageLocation == "" {
		e.UsageLocation = DefaultUsageLocation
	}
	if v, ok := parseYesNo(row.Get(ColAccountEnabled)); ok {
		e.AccountEnabled = v
	}
	if v, ok := parseYesNo(row.Get(ColForceChangePassword)); ok {
		e.ForceChangePassword = &v
	}
	return e, nil
}

// ResolveForceChangePassword returns the explicit answer when one was given.
// Unset means true for both supplied and generated passwords.
func ResolveForceChangePassword(explicit *bool) bool {
	if explicit != nil {
		return *explicit
	}
	return true
}

func parseYesNo(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "y", "yes", "true", "1":
		return true, true
	case "n", "no", "false", "0":
		return false, true
	default:
		return false, false
	}
}

func localPart(upn string) string {
	if i := strings.Index(upn, "@"); i >= 0 {
		return upn[:i]
	}
	return upn
}

func identifyingKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), b)
}
