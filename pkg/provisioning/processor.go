package provisioning

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/entra-ops/entra-provision/pkg/tabular"
)

// Remote operation names used in logs, metrics and RemoteError.Op.
const (
	OpFindUser   = "find_user"
	OpCreateUser = "create_user"
	OpInvite     = "invite_guest_user"
	OpAddToGroup = "add_user_to_group"
)

var tracer = otel.Tracer("entra-provision/provisioning")

// Processor turns one raw row into at most one RowResult. It remembers the
// identifying keys it has seen, so one Processor serves exactly one run.
type Processor struct {
	dir  Directory
	opts Options

	seen     map[string]int
	rejected Rejections
}

func NewProcessor(dir Directory, opts Options) (*Processor, error) {
	if dir == nil {
		return nil, invalidConfig("directory is required")
	}
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Processor{
		dir:  dir,
		opts: opts,
		seen: make(map[string]int),
	}, nil
}

// Rejected returns the rows dropped so far without a result.
func (p *Processor) Rejected() Rejections {
	return p.rejected
}

// Process runs the state machine for one row. A rejected row returns a nil
// result and its *ValidationError. Remote failures never surface as an error
// here: they are recorded on the result.
func (p *Processor) Process(ctx context.Context, row tabular.RawRow) (*RowResult, error) {
	ctx, span := tracer.Start(ctx, "provisioning.row", trace.WithAttributes(
		attribute.String("pipeline", string(p.opts.Pipeline)),
		attribute.Int("row.line", row.Line),
	))
	defer span.End()

	var (
		res *RowResult
		err error
	)
	if p.opts.Pipeline == PipelineCreate {
		res, err = p.create(ctx, row)
	} else {
		res, err = p.invite(ctx, row)
	}
	switch {
	case err != nil:
		span.SetAttributes(attribute.String("row.rejected", err.Error()))
	case res != nil:
		span.SetAttributes(
			attribute.String("row.status", string(res.Status)),
			attribute.Bool("row.added_to_group", res.AddedToGroup),
		)
		if res.Status == StatusError {
			span.SetStatus(codes.Error, res.ErrorMessage)
		}
	}
	return res, err
}

func (p *Processor) invite(ctx context.Context, row tabular.RawRow) (*RowResult, error) {
	e, err := NormalizeInvitation(row, p.opts)
	if err != nil {
		return nil, p.reject(err)
	}
	if err := p.claim(e.Line, ColEmail, e.Key()); err != nil {
		return nil, err
	}

	log := p.opts.Logger.WithFields(rowFields(PipelineInvite, e.Line, e.Key()))
	res := &RowResult{Line: e.Line, Identifier: e.Email, DisplayName: e.DisplayName}

	if p.opts.SkipExisting {
		existing, err := p.findUser(ctx, e.Email)
		if err != nil {
			return p.fail(res, log, err), nil
		}
		switch {
		case existing.IsGuest() && p.opts.DryRun:
			log.WithField("user_id", existing.ID).Info("provisioning: dry run, guest already exists and would be skipped")
			return p.finish(res, StatusDryRun), nil
		case existing.IsGuest():
			return p.skip(ctx, res, existing, e.GroupOverride, log), nil
		case existing != nil:
			log.WithFields(logrus.Fields{
				"user_id":   existing.ID,
				"user_type": existing.UserType,
			}).Warn("provisioning: existing account is not a guest, inviting anyway")
		}
	}

	if p.opts.DryRun {
		log.WithField("group_id", p.targetGroup(e.GroupOverride)).Info("provisioning: dry run, would invite guest")
		return p.finish(res, StatusDryRun), nil
	}

	req := InvitationRequest{
		Email:                 e.Email,
		DisplayName:           e.DisplayName,
		RedirectURL:           e.RedirectURL,
		MessageBody:           e.Message,
		SendInvitationMessage: p.opts.SendInvitationMessage,
	}
	var inv *Invitation
	err = p.call(ctx, OpInvite, func(ctx context.Context) error {
		var callErr error
		inv, callErr = p.dir.InviteGuestUser(ctx, req)
		return callErr
	})
	if err != nil {
		return p.fail(res, log, err), nil
	}
	if inv != nil && inv.User != nil {
		res.RemoteID = inv.User.ID
	}
	log.WithField("user_id", res.RemoteID).Info("provisioning: guest invited")

	p.addToGroup(ctx, res, e.GroupOverride, log)
	return p.finish(res, StatusInvited), nil
}

func (p *Processor) create(ctx context.Context, row tabular.RawRow) (*RowResult, error) {
	e, err := NormalizeMember(row, p.opts)
	if err != nil {
		return nil, p.reject(err)
	}
	if err := p.claim(e.Line, ColUserPrincipalName, e.Key()); err != nil {
		return nil, err
	}

	log := p.opts.Logger.WithFields(rowFields(PipelineCreate, e.Line, e.Key()))
	res := &RowResult{Line: e.Line, Identifier: e.UserPrincipalName, DisplayName: e.DisplayName}

	if p.opts.SkipExisting {
		existing, err := p.findUser(ctx, e.UserPrincipalName)
		if err != nil {
			return p.fail(res, log, err), nil
		}
		if existing != nil {
			if p.opts.DryRun {
				log.WithField("user_id", existing.ID).Info("provisioning: dry run, user already exists and would be skipped")
				return p.finish(res, StatusDryRun), nil
			}
			return p.skip(ctx, res, existing, e.GroupOverride, log), nil
		}
	}

	if p.opts.DryRun {
		log.WithFields(logrus.Fields{
			"group_id":          p.targetGroup(e.GroupOverride),
			"generate_password": e.Password == "",
		}).Info("provisioning: dry run, would create user")
		return p.finish(res, StatusDryRun), nil
	}

	password := e.Password
	generated := false
	if password == "" {
		password, err = p.opts.GenerateSecret()
		if err != nil {
			return p.fail(res, log, &RemoteError{Op: OpCreateUser, Message: "generate password: " + err.Error(), Err: err}), nil
		}
		generated = true
	}

	body := NewUser{
		AccountEnabled:      e.AccountEnabled,
		DisplayName:         e.DisplayName,
		MailNickname:        e.MailNickname,
		UserPrincipalName:   e.UserPrincipalName,
		Password:            password,
		ForceChangePassword: ResolveForceChangePassword(e.ForceChangePassword),
		GivenName:           optional(e.GivenName),
		Surname:             optional(e.Surname),
		UsageLocation:       optional(e.UsageLocation),
		JobTitle:            optional(e.JobTitle),
		Department:          optional(e.Department),
	}
	var created *User
	err = p.call(ctx, OpCreateUser, func(ctx context.Context) error {
		var callErr error
		created, callErr = p.dir.CreateUser(ctx, body)
		return callErr
	})
	if err != nil {
		return p.fail(res, log, err), nil
	}
	if created != nil {
		res.RemoteID = created.ID
	}
	if generated {
		res.GeneratedSecret = password
	}
	log.WithField("user_id", res.RemoteID).Info("provisioning: user created")

	p.addToGroup(ctx, res, e.GroupOverride, log)
	return p.finish(res, StatusCreated), nil
}

func (p *Processor) skip(ctx context.Context, res *RowResult, existing *User, override string, log *logrus.Entry) *RowResult {
	res.RemoteID = existing.ID
	if existing.DisplayName != "" {
		res.DisplayName = existing.DisplayName
	}
	log.WithField("user_id", existing.ID).Warn("provisioning: already exists, skipping")
	p.addToGroup(ctx, res, override, log)
	return p.finish(res, StatusSkippedExisting)
}

func (p *Processor) addToGroup(ctx context.Context, res *RowResult, override string, log *logrus.Entry) {
	groupID := p.targetGroup(override)
	if groupID == "" || res.RemoteID == "" || p.opts.DryRun {
		return
	}
	log = log.WithField("group_id", groupID)
	err := p.call(ctx, OpAddToGroup, func(ctx context.Context) error {
		return p.dir.AddUserToGroup(ctx, groupID, res.RemoteID)
	})
	if err == nil {
		res.AddedToGroup = true
		log.Info("provisioning: added to group")
		return
	}
	var re *RemoteError
	if errors.As(err, &re) && re.AlreadyExists() {
		res.AddedToGroup = true
		log.Info("provisioning: already a member of group")
		return
	}
	res.ErrorMessage = clipMessage(err, p.opts.ErrorMaxBytes)
	log.WithError(err).Warn("provisioning: group add failed")
}

func (p *Processor) targetGroup(override string) string {
	if override != "" {
		return override
	}
	return p.opts.DefaultGroupID
}

func (p *Processor) findUser(ctx context.Context, key string) (*User, error) {
	var u *User
	err := p.call(ctx, OpFindUser, func(ctx context.Context) error {
		var callErr error
		u, callErr = p.dir.FindUserByIdentifier(ctx, key)
		return callErr
	})
	return u, err
}

// call runs one directory operation under the per-call timeout and records it.
func (p *Processor) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "directory."+op)
	defer span.End()

	callCtx := ctx
	var cancel context.CancelFunc
	if p.opts.CallTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, p.opts.CallTimeout)
	}
	start := time.Now()
	err := fn(callCtx)
	if cancel != nil {
		cancel()
	}
	p.opts.Metrics.recordCall(op, err, time.Since(start))
	if err != nil {
		re := asRemoteError(op, err)
		span.RecordError(re)
		span.SetStatus(codes.Error, re.Code)
		return re
	}
	return nil
}

func (p *Processor) fail(res *RowResult, log *logrus.Entry, err error) *RowResult {
	res.RemoteID = ""
	res.AddedToGroup = false
	res.GeneratedSecret = ""
	res.ErrorMessage = clipMessage(err, p.opts.ErrorMaxBytes)
	log.WithError(err).Error("provisioning: row failed")
	return p.finish(res, StatusError)
}

func (p *Processor) finish(res *RowResult, st Status) *RowResult {
	res.Status = st
	p.opts.Metrics.recordRow(p.opts.Pipeline, st)
	return res
}

func (p *Processor) claim(line int, field, key string) error {
	if first, ok := p.seen[key]; ok {
		return p.reject(&ValidationError{Line: line, Field: field, Reason: ReasonDuplicate, Key: key, FirstLine: first})
	}
	p.seen[key] = line
	return nil
}

func (p *Processor) reject(err error) error {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	switch verr.Reason {
	case ReasonDuplicate:
		p.rejected.Duplicate++
	default:
		p.rejected.Malformed++
	}
	p.opts.Metrics.recordRejected(p.opts.Pipeline, verr.Reason)
	p.opts.Logger.WithFields(rowFields(p.opts.Pipeline, verr.Line, verr.Key)).
		WithField("reason", string(verr.Reason)).
		Warn("provisioning: row rejected: " + verr.Error())
	return verr
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
