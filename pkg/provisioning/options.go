package provisioning

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Options is the run-level policy shared by the processor and the runner.
type Options struct {
	Pipeline Pipeline

	SkipExisting bool
	DryRun       bool

	// DefaultGroupID is used for rows without a GroupId override.
	DefaultGroupID string

	// ThrottleDelay is slept between rows that reached the directory.
	ThrottleDelay time.Duration
	// CallTimeout bounds each directory call. Zero means no per-call bound.
	CallTimeout time.Duration

	SendInvitationMessage bool
	CustomMessage         string
	RedirectURL           string
	DomainSuffix          string

	ErrorMaxBytes int

	GenerateSecret func() (string, error)
	Sleep          func(ctx context.Context, d time.Duration) error
	Now            func() time.Time

	Logger  *logrus.Entry
	Metrics *Metrics
}

const (
	DefaultRedirectURL   = "https://myapplications.microsoft.com"
	DefaultUsageLocation = "US"
)

func (o *Options) setDefaults() {
	if o.ErrorMaxBytes == 0 {
		o.ErrorMaxBytes = 1024
	}
	if o.RedirectURL == "" {
		o.RedirectURL = DefaultRedirectURL
	}
	if o.GenerateSecret == nil {
		o.GenerateSecret = GenerateSecret
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = nopEntry()
	}
	if o.Metrics == nil {
		o.Metrics = NewMetrics(nil)
	}
}

func (o *Options) validate() error {
	switch o.Pipeline {
	case PipelineInvite, PipelineCreate:
	default:
		return invalidConfig("unknown pipeline %q", o.Pipeline)
	}
	if o.ThrottleDelay < 0 {
		return invalidConfig("throttle delay must be non-negative, got %s", o.ThrottleDelay)
	}
	if o.CallTimeout < 0 {
		return invalidConfig("call timeout must be non-negative, got %s", o.CallTimeout)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
