package metrics

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const DefaultJob = "entra_provision"

// Pusher sends one run's registry to a Prometheus Pushgateway.
type Pusher struct {
	url      string
	job      string
	grouping map[string]string
}

// NewPusher returns nil when url is empty, so callers can skip the push.
func NewPusher(url, job string) *Pusher {
	if url == "" {
		return nil
	}
	if job == "" {
		job = DefaultJob
	}
	return &Pusher{url: url, job: job, grouping: map[string]string{}}
}

// Grouping adds a grouping label. Run id and pipeline keep runs apart on the gateway.
func (p *Pusher) Grouping(name, value string) *Pusher {
	p.grouping[name] = value
	return p
}

// Push replaces the metrics in this job's group with the ones in g.
func (p *Pusher) Push(ctx context.Context, g prometheus.Gatherer) error {
	if p == nil {
		return nil
	}
	pusher := push.New(p.url, p.job).Gatherer(g)
	for k, v := range p.grouping {
		pusher = pusher.Grouping(k, v)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return errors.Wrapf(err, "push metrics to %s", p.url)
	}
	return nil
}
