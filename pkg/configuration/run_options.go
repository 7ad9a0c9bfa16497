package configuration

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/entra-ops/entra-provision/pkg/provisioning"
)

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// RunOptions are the per-run knobs shared by both pipelines.
type RunOptions struct {
	CSVPath               string  `yaml:"csvPath" validate:"required"`
	TenantID              string  `yaml:"tenantId"`
	LogPath               string  `yaml:"logPath"`
	AddToGroupID          string  `yaml:"addToGroupId" validate:"omitempty,uuid"`
	SkipExisting          bool    `yaml:"skipExisting"`
	DryRun                bool    `yaml:"dryRun"`
	ThrottleDelaySeconds  float64 `yaml:"throttleDelaySeconds" validate:"gte=0"`
	SendInvitationMessage bool    `yaml:"sendInvitationMessage"`
	CustomMessage         string  `yaml:"customMessage"`
	RedirectURL           string  `yaml:"redirectUrl" validate:"omitempty,url"`
	DomainSuffix          string  `yaml:"domainSuffix"`
}

func DefaultRunOptions() RunOptions {
	return RunOptions{
		SendInvitationMessage: true,
		RedirectURL:           provisioning.DefaultRedirectURL,
	}
}

// ThrottleDelay converts the configured seconds to a duration.
func (o RunOptions) ThrottleDelay() time.Duration {
	return time.Duration(o.ThrottleDelaySeconds * float64(time.Second))
}

// Validate reports every failing field in one error.
func (o RunOptions) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return errors.Errorf("invalid run options: %s", strings.Join(msgs, "; "))
}

// ReadRunFile decodes a YAML run file over base. Keys absent from the file
// keep base's value. Unknown keys are an error.
func ReadRunFile(path string, base RunOptions) (RunOptions, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, errors.Wrapf(err, "read run file %s", path)
	}
	out := base
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return base, nil
		}
		return base, errors.Wrapf(err, "parse run file %s", path)
	}
	return out, nil
}
