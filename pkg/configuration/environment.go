package configuration

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/entra-ops/entra-provision/pkg/logging"
)

// GraphCLIClientID is the public Microsoft Graph Command Line Tools app. It
// allows device code sign-in without registering an application.
const GraphCLIClientID = "14d82eec-204b-4c2f-b7e8-296a70dab67e"

var DefaultEnvFiles = []string{".env", ".env.local"}

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fs.FileExists(file) {
			existingFiles = append(existingFiles, file)
		}
	}
	if len(existingFiles) == 0 {
		return 0, nil
	}
	return len(existingFiles), godotenv.Load(existingFiles...)
}

type EntraOptions struct {
	TenantID     string `env:"ENTRA_TENANT_ID" envDefault:"contoso.onmicrosoft.com"`
	ClientID     string `env:"ENTRA_CLIENT_ID" envDefault:"14d82eec-204b-4c2f-b7e8-296a70dab67e"`
	ClientSecret string `env:"ENTRA_CLIENT_SECRET"`
}

type LogOptions struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
	Path   string `env:"LOG_PATH"`
}

type PushgatewayOptions struct {
	URL string `env:"PUSHGATEWAY_URL"`
	Job string `env:"PUSHGATEWAY_JOB" envDefault:"entra_provision"`
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"entra-provision"`
}

type Configuration struct {
	Entra         EntraOptions
	Log           LogOptions
	Pushgateway   PushgatewayOptions
	OpenTelemetry OpenTelemetryOptions

	logFile *os.File
	logger  *logrus.Logger
}

// Load reads env files, parses the environment and builds the logger.
func Load(envFiles []string) (*Configuration, error) {
	c := &Configuration{}
	if err := c.load(envFiles); err != nil {
		c.Unload()
		return nil, err
	}
	return c, nil
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch strings.ToLower(c.Log.Level) {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	case "trace":
		return logrus.TraceLevel
	default:
		return logrus.InfoLevel
	}
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return errors.Wrap(err, "load env files")
	}
	if n == 0 && len(envFiles) > 0 {
		wd, _ := os.Getwd()
		for _, file := range envFiles {
			log.Printf("no env file at %s", filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return errors.Wrap(err, "parse environment")
	}
	if err := c.validate(); err != nil {
		return err
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.Log.Format, c.Log.Path)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger
	return nil
}

func (c *Configuration) validate() error {
	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case logging.FormatText, logging.FormatJSON:
	default:
		return errors.Errorf("invalid LOG_FORMAT=%q (expected text|json)", c.Log.Format)
	}
	c.Log.Format = format

	if strings.TrimSpace(c.Entra.ClientID) == "" {
		return errors.New("ENTRA_CLIENT_ID must not be empty")
	}
	return nil
}

// Unload closes the log file, if any.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
		c.logFile = nil
	}
}
