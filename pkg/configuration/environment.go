package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/workbook-import/pkg/logging"
)

const Production = "production"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// LoadEnv loads the env files that exist in the working directory. When none
// do, the directory holding the nearest go.mod is tried instead.
func LoadEnv(envFiles []string) (int, error) {
	existing := existingFiles("", envFiles)
	if len(existing) == 0 {
		if root := moduleRoot(); root != "" {
			existing = existingFiles(root, envFiles)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func existingFiles(dir string, envFiles []string) []string {
	out := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		path := file
		if dir != "" {
			path = filepath.Join(dir, file)
		}
		if fs.FileExists(path) {
			out = append(out, path)
		}
	}
	return out
}

func moduleRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

type DatabaseOptions struct {
	Driver     string `env:"DB_DRIVER" envDefault:"postgres"`
	Name       string `env:"DB_NAME" envDefault:"erp_import"`
	Host       string `env:"DB_HOST" envDefault:"localhost"`
	Port       string `env:"DB_PORT" envDefault:"5432"`
	User       string `env:"DB_USER" envDefault:"postgres"`
	Password   string `env:"DB_PASSWORD" envDefault:"postgres"`
	SQLitePath string `env:"DB_SQLITE_PATH" envDefault:"import.db"`
	MaxConns   int32  `env:"DB_MAX_CONNS" envDefault:"4"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

func (d *DatabaseOptions) Validate() error {
	switch d.Driver {
	case DriverPostgres, DriverSQLite:
		return nil
	default:
		return fmt.Errorf("invalid DB_DRIVER=%q (expected postgres|sqlite)", d.Driver)
	}
}

type ImportOptions struct {
	FlushEvery     int    `env:"IMPORT_FLUSH_EVERY" envDefault:"500"`
	ErrorLimit     int    `env:"IMPORT_ERROR_LIMIT" envDefault:"20"`
	SummaryErrors  int    `env:"IMPORT_SUMMARY_ERRORS" envDefault:"10"`
	ScheduleYear   int    `env:"IMPORT_SCHEDULE_YEAR" envDefault:"2026"`
	TempDir        string `env:"IMPORT_TEMP_DIR"`
	MaxUploadMB    int64  `env:"IMPORT_MAX_UPLOAD_MB" envDefault:"50"`
	BudgetDir      string `env:"IMPORT_BUDGET_DIR"`
	MasterfilePath string `env:"IMPORT_MASTERFILE"`
	LeadsPath      string `env:"IMPORT_LEADS"`
	ProposalsPath  string `env:"IMPORT_PROPOSALS"`
	JobsPath       string `env:"IMPORT_JOBS"`
}

func (i *ImportOptions) Validate() error {
	if i.FlushEvery <= 0 {
		return fmt.Errorf("IMPORT_FLUSH_EVERY must be positive, got %d", i.FlushEvery)
	}
	if i.ErrorLimit < 0 || i.SummaryErrors < 0 {
		return fmt.Errorf("IMPORT_ERROR_LIMIT and IMPORT_SUMMARY_ERRORS must be non-negative")
	}
	if i.ScheduleYear < 2000 || i.ScheduleYear > 2100 {
		return fmt.Errorf("IMPORT_SCHEDULE_YEAR out of range: %d", i.ScheduleYear)
	}
	return nil
}

func (i *ImportOptions) MaxUploadBytes() int64 {
	return i.MaxUploadMB << 20
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint    string `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"workbook-import"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type RateLimitOptions struct {
	Enabled bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	Rate    string `env:"RATE_LIMIT" envDefault:"30-M"`
}

type Configuration struct {
	Database      DatabaseOptions
	Import        ImportOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	RateLimit     RateLimitOptions

	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string `env:"LOG_FORMAT" envDefault:"json"`
	LogPath          string `env:"LOG_FILE"`
	// Header carrying the caller's request id; a uuid is generated when absent.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch strings.ToLower(c.LogLevel) {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

// Load parses configuration from envFiles and the process environment without
// touching the singleton.
func Load(envFiles []string) (*Configuration, error) {
	c := &Configuration{}
	if err := c.load(envFiles); err != nil {
		c.Unload()
		return nil, err
	}
	return c, nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Import.Validate(); err != nil {
		return fmt.Errorf("import configuration error: %w", err)
	}

	if c.LogFormat == "text" && c.LogPath == "" {
		c.logger = logging.ConsoleLogger(c.LogrusLogLevel())
	} else {
		f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
		if err != nil {
			return err
		}
		c.logFile = f
		c.logger = logger
	}

	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	return nil
}

// Unload closes the log file, if any.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
