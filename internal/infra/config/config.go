package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings" // For LogLevel normalization

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

const (
	DefaultIniPath = "/home/hebcal/local/bin/hebcal-dot-com.ini"
	DefaultLogDir  = "/home/hebcal/local/var/log"

	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"

	defaultMySQLPort = "3306"
)

var ErrMissingSetting = errors.New("required setting is missing")

// AppConfig holds all configuration for the job
type AppConfig struct {
	Database         DatabaseConfig
	LogLevel         string
	Environment      string
	TelegramToken    string
	ReportTelegramID int64
	CronSpec         string
}

// DatabaseConfig carries either the ini credentials or an explicit URL from DATABASE_URL.
type DatabaseConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	URL      string
}

// Load reads credentials from the ini file at iniPath and the rest of the
// configuration from environment variables and .env file (if present).
func Load(iniPath string) (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	db, err := loadIni(iniPath)
	if err != nil {
		return nil, err
	}
	cfg.Database = db

	cfg.Database.URL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.Database.URL == "" {
		if err := cfg.Database.validate(); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", iniPath, err)
		}
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if idStr := os.Getenv("REPORT_TELEGRAM_ID"); idStr != "" {
		cfg.ReportTelegramID, err = strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid REPORT_TELEGRAM_ID: %w", err)
		}
	}

	cfg.CronSpec = os.Getenv("CRON_SPEC")

	return cfg, nil
}

func loadIni(path string) (DatabaseConfig, error) {
	file, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	sec := file.Section(ini.DefaultSection)
	return DatabaseConfig{
		Host:     sec.Key("hebcal.mysql.host").String(),
		User:     sec.Key("hebcal.mysql.user").String(),
		Password: sec.Key("hebcal.mysql.password").String(),
		Name:     sec.Key("hebcal.mysql.dbname").String(),
	}, nil
}

func (c DatabaseConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: hebcal.mysql.host", ErrMissingSetting)
	}
	if c.User == "" {
		return fmt.Errorf("%w: hebcal.mysql.user", ErrMissingSetting)
	}
	if c.Name == "" {
		return fmt.Errorf("%w: hebcal.mysql.dbname", ErrMissingSetting)
	}
	return nil
}

// DriverAndDSN returns the database/sql driver name and data source name.
// A postgres DATABASE_URL selects lib/pq; otherwise MySQL is used.
func (c DatabaseConfig) DriverAndDSN() (string, string) {
	if c.URL != "" {
		if strings.HasPrefix(c.URL, "postgres://") || strings.HasPrefix(c.URL, "postgresql://") {
			return DriverPostgres, c.URL
		}
		return DriverMySQL, c.URL
	}

	addr := c.Host
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, defaultMySQLPort)
	}

	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = addr
	mc.DBName = c.Name
	mc.ParseTime = true
	return DriverMySQL, mc.FormatDSN()
}

func (c *AppConfig) ReportingEnabled() bool {
	return c.TelegramToken != "" && c.ReportTelegramID != 0
}
