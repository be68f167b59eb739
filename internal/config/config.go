// Package config loads and validates mailportal configuration.
// Values come from an optional YAML file, overridden by environment
// variables, with defaults applied so the server can rely on fully
// populated values.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig holds HTTP API settings.
type HTTPConfig struct {
	Bind        string   `yaml:"bind"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// AuthConfig holds JWT settings.
type AuthConfig struct {
	JWTSecret    string `yaml:"jwt_secret"`
	ExpiresHours int    `yaml:"expires_hours"`
}

// UploadConfig holds content-store settings.
type UploadConfig struct {
	Dir          string `yaml:"dir"`
	MaxFileBytes int64  `yaml:"max_file_bytes"`
}

// SFTPConfig holds the SFTP listener settings.
type SFTPConfig struct {
	Bind        string `yaml:"bind"`
	Port        int    `yaml:"port"`
	HostKeyPath string `yaml:"host_key_path"`
}

// FTPConfig holds the optional FTP/FTPS listener settings.
type FTPConfig struct {
	Enable       bool   `yaml:"enable"`
	FTPSEnable   bool   `yaml:"ftps_enable"`
	Port         int    `yaml:"port"`
	FTPSPort     int    `yaml:"ftps_port"`
	PassivePorts string `yaml:"passive_ports"`
	PublicHost   string `yaml:"public_host"`
	TLSCertPath  string `yaml:"tls_cert_path"`
	TLSKeyPath   string `yaml:"tls_key_path"`
}

// SMTPConfig holds notification transport settings.
// Dispatch is disabled when Host is empty.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
	AppURL   string `yaml:"app_url"`
}

// Config mirrors the mailportal.yaml schema.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	DB     DBConfig     `yaml:"db"`
	HTTP   HTTPConfig   `yaml:"http"`
	Auth   AuthConfig   `yaml:"auth"`
	Upload UploadConfig `yaml:"upload"`
	SFTP   SFTPConfig   `yaml:"sftp"`
	FTP    FTPConfig    `yaml:"ftp"`
	SMTP   SMTPConfig   `yaml:"smtp"`
}

// Load reads an optional YAML config file, applies environment overrides
// and defaults, and validates the result.
func Load(path string) (Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, err
		}
	}
	applyEnv(&c)
	applyDefaults(&c)
	if err := validate(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// applyEnv overrides config values from the environment.
// Variable names follow the original deployment's .env contract.
func applyEnv(c *Config) {
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.DB.Path, "DATABASE_PATH")
	setInt(&c.HTTP.Port, "PORT")
	setString(&c.HTTP.Bind, "BIND_ADDR")
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		parts := strings.Split(v, ",")
		c.HTTP.CORSOrigins = c.HTTP.CORSOrigins[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				c.HTTP.CORSOrigins = append(c.HTTP.CORSOrigins, p)
			}
		}
	}
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setInt(&c.Auth.ExpiresHours, "JWT_EXPIRES_HOURS")
	setString(&c.Upload.Dir, "UPLOAD_DIR")
	setInt64(&c.Upload.MaxFileBytes, "MAX_FILE_SIZE")
	setInt(&c.SFTP.Port, "SFTP_PORT")
	setString(&c.SFTP.Bind, "SFTP_HOST")
	setString(&c.SFTP.HostKeyPath, "SFTP_HOST_KEY")
	setInt(&c.FTP.Port, "FTP_PORT")
	setString(&c.SMTP.Host, "SMTP_HOST")
	setInt(&c.SMTP.Port, "SMTP_PORT")
	setString(&c.SMTP.Username, "SMTP_USERNAME")
	setString(&c.SMTP.Password, "SMTP_PASSWORD")
	setString(&c.SMTP.From, "NOTIFICATION_FROM_EMAIL")
	setString(&c.SMTP.FromName, "NOTIFICATION_FROM_NAME")
	setString(&c.SMTP.AppURL, "APP_URL")
}

// applyDefaults populates zero-values with sane defaults.
func applyDefaults(c *Config) {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.DB.Path == "" {
		c.DB.Path = "./data/mailportal.db"
	}
	if c.HTTP.Bind == "" {
		c.HTTP.Bind = "0.0.0.0"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3001
	}
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{"http://localhost:5173"}
	}
	if c.Auth.ExpiresHours == 0 {
		c.Auth.ExpiresHours = 168 // 7 days
	}
	if c.Upload.Dir == "" {
		c.Upload.Dir = "./uploads"
	}
	if c.Upload.MaxFileBytes == 0 {
		c.Upload.MaxFileBytes = 100 << 20
	}
	if c.SFTP.Bind == "" {
		c.SFTP.Bind = c.HTTP.Bind
	}
	if c.SFTP.Port == 0 {
		c.SFTP.Port = 2222
	}
	if c.SFTP.HostKeyPath == "" {
		c.SFTP.HostKeyPath = "./data/ssh_host_ed25519"
	}
	if c.FTP.Port == 0 {
		c.FTP.Port = 2121
	}
	if c.FTP.FTPSPort == 0 {
		c.FTP.FTPSPort = 2122
	}
	if c.FTP.PassivePorts == "" {
		c.FTP.PassivePorts = "50000-50100"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.From == "" {
		c.SMTP.From = "noreply@abtwarranty.com"
	}
	if c.SMTP.FromName == "" {
		c.SMTP.FromName = "ABT Warranty Portal"
	}
	if c.SMTP.AppURL == "" {
		c.SMTP.AppURL = "http://localhost:5173"
	}
}

// validate performs basic sanity checks for required fields and ranges.
func validate(c *Config) error {
	if c.DB.Path == "" {
		return errors.New("db.path is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return errors.New("http.port is invalid")
	}
	if c.SFTP.Port <= 0 || c.SFTP.Port > 65535 {
		return errors.New("sftp.port is invalid")
	}
	if c.FTP.Port <= 0 || c.FTP.Port > 65535 {
		return errors.New("ftp.port is invalid")
	}
	if c.Upload.MaxFileBytes < 1 {
		return errors.New("upload.max_file_bytes is invalid")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required (set JWT_SECRET)")
	}
	if c.Auth.ExpiresHours < 1 {
		return errors.New("auth.expires_hours is invalid")
	}
	if c.FTP.FTPSEnable {
		if c.FTP.TLSCertPath == "" || c.FTP.TLSKeyPath == "" {
			return errors.New("ftp.tls_cert_path and ftp.tls_key_path are required for FTPS")
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}
