package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type ConfigFile struct {
	Address           string
	Port              string
	TlsCert           string
	TlsKey            string
	CorsOrigins       []string
	PrintHttpRequests bool
	LogToFile         bool
	LogLevel          string
	JwtSecret         string
	TokenLifetime     Duration
	LookupTimeout     Duration
	SnowflakeWorkerID int64
	SelfContained     bool
	SqlitePath        string
	DbUser            string
	DbPassword        string
	DbAddress         string
	DbPort            string
	DbDatabase        string
	RedisAddress      string
	RedisPassword     string
	RedisDB           int

	// lets clients pick their own role at registration, otherwise only "user" is accepted
	OpenRoleRegistration bool
	LoginFailureLimit    int
	LoginFailureWindow   Duration
	AuthRateLimitRPM     int
}

// Duration reads both "1h30m" strings and plain nanosecond numbers from json.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func Default() ConfigFile {
	return ConfigFile{
		Address:            "0.0.0.0",
		Port:               "5000",
		CorsOrigins:        []string{"*"},
		LogLevel:           "info",
		TokenLifetime:      Duration(time.Hour),
		LookupTimeout:      Duration(5 * time.Second),
		SelfContained:      true,
		SqlitePath:         "./database.db",
		DbPort:             "3306",
		RedisAddress:       "localhost:6379",
		LoginFailureLimit:  5,
		LoginFailureWindow: Duration(15 * time.Minute),
		AuthRateLimitRPM:   30,
	}
}

// Load reads the json config file on top of the defaults, then applies environment
// variables (including those from a .env file) on top of that. A missing config file
// is not an error.
func Load(path string) (ConfigFile, error) {
	cfg := Default()

	err := readConfigFile(path, &cfg)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}

	_ = godotenv.Load()

	err = applyEnv(&cfg)
	if err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func readConfigFile(path string, cfg *ConfigFile) error {
	configFile, err := os.Open(path)
	if err != nil {
		return err
	}
	defer configFile.Close()

	bytes, err := io.ReadAll(configFile)
	if err != nil {
		return err
	}

	err = json.Unmarshal(bytes, cfg)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *ConfigFile) error {
	setString(&cfg.Address, "ADDRESS")
	setString(&cfg.Port, "PORT")
	setString(&cfg.TlsCert, "TLS_CERT")
	setString(&cfg.TlsKey, "TLS_KEY")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.JwtSecret, "JWT_SECRET")
	setString(&cfg.SqlitePath, "SQLITE_PATH")
	setString(&cfg.DbUser, "DB_USER")
	setString(&cfg.DbPassword, "DB_PASSWORD")
	setString(&cfg.DbAddress, "DB_ADDRESS")
	setString(&cfg.DbPort, "DB_PORT")
	setString(&cfg.DbDatabase, "DB_DATABASE")
	setString(&cfg.RedisAddress, "REDIS_ADDRESS")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")

	if v := getEnv("CORS_ORIGINS"); v != "" {
		cfg.CorsOrigins = splitCSV(v)
	}

	var err error
	errs := []error{
		setBool(&cfg.PrintHttpRequests, "PRINT_HTTP_REQUESTS"),
		setBool(&cfg.LogToFile, "LOG_TO_FILE"),
		setBool(&cfg.SelfContained, "SELF_CONTAINED"),
		setBool(&cfg.OpenRoleRegistration, "OPEN_ROLE_REGISTRATION"),
		setDuration(&cfg.TokenLifetime, "TOKEN_LIFETIME"),
		setDuration(&cfg.LookupTimeout, "LOOKUP_TIMEOUT"),
		setDuration(&cfg.LoginFailureWindow, "LOGIN_FAILURE_WINDOW"),
		setInt(&cfg.LoginFailureLimit, "LOGIN_FAILURE_LIMIT"),
		setInt(&cfg.AuthRateLimitRPM, "AUTH_RATE_LIMIT_RPM"),
		setInt(&cfg.RedisDB, "REDIS_DB"),
	}
	if v := getEnv("SNOWFLAKE_WORKER_ID"); v != "" {
		cfg.SnowflakeWorkerID, err = strconv.ParseInt(v, 10, 64)
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (c *ConfigFile) Validate() error {
	if strings.TrimSpace(c.JwtSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}

	if c.TokenLifetime <= 0 {
		return fmt.Errorf("token lifetime must be positive")
	}

	if c.LookupTimeout <= 0 {
		return fmt.Errorf("lookup timeout must be positive")
	}

	if c.LoginFailureLimit <= 0 {
		return fmt.Errorf("login failure limit must be positive")
	}

	if (c.TlsCert == "") != (c.TlsKey == "") {
		return fmt.Errorf("both TLS cert and key have to be set")
	}

	if !c.SelfContained && c.DbDatabase == "" {
		return fmt.Errorf("database name is required when not self contained")
	}

	return nil
}

func (c *ConfigFile) IsHttps() bool {
	return c.TlsCert != "" && c.TlsKey != ""
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(target *string, key string) {
	if v := getEnv(key); v != "" {
		*target = v
	}
}

func setBool(target *bool, key string) error {
	v := getEnv(key)
	if v == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*target = parsed
	return nil
}

func setInt(target *int, key string) error {
	v := getEnv(key)
	if v == "" {
		return nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*target = parsed
	return nil
}

func setDuration(target *Duration, key string) error {
	v := getEnv(key)
	if v == "" {
		return nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*target = Duration(parsed)
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
