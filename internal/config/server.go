package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Server holds the settings of the HTTP service. Every key can be set from
// the environment (LOG_LEVEL, SOLVER_GAP, ...) or from an optional file named
// by CONFIG_FILE.
type Server struct {
	Port         int           `mapstructure:"api_port"`
	Env          string        `mapstructure:"api_env"`
	LogLevel     string        `mapstructure:"log_level"`
	Solver       string        `mapstructure:"solver"`
	CBCPath      string        `mapstructure:"cbc_path"`
	SolverGap    float64       `mapstructure:"solver_gap"`
	TimeLimit    time.Duration `mapstructure:"solver_time_limit"`
	Store        string        `mapstructure:"store"`
	RedisAddr    string        `mapstructure:"redis_addr"`
	ResultTTL    time.Duration `mapstructure:"result_ttl"`
	ComponentDir string        `mapstructure:"component_dir"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

func setServerDefaults(v *viper.Viper) {
	v.SetDefault("api_port", 8080)
	v.SetDefault("api_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("solver", "simplex")
	v.SetDefault("cbc_path", "cbc")
	v.SetDefault("solver_gap", 0.03)
	v.SetDefault("solver_time_limit", "0s")
	v.SetDefault("store", StoreMemory)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("result_ttl", "1h")
	v.SetDefault("component_dir", "examples/components")
	v.SetDefault("cors_origins", []string{"*"})
}

// LoadServer reads defaults, then CONFIG_FILE if set, then the environment.
func LoadServer() (*Server, error) {
	v := viper.New()
	setServerDefaults(v)
	v.AutomaticEnv()

	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", cfgFile, err)
		}
	}

	var s Server
	if err := v.Unmarshal(&s); err != nil {
		return nil, err
	}
	// Comma separated lists from the environment arrive as one string.
	if len(s.CORSOrigins) == 1 && strings.Contains(s.CORSOrigins[0], ",") {
		s.CORSOrigins = strings.Split(s.CORSOrigins[0], ",")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Server) Production() bool { return s.Env == "production" }

func (s *Server) Validate() error {
	var errs []error
	if s.Port <= 0 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("api_port %d out of range", s.Port))
	}
	if s.SolverGap < 0 {
		errs = append(errs, errors.New("solver_gap must be >= 0"))
	}
	if s.TimeLimit < 0 {
		errs = append(errs, errors.New("solver_time_limit must be >= 0"))
	}
	switch s.Store {
	case StoreMemory, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("store must be %q or %q, got %q", StoreMemory, StoreRedis, s.Store))
	}
	return errors.Join(errs...)
}
