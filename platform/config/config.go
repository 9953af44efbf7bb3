package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DedS3t/monopoly-engine/platform/game"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	DBUser      string
	DBAddr      string
	DBPassword  string
	DBName      string
	RedisURL    string
	JWTSecret   string
	HTTPPort    string
	SocketPort  string
	CORSOrigins []string
	Rules       game.Rules
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn(".env not loaded")
	}
	return FromEnv(os.Getenv)
}

var ErrNoSecret = errors.New("JWT_SECRET is not set")

// FromEnv builds a Config from getenv, falling back to defaults for unset
// variables. JWT_SECRET has no default.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	c := &Config{
		DBUser:     get("DB_USER", "postgres"),
		DBAddr:     get("DB_ADDR", "localhost:5432"),
		DBPassword: get("DB_PASSWORD", ""),
		DBName:     get("DB_NAME", "monopoly"),
		RedisURL:   get("REDIS_URL", "localhost:6379"),
		JWTSecret:  get("JWT_SECRET", ""),
		HTTPPort:   get("HTTP_PORT", "4101"),
		SocketPort: get("SOCKET_PORT", "8000"),
		Rules:      game.DefaultRules(),
	}
	if c.JWTSecret == "" {
		return nil, ErrNoSecret
	}
	for _, o := range strings.Split(get("CORS_ORIGINS", "http://localhost:3000"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			c.CORSOrigins = append(c.CORSOrigins, o)
		}
	}

	var err error
	r := &c.Rules
	if r.DecisionTimeout, err = duration(get("DECISION_TIMEOUT", ""), r.DecisionTimeout); err != nil {
		return nil, fmt.Errorf("DECISION_TIMEOUT: %w", err)
	}
	if r.AuctionWindow, err = duration(get("AUCTION_WINDOW", ""), r.AuctionWindow); err != nil {
		return nil, fmt.Errorf("AUCTION_WINDOW: %w", err)
	}
	if r.AuctionFloor, err = integer(get("AUCTION_FLOOR", ""), r.AuctionFloor); err != nil {
		return nil, fmt.Errorf("AUCTION_FLOOR: %w", err)
	}
	if r.StartMoney, err = integer(get("START_MONEY", ""), r.StartMoney); err != nil {
		return nil, fmt.Errorf("START_MONEY: %w", err)
	}
	if v := get("AUCTION_POLICY", ""); v != "" {
		if r.AuctionPolicy, err = game.ParseAuctionPolicy(v); err != nil {
			return nil, err
		}
	}
	if v := get("BANKRUPTCY_POLICY", ""); v != "" {
		if r.BankruptcyPolicy, err = game.ParseBankruptcyPolicy(v); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func duration(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", v)
	}
	return d, nil
}

func integer(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative, got %d", n)
	}
	return n, nil
}
