package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/joho/godotenv"

	"github.com/gamewiki/issuestore"
)

type Config struct {
	GitHub    GitHub    `yaml:"github"`
	Server    Server    `yaml:"server"`
	Store     Store     `yaml:"store"`
	RateLimit RateLimit `yaml:"rateLimit"`
	Events    Events    `yaml:"events"`
}

type GitHub struct {
	Owner             string  `yaml:"owner"`
	Repo              string  `yaml:"repo"`
	Token             string  `yaml:"token"` // usually left empty and taken from GITHUB_TOKEN
	BaseURL           string  `yaml:"baseURL"`
	UserAgent         string  `yaml:"userAgent"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	LogLevel      string `yaml:"logLevel"`
	AuthCacheTTL  string `yaml:"authCacheTTL"`
}

type Store struct {
	// Collections maps each collection record type to its capacity.
	Collections     map[string]int `yaml:"collections"`
	LockBackend     string         `yaml:"lockBackend"` // none, local, redis
	LockLease       string         `yaml:"lockLease"`
	CommentCacheTTL string         `yaml:"commentCacheTTL"`
}

type RateLimit struct {
	Max         int `yaml:"max"`
	WindowHours int `yaml:"windowHours"`
}

type Events struct {
	Enabled bool   `yaml:"enabled"`
	Channel string `yaml:"channel"`
}

const (
	LockNone  = "none"
	LockLocal = "local"
	LockRedis = "redis"
)

// Load reads the YAML file at path. GITHUB_TOKEN from the environment, or
// from a .env file next to the process, fills in a missing token.
func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	_ = godotenv.Load(".env")
	if config.GitHub.Token == "" {
		config.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8000"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if len(c.Store.Collections) == 0 {
		c.Store.Collections = map[string]int{
			issuestore.RecordTypeSkillBuilds:       issuestore.DefaultCollectionLimit,
			issuestore.RecordTypeBattleLoadouts:    issuestore.DefaultCollectionLimit,
			issuestore.RecordTypeSpiritCollections: issuestore.DefaultCollectionLimit,
		}
	}
	if c.Store.LockBackend == "" {
		c.Store.LockBackend = LockNone
	}
	if c.RateLimit.Max <= 0 {
		c.RateLimit.Max = 3
	}
	if c.RateLimit.WindowHours <= 0 {
		c.RateLimit.WindowHours = 24
	}
}

func (c Config) Validate() error {
	var problems []string
	if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
		problems = append(problems, "github.owner and github.repo are required")
	}
	if c.GitHub.Token == "" {
		problems = append(problems, "github token is required (github.token or GITHUB_TOKEN)")
	}
	switch c.Store.LockBackend {
	case LockNone, LockLocal:
	case LockRedis:
		if c.Server.RedisAddr == "" {
			problems = append(problems, "store.lockBackend redis needs server.redisAddr")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown store.lockBackend %q", c.Store.LockBackend))
	}
	if c.Events.Enabled && c.Server.RedisAddr == "" {
		problems = append(problems, "events.enabled needs server.redisAddr")
	}
	for recordType := range c.Store.Collections {
		if recordType == issuestore.RecordTypeProfilePictures || recordType == issuestore.RecordTypeRateLimits {
			problems = append(problems, fmt.Sprintf("%s is a registry, not a collection", recordType))
		}
	}
	for name, value := range map[string]string{
		"server.authCacheTTL":   c.Server.AuthCacheTTL,
		"store.lockLease":       c.Store.LockLease,
		"store.commentCacheTTL": c.Store.CommentCacheTTL,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// CollectionTypes lists the configured collection record types.
func (c Config) CollectionTypes() []string {
	types := make([]string, 0, len(c.Store.Collections))
	for t := range c.Store.Collections {
		types = append(types, t)
	}
	return types
}

// Duration parses a validated duration field, falling back to def when unset.
func Duration(value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func (r RateLimit) Window() time.Duration {
	return time.Duration(r.WindowHours) * time.Hour
}
