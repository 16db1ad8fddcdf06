package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

type AppConfig struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
	Mongo      MongoConfig      `yaml:"mongo"`
	Auth       AuthConfig       `yaml:"auth"`
	CDN        CDNConfig        `yaml:"cdn"`
	Posts      PostsConfig      `yaml:"posts"`
	EventBus   EventBusConfig   `yaml:"eventbus"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// AuthConfig configures the hosted identity provider and the session tokens
// issued after a successful sign-in.
type AuthConfig struct {
	IdentityBaseURL string        `yaml:"identity_base_url"`
	IdentityAPIKey  string        `yaml:"identity_api_key"`
	JWTSecret       string        `yaml:"jwt_secret"`
	JWTIssuer       string        `yaml:"jwt_issuer"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
}

// CDNConfig configures the image CDN. Uploads are unsigned and only need the
// cloud name and upload preset; deleting images additionally needs the API key
// and secret.
type CDNConfig struct {
	BaseURL      string `yaml:"base_url"`
	CloudName    string `yaml:"cloud_name"`
	UploadPreset string `yaml:"upload_preset"`
	APIKey       string `yaml:"api_key"`
	APISecret    string `yaml:"api_secret"`
	MaxSizeMB    int    `yaml:"max_size_mb"`
}

// PostsConfig 의 MemoryStore 를 켜면 mongo.uri 가 없을 때 메모리 저장소로 기동한다 (로컬 개발용).
type PostsConfig struct {
	PageSize      int  `yaml:"page_size"`
	AdminPageSize int  `yaml:"admin_page_size"`
	MaxPageSize   int  `yaml:"max_page_size"`
	MemoryStore   bool `yaml:"memory_store"`
}

// EventBusConfig 가 비어 있으면 API 프로세스 내부의 메모리 버스를 사용한다.
type EventBusConfig struct {
	Brokers string `yaml:"brokers"`
	GroupID string `yaml:"group_id"`
}

// SummarizerConfig 의 요청 한도가 0 이하이면 해당 방향은 제한하지 않는다.
type SummarizerConfig struct {
	GeminiAPIKey      string `yaml:"gemini_api_key"`
	GeminiModel       string `yaml:"gemini_model"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	RequestsPerDay    int    `yaml:"requests_per_day"`
}

var config *AppConfig

func InitApp() {
	// load environment variables
	godotenv.Load(filepath.Join(GetBasePath(), ENV_FILE))

	// load configuration file
	data, err := os.ReadFile(filepath.Join(GetBasePath(), CONFIG_FILE))
	if err != nil {
		panic(err)
	}

	c, err := Parse(data)
	if err != nil {
		panic(err)
	}
	config = c
}

// Parse decodes a config.yaml document. ${VAR} references are expanded from
// the environment first so secrets can stay in .env.
func Parse(data []byte) (*AppConfig, error) {
	var c AppConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return &c, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "folio"
	}
	if c.Auth.IdentityBaseURL == "" {
		c.Auth.IdentityBaseURL = "https://identitytoolkit.googleapis.com"
	}
	if c.Auth.JWTIssuer == "" {
		c.Auth.JWTIssuer = "folio"
	}
	if c.Auth.SessionTTL <= 0 {
		c.Auth.SessionTTL = 24 * time.Hour
	}
	if c.CDN.BaseURL == "" {
		c.CDN.BaseURL = "https://api.cloudinary.com"
	}
	if c.CDN.MaxSizeMB <= 0 {
		c.CDN.MaxSizeMB = 10
	}
	if c.Posts.PageSize <= 0 {
		c.Posts.PageSize = 10
	}
	if c.Posts.AdminPageSize <= 0 {
		c.Posts.AdminPageSize = 50
	}
	if c.Posts.MaxPageSize <= 0 {
		c.Posts.MaxPageSize = 100
	}
	if c.EventBus.GroupID == "" {
		c.EventBus.GroupID = "folio-worker"
	}
	if c.Summarizer.GeminiModel == "" {
		c.Summarizer.GeminiModel = "gemini-2.5-flash"
	}
}

func GetConfig() AppConfig {
	if config == nil {
		InitApp()
	}

	return *config
}

// SetConfig replaces the global configuration. Used by tests and the CLI when
// no config.yaml is available.
func SetConfig(c AppConfig) {
	c.applyDefaults()
	config = &c
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
