// utils/config.go
package utils

import (
	"errors"
	"fmt"
	"os"
	"time"

	"nft-wager-arena/models"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port           string `env:"PORT,default=5200"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	LogLevel       string `env:"LOG_LEVEL,default=info"`

	// GatewayToken is the bearer token every inbound request must carry.
	GatewayToken string `env:"GAME_SERVICE_TOKEN,required"`
	DatabaseURL  string `env:"DATABASE_URL"`

	ArenaID    string `env:"ACTOR_ID,default=nft-wager-arena"`
	ArenaName  string `env:"ACTOR_NAME,default=NFT Wager Arena"`
	ArenaOwner string `env:"ACTOR_OWNER,required"`

	NFTServiceURL   string `env:"NFT_SERVICE_URL"`
	NFTServiceToken string `env:"NFT_SERVICE_TOKEN"`
	TemplatesFile   string `env:"TEMPLATES_FILE,default=templates.yaml"`

	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL,default=30s"`
	ArchiveInterval  time.Duration `env:"ARCHIVE_INTERVAL,default=1h"`

	R2 R2Config
}

type R2Config struct {
	AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	Bucket          string `env:"R2_BUCKET_NAME"`
	CDNBaseURL      string `env:"CDN_BASE_URL"`
}

// Enabled reports whether enough R2 settings are present to archive snapshots.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

// LoadConfig reads .env (if present) and decodes the environment.
func LoadConfig() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, dotenv, fmt.Errorf("failed to decode environment: %w", err)
	}
	return &cfg, dotenv, nil
}

type templatesFile struct {
	Templates map[uint8]models.TokenMetadata `yaml:"templates"`
}

// LoadTemplates reads the default mint templates. A missing file yields no templates.
func LoadTemplates(path string) (map[uint8]models.TokenMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[uint8]models.TokenMetadata{}, nil
		}
		return nil, fmt.Errorf("failed to read templates file: %w", err)
	}

	var out templatesFile
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse templates file %s: %w", path, err)
	}
	if out.Templates == nil {
		out.Templates = map[uint8]models.TokenMetadata{}
	}
	return out.Templates, nil
}
