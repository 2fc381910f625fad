package utils

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"nft-wager-arena/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GAME_SERVICE_TOKEN", "gw-token")
	t.Setenv("ACTOR_OWNER", "owner-1")
	t.Setenv("SNAPSHOT_INTERVAL", "5s")

	cfg, _, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "5200", cfg.Port)
	assert.Equal(t, "gw-token", cfg.GatewayToken)
	assert.Equal(t, "owner-1", cfg.ArenaOwner)
	assert.Equal(t, "nft-wager-arena", cfg.ArenaID)
	assert.Equal(t, 5*time.Second, cfg.SnapshotInterval)
	assert.Equal(t, time.Hour, cfg.ArchiveInterval)
	assert.False(t, cfg.R2.Enabled())
}

func TestLoadConfigRequiresOwner(t *testing.T) {
	t.Setenv("GAME_SERVICE_TOKEN", "gw-token")
	t.Setenv("ACTOR_OWNER", "")

	_, _, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadTemplates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
templates:
  0:
    name: Ember
    description: fire card
    media: ember.png
    reference: ref-0
  3:
    name: Tide
    description: water card
    media: tide.png
    reference: ref-3
`), 0o644))

	templates, err := LoadTemplates(path)
	require.NoError(t, err)
	assert.Equal(t, map[uint8]models.TokenMetadata{
		0: {Name: "Ember", Description: "fire card", Media: "ember.png", Reference: "ref-0"},
		3: {Name: "Tide", Description: "water card", Media: "tide.png", Reference: "ref-3"},
	}, templates)
}

func TestLoadTemplatesMissingFile(t *testing.T) {
	templates, err := LoadTemplates(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, templates)
}

func TestLoadTemplatesInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates: [not, a, map"), 0o644))

	_, err := LoadTemplates(path)
	assert.Error(t, err)
}

func TestUploadSnapshotNeedsInit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	_, err := UploadSnapshotToR2(ctx, "snapshots/x.json", []byte("{}"))
	assert.ErrorIs(t, err, errR2NotInitialized)
}
