package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
server:
  port: "9090"
postgres:
  url: postgres://quest@localhost/quest
quest:
  total_levels: 11
  reaction_window: 150s
catalog:
  communities:
    - id: "111"
      name: Hall of the Guardian
      emoji: mage
  realms: [Gordunni, Soulflayer]
`

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QUEST_PORT", "7070")
	t.Setenv("QUEST_HINT_COMMAND", "!help")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Fatalf("expected env port override, got %q", cfg.Server.Port)
	}
	if cfg.Quest.HintCommand != "!help" {
		t.Fatalf("expected env hint command, got %q", cfg.Quest.HintCommand)
	}
	if cfg.Postgres.URL != "postgres://quest@localhost/quest" {
		t.Fatalf("expected yaml postgres url kept, got %q", cfg.Postgres.URL)
	}
	if cfg.Quest.TotalLevels != 11 {
		t.Fatalf("expected 11 levels, got %d", cfg.Quest.TotalLevels)
	}

	catalog := cfg.NewCatalog()
	if !catalog.IsValidRealm("gORDUNNI") {
		t.Fatalf("expected realm match ignoring case")
	}
	if c, ok := catalog.CommunityByEmoji("mage"); !ok || c.ID != "111" {
		t.Fatalf("expected mage community, got %+v %v", c, ok)
	}
	if f, ok := catalog.FactionByEmoji("horde"); !ok || f.Name != "Horde" {
		t.Fatalf("expected default horde faction, got %+v %v", f, ok)
	}
}

func TestDuration(t *testing.T) {
	if got := Duration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %s", got)
	}
	if got := Duration("garbage", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback on bad input, got %s", got)
	}
	if got := Duration("150s", time.Minute); got != 150*time.Second {
		t.Fatalf("expected 150s, got %s", got)
	}
}
