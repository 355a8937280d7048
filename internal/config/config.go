package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
	"quest-bot/internal/domain"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" env:"QUEST_PORT"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr" env:"QUEST_REDIS_ADDR"`
		Password string `yaml:"password" env:"QUEST_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"QUEST_REDIS_DB"`
		TTL      string `yaml:"ttl" env:"QUEST_REDIS_TTL"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"QUEST_POSTGRES_URL"`
	} `yaml:"postgres"`
	AMQP struct {
		URL      string `yaml:"url" env:"QUEST_AMQP_URL"`
		Exchange string `yaml:"exchange" env:"QUEST_AMQP_EXCHANGE"`
	} `yaml:"amqp"`
	Bridge struct {
		Token string `yaml:"token" env:"QUEST_BRIDGE_TOKEN"`
		// EmojiGuild is the community hosting the custom choice emoji.
		EmojiGuild string `yaml:"emoji_guild" env:"QUEST_BRIDGE_EMOJI_GUILD"`
	} `yaml:"bridge"`
	Quest struct {
		TotalLevels        int    `yaml:"total_levels" env:"QUEST_TOTAL_LEVELS"`
		FirstQuestionDelay string `yaml:"first_question_delay" env:"QUEST_FIRST_QUESTION_DELAY"`
		ReactionWindow     string `yaml:"reaction_window" env:"QUEST_REACTION_WINDOW"`
		HintPenalty        string `yaml:"hint_penalty" env:"QUEST_HINT_PENALTY"`
		HintCommand        string `yaml:"hint_command" env:"QUEST_HINT_COMMAND"`
		QuestionTTL        string `yaml:"question_ttl" env:"QUEST_QUESTION_TTL"`
		QuestionsFile      string `yaml:"questions_file" env:"QUEST_QUESTIONS_FILE"`
	} `yaml:"quest"`
	Catalog struct {
		Communities []domain.Community `yaml:"communities"`
		Realms      []string           `yaml:"realms"`
		Factions    []domain.Faction   `yaml:"factions"`
	} `yaml:"catalog"`
}

// Load reads YAML config from path and applies QUEST_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	// The catalog is file-only; every other section accepts env overrides.
	for _, section := range []any{&cfg.Server, &cfg.Redis, &cfg.Postgres, &cfg.AMQP, &cfg.Bridge, &cfg.Quest} {
		if err := env.Parse(section); err != nil {
			return cfg, fmt.Errorf("parse env: %w", err)
		}
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// NewCatalog builds the static catalog. Factions default to Horde and Alliance.
func (c Config) NewCatalog() *domain.Catalog {
	factions := c.Catalog.Factions
	if len(factions) == 0 {
		factions = []domain.Faction{
			{Name: "Alliance", Emoji: "alliance"},
			{Name: "Horde", Emoji: "horde"},
		}
	}
	return domain.NewCatalog(c.Catalog.Communities, c.Catalog.Realms, factions)
}
