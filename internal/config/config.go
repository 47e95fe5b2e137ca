// Package config loads the world-simulation core's tunables and database
// connection parameters from a YAML file, following the teacher's
// config.LoginServer shape (struct + yaml tags + DSN()).
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Constants holds every named tunable from the external-interfaces section:
// name-length bounds, default character stats, spawn point, sector sizing,
// view radius, and the movement-cooldown model.
type Constants struct {
	CharacterNameMinLen int `yaml:"character_name_min_len"`
	CharacterNameMaxLen int `yaml:"character_name_max_len"`

	DefaultCharacterLevel       int32 `yaml:"default_character_level"`
	DefaultCharacterExperience  int64 `yaml:"default_character_experience"`
	DefaultCharacterHealth      int32 `yaml:"default_character_health"`
	DefaultCharacterMana        int32 `yaml:"default_character_mana"`
	DefaultCharacterCapacity    int32 `yaml:"default_character_capacity"`
	DefaultCharacterSpeed       int32 `yaml:"default_character_speed"`
	DefaultCharacterAttackSpeed int32 `yaml:"default_character_attack_speed"`

	DefaultSpawnX uint16 `yaml:"default_spawn_x"`
	DefaultSpawnY uint16 `yaml:"default_spawn_y"`
	GroundLevel   uint8  `yaml:"ground_level"`

	SectorSize     uint16 `yaml:"sector_size"`
	MapViewRadius  uint16 `yaml:"map_view_radius"`

	MovementCooldownFactor      int64 `yaml:"movement_cooldown_factor"`
	MovementIntentionWindowMs   int64 `yaml:"movement_intention_window_ms"`

	Database DatabaseConfig `yaml:"database"`
	LogLevel string         `yaml:"log_level"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`

	MaxConns int32 `yaml:"max_conns"`
	MinConns int32 `yaml:"min_conns"`
}

// DSN returns the PostgreSQL connection string, appending pool parameters
// when set.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	base := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, sslmode,
	)

	var params []string
	if d.MaxConns > 0 {
		params = append(params, fmt.Sprintf("pool_max_conns=%d", d.MaxConns))
	}
	if d.MinConns > 0 {
		params = append(params, fmt.Sprintf("pool_min_conns=%d", d.MinConns))
	}
	if len(params) > 0 {
		return base + "&" + strings.Join(params, "&")
	}
	return base
}

// defaults are the Open-Questions resolutions recorded in DESIGN.md — used
// to fill in any zero-valued field left unset by the YAML file, so a
// minimal or missing config still boots.
func defaults() Constants {
	return Constants{
		CharacterNameMinLen: 3,
		CharacterNameMaxLen: 32,

		DefaultCharacterLevel:       1,
		DefaultCharacterExperience:  0,
		DefaultCharacterHealth:      100,
		DefaultCharacterMana:        50,
		DefaultCharacterCapacity:    100,
		DefaultCharacterSpeed:       4,
		DefaultCharacterAttackSpeed: 300,

		DefaultSpawnX: 1152,
		DefaultSpawnY: 1152,
		GroundLevel:   0,

		SectorSize:    128,
		MapViewRadius: 32,

		MovementCooldownFactor:    10_000,
		MovementIntentionWindowMs: 150,

		LogLevel: "info",
	}
}

// Load reads Constants from a YAML file at path on top of defaults(), so a
// field absent from the file keeps its default. A field the file sets to
// zero keeps zero, except the name-length bounds, default speed, sector
// size, map view radius, cooldown factor, intention window and log level,
// which applyDefaults restores.
func Load(path string) (Constants, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return Constants{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Constants{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Constants) {
	d := defaults()
	if cfg.CharacterNameMinLen == 0 {
		cfg.CharacterNameMinLen = d.CharacterNameMinLen
	}
	if cfg.CharacterNameMaxLen == 0 {
		cfg.CharacterNameMaxLen = d.CharacterNameMaxLen
	}
	if cfg.DefaultCharacterSpeed == 0 {
		cfg.DefaultCharacterSpeed = d.DefaultCharacterSpeed
	}
	if cfg.SectorSize == 0 {
		cfg.SectorSize = d.SectorSize
	}
	if cfg.MapViewRadius == 0 {
		cfg.MapViewRadius = d.MapViewRadius
	}
	if cfg.MovementCooldownFactor == 0 {
		cfg.MovementCooldownFactor = d.MovementCooldownFactor
	}
	if cfg.MovementIntentionWindowMs == 0 {
		cfg.MovementIntentionWindowMs = d.MovementIntentionWindowMs
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = d.LogLevel
	}
}
