// Package config loads settings from defaults, an optional TOML file, an
// optional .env file and the environment, in that order of precedence
// (later wins).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Storage struct {
	Mode        string `toml:"mode" validate:"oneof=inmemory file mongo cached sql badger"`
	DBFile      string `toml:"db_file" validate:"required_if=Mode file"`
	MongoURL    string `toml:"mongo_url" validate:"required_if=Mode mongo,required_if=Mode cached"`
	MongoDBName string `toml:"mongo_db_name" validate:"required_if=Mode mongo,required_if=Mode cached"`
	RedisURL    string `toml:"redis_url" validate:"required_if=Mode cached"`
	SQLDriver   string `toml:"sql_driver" validate:"oneof=sqlite3 postgres"`
	SQLDSN      string `toml:"sql_dsn" validate:"required_if=Mode sql"`
	BadgerPath  string `toml:"badger_path" validate:"required_if=Mode badger"`
}

type Config struct {
	// ListenAddr is where blogd serves /posts, UIListenAddr where the
	// front-end serves its routes.
	ListenAddr   string  `toml:"listen_addr" validate:"required"`
	UIListenAddr string  `toml:"ui_listen_addr" validate:"required"`
	LogLevel     string  `toml:"log_level" validate:"oneof=debug info warn error fatal panic no disabled"`
	APIBaseURL   string  `toml:"api_base_url" validate:"required,url"`
	Storage      Storage `toml:"storage"`
}

// Defaults mirror the json-server setup the front-end was built against.
func Defaults() Config {
	return Config{
		ListenAddr:   ":3500",
		UIListenAddr: ":3000",
		LogLevel:   "info",
		APIBaseURL: "http://localhost:3500",
		Storage: Storage{
			Mode:        "inmemory",
			DBFile:      "data/db.json",
			MongoDBName: "miniblog",
			SQLDriver:   "sqlite3",
			BadgerPath:  "data/badger",
		},
	}
}

var envBindings = []struct {
	name string
	dst  func(*Config) *string
}{
	{"LISTEN_ADDR", func(c *Config) *string { return &c.ListenAddr }},
	{"UI_LISTEN_ADDR", func(c *Config) *string { return &c.UIListenAddr }},
	{"LOG_LEVEL", func(c *Config) *string { return &c.LogLevel }},
	{"API_BASE_URL", func(c *Config) *string { return &c.APIBaseURL }},
	{"STORAGE_MODE", func(c *Config) *string { return &c.Storage.Mode }},
	{"DB_FILE", func(c *Config) *string { return &c.Storage.DBFile }},
	{"MONGO_URL", func(c *Config) *string { return &c.Storage.MongoURL }},
	{"MONGO_DB_NAME", func(c *Config) *string { return &c.Storage.MongoDBName }},
	{"REDIS_URL", func(c *Config) *string { return &c.Storage.RedisURL }},
	{"SQL_DRIVER", func(c *Config) *string { return &c.Storage.SQLDriver }},
	{"SQL_DSN", func(c *Config) *string { return &c.Storage.SQLDSN }},
	{"BADGER_PATH", func(c *Config) *string { return &c.Storage.BadgerPath }},
}

// Load layers path (skipped when empty or missing) and envFile over cfg and
// validates the result.
func Load(cfg Config, path string, envFile string) (Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, errors.Wrapf(err, "failed to decode configuration file %s", path)
			}
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(errors.Cause(err)) {
			return cfg, errors.Wrapf(err, "failed to load %s", envFile)
		}
	}

	for _, b := range envBindings {
		if v, ok := os.LookupEnv(b.name); ok {
			*b.dst(&cfg) = v
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}
