package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

// AppEnv represents the application environment
// ENUM(local,production,development,testing)
type AppEnv string

// SensorDef is a sensor declared in the config file. Declared sensors are
// seeded into the sensor store at startup; sensors created over the API are
// persisted there directly.
type SensorDef struct {
	Name               string   `koanf:"name"`
	FeedURL            string   `koanf:"feed_url"`
	DateFormat         string   `koanf:"date_format"`
	ShowTopN           int      `koanf:"show_topn"`
	LocalTime          bool     `koanf:"local_time"`
	RemoveSummaryImage bool     `koanf:"remove_summary_image"`
	Inclusions         []string `koanf:"inclusions"`
	Exclusions         []string `koanf:"exclusions"`
	ScanInterval       int      `koanf:"scan_interval"`
}

type Config struct {
	StoragePath    string      `koanf:"storage_path"`
	HTTPPort       string      `koanf:"http_port"`
	UpdateInterval int         `koanf:"update_interval"`
	FetchTimeout   int         `koanf:"fetch_timeout"`
	AppEnv         AppEnv      `koanf:"app_env"`
	Sensors        []SensorDef `koanf:"sensors"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try to load config file from various formats
	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	// Use lo.Find to find the first existing config file
	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Load environment variables (they override config file values)
	// Convert HTTP_PORT -> http_port
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	// Set defaults
	if !k.Exists("storage_path") {
		k.Set("storage_path", "./data")
	}
	if !k.Exists("http_port") {
		k.Set("http_port", "8080")
	}
	if !k.Exists("update_interval") {
		k.Set("update_interval", 60)
	}
	if !k.Exists("fetch_timeout") {
		k.Set("fetch_timeout", 30)
	}
	if !k.Exists("app_env") {
		k.Set("app_env", "production")
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	// Parse AppEnv from string if needed
	if appEnvStr := k.String("app_env"); appEnvStr != "" {
		if env, err := ParseAppEnv(appEnvStr); err == nil {
			cfg.AppEnv = env
		} else {
			cfg.AppEnv = AppEnvProduction
		}
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	// Inclusion/exclusion lists may arrive as comma-separated strings from
	// env vars or as lists from config files
	for i := range cfg.Sensors {
		cfg.Sensors[i].Inclusions = normalizeList(cfg.Sensors[i].Inclusions)
		cfg.Sensors[i].Exclusions = normalizeList(cfg.Sensors[i].Exclusions)
	}

	return &cfg, nil
}

func normalizeList(values []string) []string {
	if len(values) == 1 && strings.Contains(values[0], ",") {
		return ParseList(values[0])
	}
	return lo.Filter(values, func(v string, _ int) bool {
		return strings.TrimSpace(v) != ""
	})
}

// ParseList parses a comma-separated string into a list using lo
func ParseList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	return lo.FilterMap(parts, func(part string, _ int) (string, bool) {
		part = strings.TrimSpace(part)
		return part, part != ""
	})
}
