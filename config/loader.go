package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by the loader
const EnvPrefix = "HOTFS_"

// LoadConfig loads configuration from multiple sources with strict priority:
// 1. Environment variables (highest priority)
// 2. Config file (config.yaml or config.json)
// 3. Defaults (lowest priority)
func LoadConfig() (AppConfig, error) {
	return LoadConfigFromFile("")
}

// LoadConfigFromFile loads configuration from multiple sources with a specific config file:
// 1. Environment variables (highest priority)
// 2. Specified config file or default config files
// 3. Defaults (lowest priority)
func LoadConfigFromFile(configFilePath string) (AppConfig, error) {
	k := koanf.New(".")

	// Load default configuration first
	if err := k.Load(structs.Provider(DefaultAppConfig(), "koanf"), nil); err != nil {
		return AppConfig{}, fmt.Errorf("failed to load default config: %w", err)
	}

	if configFilePath != "" {
		if _, err := os.Stat(configFilePath); err != nil {
			return AppConfig{}, fmt.Errorf("specified config file %s not found: %w", configFilePath, err)
		}
		if err := k.Load(file.Provider(configFilePath), parserFor(configFilePath)); err != nil {
			return AppConfig{}, fmt.Errorf("failed to load config file %s: %w", configFilePath, err)
		}
	} else {
		// Load from default config files if they exist
		for _, configFile := range []string{"config.yaml", "config.yml", "config.json"} {
			if _, err := os.Stat(configFile); err != nil {
				continue
			}
			if err := k.Load(file.Provider(configFile), parserFor(configFile)); err != nil {
				return AppConfig{}, fmt.Errorf("failed to load config file %s: %w", configFile, err)
			}
			break
		}
	}

	// HOTFS_BACKEND_S3_REGION -> backend.s3_region
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return AppConfig{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for i := range cfg.Hotfolders {
		applyHotfolderDefaults(&cfg.Hotfolders[i])
	}

	if err := Validate(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func parserFor(path string) koanf.Parser {
	if strings.HasSuffix(path, ".json") {
		return json.Parser()
	}
	return yaml.Parser()
}

// envKey maps the first underscore to a section separator and keeps the rest
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

var (
	includeModes = map[string]bool{"visible": true, "all": true, "visible_files": true, "files": true}
	recurseModes = map[string]bool{"none": true, "all": true, "visible": true}
	sortKeys     = map[string]bool{"": true, "name": true, "modified": true, "mtime": true, "depth": true}
	sortOrders   = map[string]bool{"": true, "asc": true, "ascending": true, "desc": true, "descending": true}
)

// Validate checks that required configuration fields are set and that
// every hotfolder entry is usable
func Validate(cfg *AppConfig) error {
	if cfg.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}

	if len(cfg.Server.APIKeys) == 0 {
		return fmt.Errorf("server.api_keys must contain at least one key")
	}

	if cfg.Server.RateLimit <= 0 || cfg.Server.RateBurst <= 0 {
		return fmt.Errorf("server.rate_limit and server.rate_burst must be positive")
	}

	if cfg.Backend.DefaultScheme == "" {
		return fmt.Errorf("backend.default_scheme is required")
	}

	if cfg.Backend.S3Enabled && cfg.Backend.S3Region == "" {
		return fmt.Errorf("backend.s3_region is required when s3 is enabled")
	}

	for share, mount := range cfg.Backend.SMBMounts {
		if !strings.Contains(share, "/") || mount == "" {
			return fmt.Errorf("backend.smb_mounts: %q must map host/share to a mount path", share)
		}
	}

	seen := make(map[string]bool)
	for i, hf := range cfg.Hotfolders {
		name := hf.ID
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		} else if seen[hf.ID] {
			return fmt.Errorf("hotfolders: duplicate id %q", hf.ID)
		}
		seen[hf.ID] = true

		switch {
		case hf.Folder == "":
			return fmt.Errorf("hotfolder %s: folder is required", name)
		case hf.Interval <= 0:
			return fmt.Errorf("hotfolder %s: interval must be positive", name)
		case hf.Settle <= 0:
			return fmt.Errorf("hotfolder %s: settle must be positive", name)
		case hf.MaxDepth < 0:
			return fmt.Errorf("hotfolder %s: max_depth must not be negative", name)
		case !includeModes[hf.Include]:
			return fmt.Errorf("hotfolder %s: unknown include mode %q", name, hf.Include)
		case !recurseModes[hf.Recurse]:
			return fmt.Errorf("hotfolder %s: unknown recurse mode %q", name, hf.Recurse)
		case !sortKeys[hf.Sort]:
			return fmt.Errorf("hotfolder %s: unknown sort key %q", name, hf.Sort)
		case !sortOrders[hf.Order]:
			return fmt.Errorf("hotfolder %s: unknown sort order %q", name, hf.Order)
		}
	}

	return nil
}
