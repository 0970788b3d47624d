package shared

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Filter struct {
		Input       string `yaml:"input"`        // "newPoliCheckIssue"
		Output      string `yaml:"output"`       // "filesNamesToSkipNew.txt"
		StripPrefix int    `yaml:"strip_prefix"` // 10
	} `yaml:"filter"`

	Database struct {
		Driver string `yaml:"driver"` // "sqlite" (only driver)
		DSN    string `yaml:"dsn"`    // empty = no run history
	} `yaml:"database"`

	Reporting struct {
		OutDir string `yaml:"out_dir"` // empty = no reports
	} `yaml:"reporting"`

	Logging struct {
		Format string `yaml:"format"` // "console"|"json"
		Level  string `yaml:"level"`  // "debug"|"info"|"warn"|"error"
		File   string `yaml:"file"`   // optional rotated JSON log
	} `yaml:"logging"`
}

func DefaultConfig() Config {
	var c Config
	c.Filter.Input = "newPoliCheckIssue"
	c.Filter.Output = "filesNamesToSkipNew.txt"
	c.Filter.StripPrefix = 10
	c.Database.Driver = "sqlite"
	c.Logging.Format = "console"
	c.Logging.Level = "info"
	return c
}

// LoadConfig reads the optional YAML file at path over the defaults, then
// applies PCFILTER_* environment overrides.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("PCFILTER_INPUT"); v != "" {
		c.Filter.Input = v
	}
	if v := os.Getenv("PCFILTER_OUTPUT"); v != "" {
		c.Filter.Output = v
	}
	if v := os.Getenv("PCFILTER_STRIP_PREFIX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("PCFILTER_STRIP_PREFIX: %w", err)
		}
		c.Filter.StripPrefix = n
	}
	if v := os.Getenv("PCFILTER_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("PCFILTER_OUT_DIR"); v != "" {
		c.Reporting.OutDir = v
	}
	if v := os.Getenv("PCFILTER_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("PCFILTER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PCFILTER_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.Filter.StripPrefix < 0 {
		return fmt.Errorf("filter.strip_prefix must not be negative")
	}
	if c.Database.Driver != "" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver %q not supported", c.Database.Driver)
	}
	return nil
}
