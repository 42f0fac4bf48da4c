package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.Export.Format = strings.ToLower(strings.TrimSpace(c.Export.Format))
	c.Split.Profile = strings.ToLower(strings.TrimSpace(c.Split.Profile))
	c.normalizeEngine()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryPath) == "" {
		c.Paths.HistoryPath = defaultHistoryPath
	}
	if c.Paths.HistoryPath, err = expandPath(c.Paths.HistoryPath); err != nil {
		return fmt.Errorf("paths.history_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.ProfilesPath) != "" {
		if c.Paths.ProfilesPath, err = expandPath(c.Paths.ProfilesPath); err != nil {
			return fmt.Errorf("paths.profiles_path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeEngine() {
	if strings.TrimSpace(c.Engine.FFmpegBinary) == "" {
		c.Engine.FFmpegBinary = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.Engine.FFprobeBinary) == "" {
		c.Engine.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
