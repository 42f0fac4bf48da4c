package main

import (
	"log/slog"
	"strings"
	"sync"

	"mediatoc/internal/config"
	"mediatoc/internal/engine/ffmpeg"
	"mediatoc/internal/logging"
	"mediatoc/internal/profiles"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	engineOnce sync.Once
	engine     *ffmpeg.Engine

	profilesOnce sync.Once
	profiles     *profiles.Registry
	profilesErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) ensureEngine() (*ffmpeg.Engine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.engineOnce.Do(func() {
		c.engine = ffmpeg.New(ffmpeg.Options{
			FFmpegBinary:  cfg.Engine.FFmpegBinary,
			FFprobeBinary: cfg.Engine.FFprobeBinary,
		})
	})
	return c.engine, nil
}

func (c *commandContext) ensureProfiles() (*profiles.Registry, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.profilesOnce.Do(func() {
		registry := profiles.NewRegistry()
		if cfg.Paths.ProfilesPath != "" {
			if err := registry.Load(cfg.Paths.ProfilesPath); err != nil {
				c.profilesErr = err
				return
			}
		}
		c.profiles = registry
	})
	return c.profiles, c.profilesErr
}
