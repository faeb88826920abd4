package main

import (
	"log/slog"
	"os"
	"time"
)

type Config struct {
	// Routing 分区和逻辑表的配置文件
	Routing        string         `mapstructure:"routing"`
	StrictShardKey bool           `mapstructure:"strictShardKey"`
	Addr           string         `mapstructure:"addr"`
	Detector       DetectorConfig `mapstructure:"detector"`
	Pool           PoolConfig     `mapstructure:"pool"`
	Log            LogConfig      `mapstructure:"log"`
}

type DetectorConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type PoolConfig struct {
	MaxLifetime time.Duration `mapstructure:"maxLifetime"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func (c LogConfig) logger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts)), nil
}
