package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type fileRedis struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Socket   string `yaml:"socket"`
	Password string `yaml:"password"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
}

// fileConfig mirrors the CLI options; durations accept seconds or Go syntax.
type fileConfig struct {
	Redis          fileRedis `yaml:"redis"`
	RedisNamespace string    `yaml:"redis_namespace"`
	CWNamespace    string    `yaml:"cw_namespace"`
	Interval       string    `yaml:"interval"`
	Backend        string    `yaml:"backend"`
	Endpoint       string    `yaml:"endpoint"`
	Region         string    `yaml:"region"`
	Key            string    `yaml:"key"`
	HTTPTimeout    string    `yaml:"http_timeout"`
	StatusAddr     string    `yaml:"status_addr"`
	LogLevel       string    `yaml:"log_level"`
	AuditFile      string    `yaml:"audit_file"`
	AuditURL       string    `yaml:"audit_url"`
	Skip           []string  `yaml:"skip"`
	Extra          []string  `yaml:"extra"`
	BatchSize      int       `yaml:"batch_size"`
	DryRun         bool      `yaml:"dryrun"`
}

func loadFile(path string) (fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fileConfig{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}
