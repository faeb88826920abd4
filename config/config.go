package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Target 物理库
type Target struct {
	Name   string `yaml:"name"`
	DSN    string `yaml:"dsn"`
	Weight int    `yaml:"weight"`
}

type Detectors struct {
	Write Target `yaml:"write"`
	Read  Target `yaml:"read"`
}

type Standby struct {
	Target   Target `yaml:"target"`
	Detector Target `yaml:"detector"`
}

type Partition struct {
	Name         string    `yaml:"name"`
	Write        Target    `yaml:"write"`
	Reads        []Target  `yaml:"reads"`
	Detectors    Detectors `yaml:"detectors"`
	Standby      Standby   `yaml:"standby"`
	PoolSize     int       `yaml:"poolSize"`
	ReadStrategy string    `yaml:"readStrategy"`
	Default      bool      `yaml:"default"`
}

type Sharding struct {
	Columns   []string `yaml:"columns"`
	Algorithm string   `yaml:"algorithm"`
}

type Table struct {
	Name string `yaml:"name"`
	// LayerKey 为空的时候使用表名
	LayerKey string    `yaml:"layerKey"`
	Sharding *Sharding `yaml:"sharding"`
	// Global 全局表所在的分区
	Global []string `yaml:"global"`
}

// Hash 取模分库，Name 是分区名字的模板
type Hash struct {
	ShardingKey string `yaml:"shardingKey"`
	Name        string `yaml:"name"`
	Base        int    `yaml:"base"`
	NotSharding bool   `yaml:"notSharding"`
}

type Algorithm struct {
	Hash *Hash `yaml:"hash"`
}

type Executor struct {
	// Mode parallel 或者 sequential，默认 parallel
	Mode        string `yaml:"mode"`
	MaxParallel int    `yaml:"maxParallel"`
}

type Config struct {
	Algorithms map[string]Algorithm `yaml:"algorithms"`
	// Partitions 按照声明的顺序注册
	Partitions []Partition `yaml:"partitions"`
	Tables     []Table     `yaml:"tables"`
	Executor   Executor    `yaml:"executor"`
}

// ParseFile 从文件中解析配置
func ParseFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return parseConfig(data)
}

// ParseContent 从文件内容中解析配置
func ParseContent(content string) (*Config, error) {
	return parseConfig([]byte(content))
}

func parseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
