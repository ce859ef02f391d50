package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// YamlConf is the on-disk configuration for a namecored node. It is parsed
// once at startup and turned into an immutable NameConfig; nothing in the
// subsystem below main() reaches back into os.Args or package globals.
type YamlConf struct {
	Chain   string  `yaml:"chain"`
	DB      DB      `yaml:"db"`
	Bitcoin Bitcoin `yaml:"bitcoin"`
	Log     Log     `yaml:"log"`
	Names   Names   `yaml:"names"`
}

type DB struct {
	Path    string `yaml:"path"`
	Backend string `yaml:"backend"` // "pebble" (default), "leveldb", "badger"
}

type Bitcoin struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type Log struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// Names holds the process-wide switches spec.md's Design Notes calls out
// explicitly — they must flow through the constructor, not globals.
type Names struct {
	HistoryEnabled bool `yaml:"history_enabled"`
	CheckNameDB    int  `yaml:"check_name_db"` // -1 disabled, 0 every flush, k>0 every k-th block
	TrackPendingNew bool `yaml:"track_pending_new"`
}

// NameConfig is the immutable record threaded through the name subsystem's
// constructors in place of package-level mutable switches.
type NameConfig struct {
	HistoryEnabled  bool
	CheckNameDBMode int
	TrackPendingNew bool
}

func (c YamlConf) ToNameConfig() NameConfig {
	return NameConfig{
		HistoryEnabled:  c.Names.HistoryEnabled,
		CheckNameDBMode: c.Names.CheckNameDB,
		TrackPendingNew: c.Names.TrackPendingNew,
	}
}

func GetBaseDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return "./."
	}
	return filepath.Dir(execPath)
}

func InitConfig(configFile string) *YamlConf {
	if configFile == "" {
		for i, item := range os.Args {
			if item == "-env" && i+1 < len(os.Args) {
				configFile = os.Args[i+1]
				break
			}
		}
		if configFile == "" {
			configFile = "./.env"
		}
	}
	if !strings.HasPrefix(configFile, "/") {
		configFile = filepath.Join(GetBaseDir(), configFile)
	}

	fmt.Printf("config file: %s\n", configFile)

	cfg, err := LoadYamlConf(configFile)
	if err != nil {
		return nil
	}
	return cfg
}

func LoadYamlConf(cfgPath string) (*YamlConf, error) {
	confFile, err := os.Open(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cfg: %s, error: %s", cfgPath, err)
	}
	defer confFile.Close()

	ret := &YamlConf{}
	if err := yaml.NewDecoder(confFile).Decode(ret); err != nil {
		return nil, fmt.Errorf("failed to decode cfg: %s, error: %s", cfgPath, err)
	}

	if _, err := logrus.ParseLevel(ret.Log.Level); err != nil {
		ret.Log.Level = "info"
	}
	if ret.Log.Path == "" {
		ret.Log.Path = "log"
	}
	if ret.DB.Path == "" {
		ret.DB.Path = "db"
	}
	if ret.DB.Backend == "" {
		ret.DB.Backend = "pebble"
	}
	return ret, nil
}
