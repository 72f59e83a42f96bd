package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	cmtos "github.com/cometbft/cometbft/libs/os"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/spf13/viper"
)

const (
	DefaultHomeDir = "$HOME/.hacgov"
	ConfigFileName = "config.toml"
	AppFileName    = "app.toml"
)

var (
	ErrNegativeTimeout = errors.New("registry_timeout can not be negative")
	ErrNoIndexerAddr   = errors.New("indexer_listen_addr is required when the indexer is enabled")
	ErrNonPositivePoll = errors.New("indexer_poll_interval must be positive")
)

// AppConfig is the [app] section, kept in app.toml next to config.toml.
type AppConfig struct {
	Home string `mapstructure:"-"`

	// empty means every registry lookup is answered by the mock registry
	RegistryURL     string        `mapstructure:"registry_url"`
	RegistryTimeout time.Duration `mapstructure:"registry_timeout"`

	IndexerEnabled      bool          `mapstructure:"indexer_enabled"`
	IndexerListenAddr   string        `mapstructure:"indexer_listen_addr"`
	IndexerPollInterval time.Duration `mapstructure:"indexer_poll_interval"`
}

func DefaultAppConfig(home string) *AppConfig {
	return &AppConfig{
		Home:                home,
		RegistryURL:         "",
		RegistryTimeout:     5 * time.Second,
		IndexerEnabled:      true,
		IndexerListenAddr:   "127.0.0.1:8080",
		IndexerPollInterval: time.Second,
	}
}

func (c *AppConfig) ValidateBasic() error {
	if c.RegistryTimeout < 0 {
		return ErrNegativeTimeout
	}
	if c.IndexerEnabled {
		if c.IndexerListenAddr == "" {
			return ErrNoIndexerAddr
		}
		if c.IndexerPollInterval <= 0 {
			return ErrNonPositivePoll
		}
	}
	return nil
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *AppConfig `mapstructure:"app"`
}

func NewConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv(DefaultHomeDir)
	}
	cfg := &Config{
		DefaultCometConfig(),
		DefaultAppConfig(home),
	}
	cfg.SetRoot(home)
	return cfg
}

func (c *Config) ValidateBasic() error {
	if err := c.Config.ValidateBasic(); err != nil {
		return err
	}
	return c.App.ValidateBasic()
}

func (c *Config) ConfigFile() string {
	return filepath.Join(c.RootDir, "config", ConfigFileName)
}

func (c *Config) AppFile() string {
	return filepath.Join(c.RootDir, "config", AppFileName)
}

// WriteConfigFiles writes config.toml with the cometbft template and
// app.toml with ours.
func WriteConfigFiles(c *Config) error {
	if err := cmtos.EnsureDir(filepath.Dir(c.ConfigFile()), DefaultDirPerm); err != nil {
		return err
	}
	config.WriteConfigFile(c.ConfigFile(), c.Config)
	WriteAppConfigFile(c.AppFile(), c.App)
	return nil
}

// Load reads config.toml and merges app.toml over it. A missing app.toml
// leaves the app defaults in place.
func Load(home string) (cfg *Config, err error) {
	cfg = NewConfig(home)
	home = cfg.RootDir

	v := viper.New()
	v.SetConfigFile(cfg.ConfigFile())
	if err = v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if _, err = os.Stat(cfg.AppFile()); err == nil {
		v.SetConfigFile(cfg.AppFile())
		if err = v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading app config: %w", err)
		}
	}
	if err = v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.SetRoot(home)
	cfg.App.Home = home
	if err = cfg.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid configuration data: %w", err)
	}
	return
}

func InitializeNodeValidatorFiles(config *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	if err = cmtos.EnsureDir(filepath.Dir(config.NodeKeyFile()), DefaultDirPerm); err != nil {
		return "", nil, err
	}
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func DefaultCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 3
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	cometConfig.Instrumentation.Prometheus = true
	return cometConfig
}
