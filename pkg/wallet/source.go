package wallet

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"os"
	"path/filepath"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/code-payments/program-client/pkg/sync"
)

// DefaultWalletsDir is where named wallets are kept unless configured otherwise.
const DefaultWalletsDir = "wallets"

// LocalWalletName is the named wallet DirKeySource uses as its local account.
const LocalWalletName = "local"

// KeySource supplies signing keys.
type KeySource interface {
	// Local returns the account that pays for and signs client operations.
	Local(ctx context.Context) (ed25519.PrivateKey, error)

	// Named returns the wallet with the given name, creating it on first use.
	// Named wallets are deterministic: the same name always yields the same key.
	Named(ctx context.Context, name string) (ed25519.PrivateKey, error)
}

// DeriveNamedKey returns the key whose seed is sha256(name).
func DeriveNamedKey(name string) ed25519.PrivateKey {
	seed := sha256.Sum256([]byte(name))
	return ed25519.NewKeyFromSeed(seed[:])
}

// DirKeySource keeps named wallets as keypair files in a directory.
type DirKeySource struct {
	log   *logrus.Entry
	dir   string
	locks *sync.StripedLock
}

func NewDirKeySource(dir string) *DirKeySource {
	if dir == "" {
		dir = DefaultWalletsDir
	}

	return &DirKeySource{
		log:   logrus.StandardLogger().WithField("type", "wallet/dir"),
		dir:   dir,
		locks: sync.NewStripedLock(16),
	}
}

// Path returns the keypair file of the named wallet.
func (s *DirKeySource) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Local implements KeySource.Local
func (s *DirKeySource) Local(ctx context.Context) (ed25519.PrivateKey, error) {
	return s.Named(ctx, LocalWalletName)
}

// Named implements KeySource.Named
func (s *DirKeySource) Named(ctx context.Context, name string) (ed25519.PrivateKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, errors.Errorf("invalid wallet name %q", name)
	}

	log := s.log.WithFields(logrus.Fields{
		"method": "Named",
		"wallet": name,
	})

	unlock := s.locks.Lock([]byte(name))
	defer unlock()

	path := s.Path(name)
	key, err := ReadKeypairFile(path)
	if err == nil {
		return key, nil
	} else if !errors.Is(err, ErrKeypairNotFound) {
		log.WithError(err).Warn("failed to load wallet")
		return nil, err
	}

	key = DeriveNamedKey(name)
	err = WriteKeypairFile(path, key)
	if errors.Is(err, ErrKeypairExists) {
		// Created concurrently. Whatever is on disk is the wallet.
		return ReadKeypairFile(path)
	} else if err != nil {
		return nil, err
	}

	log.WithField("address", base58.Encode(key.Public().(ed25519.PublicKey))).Info("created wallet")
	return key, nil
}

// CLIConfig is the subset of the solana CLI config.yml used by the client.
type CLIConfig struct {
	KeypairPath string `mapstructure:"keypair_path"`
	JSONRPCURL  string `mapstructure:"json_rpc_url"`
}

// DefaultCLIConfigPath returns ~/.config/solana/cli/config.yml.
func DefaultCLIConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, ".config", "solana", "cli", "config.yml"), nil
}

// LoadCLIConfig reads a solana CLI config file.
func LoadCLIConfig(path string) (*CLIConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read solana cli config %s", path)
	}

	var config CLIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal solana cli config %s", path)
	}

	if strings.HasPrefix(config.KeypairPath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve home directory")
		}
		config.KeypairPath = filepath.Join(home, config.KeypairPath[2:])
	}

	return &config, nil
}

// CLIKeySource uses the keypair configured for the solana CLI as the local
// account. Named wallets are kept in a directory.
type CLIKeySource struct {
	*DirKeySource
	configPath string
}

// NewCLIKeySource returns a key source reading configPath, or the default CLI
// config location if it is empty.
func NewCLIKeySource(configPath, walletsDir string) (*CLIKeySource, error) {
	if configPath == "" {
		var err error
		configPath, err = DefaultCLIConfigPath()
		if err != nil {
			return nil, err
		}
	}

	return &CLIKeySource{
		DirKeySource: NewDirKeySource(walletsDir),
		configPath:   configPath,
	}, nil
}

// Local implements KeySource.Local
func (s *CLIKeySource) Local(ctx context.Context) (ed25519.PrivateKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	config, err := LoadCLIConfig(s.configPath)
	if err != nil {
		return nil, err
	}
	if config.KeypairPath == "" {
		return nil, errors.Errorf("no keypair_path in %s", s.configPath)
	}

	key, err := ReadKeypairFile(config.KeypairPath)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"method":  "Local",
		"address": base58.Encode(key.Public().(ed25519.PublicKey)),
	}).Debug("loaded cli keypair")

	return key, nil
}
