// Package app loads the client configuration and builds the workflow
// environment it describes.
package app

import (
	"context"
	"crypto/ed25519"
	"os"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/code-payments/program-client/pkg/ledger/memory"
	"github.com/code-payments/program-client/pkg/ledger/memory/simulated"
	"github.com/code-payments/program-client/pkg/ledger/rpc"
	"github.com/code-payments/program-client/pkg/programs"
	"github.com/code-payments/program-client/pkg/rate"
	"github.com/code-payments/program-client/pkg/solana"
	"github.com/code-payments/program-client/pkg/solana/calculator"
	"github.com/code-payments/program-client/pkg/solana/hello"
	"github.com/code-payments/program-client/pkg/solana/tokens"
	"github.com/code-payments/program-client/pkg/solana/transfersol"
	"github.com/code-payments/program-client/pkg/wallet"
	"github.com/code-payments/program-client/pkg/workflow"
)

// Load reads the configuration at path, if it exists, on top of the defaults.
// Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	bindEnv(v)

	// viper.ReadInConfig only returns ConfigFileNotFoundError if it has to search
	// for a default config file because one hasn't been explicitly set. That is,
	// if we explicitly set a config file, and it does not exist, viper will not
	// return a ConfigFileNotFoundError, so we do it ourselves.
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to check if config exists")
	}

	err := v.ReadInConfig()
	_, isConfigNotFound := err.(viper.ConfigFileNotFoundError)
	if err != nil && !isConfigNotFound {
		return nil, errors.Wrap(err, "failed to load config")
	}

	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	return &config, nil
}

// ConfigureLogger applies the configured log level to the standard logger.
func ConfigureLogger(config *Config) {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stdout)
}

// NewKeySource returns the configured key source.
func NewKeySource(config *Config) (wallet.KeySource, error) {
	switch config.KeySource.Type {
	case KeySourceDir:
		return wallet.NewDirKeySource(config.KeySource.WalletsDir), nil
	case KeySourceCLI:
		return wallet.NewCLIKeySource(config.KeySource.Path, config.KeySource.WalletsDir)
	}
	return nil, errors.Errorf("unknown key source type %q", config.KeySource.Type)
}

// NewProgramRegistry returns the configured program registry.
func NewProgramRegistry(config *Config) (programs.Registry, error) {
	switch config.ProgramRegistry.Type {
	case ProgramRegistryDeployDir:
		info, err := os.Stat(config.ProgramRegistry.Path)
		if err != nil || !info.IsDir() {
			return nil, errors.Errorf("deploy directory %s not found, make sure the programs are deployed", config.ProgramRegistry.Path)
		}
		return programs.NewDeployDirRegistry(config.ProgramRegistry.Path), nil
	case ProgramRegistryManifest:
		return programs.LoadManifest(config.ProgramRegistry.Path)
	}
	return nil, errors.Errorf("unknown program registry type %q", config.ProgramRegistry.Type)
}

// ResolveEndpoint returns the RPC URL the client talks to, or EndpointMemory.
func ResolveEndpoint(config *Config) (string, error) {
	endpoint := strings.TrimSpace(config.Endpoint)
	if strings.EqualFold(endpoint, EndpointMemory) {
		return EndpointMemory, nil
	}

	if endpoint == "" && config.KeySource.Type == KeySourceCLI {
		path := config.KeySource.Path
		if path == "" {
			var err error
			path, err = wallet.DefaultCLIConfigPath()
			if err != nil {
				return "", err
			}
		}

		if cliConfig, err := wallet.LoadCLIConfig(path); err == nil {
			endpoint = cliConfig.JSONRPCURL
		}
	}

	if endpoint == "" {
		endpoint = string(solana.EnvironmentLocal)
	}
	return solana.ResolveEndpoint(endpoint)
}

// NewEnv builds the workflow environment described by config.
func NewEnv(ctx context.Context, config *Config) (*workflow.Env, error) {
	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"type":   "app",
		"method": "NewEnv",
	})

	keys, err := NewKeySource(config)
	if err != nil {
		return nil, err
	}

	endpoint, err := ResolveEndpoint(config)
	if err != nil {
		return nil, err
	}

	if endpoint == EndpointMemory {
		return newMemoryEnv(ctx, keys)
	}

	registry, err := NewProgramRegistry(config)
	if err != nil {
		return nil, err
	}

	commitment, err := solana.CommitmentFromString(config.Commitment)
	if err != nil {
		return nil, err
	}

	client := solana.NewWithRPCOptions(endpoint, nil, rate.NewLocalRateLimiterCtor()(config.RPCRateLimit))
	l := rpc.New(client, rpc.WithCommitment(config.Commitment))

	log.WithFields(logrus.Fields{
		"endpoint":   endpoint,
		"commitment": commitment.Commitment,
	}).Debug("using rpc ledger")

	return workflow.NewEnv(l, client, keys, registry)
}

// newMemoryEnv returns an environment over an in-process ledger. Programs get
// fresh ids and the local account is funded.
func newMemoryEnv(ctx context.Context, keys wallet.KeySource) (*workflow.Env, error) {
	l := memory.New()

	ids := programs.StaticRegistry{}
	for _, name := range []string{hello.Name, calculator.Name, transfersol.Name, tokens.Name} {
		id, _, err := ed25519.GenerateKey(nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate program id")
		}
		ids[name] = id
	}
	simulated.Register(l, ids)

	local, err := keys.Local(ctx)
	if err != nil {
		return nil, err
	}
	if err := wallet.Airdrop(ctx, l, local.Public().(ed25519.PublicKey), wallet.DefaultAirdropLamports); err != nil {
		return nil, err
	}

	logrus.StandardLogger().WithFields(logrus.Fields{
		"type":  "app",
		"local": base58.Encode(local.Public().(ed25519.PublicKey)),
	}).Info("using in-memory ledger")

	return workflow.NewEnv(l, l, keys, ids)
}
