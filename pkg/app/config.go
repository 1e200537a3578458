package app

import (
	"github.com/spf13/viper"
)

// Key source types.
const (
	KeySourceDir = "dir"
	KeySourceCLI = "cli"
)

// Program registry types.
const (
	ProgramRegistryDeployDir = "deploy_dir"
	ProgramRegistryManifest  = "manifest"
)

// EndpointMemory runs every workflow against an in-process ledger with
// simulated programs.
const EndpointMemory = "memory"

type KeySourceConfig struct {
	// Type is one of dir or cli.
	Type string `mapstructure:"type"`

	// Path is the solana CLI config file for the cli type. It's unused by
	// the dir type.
	Path string `mapstructure:"path"`

	// WalletsDir holds the named wallets, and the local wallet for the dir
	// type.
	WalletsDir string `mapstructure:"wallets_dir"`
}

type ProgramRegistryConfig struct {
	// Type is one of deploy_dir or manifest.
	Type string `mapstructure:"type"`

	// Path is the deploy directory or the TOML manifest file.
	Path string `mapstructure:"path"`
}

// Config is the client configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	// Endpoint is an RPC URL, a cluster moniker (local, devnet, testnet,
	// mainnet) or memory. When empty, the cli key source's json_rpc_url is
	// used, falling back to local.
	Endpoint   string `mapstructure:"endpoint"`
	Commitment string `mapstructure:"commitment"`

	// RPCRateLimit is the number of requests per second allowed per RPC
	// method. Zero disables limiting.
	RPCRateLimit float64 `mapstructure:"rpc_rate_limit"`

	KeySource       KeySourceConfig       `mapstructure:"key_source"`
	ProgramRegistry ProgramRegistryConfig `mapstructure:"program_registry"`
}

var defaultConfig = Config{
	LogLevel: "info",

	Commitment: "confirmed",

	KeySource: KeySourceConfig{
		Type:       KeySourceCLI,
		WalletsDir: "wallets",
	},

	ProgramRegistry: ProgramRegistryConfig{
		Type: ProgramRegistryDeployDir,
		Path: "contracts/target/deploy",
	},
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	_ = v.BindEnv("endpoint", "ENDPOINT")
	_ = v.BindEnv("commitment", "COMMITMENT")
	_ = v.BindEnv("rpc_rate_limit", "RPC_RATE_LIMIT")

	_ = v.BindEnv("key_source.type", "KEY_SOURCE_TYPE")
	_ = v.BindEnv("key_source.path", "KEY_SOURCE_PATH")
	_ = v.BindEnv("key_source.wallets_dir", "KEY_SOURCE_WALLETS_DIR")

	_ = v.BindEnv("program_registry.type", "PROGRAM_REGISTRY_TYPE")
	_ = v.BindEnv("program_registry.path", "PROGRAM_REGISTRY_PATH")
}
