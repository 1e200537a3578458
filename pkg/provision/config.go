package provision

import (
	"github.com/code-payments/program-client/pkg/config"
	"github.com/code-payments/program-client/pkg/config/env"
	"github.com/code-payments/program-client/pkg/config/memory"
	"github.com/code-payments/program-client/pkg/config/wrapper"
)

const (
	envConfigPrefix = "PROVISIONER_"

	DefaultFundingLamportsConfigEnvName = envConfigPrefix + "DEFAULT_FUNDING_LAMPORTS"
	defaultDefaultFundingLamports       = 0
)

type conf struct {
	defaultFundingLamports config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			defaultFundingLamports: env.NewUint64Config(DefaultFundingLamportsConfigEnvName, defaultDefaultFundingLamports),
		}
	}
}

type testOverrides struct {
	defaultFundingLamports uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			defaultFundingLamports: wrapper.NewUint64Config(memory.NewConfig(overrides.defaultFundingLamports), defaultDefaultFundingLamports),
		}
	}
}
