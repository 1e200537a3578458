package rpc

import (
	"time"

	"github.com/code-payments/program-client/pkg/config"
	"github.com/code-payments/program-client/pkg/config/env"
	"github.com/code-payments/program-client/pkg/config/memory"
	"github.com/code-payments/program-client/pkg/config/wrapper"
)

const (
	envConfigPrefix = "LEDGER_RPC_"

	CommitmentConfigEnvName = envConfigPrefix + "COMMITMENT"
	defaultCommitment       = "confirmed"

	ConfirmTimeoutConfigEnvName = envConfigPrefix + "CONFIRM_TIMEOUT"
	defaultConfirmTimeout       = time.Minute

	BlockhashAttemptsConfigEnvName = envConfigPrefix + "BLOCKHASH_ATTEMPTS"
	defaultBlockhashAttempts       = 3
)

type conf struct {
	commitment        config.String
	confirmTimeout    config.Duration
	blockhashAttempts config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			commitment:        env.NewStringConfig(CommitmentConfigEnvName, defaultCommitment),
			confirmTimeout:    env.NewDurationConfig(ConfirmTimeoutConfigEnvName, defaultConfirmTimeout),
			blockhashAttempts: env.NewUint64Config(BlockhashAttemptsConfigEnvName, defaultBlockhashAttempts),
		}
	}
}

// WithCommitment pulls configuration from environment variables, except for
// the commitment level which is fixed.
func WithCommitment(commitment string) ConfigProvider {
	return func() *conf {
		c := WithEnvConfigs()()
		c.commitment = wrapper.NewStringConfig(memory.NewConfig(commitment), defaultCommitment)
		return c
	}
}

type testOverrides struct {
	commitment     string
	confirmTimeout time.Duration
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			commitment:        wrapper.NewStringConfig(memory.NewConfig(overrides.commitment), defaultCommitment),
			confirmTimeout:    wrapper.NewDurationConfig(memory.NewConfig(overrides.confirmTimeout), defaultConfirmTimeout),
			blockhashAttempts: wrapper.NewUint64Config(memory.NewConfig(uint64(defaultBlockhashAttempts)), defaultBlockhashAttempts),
		}
	}
}
