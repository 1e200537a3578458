package dispatch

import (
	"github.com/code-payments/program-client/pkg/config"
	"github.com/code-payments/program-client/pkg/config/env"
	"github.com/code-payments/program-client/pkg/config/memory"
	"github.com/code-payments/program-client/pkg/config/wrapper"
)

const (
	envConfigPrefix = "DISPATCHER_"

	DefaultComputeUnitPriceConfigEnvName = envConfigPrefix + "DEFAULT_COMPUTE_UNIT_PRICE"
	defaultDefaultComputeUnitPrice       = 0

	AttachSubmissionMemoConfigEnvName = envConfigPrefix + "ATTACH_SUBMISSION_MEMO"
	defaultAttachSubmissionMemo       = false
)

type conf struct {
	defaultComputeUnitPrice config.Uint64
	attachSubmissionMemo    config.Bool
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			defaultComputeUnitPrice: env.NewUint64Config(DefaultComputeUnitPriceConfigEnvName, defaultDefaultComputeUnitPrice),
			attachSubmissionMemo:    env.NewBoolConfig(AttachSubmissionMemoConfigEnvName, defaultAttachSubmissionMemo),
		}
	}
}

type testOverrides struct {
	defaultComputeUnitPrice uint64
	attachSubmissionMemo    bool
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			defaultComputeUnitPrice: wrapper.NewUint64Config(memory.NewConfig(overrides.defaultComputeUnitPrice), defaultDefaultComputeUnitPrice),
			attachSubmissionMemo:    wrapper.NewBoolConfig(memory.NewConfig(overrides.attachSubmissionMemo), defaultAttachSubmissionMemo),
		}
	}
}
