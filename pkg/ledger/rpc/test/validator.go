package test

import (
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-client/pkg/retry"
	"github.com/code-payments/program-client/pkg/retry/backoff"
	"github.com/code-payments/program-client/pkg/solana"
)

const (
	containerName     = "solanalabs/solana"
	containerVersion  = "v1.18.26"
	containerAutoKill = 300 * time.Second

	rpcPort = 8899
)

// StartValidator starts a Docker container running solana-test-validator and
// returns a client connected to its RPC port.
func StartValidator(pool *dockertest.Pool) (client solana.Client, closeFunc func(), err error) {
	closeFunc = func() {}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository:   containerName,
		Tag:          containerVersion,
		Entrypoint:   []string{"solana-test-validator"},
		Cmd:          []string{"--reset", "--quiet", "--ledger", "/tmp/test-ledger"},
		ExposedPorts: []string{fmt.Sprintf("%d/tcp", rpcPort)},
	}, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, closeFunc, errors.Wrap(err, "failed to start resource")
	}

	log := logrus.StandardLogger().WithField("method", "StartValidator")

	// Expire() never returns an error
	_ = resource.Expire(uint(containerAutoKill.Seconds()))

	closeFunc = func() {
		if err := pool.Purge(resource); err != nil {
			log.WithError(err).Warn("failed to cleanup validator resource")
		}
	}

	endpoint := fmt.Sprintf("http://%s", resource.GetHostPort(fmt.Sprintf("%d/tcp", rpcPort)))
	client = solana.New(endpoint)

	_, err = retry.Retry(
		func() error {
			_, err := client.GetSlot(solana.CommitmentFinalized)
			return err
		},
		retry.Limit(120),
		retry.Backoff(backoff.Constant(500*time.Millisecond), 500*time.Millisecond),
	)
	if err != nil {
		closeFunc()
		return nil, func() {}, errors.Wrap(err, "timed out waiting for validator to become available")
	}

	return client, closeFunc, nil
}
