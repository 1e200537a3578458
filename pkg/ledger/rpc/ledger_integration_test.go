//go:build integration

package rpc

import (
	"os"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-client/pkg/ledger/rpc/test"
	"github.com/code-payments/program-client/pkg/ledger/tests"
	"github.com/code-payments/program-client/pkg/solana"
)

var testClient solana.Client

func TestMain(m *testing.M) {
	log := logrus.StandardLogger()

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.WithError(err).Error("Error creating docker pool")
		os.Exit(1)
	}

	client, closeFunc, err := test.StartValidator(pool)
	if err != nil {
		log.WithError(err).Error("Error starting validator")
		os.Exit(1)
	}
	testClient = client

	code := m.Run()
	closeFunc()
	os.Exit(code)
}

func TestLedger_Validator(t *testing.T) {
	l := New(testClient, WithCommitment("confirmed"))
	tests.RunTests(t, l, func() {})
}
