package workflow

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-client/pkg/solana/calculator"
	"github.com/code-payments/program-client/pkg/solana/hello"
	"github.com/code-payments/program-client/pkg/solana/tokens"
	"github.com/code-payments/program-client/pkg/solana/transfersol"
)

var ErrUnknownWorkflow = errors.New("unknown workflow")

// Workflow runs a single client flow against env.
type Workflow func(ctx context.Context, env *Env) error

var workflows = map[string]Workflow{
	hello.Name: func(ctx context.Context, env *Env) error {
		_, err := RunHello(ctx, env)
		return err
	},
	calculator.Name: func(ctx context.Context, env *Env) error {
		_, err := RunCalculator(ctx, env)
		return err
	},
	transfersol.Name: func(ctx context.Context, env *Env) error {
		_, err := RunTransferSol(ctx, env)
		return err
	},
	tokens.Name: func(ctx context.Context, env *Env) error {
		_, err := RunTokens(ctx, env)
		return err
	},
}

// Names returns the runnable workflows, sorted.
func Names() []string {
	names := make([]string, 0, len(workflows))
	for name := range workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the named workflow.
func Run(ctx context.Context, name string, env *Env) error {
	w, ok := workflows[name]
	if !ok {
		return errors.Wrapf(ErrUnknownWorkflow, "%q is not a valid program, valid programs are: %s", name, strings.Join(Names(), ", "))
	}

	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"type":     "workflow",
		"method":   "Run",
		"workflow": name,
	})

	log.Info("running workflow")
	if err := w(ctx, env); err != nil {
		log.WithError(err).Warn("workflow failed")
		return errors.Wrapf(err, "%s failed", name)
	}
	log.Info("workflow completed")
	return nil
}
