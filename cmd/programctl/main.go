package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-client/pkg/app"
	"github.com/code-payments/program-client/pkg/workflow"
)

var (
	configPath = flag.String("config", "config.yaml", "configuration file path")
	program    = flag.String("program", "", "program to run ("+strings.Join(workflow.Names(), ", ")+")")
)

func main() {
	flag.Parse()

	log := logrus.StandardLogger().WithField("type", "programctl")

	if *program == "" {
		log.Errorf("a program name (%s) must be provided with --program", strings.Join(workflow.Names(), ", "))
		os.Exit(1)
	}

	config, err := app.Load(*configPath)
	if err != nil {
		log.WithError(err).Error("failed to load config")
		os.Exit(1)
	}
	app.ConfigureLogger(config)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env, err := app.NewEnv(ctx, config)
	if err != nil {
		log.WithError(err).Error("failed to initialize client")
		os.Exit(1)
	}

	log.WithField("program", *program).Info("running program")
	if err := workflow.Run(ctx, *program, env); err != nil {
		log.WithError(err).Error("program failed")
		os.Exit(1)
	}
}
