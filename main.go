package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"motodealer-backend-tests/checks"
	"motodealer-backend-tests/config"
	"motodealer-backend-tests/report"
	"motodealer-backend-tests/testrunner"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	// Settings file values take precedence over the exported environment
	settingsFile := config.SettingsFilePath()
	loaded, err := config.LoadSettingsFile(settingsFile)
	if err != nil {
		logger.WithError(err).Warn("settings file ignored, using exported environment")
	}

	opts, err := config.LoadOptions()
	if err != nil {
		logger.WithError(err).Error("invalid harness options")
		return 2
	}
	logger.SetLevel(opts.LogLevel)

	users, err := config.LoadUsers(opts.FixturesFile)
	if err != nil {
		logger.WithError(err).Error("could not load fixture users")
		return 2
	}

	runID := uuid.NewString()
	log := logger.WithField("run_id", runID)
	log.WithFields(logrus.Fields{
		"settings_file": settingsFile,
		"loaded":        loaded,
		"users":         len(users),
	}).Debug("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env := checks.NewEnv(config.SettingsFromEnv(), opts, users, runID, log)

	fmt.Println("🚀 Starting MotoDealer SaaS Backend Testing Suite")
	fmt.Println(strings.Repeat("=", 60))

	runner := testrunner.New(env, os.Stdout, log, checks.Default()...)
	runner.OnProgress(func(msg string) { log.Info(msg) })
	groups := runner.Run(ctx)

	reporter := report.NewReporter(os.Stdout, log)
	summary := reporter.Print(groups)

	artifact := report.NewArtifact(runID, report.Flatten(groups), time.Now())
	if err := reporter.Save(opts.ResultsFile, artifact); err != nil {
		fmt.Printf("\n❌ Could not save results: %v\n", err)
		log.WithError(err).Error("results not saved")
	}

	return testrunner.ExitCode(summary, opts.StrictExit)
}
