package testrunner

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	"motodealer-backend-tests/checks"
	"motodealer-backend-tests/report"
)

// Runner executes checks one after another. A failing or panicking check
// never stops the ones after it.
type Runner struct {
	env      *checks.Env
	checks   []checks.Check
	out      io.Writer
	log      logrus.FieldLogger
	progress func(string)
}

// New creates a runner printing check output to out
func New(env *checks.Env, out io.Writer, logger logrus.FieldLogger, list ...checks.Check) *Runner {
	return &Runner{
		env:    env,
		checks: list,
		out:    out,
		log:    logger,
	}
}

// OnProgress registers a callback invoked after each check
func (r *Runner) OnProgress(fn func(string)) {
	r.progress = fn
}

// Run executes every check and returns their results grouped in execution order
func (r *Runner) Run(ctx context.Context) []report.Group {
	groups := make([]report.Group, 0, len(r.checks))
	for i, c := range r.checks {
		log := report.NewLog(r.out)
		start := time.Now()

		r.runCheck(ctx, c, log)

		g := report.NewGroup(c.Name(), log.Results(), time.Since(start))
		groups = append(groups, g)

		r.log.WithFields(logrus.Fields{
			"check":    g.Name,
			"passed":   g.PassedCount,
			"failed":   g.FailedCount,
			"duration": g.Duration.String(),
		}).Debug("check finished")
		if r.progress != nil {
			r.progress(fmt.Sprintf("[%d/%d] %s: %d passed, %d failed", i+1, len(r.checks), g.Name, g.PassedCount, g.FailedCount))
		}
	}
	return groups
}

func (r *Runner) runCheck(ctx context.Context, c checks.Check, log *report.Log) {
	defer func() {
		if p := recover(); p != nil {
			r.log.WithField("check", c.Name()).
				WithField("stack", string(debug.Stack())).
				Errorf("check panicked: %v", p)
			log.Fail(c.Name(), fmt.Sprintf("Unexpected error: %v", p), report.Details{"error": fmt.Sprint(p)})
		}
	}()
	c.Run(ctx, r.env, log)
}

// ExitCode maps a run summary to a process exit status. Failures only
// change the status when strict is set.
func ExitCode(s report.Summary, strict bool) int {
	if strict && s.FailedTests > 0 {
		return 1
	}
	return 0
}
