package cli

import (
	"context"
	"fmt"

	"github.com/hupe1980/hbswatch/internal/compiler"
	"github.com/hupe1980/hbswatch/internal/config"
	"github.com/hupe1980/hbswatch/internal/filter"
	"github.com/hupe1980/hbswatch/internal/logging"
	"github.com/hupe1980/hbswatch/internal/runner"
)

// newRunner builds a runner from the configuration stored in ctx.
// Configuration problems are reported with exit code 2.
func newRunner(ctx context.Context) (*runner.Runner, *filter.Matcher, error) {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	matcher, err := filter.NewMatcher(cfg.Watch)
	if err != nil {
		return nil, nil, &ExitError{Code: 2, Err: err}
	}

	rules, err := loadRules(cfg.ConfigFile)
	if err != nil {
		return nil, nil, &ExitError{Code: 2, Err: err}
	}

	c, err := compiler.New(cfg.Compiler,
		compiler.WithBinary(cfg.HandlebarsBin),
		compiler.WithVersionConstraint(cfg.HandlebarsVersion),
	)
	if err != nil {
		return nil, nil, &ExitError{Code: 2, Err: err}
	}

	r, err := runner.New(c, runner.Options{
		Root:             cfg.Dir,
		OutputFolder:     cfg.OutputFolder,
		RegisterPartials: cfg.RegisterPartials,
		RunAtStart:       cfg.RunAtStart,
		Quiet:            cfg.Quiet,
		Extension:        cfg.Extension,
		Matcher:          matcher,
		Rules:            rules,
		Logger:           logger,
	})
	if err != nil {
		return nil, nil, &ExitError{Code: 2, Err: err}
	}

	return r, matcher, nil
}

// loadRules reads the rules section of the config file in use.
func loadRules(path string) (*filter.Rules, error) {
	rc, err := config.LoadRules(path)
	if err != nil {
		return nil, err
	}

	if rc.IsEmpty() {
		return nil, nil
	}

	rules := make([]filter.Rule, 0, len(rc.Rules))
	for _, r := range rc.Rules {
		rules = append(rules, filter.Rule{
			Pattern:      r.Match,
			Partial:      r.Partial,
			OutputFolder: r.OutputFolder,
		})
	}

	compiled, err := filter.NewRules(rules)
	if err != nil {
		return nil, fmt.Errorf("compiling rules: %w", err)
	}

	return compiled, nil
}
