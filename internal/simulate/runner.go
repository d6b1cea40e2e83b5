package simulate

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/pairank/internal/app"
	"github.com/okian/pairank/pkg/logger"
)

type namesLoader []string

func (l namesLoader) Load(context.Context) ([]string, error) {
	return l, nil
}

// Run ranks the configured items against a seeded oracle. With a BaseURL the
// items are ranked by a remote server, otherwise by an in-process scheduler.
func Run(ctx context.Context, cfg Config, opts ...app.Option) (Report, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return Report{}, err
	}
	names := cfg.Names
	if len(names) == 0 {
		names = generateNames(cfg.Items)
	}
	oracle := NewOracle(names, cfg.Seed)

	cfg.Logger.Info(ctx, "starting simulation",
		logger.Int("items", len(names)),
		logger.Int64("seed", cfg.Seed),
		logger.String("baseURL", cfg.BaseURL))

	if cfg.BaseURL != "" {
		return runRemote(ctx, cfg, names, oracle)
	}
	return runLocal(ctx, cfg.Logger, names, oracle, opts...)
}

func runLocal(ctx context.Context, l logger.Logger, names []string, oracle *Oracle, opts ...app.Option) (Report, error) {
	start := time.Now()
	s := app.New(opts...)
	if err := s.Start(ctx); err != nil {
		return Report{}, fmt.Errorf("start scheduler: %w", err)
	}
	defer func() {
		if err := s.Stop(context.WithoutCancel(ctx)); err != nil {
			l.Warn(ctx, "stop scheduler", logger.Error(err))
		}
	}()

	session := app.NewSession(s, oracle, l)
	if _, err := session.Load(ctx, namesLoader(names)); err != nil {
		return Report{}, err
	}
	res, err := session.Run(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("run session: %w", err)
	}

	ranked := make([]string, len(res.Entries))
	allLocked := true
	for i, e := range res.Entries {
		ranked[i] = e.Name
		allLocked = allLocked && e.Locked
	}
	rep := Report{Comparisons: res.Comparisons, Duration: time.Since(start)}
	finish(&rep, ranked, oracle.Truth(), allLocked)
	return rep, nil
}
