package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/rpcconsole/internal/logger"
)

// SeedWriter writes degrade entries to the remote source.
type SeedWriter interface {
	SaveDegrades(ctx context.Context, names ...string) error
	DeleteDegrades(ctx context.Context, names ...string) error
}

// DegradeSeeder applies configured additions and removals to the remote
// degrade set on startup, before the first pull.
type DegradeSeeder struct {
	writer SeedWriter
	logger logger.Logger
}

func NewDegradeSeeder(writer SeedWriter, log logger.Logger) *DegradeSeeder {
	return &DegradeSeeder{
		writer: writer,
		logger: log,
	}
}

// Seed adds names to the remote set. Existing members are kept.
func (ds *DegradeSeeder) Seed(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	ds.logger.Info("seeding remote degrade set", logger.Strings("services", names))

	if err := ds.writer.SaveDegrades(ctx, names...); err != nil {
		return err
	}

	ds.logger.Info("remote degrade set seeded", logger.Int("count", len(names)))
	return nil
}

// Unseed removes names from the remote set, for services restored while
// the node was down.
func (ds *DegradeSeeder) Unseed(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	if err := ds.writer.DeleteDegrades(ctx, names...); err != nil {
		return err
	}

	ds.logger.Info("removed services from remote degrade set", logger.Strings("services", names))
	return nil
}
