package migration

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/lock"
	"github.com/prn-tf/tradehub/internal/metrics"
	"github.com/prn-tf/tradehub/internal/repository"
	"github.com/prn-tf/tradehub/internal/schema"
	"github.com/prn-tf/tradehub/internal/service"
)

// Report summarizes one run.
type Report struct {
	FromVersion string      `json:"fromVersion"`
	ToVersion   string      `json:"toVersion"`
	UpToDate    bool        `json:"upToDate"`
	Scanned     int         `json:"scanned"`
	Migrated    int         `json:"migrated"`
	Failed      int         `json:"failed"`
	Seeded      *SeedReport `json:"seeded,omitempty"`
}

// Runner brings every stored user document to the current layout once and
// seeds an empty store.
type Runner struct {
	store    repository.DocumentStore
	settings repository.SettingsRepository
	seeder   *Seeder
	chain    Chain
	registry *schema.Registry
	locker   lock.Locker
	clock    service.Clock
	metrics  *metrics.Metrics
	target   string
	logger   zerolog.Logger
}

// RunnerConfig holds the dependencies of a Runner. A nil Seeder disables seeding.
type RunnerConfig struct {
	Store    repository.DocumentStore
	Settings repository.SettingsRepository
	Seeder   *Seeder
	Chain    Chain
	Locker   lock.Locker
	Clock    service.Clock
	Metrics  *metrics.Metrics
	Target   string
	Logger   zerolog.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Chain == nil {
		cfg.Chain = DefaultChain()
	}
	if cfg.Locker == nil {
		cfg.Locker = lock.NewNoOpLocker()
	}
	if cfg.Clock == nil {
		cfg.Clock = service.SystemClock{}
	}
	if cfg.Target == "" {
		cfg.Target = TargetVersion
	}
	return &Runner{
		store:    cfg.Store,
		settings: cfg.Settings,
		seeder:   cfg.Seeder,
		chain:    cfg.Chain,
		registry: schema.NewRegistry(),
		locker:   cfg.Locker,
		clock:    cfg.Clock,
		metrics:  cfg.Metrics,
		target:   cfg.Target,
		logger:   cfg.Logger.With().Str("component", "migration").Logger(),
	}
}

// CurrentVersion returns the stored marker, or "0.0.0" when absent.
func (r *Runner) CurrentVersion(ctx context.Context) (string, error) {
	setting, err := r.settings.Get(ctx, domain.SchemaVersionSettingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return "0.0.0", nil
		}
		return "", fmt.Errorf("read version marker: %w", err)
	}
	return setting.Value, nil
}

// Run migrates and seeds when the marker is below the target. Failures of
// single documents and of seeding are logged and counted; only failures to
// read the store or write the marker are returned.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	var report *Report
	err := lock.WithLock(ctx, r.locker, lock.Keys.DocumentMigration(), func(ctx context.Context) error {
		var err error
		report, err = r.run(ctx)
		return err
	})
	return report, err
}

func (r *Runner) run(ctx context.Context) (*Report, error) {
	from, err := r.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}
	report := &Report{FromVersion: from, ToVersion: from}

	if CompareVersions(from, r.target) >= 0 {
		report.UpToDate = true
		r.logger.Debug().Str("version", from).Msg("document store is up to date")
		return report, nil
	}
	r.logger.Info().Str("from", from).Str("to", r.target).Msg("migrating documents")

	if err := r.migrateUsers(ctx, report); err != nil {
		return report, err
	}

	if r.seeder != nil {
		n, err := r.store.Count(ctx, repository.CollectionUsers)
		if err != nil {
			return report, fmt.Errorf("count users: %w", err)
		}
		if n == 0 {
			seeded, err := r.seeder.Seed(ctx)
			report.Seeded = &seeded
			if err != nil {
				r.logger.Error().Err(err).Msg("seeding failed")
			}
		}
	}

	if err := r.writeMarker(ctx); err != nil {
		return report, err
	}
	report.ToVersion = r.target

	r.metrics.ObserveMigrated(report.Migrated)
	r.logger.Info().
		Int("scanned", report.Scanned).
		Int("migrated", report.Migrated).
		Int("failed", report.Failed).
		Str("version", r.target).
		Msg("document migration complete")

	return report, nil
}

func (r *Runner) migrateUsers(ctx context.Context, report *Report) error {
	docs, err := r.store.Query(ctx, repository.CollectionUsers, repository.Query{})
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}

	now := r.clock.Now()
	for _, doc := range docs {
		report.Scanned++
		id := stringField(doc, "id")
		if id == "" {
			report.Failed++
			r.logger.Error().Msg("skipping user document without id")
			continue
		}

		upgraded, changed, err := r.chain.Upgrade(doc, now)
		if err != nil {
			report.Failed++
			r.logger.Error().Err(err).Str("user_id", id).Msg("failed to migrate user")
			continue
		}
		if !changed {
			continue
		}

		if violations, err := r.registry.Conform(schema.KindUser, upgraded); err == nil && len(violations) > 0 {
			for _, v := range violations {
				r.logger.Warn().Str("user_id", id).Str("violation", v.String()).Msg("migrated user does not conform")
			}
		}

		if err := r.store.Put(ctx, repository.CollectionUsers, id, upgraded); err != nil {
			report.Failed++
			r.logger.Error().Err(err).Str("user_id", id).Msg("failed to store migrated user")
			continue
		}
		report.Migrated++
	}
	return nil
}

func (r *Runner) writeMarker(ctx context.Context) error {
	err := r.settings.Put(ctx, &domain.SystemSetting{
		ID:          domain.SchemaVersionSettingID,
		Category:    "system",
		Key:         domain.SchemaVersionSettingID,
		Value:       r.target,
		Type:        "string",
		Description: "Document layout version",
		UpdatedAt:   r.clock.Now(),
		UpdatedBy:   "migration",
	})
	if err != nil {
		return fmt.Errorf("write version marker: %w", err)
	}
	return nil
}

// Reset deletes every document in every collection and returns how many
// were removed.
func Reset(ctx context.Context, store repository.DocumentStore, logger zerolog.Logger) (int, error) {
	total := 0
	for _, c := range repository.Collections {
		docs, err := store.Query(ctx, c, repository.Query{})
		if err != nil {
			return total, fmt.Errorf("list %s: %w", c, err)
		}
		for _, doc := range docs {
			id := stringField(doc, "id")
			if c == repository.CollectionMarketData && id == "" {
				id = stringField(doc, "symbol")
			}
			if err := store.Delete(ctx, c, id); err != nil && !repository.IsNotFound(err) {
				return total, fmt.Errorf("delete %s/%s: %w", c, id, err)
			}
			total++
		}
		logger.Info().Str("collection", c).Int("deleted", len(docs)).Msg("collection cleared")
	}
	return total, nil
}
