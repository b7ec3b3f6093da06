package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tradejournal/pkg/recordstore"
)

const (
	migrationLeaseKey   = "kdm_journal_migration_lease"
	defaultLeaseTTL     = 30 * time.Second
	defaultLeaseBackoff = 50 * time.Millisecond
)

// MigrationStep upgrades the store from Version-1 to Version. Apply runs in
// the same transaction that advances the generation marker.
type MigrationStep struct {
	Version int
	Name    string
	Apply   func(ctx context.Context, tx *recordstore.Tx) error
}

// MigrationStepError reports the step that failed.
type MigrationStepError struct {
	Version int
	Name    string
	Err     error
}

func (e *MigrationStepError) Error() string {
	return fmt.Sprintf("migration step %d (%s): %v", e.Version, e.Name, e.Err)
}

func (e *MigrationStepError) Unwrap() error {
	return e.Err
}

// MigratorOptions configures a Migrator.
type MigratorOptions struct {
	Steps []MigrationStep
	// CurrentVersion defaults to the highest step version.
	CurrentVersion int
	// LegacyKeys are scalar keys whose presence marks pre-marker data.
	LegacyKeys []string
	Seed       SeedFunc
	Logger     *slog.Logger
	LeaseTTL   time.Duration
	Now        func() time.Time
}

// Migrator brings the store up to the current schema generation.
type Migrator struct {
	store      *recordstore.Store
	steps      map[int]MigrationStep
	current    int
	legacyKeys []string
	seed       SeedFunc
	logger     *slog.Logger
	leaseTTL   time.Duration
	now        func() time.Time

	mu sync.Mutex
}

// MigrationReport describes what a Run did.
type MigrationReport struct {
	From    int   `json:"from"`
	To      int   `json:"to"`
	Fresh   bool  `json:"fresh"`
	Seeded  bool  `json:"seeded"`
	Applied []int `json:"applied"`
}

// MigrationStatus describes the store generation without changing it.
type MigrationStatus struct {
	StoredVersion  int   `json:"stored_version"`
	MarkerPresent  bool  `json:"marker_present"`
	CurrentVersion int   `json:"current_version"`
	Pending        []int `json:"pending"`
	LegacyPresent  bool  `json:"legacy_present"`
}

// NewMigrator validates the step registry and returns a Migrator.
func NewMigrator(store *recordstore.Store, opts MigratorOptions) (*Migrator, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	steps := make(map[int]MigrationStep, len(opts.Steps))
	highest := 0
	for _, step := range opts.Steps {
		if step.Version <= 0 {
			return nil, fmt.Errorf("migration %q: version must be positive", step.Name)
		}
		if step.Apply == nil {
			return nil, fmt.Errorf("migration %d: apply func is required", step.Version)
		}
		if _, ok := steps[step.Version]; ok {
			return nil, fmt.Errorf("migration %d registered twice", step.Version)
		}
		steps[step.Version] = step
		highest = max(highest, step.Version)
	}
	current := opts.CurrentVersion
	if current == 0 {
		current = highest
	}
	if current < highest {
		return nil, fmt.Errorf("current version %d is below registered step %d", current, highest)
	}
	if current <= 0 {
		return nil, errors.New("current version must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ttl := opts.LeaseTTL
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	return &Migrator{
		store:      store,
		steps:      steps,
		current:    current,
		legacyKeys: opts.LegacyKeys,
		seed:       opts.Seed,
		logger:     logger,
		leaseTTL:   ttl,
		now:        now,
	}, nil
}

// CurrentVersion returns the generation the migrator upgrades to.
func (m *Migrator) CurrentVersion() int {
	return m.current
}

// Run upgrades the store. A failing step rolls back, leaves the marker at
// the previous version and stops the run; the next Run retries it in full.
func (m *Migrator) Run(ctx context.Context) (MigrationReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	release, err := m.acquireLease(ctx)
	if err != nil {
		return MigrationReport{}, classifyStoreError("acquire migration lease", err)
	}
	defer release()

	stored, present, err := m.readMarker(ctx)
	if err != nil {
		return MigrationReport{}, err
	}
	report := MigrationReport{From: stored, To: stored, Applied: []int{}}

	if !present {
		legacy, err := m.hasLegacy(ctx)
		if err != nil {
			return report, classifyStoreError("detect legacy data", err)
		}
		if !legacy {
			return m.freshInstall(ctx, report)
		}
	}

	if stored >= m.current {
		return report, nil
	}

	for v := stored + 1; v <= m.current; v++ {
		step, registered := m.steps[v]
		err := m.store.Update(ctx, func(tx *recordstore.Tx) error {
			if registered {
				if err := step.Apply(ctx, tx); err != nil {
					return err
				}
			}
			return tx.SetValue(ctx, VersionKey, strconv.Itoa(v))
		})
		if err != nil {
			stepErr := &MigrationStepError{Version: v, Name: step.Name, Err: err}
			m.logger.Error("migration step failed", "version", v, "name", step.Name, "marker", report.To, "err", err)
			return report, WrapError(ErrCodeMigration, "migration failed", stepErr)
		}
		report.To = v
		if registered {
			report.Applied = append(report.Applied, v)
			m.logger.Info("migration step applied", "version", v, "name", step.Name)
		}
	}
	return report, nil
}

func (m *Migrator) freshInstall(ctx context.Context, report MigrationReport) (MigrationReport, error) {
	err := m.store.Update(ctx, func(tx *recordstore.Tx) error {
		if m.seed != nil {
			seeded, err := m.seed(ctx, tx)
			if err != nil {
				return err
			}
			report.Seeded = seeded
		}
		return tx.SetValue(ctx, VersionKey, strconv.Itoa(m.current))
	})
	if err != nil {
		m.logger.Error("fresh install setup failed", "err", err)
		return MigrationReport{From: report.From, To: report.From, Applied: []int{}},
			WrapError(ErrCodeMigration, "fresh install setup failed", classifyStoreError("seed", err))
	}
	report.Fresh = true
	report.To = m.current
	m.logger.Info("fresh install initialized", "version", m.current, "seeded", report.Seeded)
	return report, nil
}

// Status reports the stored generation and what a Run would do.
func (m *Migrator) Status(ctx context.Context) (MigrationStatus, error) {
	stored, present, err := m.readMarker(ctx)
	if err != nil {
		return MigrationStatus{}, err
	}
	legacy, err := m.hasLegacy(ctx)
	if err != nil {
		return MigrationStatus{}, classifyStoreError("detect legacy data", err)
	}
	status := MigrationStatus{
		StoredVersion:  stored,
		MarkerPresent:  present,
		CurrentVersion: m.current,
		Pending:        []int{},
		LegacyPresent:  legacy,
	}
	if !present && !legacy {
		return status, nil
	}
	for v := stored + 1; v <= m.current; v++ {
		if _, ok := m.steps[v]; ok {
			status.Pending = append(status.Pending, v)
		}
	}
	return status, nil
}

func (m *Migrator) readMarker(ctx context.Context) (int, bool, error) {
	raw, ok, err := m.store.GetValue(ctx, VersionKey)
	if err != nil {
		return 0, false, classifyStoreError("read schema version", err)
	}
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 0 {
		return 0, true, NewError(ErrCodeMigration, fmt.Sprintf("invalid schema version marker %q", raw))
	}
	return v, true, nil
}

func (m *Migrator) hasLegacy(ctx context.Context) (bool, error) {
	for _, key := range m.legacyKeys {
		ok, err := m.store.HasValue(ctx, key)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

type migrationLease struct {
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

// acquireLease claims the advisory migration lease in the scalar area,
// waiting while another owner holds an unexpired one.
func (m *Migrator) acquireLease(ctx context.Context) (func(), error) {
	owner := uuid.NewString()
	for {
		acquired := false
		err := m.store.Update(ctx, func(tx *recordstore.Tx) error {
			raw, ok, err := tx.GetValue(ctx, migrationLeaseKey)
			if err != nil {
				return err
			}
			now := m.now()
			if ok {
				var held migrationLease
				if json.Unmarshal([]byte(raw), &held) == nil && held.Owner != owner && now.Before(held.ExpiresAt) {
					return nil
				}
			}
			data, err := json.Marshal(migrationLease{Owner: owner, ExpiresAt: now.Add(m.leaseTTL)})
			if err != nil {
				return err
			}
			acquired = true
			return tx.SetValue(ctx, migrationLeaseKey, string(data))
		})
		if err != nil {
			return nil, err
		}
		if acquired {
			break
		}
		m.logger.Debug("migration lease held elsewhere, waiting")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(defaultLeaseBackoff):
		}
	}

	return func() {
		bg := context.WithoutCancel(ctx)
		err := m.store.Update(bg, func(tx *recordstore.Tx) error {
			raw, ok, err := tx.GetValue(bg, migrationLeaseKey)
			if err != nil || !ok {
				return err
			}
			var held migrationLease
			if json.Unmarshal([]byte(raw), &held) == nil && held.Owner != owner {
				return nil
			}
			return tx.DeleteValue(bg, migrationLeaseKey)
		})
		if err != nil {
			m.logger.Warn("release migration lease failed", "err", err)
		}
	}, nil
}
