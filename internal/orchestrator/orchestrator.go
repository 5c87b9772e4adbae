// Package orchestrator implements the catalog build pipeline (C6): mode
// selection, full-mode paging/validation/assembly/sort/write, incremental-
// mode single-repository refresh, and the atomic cache-directory writes
// both modes share. Shaped after the teacher's internal/github/sync_service.go
// and cmd/server/main.go orchestration, generalized to this pipeline's two
// modes instead of one continuous sync loop.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/KernelSU-Modules-Repo/modules/internal/apperr"
	"github.com/KernelSU-Modules-Repo/modules/internal/catalog"
	"github.com/KernelSU-Modules-Repo/modules/internal/catalogmodel"
	"github.com/KernelSU-Modules-Repo/modules/internal/concurrency"
	"github.com/KernelSU-Modules-Repo/modules/internal/config"
)

const (
	graphqlSnapshotFile = "graphql.json"
	catalogFile         = "modules.json"
)

// PlatformClient is the subset of internal/platform.Client the orchestrator
// drives: paginated listing for full mode, single-repository fetch for
// incremental mode.
type PlatformClient interface {
	ListOrgRepositories(ctx context.Context, org string, pageSize int) ([]catalogmodel.RawRepository, error)
	GetRepository(ctx context.Context, owner, name string) (*catalogmodel.RawRepository, error)
}

// Validator is the subset of internal/catalog.ModuleValidator the
// orchestrator drives.
type Validator interface {
	Validate(ctx context.Context, repo catalogmodel.RawRepository) (accepted []catalogmodel.AcceptedRelease, skip *catalogmodel.SkipInfo)
}

// Notifier is the subset of internal/notify.Dispatcher the orchestrator
// drives on an incremental-mode failure.
type Notifier interface {
	Dispatch(ctx context.Context, repo catalogmodel.RawRepository, skip catalogmodel.SkipInfo)
}

// Orchestrator wires the platform client, validator, and notifier together
// and drives the full/incremental pipeline against a cache directory.
type Orchestrator struct {
	platform  PlatformClient
	validator Validator
	notifier  Notifier
	fs        afero.Fs
	cfg       *config.Config
	logger    *logrus.Logger
}

// New creates an Orchestrator. fs is injected so tests can substitute
// afero.NewMemMapFs() for the real filesystem (§5, AMBIENT STACK).
func New(platform PlatformClient, validator Validator, notifier Notifier, fs afero.Fs, cfg *config.Config, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{platform: platform, validator: validator, notifier: notifier, fs: fs, cfg: cfg, logger: logger}
}

// Run selects full or incremental mode by the presence of cfg.Repo and the
// existence of a prior catalog file, then executes that mode (§4.6).
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.fs.MkdirAll(o.cfg.CacheDir, 0o755); err != nil {
		return apperr.NewConfigError("failed to create cache directory", err)
	}

	catalogPath := filepath.Join(o.cfg.CacheDir, catalogFile)
	exists, err := afero.Exists(o.fs, catalogPath)
	if err != nil {
		return apperr.NewConfigError("failed to stat catalog file", err)
	}

	if o.cfg.Repo != "" && exists {
		return o.runIncremental(ctx, catalogPath)
	}
	return o.runFull(ctx)
}

type fullModeOutcome struct {
	repo   catalogmodel.RawRepository
	module *catalogmodel.Module
	skip   *catalogmodel.SkipInfo
}

// runFull pages the platform to exhaustion, snapshots the raw response,
// validates every repository under the outer bounded mapper, assembles
// accepted modules, sorts, and writes the catalog. A single module's
// failure never aborts the run; failures are only aggregated for a
// debug-level summary (§4.6, §7).
func (o *Orchestrator) runFull(ctx context.Context) error {
	if o.cfg.Org == "" {
		return apperr.NewConfigError("ORG must be set to list repositories in full mode", nil)
	}

	repos, err := o.platform.ListOrgRepositories(ctx, o.cfg.Org, o.cfg.Platform.PageSize)
	if err != nil {
		return apperr.NewPlatformError("failed to list organization repositories", err)
	}

	if err := o.writeSnapshot(repos); err != nil {
		return err
	}

	results := concurrency.Map(ctx, repos, o.cfg.Orchestrator.OuterConcurrency, func(ctx context.Context, repo catalogmodel.RawRepository) (fullModeOutcome, error) {
		accepted, skip := o.validator.Validate(ctx, repo)
		if skip != nil {
			return fullModeOutcome{repo: repo, skip: skip}, nil
		}
		return fullModeOutcome{repo: repo, module: catalog.Assemble(repo, accepted)}, nil
	})

	var modules catalogmodel.Catalog
	var skipErrs *multierror.Error
	for _, res := range results {
		outcome := res.Value
		if outcome.module != nil {
			modules = append(modules, outcome.module)
			continue
		}
		skipErrs = multierror.Append(skipErrs, fmt.Errorf("%s: %s (%s)", outcome.repo.Identifier, outcome.skip.Message, outcome.skip.Reason))
	}

	if skipErrs != nil {
		o.logger.WithField("skipped", skipErrs.Len()).Debugf("modules skipped in full run: %v", skipErrs)
	}

	sortModules(modules)
	return o.writeCatalog(modules)
}

// runIncremental fetches one repository, validates it, and either replaces
// its existing catalog entry or prepends a new one, resorting and writing
// atomically. On validation failure it dispatches a notification (when the
// SkipInfo calls for one) and returns a validation-classified error so the
// caller exits non-zero (§4.6).
func (o *Orchestrator) runIncremental(ctx context.Context, catalogPath string) error {
	owner, name := o.resolveRepoSelector()

	repo, err := o.platform.GetRepository(ctx, owner, name)
	if err != nil {
		return apperr.NewPlatformError("failed to fetch repository", err)
	}
	if repo == nil {
		return apperr.NewPlatformError(fmt.Sprintf("repository %s/%s not found", owner, name), nil)
	}

	accepted, skip := o.validator.Validate(ctx, *repo)
	if skip != nil {
		if skip.ShouldNotify && skip.TagName != "" {
			o.notifier.Dispatch(ctx, *repo, *skip)
		}
		return apperr.NewValidationError(fmt.Sprintf("repository %s failed validation: %s", repo.Identifier, skip.Message), nil)
	}

	module := catalog.Assemble(*repo, accepted)

	existing, err := o.readCatalog(catalogPath)
	if err != nil {
		return apperr.NewConfigError("failed to read existing catalog", err)
	}

	replaced := false
	for i, m := range existing {
		if m.ModuleID == module.ModuleID {
			existing[i] = module
			replaced = true
			break
		}
	}
	if !replaced {
		existing = append(catalogmodel.Catalog{module}, existing...)
	}

	sortModules(existing)
	return o.writeCatalog(existing)
}

// resolveRepoSelector splits cfg.Repo into owner/name, falling back to
// cfg.Org as the owner when Repo is a bare name (§6).
func (o *Orchestrator) resolveRepoSelector() (owner, name string) {
	if idx := strings.IndexByte(o.cfg.Repo, '/'); idx >= 0 {
		return o.cfg.Repo[:idx], o.cfg.Repo[idx+1:]
	}
	return o.cfg.Org, o.cfg.Repo
}

// sortModules sorts modules descending by SortKey, stable so ties retain
// their incoming order (§4.6).
func sortModules(modules catalogmodel.Catalog) {
	sort.SliceStable(modules, func(i, j int) bool {
		return modules[i].SortKey().After(modules[j].SortKey())
	})
}

func (o *Orchestrator) writeSnapshot(repos []catalogmodel.RawRepository) error {
	data, err := json.MarshalIndent(repos, "", "  ")
	if err != nil {
		return apperr.NewPlatformError("failed to encode raw snapshot", err)
	}
	path := filepath.Join(o.cfg.CacheDir, graphqlSnapshotFile)
	if err := atomicWrite(o.fs, path, data); err != nil {
		return apperr.NewConfigError("failed to write raw snapshot", err)
	}
	return nil
}

func (o *Orchestrator) writeCatalog(modules catalogmodel.Catalog) error {
	if modules == nil {
		modules = catalogmodel.Catalog{}
	}
	data, err := json.Marshal(modules)
	if err != nil {
		return apperr.NewConfigError("failed to encode catalog", err)
	}
	path := filepath.Join(o.cfg.CacheDir, catalogFile)
	if err := atomicWrite(o.fs, path, data); err != nil {
		return apperr.NewConfigError("failed to write catalog", err)
	}
	return nil
}

func (o *Orchestrator) readCatalog(path string) (catalogmodel.Catalog, error) {
	data, err := afero.ReadFile(o.fs, path)
	if err != nil {
		return nil, err
	}
	var modules catalogmodel.Catalog
	if err := json.Unmarshal(data, &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

// atomicWrite writes data to a temp file in path's directory then renames
// it over path, so concurrent readers never observe a partial write (§5).
func atomicWrite(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := afero.TempFile(fs, dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)
		return err
	}

	if err := fs.Rename(tmpName, path); err != nil {
		fs.Remove(tmpName)
		return err
	}
	return nil
}
