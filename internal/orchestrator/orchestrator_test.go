package orchestrator

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KernelSU-Modules-Repo/modules/internal/catalogmodel"
	"github.com/KernelSU-Modules-Repo/modules/internal/config"
)

type fakePlatform struct {
	repos       []catalogmodel.RawRepository
	listErr     error
	detailRepo  *catalogmodel.RawRepository
	detailErr   error
	detailOwner string
	detailName  string
}

func (f *fakePlatform) ListOrgRepositories(_ context.Context, _ string, _ int) ([]catalogmodel.RawRepository, error) {
	return f.repos, f.listErr
}

func (f *fakePlatform) GetRepository(_ context.Context, owner, name string) (*catalogmodel.RawRepository, error) {
	f.detailOwner, f.detailName = owner, name
	return f.detailRepo, f.detailErr
}

type fakeValidator struct {
	byRepo map[string]*catalogmodel.SkipInfo
	accept map[string][]catalogmodel.AcceptedRelease
}

func (f *fakeValidator) Validate(_ context.Context, repo catalogmodel.RawRepository) ([]catalogmodel.AcceptedRelease, *catalogmodel.SkipInfo) {
	if skip, ok := f.byRepo[repo.Identifier]; ok {
		return nil, skip
	}
	return f.accept[repo.Identifier], nil
}

type fakeNotifier struct {
	dispatched []catalogmodel.SkipInfo
}

func (f *fakeNotifier) Dispatch(_ context.Context, _ catalogmodel.RawRepository, skip catalogmodel.SkipInfo) {
	f.dispatched = append(f.dispatched, skip)
}

func testCfg(cacheDir string) *config.Config {
	cfg := &config.Config{
		CacheDir:     cacheDir,
		Org:          "testorg",
		Platform:     config.DefaultPlatformConfig(),
		Orchestrator: config.DefaultOrchestratorConfig(),
		Notify:       config.DefaultNotifyConfig(),
	}
	return cfg
}

func testOrchLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRunFull_WritesSortedCatalogAndDropsFailuresSilently(t *testing.T) {
	fs := afero.NewMemMapFs()
	accepted := catalogmodel.AcceptedRelease{TagName: "1-v1", Name: "v1", PublishedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	acceptedNewer := catalogmodel.AcceptedRelease{TagName: "1-v2", Name: "v2", PublishedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}

	platform := &fakePlatform{repos: []catalogmodel.RawRepository{
		{Identifier: "alpha", Description: "Alpha module", URL: "https://github.com/testorg/alpha"},
		{Identifier: "beta", Description: "Beta module", URL: "https://github.com/testorg/beta"},
		{Identifier: "broken", Description: "", URL: "https://github.com/testorg/broken"},
	}}
	validator := &fakeValidator{
		byRepo: map[string]*catalogmodel.SkipInfo{
			"broken": {Reason: catalogmodel.ReasonNoDescription, Message: "no description", ShouldNotify: true},
		},
		accept: map[string][]catalogmodel.AcceptedRelease{
			"alpha": {accepted},
			"beta":  {acceptedNewer},
		},
	}
	notifier := &fakeNotifier{}

	orch := New(platform, validator, notifier, fs, testCfg("/cache"), testOrchLogger())
	err := orch.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, notifier.dispatched, "full mode must never notify")

	snapshotData, err := afero.ReadFile(fs, filepath.Join("/cache", graphqlSnapshotFile))
	require.NoError(t, err)
	var snapshot []catalogmodel.RawRepository
	require.NoError(t, json.Unmarshal(snapshotData, &snapshot))
	assert.Len(t, snapshot, 3)

	catalogData, err := afero.ReadFile(fs, filepath.Join("/cache", catalogFile))
	require.NoError(t, err)
	var modules catalogmodel.Catalog
	require.NoError(t, json.Unmarshal(catalogData, &modules))
	require.Len(t, modules, 2)
	assert.Equal(t, "beta", modules[0].ModuleID, "newer release should sort first")
	assert.Equal(t, "alpha", modules[1].ModuleID)
}

func TestRunFull_RequiresOrg(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := testCfg("/cache")
	cfg.Org = ""
	orch := New(&fakePlatform{}, &fakeValidator{}, &fakeNotifier{}, fs, cfg, testOrchLogger())

	err := orch.Run(context.Background())
	assert.Error(t, err)
}

func TestRunIncremental_ReplacesExistingEntry(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := testCfg("/cache")
	cfg.Repo = "testorg/alpha"

	existing := catalogmodel.Catalog{
		{ModuleID: "alpha", ModuleName: "Old Alpha", LatestReleaseTime: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ModuleID: "gamma", ModuleName: "Gamma", LatestReleaseTime: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	data, err := json.Marshal(existing)
	require.NoError(t, err)
	require.NoError(t, fs.MkdirAll("/cache", 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join("/cache", catalogFile), data, 0o644))

	newRelease := catalogmodel.AcceptedRelease{TagName: "1-v3", Name: "v3", PublishedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	platform := &fakePlatform{detailRepo: &catalogmodel.RawRepository{Identifier: "alpha", Description: "New Alpha", URL: "https://github.com/testorg/alpha"}}
	validator := &fakeValidator{accept: map[string][]catalogmodel.AcceptedRelease{"alpha": {newRelease}}}
	notifier := &fakeNotifier{}

	orch := New(platform, validator, notifier, fs, cfg, testOrchLogger())
	err = orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "testorg", platform.detailOwner)
	assert.Equal(t, "alpha", platform.detailName)

	catalogData, err := afero.ReadFile(fs, filepath.Join("/cache", catalogFile))
	require.NoError(t, err)
	var modules catalogmodel.Catalog
	require.NoError(t, json.Unmarshal(catalogData, &modules))
	require.Len(t, modules, 2)

	var alpha *catalogmodel.Module
	for _, m := range modules {
		if m.ModuleID == "alpha" {
			alpha = m
		}
	}
	require.NotNil(t, alpha)
	assert.Equal(t, "New Alpha", alpha.ModuleName)
	assert.Empty(t, notifier.dispatched)
}

func TestRunIncremental_PrependsNewModule(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := testCfg("/cache")
	cfg.Repo = "delta"

	existing := catalogmodel.Catalog{
		{ModuleID: "gamma", ModuleName: "Gamma", LatestReleaseTime: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	data, err := json.Marshal(existing)
	require.NoError(t, err)
	require.NoError(t, fs.MkdirAll("/cache", 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join("/cache", catalogFile), data, 0o644))

	newRelease := catalogmodel.AcceptedRelease{TagName: "1-v1", Name: "v1", PublishedAt: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)}
	platform := &fakePlatform{detailRepo: &catalogmodel.RawRepository{Identifier: "delta", Description: "Delta", URL: "https://github.com/testorg/delta"}}
	validator := &fakeValidator{accept: map[string][]catalogmodel.AcceptedRelease{"delta": {newRelease}}}

	orch := New(platform, validator, &fakeNotifier{}, fs, cfg, testOrchLogger())
	require.NoError(t, orch.Run(context.Background()))

	assert.Equal(t, "testorg", platform.detailOwner, "bare repo name should fall back to cfg.Org")

	catalogData, err := afero.ReadFile(fs, filepath.Join("/cache", catalogFile))
	require.NoError(t, err)
	var modules catalogmodel.Catalog
	require.NoError(t, json.Unmarshal(catalogData, &modules))
	require.Len(t, modules, 2)
	assert.Equal(t, "delta", modules[0].ModuleID, "newest release should sort first")
}

func TestRunIncremental_FailureDispatchesNotificationAndReturnsError(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := testCfg("/cache")
	cfg.Repo = "testorg/broken"

	require.NoError(t, fs.MkdirAll("/cache", 0o755))
	data, _ := json.Marshal(catalogmodel.Catalog{})
	require.NoError(t, afero.WriteFile(fs, filepath.Join("/cache", catalogFile), data, 0o644))

	platform := &fakePlatform{detailRepo: &catalogmodel.RawRepository{Identifier: "broken", URL: "https://github.com/testorg/broken"}}
	validator := &fakeValidator{byRepo: map[string]*catalogmodel.SkipInfo{
		"broken": {Reason: catalogmodel.ReasonNoZipAsset, Message: "no zip asset", ShouldNotify: true, TagName: "1-v1"},
	}}
	notifier := &fakeNotifier{}

	orch := New(platform, validator, notifier, fs, cfg, testOrchLogger())
	err := orch.Run(context.Background())

	require.Error(t, err)
	require.Len(t, notifier.dispatched, 1)
	assert.Equal(t, catalogmodel.ReasonNoZipAsset, notifier.dispatched[0].Reason)
}

func TestRunIncremental_FailureWithoutNotifyTagDoesNotDispatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := testCfg("/cache")
	cfg.Repo = "testorg/broken"

	require.NoError(t, fs.MkdirAll("/cache", 0o755))
	data, _ := json.Marshal(catalogmodel.Catalog{})
	require.NoError(t, afero.WriteFile(fs, filepath.Join("/cache", catalogFile), data, 0o644))

	platform := &fakePlatform{detailRepo: &catalogmodel.RawRepository{Identifier: "broken", URL: "https://github.com/testorg/broken"}}
	validator := &fakeValidator{byRepo: map[string]*catalogmodel.SkipInfo{
		"broken": {Reason: catalogmodel.ReasonNoValidReleases, Message: "no accepted release", ShouldNotify: false},
	}}
	notifier := &fakeNotifier{}

	orch := New(platform, validator, notifier, fs, cfg, testOrchLogger())
	err := orch.Run(context.Background())

	require.Error(t, err)
	assert.Empty(t, notifier.dispatched)
}

func TestRunFull_SelectedOverIncrementalWhenNoPriorCatalog(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := testCfg("/cache")
	cfg.Repo = "testorg/alpha"

	platform := &fakePlatform{repos: []catalogmodel.RawRepository{
		{Identifier: "alpha", Description: "Alpha", URL: "https://github.com/testorg/alpha"},
	}}
	validator := &fakeValidator{accept: map[string][]catalogmodel.AcceptedRelease{
		"alpha": {{TagName: "1-v1", Name: "v1", PublishedAt: time.Now().UTC()}},
	}}

	orch := New(platform, validator, &fakeNotifier{}, fs, cfg, testOrchLogger())
	require.NoError(t, orch.Run(context.Background()))

	assert.Empty(t, platform.detailName, "full mode should list, not fetch a single detail")
}
