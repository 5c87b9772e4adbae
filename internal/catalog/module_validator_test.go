package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KernelSU-Modules-Repo/modules/internal/catalogmodel"
)

func newTestModuleValidator(prober Prober) *ModuleValidator {
	rv := NewReleaseValidator(ReleaseValidatorConfig{}, prober, newTestLogger())
	return NewModuleValidator(ModuleValidatorConfig{InnerConcurrency: 10}, rv, newTestLogger())
}

func TestModuleValidator_ReservedName(t *testing.T) {
	mv := newTestModuleValidator(&fakeProber{})
	repo := catalogmodel.RawRepository{Identifier: "submission", Description: "anything"}

	accepted, skip := mv.Validate(context.Background(), repo)

	assert.Nil(t, accepted)
	require.NotNil(t, skip)
	assert.Equal(t, catalogmodel.ReasonReservedName, skip.Reason)
	assert.True(t, skip.ShouldNotify)
	assert.Empty(t, skip.TagName)
}

func TestModuleValidator_InvalidName(t *testing.T) {
	mv := newTestModuleValidator(&fakeProber{})

	repo := catalogmodel.RawRepository{Identifier: "a", Description: "anything"}
	_, skip := mv.Validate(context.Background(), repo)
	require.NotNil(t, skip)
	assert.Equal(t, catalogmodel.ReasonInvalidName, skip.Reason)
}

func TestModuleValidator_NoDescription(t *testing.T) {
	mv := newTestModuleValidator(&fakeProber{})
	repo := catalogmodel.RawRepository{Identifier: "good.name", Description: ""}

	_, skip := mv.Validate(context.Background(), repo)

	require.NotNil(t, skip)
	assert.Equal(t, catalogmodel.ReasonNoDescription, skip.Reason)
	assert.True(t, skip.ShouldNotify)
}

func TestModuleValidator_OnlyDraftOrMutableReleases(t *testing.T) {
	mv := newTestModuleValidator(&fakeProber{})
	repo := catalogmodel.RawRepository{
		Identifier:  "foo.bar",
		Description: "Foo Bar",
		Releases: []catalogmodel.RawRelease{
			{TagName: "1-v1", IsDraft: true},
			{TagName: "2-v2", IsImmutable: false},
		},
	}

	accepted, skip := mv.Validate(context.Background(), repo)

	assert.Nil(t, accepted)
	require.NotNil(t, skip)
	assert.Equal(t, catalogmodel.ReasonNoValidReleases, skip.Reason)
	assert.True(t, skip.ShouldNotify)
}

func TestModuleValidator_HappyPathOneRelease(t *testing.T) {
	prober := &fakeProber{byURL: map[string]map[string]string{
		"u1": {"id": "foo.bar", "version": "1.0", "versionCode": "1"},
	}}
	mv := newTestModuleValidator(prober)

	published := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := catalogmodel.RawRepository{
		Identifier:  "foo.bar",
		Description: "Foo Bar",
		Releases: []catalogmodel.RawRelease{
			{
				TagName:     "1-v1",
				IsImmutable: true,
				PublishedAt: published,
				Assets:      []catalogmodel.Asset{{ContentType: "application/zip", DownloadURL: "u1"}},
			},
		},
	}

	accepted, skip := mv.Validate(context.Background(), repo)

	assert.Nil(t, skip)
	require.Len(t, accepted, 1)
	assert.Equal(t, "1-v1", accepted[0].TagName)
	assert.Equal(t, "1.0", accepted[0].Version)
	assert.Equal(t, "1", accepted[0].VersionCode)
	assert.True(t, accepted[0].PublishedAt.Equal(published))
}

func TestModuleValidator_BrokenLatestNotifies(t *testing.T) {
	prober := &fakeProber{byURL: map[string]map[string]string{
		"u1": {"id": "foo.baz", "version": "1.0", "versionCode": "1"},
	}}
	mv := newTestModuleValidator(prober)

	repo := catalogmodel.RawRepository{
		Identifier:  "foo.bar",
		Description: "Foo Bar",
		LatestRelease: &catalogmodel.RawRelease{
			TagName:     "1-v1",
			IsImmutable: true,
			Assets:      []catalogmodel.Asset{{ContentType: "application/zip", DownloadURL: "u1"}},
		},
		Releases: []catalogmodel.RawRelease{
			{
				TagName:     "1-v1",
				IsImmutable: true,
				Assets:      []catalogmodel.Asset{{ContentType: "application/zip", DownloadURL: "u1"}},
			},
		},
	}

	accepted, skip := mv.Validate(context.Background(), repo)

	assert.Nil(t, accepted)
	require.NotNil(t, skip)
	assert.Equal(t, catalogmodel.ReasonModuleIDMismatch, skip.Reason)
	assert.True(t, skip.ShouldNotify)
	assert.Equal(t, "1-v1", skip.TagName)
}

func TestModuleValidator_BrokenOldReleaseGoodNewRelease(t *testing.T) {
	prober := &fakeProber{byURL: map[string]map[string]string{
		"u1": {"id": "foo.bar", "version": "1.0"}, // missing versionCode
		"u2": {"id": "foo.bar", "version": "2.0", "versionCode": "2"},
	}}
	mv := newTestModuleValidator(prober)

	repo := catalogmodel.RawRepository{
		Identifier:  "foo.bar",
		Description: "Foo Bar",
		LatestRelease: &catalogmodel.RawRelease{
			TagName:     "2-v2",
			IsImmutable: true,
			Assets:      []catalogmodel.Asset{{ContentType: "application/zip", DownloadURL: "u2"}},
		},
		Releases: []catalogmodel.RawRelease{
			{
				TagName:     "2-v2",
				IsImmutable: true,
				Assets:      []catalogmodel.Asset{{ContentType: "application/zip", DownloadURL: "u2"}},
			},
			{
				TagName:     "1-v1",
				IsImmutable: true,
				Assets:      []catalogmodel.Asset{{ContentType: "application/zip", DownloadURL: "u1"}},
			},
		},
	}

	accepted, skip := mv.Validate(context.Background(), repo)

	assert.Nil(t, skip)
	require.Len(t, accepted, 1)
	assert.Equal(t, "2-v2", accepted[0].TagName)
}

func TestModuleValidator_OlderReleaseBrokenButNoLatestDeclared(t *testing.T) {
	prober := &fakeProber{byURL: map[string]map[string]string{
		"u1": {"id": "foo.bar"}, // missing version/versionCode
	}}
	mv := newTestModuleValidator(prober)

	repo := catalogmodel.RawRepository{
		Identifier:  "foo.bar",
		Description: "Foo Bar",
		Releases: []catalogmodel.RawRelease{
			{
				TagName:     "1-v1",
				IsImmutable: true,
				Assets:      []catalogmodel.Asset{{ContentType: "application/zip", DownloadURL: "u1"}},
			},
		},
	}

	accepted, skip := mv.Validate(context.Background(), repo)

	assert.Nil(t, accepted)
	require.NotNil(t, skip)
	assert.Equal(t, catalogmodel.ReasonNoValidReleases, skip.Reason)
	assert.False(t, skip.ShouldNotify)
}
