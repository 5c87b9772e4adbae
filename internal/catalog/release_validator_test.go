package catalog

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KernelSU-Modules-Repo/modules/internal/catalogmodel"
)

type fakeProber struct {
	byURL map[string]map[string]string
}

func (f *fakeProber) Probe(_ context.Context, downloadURL string) map[string]string {
	return f.byURL[downloadURL]
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func zipRelease(tag, downloadURL string) catalogmodel.RawRelease {
	return catalogmodel.RawRelease{
		TagName:     tag,
		Name:        tag,
		IsImmutable: true,
		PublishedAt: time.Now(),
		Assets: []catalogmodel.Asset{
			{Name: "module.zip", ContentType: "application/zip", DownloadURL: downloadURL},
		},
	}
}

func TestReleaseValidator_Eligible(t *testing.T) {
	v := NewReleaseValidator(ReleaseValidatorConfig{}, &fakeProber{}, newTestLogger())

	assert.True(t, v.Eligible(zipRelease("1-v1", "u1")))

	draft := zipRelease("1-v1", "u1")
	draft.IsDraft = true
	assert.False(t, v.Eligible(draft))

	mutable := zipRelease("1-v1", "u1")
	mutable.IsImmutable = false
	assert.False(t, v.Eligible(mutable))

	noZip := catalogmodel.RawRelease{IsImmutable: true}
	assert.False(t, v.Eligible(noZip))
}

func TestReleaseValidator_Eligible_TagPrefixFlag(t *testing.T) {
	v := NewReleaseValidator(ReleaseValidatorConfig{RequireTagPrefix: true}, &fakeProber{}, newTestLogger())

	assert.True(t, v.Eligible(zipRelease("1-v1", "u1")))
	assert.False(t, v.Eligible(zipRelease("v1", "u1")))
}

func TestReleaseValidator_Validate_HappyPath(t *testing.T) {
	prober := &fakeProber{byURL: map[string]map[string]string{
		"u1": {"id": "foo.bar", "version": "1.0", "versionCode": "1"},
	}}
	v := NewReleaseValidator(ReleaseValidatorConfig{}, prober, newTestLogger())

	repo := catalogmodel.RawRepository{Identifier: "foo.bar", URL: "https://github.com/org/foo.bar"}
	release := zipRelease("1-v1", "u1")

	accepted, skip := v.Validate(context.Background(), repo, release)

	require.Nil(t, skip)
	require.NotNil(t, accepted)
	assert.Equal(t, "1-v1", accepted.TagName)
	assert.Equal(t, "1.0", accepted.Version)
	assert.Equal(t, "1", accepted.VersionCode)
}

func TestReleaseValidator_Validate_NoZipAsset(t *testing.T) {
	v := NewReleaseValidator(ReleaseValidatorConfig{}, &fakeProber{}, newTestLogger())
	repo := catalogmodel.RawRepository{Identifier: "foo.bar"}
	release := catalogmodel.RawRelease{TagName: "1-v1", IsImmutable: true}

	accepted, skip := v.Validate(context.Background(), repo, release)

	assert.Nil(t, accepted)
	require.NotNil(t, skip)
	assert.Equal(t, catalogmodel.ReasonNoZipAsset, skip.Reason)
	assert.True(t, skip.ShouldNotify)
	assert.Equal(t, "1-v1", skip.TagName)
}

func TestReleaseValidator_Validate_MissingModuleProp(t *testing.T) {
	v := NewReleaseValidator(ReleaseValidatorConfig{}, &fakeProber{}, newTestLogger())
	repo := catalogmodel.RawRepository{Identifier: "foo.bar"}
	release := zipRelease("1-v1", "u1")

	accepted, skip := v.Validate(context.Background(), repo, release)

	assert.Nil(t, accepted)
	require.NotNil(t, skip)
	assert.Equal(t, catalogmodel.ReasonMissingModuleProp, skip.Reason)
}

func TestReleaseValidator_Validate_ModuleIDMismatch(t *testing.T) {
	prober := &fakeProber{byURL: map[string]map[string]string{
		"u1": {"id": "foo.baz", "version": "1.0", "versionCode": "1"},
	}}
	v := NewReleaseValidator(ReleaseValidatorConfig{}, prober, newTestLogger())
	repo := catalogmodel.RawRepository{Identifier: "foo.bar"}
	release := zipRelease("1-v1", "u1")

	accepted, skip := v.Validate(context.Background(), repo, release)

	assert.Nil(t, accepted)
	require.NotNil(t, skip)
	assert.Equal(t, catalogmodel.ReasonModuleIDMismatch, skip.Reason)
	assert.Equal(t, "foo.bar", skip.Details["repoName"])
	assert.Equal(t, "foo.baz", skip.Details["moduleId"])
	assert.Equal(t, "1-v1", skip.TagName)
}

func TestReleaseValidator_Validate_MissingVersion(t *testing.T) {
	prober := &fakeProber{byURL: map[string]map[string]string{
		"u1": {"id": "foo.bar", "version": "", "versionCode": "1"},
	}}
	v := NewReleaseValidator(ReleaseValidatorConfig{}, prober, newTestLogger())
	repo := catalogmodel.RawRepository{Identifier: "foo.bar"}
	release := zipRelease("1-v1", "u1")

	accepted, skip := v.Validate(context.Background(), repo, release)

	assert.Nil(t, accepted)
	require.NotNil(t, skip)
	assert.Equal(t, catalogmodel.ReasonMissingVersion, skip.Reason)
}
