// Package catalog implements the validation state machine (C3, C4) and the
// catalog assembly (C5) described in the specification: per-release
// acceptance, per-repository orchestration of its releases, and the
// module-record derivation that follows a successful validation.
package catalog

import (
	"context"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/KernelSU-Modules-Repo/modules/internal/catalogmodel"
)

const zipContentType = "application/zip"

// tagPrefixPattern is the feature-flagged additional pre-filter condition
// from the §9 Open Question, default off (see SPEC_FULL.md decision log).
var tagPrefixPattern = regexp.MustCompile(`^\d+-.+$`)

// Prober extracts a PropertyMap from a release asset's download URL. The
// concrete implementation (internal/propfile.Prober) shells out to the
// external archive extractor.
type Prober interface {
	Probe(ctx context.Context, downloadURL string) map[string]string
}

// ReleaseValidatorConfig toggles the feature-flagged behaviors the §9 Open
// Questions leave unresolved.
type ReleaseValidatorConfig struct {
	RequireTagPrefix bool
}

// ReleaseValidator applies the §4.3 pre-filter and deep validation to a
// single release.
type ReleaseValidator struct {
	cfg    ReleaseValidatorConfig
	prober Prober
	logger *logrus.Logger
}

// NewReleaseValidator creates a ReleaseValidator.
func NewReleaseValidator(cfg ReleaseValidatorConfig, prober Prober, logger *logrus.Logger) *ReleaseValidator {
	return &ReleaseValidator{cfg: cfg, prober: prober, logger: logger}
}

// Eligible reports whether a release passes the §4.3 pre-filter: not draft,
// immutable, and carries at least one application/zip asset. Releases that
// fail the pre-filter are silently dropped — no SkipInfo is produced for
// them.
func (v *ReleaseValidator) Eligible(release catalogmodel.RawRelease) bool {
	if release.IsDraft || !release.IsImmutable {
		return false
	}
	if !hasZipAsset(release) {
		return false
	}
	if v.cfg.RequireTagPrefix && !tagPrefixPattern.MatchString(release.TagName) {
		return false
	}
	return true
}

func hasZipAsset(release catalogmodel.RawRelease) bool {
	for _, a := range release.Assets {
		if a.ContentType == zipContentType {
			return true
		}
	}
	return false
}

func firstZipAsset(release catalogmodel.RawRelease) (catalogmodel.Asset, bool) {
	for _, a := range release.Assets {
		if a.ContentType == zipContentType {
			return a, true
		}
	}
	return catalogmodel.Asset{}, false
}

// Validate runs the §4.3 deep validation ordered checks against an
// already-eligible release, returning either an AcceptedRelease or a
// SkipInfo tagged with the release's tag.
func (v *ReleaseValidator) Validate(ctx context.Context, repo catalogmodel.RawRepository, release catalogmodel.RawRelease) (*catalogmodel.AcceptedRelease, *catalogmodel.SkipInfo) {
	logger := v.logger.WithField("tag", release.TagName)

	asset, ok := firstZipAsset(release)
	if !ok {
		return nil, &catalogmodel.SkipInfo{
			Reason:       catalogmodel.ReasonNoZipAsset,
			Message:      "release has no application/zip asset",
			ShouldNotify: true,
			TagName:      release.TagName,
		}
	}

	props := v.prober.Probe(ctx, asset.DownloadURL)
	if len(props) == 0 {
		logger.Debug("module.prop extraction produced no properties")
		return nil, &catalogmodel.SkipInfo{
			Reason:       catalogmodel.ReasonMissingModuleProp,
			Message:      "could not read module.prop from the release's zip asset",
			ShouldNotify: true,
			TagName:      release.TagName,
		}
	}

	if props["id"] != repo.Identifier {
		return nil, &catalogmodel.SkipInfo{
			Reason:  catalogmodel.ReasonModuleIDMismatch,
			Message: "module.prop id does not match the repository identifier",
			Details: map[string]string{
				"repoName": repo.Identifier,
				"moduleId": props["id"],
			},
			ShouldNotify: true,
			TagName:      release.TagName,
		}
	}

	version := props["version"]
	versionCode := props["versionCode"]
	if version == "" || versionCode == "" {
		return nil, &catalogmodel.SkipInfo{
			Reason:  catalogmodel.ReasonMissingVersion,
			Message: "module.prop is missing version or versionCode",
			Details: map[string]string{
				"version":     version,
				"versionCode": versionCode,
			},
			ShouldNotify: true,
			TagName:      release.TagName,
		}
	}

	accepted := &catalogmodel.AcceptedRelease{
		TagName:         release.TagName,
		Name:            release.Name,
		URL:             releaseURL(repo.URL, release.TagName),
		DescriptionHTML: RewritePrivateImages(release.Description, release.DescriptionHTML),
		CreatedAt:       release.CreatedAt,
		PublishedAt:     release.PublishedAt,
		UpdatedAt:       release.UpdatedAt,
		IsPrerelease:    release.IsPrerelease,
		Assets:          release.Assets,
		Version:         version,
		VersionCode:     versionCode,
	}

	return accepted, nil
}

func releaseURL(repoURL, tag string) string {
	return strings.TrimSuffix(repoURL, "/") + "/releases/tag/" + tag
}
