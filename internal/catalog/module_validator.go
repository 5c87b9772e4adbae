package catalog

import (
	"context"
	"regexp"

	"github.com/sirupsen/logrus"

	"github.com/KernelSU-Modules-Repo/modules/internal/catalogmodel"
	"github.com/KernelSU-Modules-Repo/modules/internal/concurrency"
)

// reservedIdentifiers is the closed set of repository identifiers that can
// never become modules (§4.4).
var reservedIdentifiers = map[string]struct{}{
	".github":              {},
	"submission":           {},
	"developers":           {},
	"modules":              {},
	"org.kernelsu.example": {},
	"module_release":       {},
}

// identifierPattern requires a leading letter and at least one further
// alphanumeric/./_/- character (so "a" alone fails, per §8).
var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]+$`)

// ModuleValidatorConfig carries the inner bounded-mapper cap for release
// processing.
type ModuleValidatorConfig struct {
	InnerConcurrency int
}

// ModuleValidator applies §4.4's repository-level acceptance predicates and
// orchestrates the release validator over a repository's releases.
type ModuleValidator struct {
	cfg      ModuleValidatorConfig
	releases *ReleaseValidator
	logger   *logrus.Logger
}

// NewModuleValidator creates a ModuleValidator.
func NewModuleValidator(cfg ModuleValidatorConfig, releaseValidator *ReleaseValidator, logger *logrus.Logger) *ModuleValidator {
	return &ModuleValidator{cfg: cfg, releases: releaseValidator, logger: logger}
}

// releaseOutcome is the per-release result threaded through the inner
// bounded mapper: exactly one of accepted or skip is non-nil.
type releaseOutcome struct {
	accepted *catalogmodel.AcceptedRelease
	skip     *catalogmodel.SkipInfo
}

// Validate runs the module-level predicates, then — if they pass —
// processes the repository's releases and applies the §4.4 decision logic
// for whether the module is accepted, and if not, whether the failure
// should trigger a notification.
func (v *ModuleValidator) Validate(ctx context.Context, repo catalogmodel.RawRepository) (accepted []catalogmodel.AcceptedRelease, skip *catalogmodel.SkipInfo) {
	logger := v.logger.WithField("repository", repo.Identifier)

	if _, reserved := reservedIdentifiers[repo.Identifier]; reserved {
		return nil, &catalogmodel.SkipInfo{
			Reason:       catalogmodel.ReasonReservedName,
			Message:      "repository identifier is reserved",
			ShouldNotify: true,
		}
	}

	if !identifierPattern.MatchString(repo.Identifier) {
		return nil, &catalogmodel.SkipInfo{
			Reason:       catalogmodel.ReasonInvalidName,
			Message:      "repository identifier does not match the required pattern",
			ShouldNotify: true,
		}
	}

	if repo.Description == "" {
		return nil, &catalogmodel.SkipInfo{
			Reason:       catalogmodel.ReasonNoDescription,
			Message:      "repository has no description",
			ShouldNotify: true,
		}
	}

	releases := withBackfilledLatest(repo)

	var eligible []catalogmodel.RawRelease
	for _, r := range releases {
		if v.releases.Eligible(r) {
			eligible = append(eligible, r)
		}
	}

	if len(eligible) == 0 {
		logger.Debug("no releases survived the pre-filter")
		return nil, &catalogmodel.SkipInfo{
			Reason:       catalogmodel.ReasonNoValidReleases,
			Message:      "repository has no draft-free immutable release with a zip asset",
			ShouldNotify: true,
		}
	}

	results := concurrency.Map(ctx, eligible, v.cfg.InnerConcurrency, func(ctx context.Context, r catalogmodel.RawRelease) (releaseOutcome, error) {
		a, s := v.releases.Validate(ctx, repo, r)
		return releaseOutcome{accepted: a, skip: s}, nil
	})

	var acceptedReleases []catalogmodel.AcceptedRelease
	skipsByTag := make(map[string]*catalogmodel.SkipInfo)
	for _, res := range results {
		o := res.Value
		if o.accepted != nil {
			acceptedReleases = append(acceptedReleases, *o.accepted)
		} else if o.skip != nil {
			skipsByTag[o.skip.TagName] = o.skip
		}
	}

	if len(acceptedReleases) > 0 {
		return acceptedReleases, nil
	}

	// No release survived deep validation. Determine whether the
	// repository's declared latest release is among the failures — only
	// then does the author get notified (§4.4).
	latestTag := ""
	if repo.LatestRelease != nil {
		latestTag = repo.LatestRelease.TagName
	}

	if latestTag != "" {
		if s, failed := skipsByTag[latestTag]; failed {
			notifySkip := *s
			notifySkip.ShouldNotify = true
			notifySkip.TagName = latestTag
			return nil, &notifySkip
		}
	}

	return nil, &catalogmodel.SkipInfo{
		Reason:       catalogmodel.ReasonNoValidReleases,
		Message:      "repository has no accepted release",
		ShouldNotify: false,
	}
}

// withBackfilledLatest appends the repository's declared latest release to
// the release list if its tag is otherwise absent — the platform sometimes
// omits the current latest from the first page (§4.4).
func withBackfilledLatest(repo catalogmodel.RawRepository) []catalogmodel.RawRelease {
	if repo.LatestRelease == nil {
		return repo.Releases
	}

	for _, r := range repo.Releases {
		if r.TagName == repo.LatestRelease.TagName {
			return repo.Releases
		}
	}

	return append(append([]catalogmodel.RawRelease{}, repo.Releases...), *repo.LatestRelease)
}
