package catalogmodel

import "time"

// PropertyMap is the parsed contents of a module.prop file. Key order is
// irrelevant; duplicate keys take the last occurrence (§4.2, §9 Open
// Question: duplicate-key handling is last-wins).
type PropertyMap map[string]string

// AcceptedRelease is a release that has passed §4.3 deep validation.
type AcceptedRelease struct {
	TagName         string    `json:"tagName"`
	Name            string    `json:"name"`
	URL             string    `json:"url"`
	DescriptionHTML string    `json:"descriptionHtml,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	PublishedAt     time.Time `json:"publishedAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	IsPrerelease    bool      `json:"isPrerelease"`
	Assets          []Asset   `json:"assets"`
	Version         string    `json:"version"`
	VersionCode     string    `json:"versionCode"`
}

// Author is a rendered catalog author ({name, link}).
type Author struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// Module is one catalog entry — a validated, catalog-eligible repository.
type Module struct {
	ModuleID              string            `json:"moduleId"`
	ModuleName            string            `json:"moduleName"`
	URL                   string            `json:"url"`
	HomepageURL           *string           `json:"homepageUrl,omitempty"`
	Authors               []Author          `json:"authors"`
	LatestReleaseName     *string           `json:"latestReleaseName"`
	LatestReleaseTime     time.Time         `json:"latestReleaseTime"`
	LatestBetaReleaseTime time.Time         `json:"latestBetaReleaseTime"`
	LatestSnapshotTime    time.Time         `json:"latestSnapshotReleaseTime"`
	Releases              []AcceptedRelease `json:"releases"`
	README                *string           `json:"readme"`
	READMEHTML            *string           `json:"readmeHtml"`
	Summary               *string           `json:"summary"`
	SourceURL             *string           `json:"sourceUrl"`
	CreatedAt             time.Time         `json:"createdAt"`
	UpdatedAt             time.Time         `json:"updatedAt"`
	StargazerCount        int               `json:"stargazerCount"`
	Metamodule            bool              `json:"metamodule"`
}

// SortKey is max(latestReleaseTime, latestBetaReleaseTime,
// latestSnapshotReleaseTime), the catalog's descending sort key (§3).
func (m *Module) SortKey() time.Time {
	key := m.LatestReleaseTime
	if m.LatestBetaReleaseTime.After(key) {
		key = m.LatestBetaReleaseTime
	}
	if m.LatestSnapshotTime.After(key) {
		key = m.LatestSnapshotTime
	}
	return key
}

// Catalog is the ordered, serialized output of the pipeline.
type Catalog []*Module

// SkipReason is the closed set of module/release validation failure
// classifications (§3).
type SkipReason string

const (
	ReasonInvalidName       SkipReason = "INVALID_NAME"
	ReasonNoDescription     SkipReason = "NO_DESCRIPTION"
	ReasonNoValidReleases   SkipReason = "NO_VALID_RELEASES"
	ReasonReservedName      SkipReason = "RESERVED_NAME"
	ReasonNoZipAsset        SkipReason = "NO_ZIP_ASSET"
	ReasonModuleIDMismatch  SkipReason = "MODULE_ID_MISMATCH"
	ReasonMissingVersion    SkipReason = "MISSING_VERSION"
	ReasonMissingModuleProp SkipReason = "MISSING_MODULE_PROP"
)

// SkipInfo describes a validation failure at module or release granularity.
type SkipInfo struct {
	Reason       SkipReason
	Message      string
	Details      map[string]string
	ShouldNotify bool
	TagName      string // empty when the failure is module-level
}
