// Package catalogmodel defines the data travelling through the ingestion
// pipeline: the raw shape fetched from the hosting platform, the derived
// shapes produced by validation, and the catalog itself.
//
// Every field that the platform may omit is represented so a missing leaf
// degrades to its zero value rather than failing the decode.
package catalogmodel

import "time"

// Collaborator is a direct collaborator on a repository.
type Collaborator struct {
	Login       string `json:"login"`
	DisplayName string `json:"displayName,omitempty"`
}

// Asset is a single file attached to a release.
type Asset struct {
	Name          string `json:"name"`
	ContentType   string `json:"contentType"`
	DownloadURL   string `json:"downloadUrl"`
	DownloadCount int    `json:"downloadCount"`
	Size          int64  `json:"size"`
}

// RawRelease is one release node as returned by the platform, before any
// validation.
type RawRelease struct {
	TagName         string    `json:"tagName"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	DescriptionHTML string    `json:"descriptionHTML,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	PublishedAt     time.Time `json:"publishedAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	IsDraft         bool      `json:"isDraft"`
	IsPrerelease    bool      `json:"isPrerelease"`
	IsImmutable     bool      `json:"isImmutable"`
	IsLatest        bool      `json:"isLatest"`
	Assets          []Asset   `json:"assets"`
}

// RawRepository is one repository node as returned by the platform.
//
// LatestRelease is the platform's own notion of the repository's current
// release, returned as a full release node in its own GraphQL field
// (distinct from the Releases list) because the first page of Releases
// sometimes omits it (§4.4).
type RawRepository struct {
	Identifier     string         `json:"identifier"`
	Description    string         `json:"description,omitempty"`
	URL            string         `json:"url"`
	HomepageURL    string         `json:"homepageUrl,omitempty"`
	Collaborators  []Collaborator `json:"collaborators,omitempty"`
	README         string         `json:"readme,omitempty"`
	AuxManifest    string         `json:"auxManifest,omitempty"`
	LatestRelease  *RawRelease    `json:"latestRelease,omitempty"`
	Releases       []RawRelease   `json:"releases"`
	StargazerCount int            `json:"stargazerCount"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
