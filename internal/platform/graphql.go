package platform

import (
	"context"
	"time"

	"github.com/KernelSU-Modules-Repo/modules/internal/catalogmodel"
)

// orgRepositoriesQuery lists an organization's public repositories,
// newest-updated-first, with cursor pagination. The query text itself is an
// external collaborator's concern (§1) — this is a minimal shape carrying
// exactly the fields RawRepository needs.
const orgRepositoriesQuery = `
query($login: String!, $pageSize: Int!, $after: String) {
  organization(login: $login) {
    repositories(first: $pageSize, after: $after, orderBy: {field: UPDATED_AT, direction: DESC}, privacy: PUBLIC) {
      pageInfo { hasNextPage endCursor }
      nodes { ...repositoryFields }
    }
  }
}
` + repositoryFieldsFragment

// repositoryDetailQuery fetches a single repository by owner/name, used by
// incremental mode.
const repositoryDetailQuery = `
query($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) { ...repositoryFields }
}
` + repositoryFieldsFragment

const repositoryFieldsFragment = `
fragment repositoryFields on Repository {
  name
  description
  url
  homepageUrl
  stargazerCount
  createdAt
  updatedAt
  readmeObject: object(expression: "HEAD:README.md") { ... on Blob { text } }
  auxManifestObject: object(expression: "HEAD:catalog.json") { ... on Blob { text } }
  collaborators(affiliation: DIRECT) {
    nodes { login name }
  }
  latestRelease { ...releaseFields }
  releases(first: 50, orderBy: {field: CREATED_AT, direction: DESC}) {
    nodes { ...releaseFields }
  }
}
`

const releaseFieldsFragment = `
fragment releaseFields on Release {
  tagName
  name
  description
  descriptionHTML
  createdAt
  publishedAt
  updatedAt
  isDraft
  isPrerelease
  isLatest
  isImmutable
  releaseAssets(first: 20) {
    nodes { name contentType downloadUrl downloadCount size }
  }
}
`

type graphQLAsset struct {
	Name          string `json:"name"`
	ContentType   string `json:"contentType"`
	DownloadURL   string `json:"downloadUrl"`
	DownloadCount int    `json:"downloadCount"`
	Size          int64  `json:"size"`
}

type graphQLRelease struct {
	TagName         string    `json:"tagName"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	DescriptionHTML string    `json:"descriptionHTML"`
	CreatedAt       time.Time `json:"createdAt"`
	PublishedAt     time.Time `json:"publishedAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	IsDraft         bool      `json:"isDraft"`
	IsPrerelease    bool      `json:"isPrerelease"`
	IsLatest        bool      `json:"isLatest"`
	IsImmutable     bool      `json:"isImmutable"`
	ReleaseAssets   struct {
		Nodes []graphQLAsset `json:"nodes"`
	} `json:"releaseAssets"`
}

func (r graphQLRelease) toRaw() catalogmodel.RawRelease {
	assets := make([]catalogmodel.Asset, 0, len(r.ReleaseAssets.Nodes))
	for _, a := range r.ReleaseAssets.Nodes {
		assets = append(assets, catalogmodel.Asset{
			Name:          a.Name,
			ContentType:   a.ContentType,
			DownloadURL:   a.DownloadURL,
			DownloadCount: a.DownloadCount,
			Size:          a.Size,
		})
	}
	return catalogmodel.RawRelease{
		TagName:         r.TagName,
		Name:            r.Name,
		Description:     r.Description,
		DescriptionHTML: r.DescriptionHTML,
		CreatedAt:       r.CreatedAt,
		PublishedAt:     r.PublishedAt,
		UpdatedAt:       r.UpdatedAt,
		IsDraft:         r.IsDraft,
		IsPrerelease:    r.IsPrerelease,
		IsImmutable:     r.IsImmutable,
		IsLatest:        r.IsLatest,
		Assets:          assets,
	}
}

type graphQLRepository struct {
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	URL            string    `json:"url"`
	HomepageURL    string    `json:"homepageUrl"`
	StargazerCount int       `json:"stargazerCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	ReadmeObject   *struct {
		Text string `json:"text"`
	} `json:"readmeObject"`
	AuxManifestObject *struct {
		Text string `json:"text"`
	} `json:"auxManifestObject"`
	Collaborators struct {
		Nodes []struct {
			Login string `json:"login"`
			Name  string `json:"name"`
		} `json:"nodes"`
	} `json:"collaborators"`
	LatestRelease *graphQLRelease `json:"latestRelease"`
	Releases      struct {
		Nodes []graphQLRelease `json:"nodes"`
	} `json:"releases"`
}

func (r graphQLRepository) toRaw() catalogmodel.RawRepository {
	collaborators := make([]catalogmodel.Collaborator, 0, len(r.Collaborators.Nodes))
	for _, c := range r.Collaborators.Nodes {
		collaborators = append(collaborators, catalogmodel.Collaborator{Login: c.Login, DisplayName: c.Name})
	}

	releases := make([]catalogmodel.RawRelease, 0, len(r.Releases.Nodes))
	for _, rel := range r.Releases.Nodes {
		releases = append(releases, rel.toRaw())
	}

	var latest *catalogmodel.RawRelease
	if r.LatestRelease != nil {
		raw := r.LatestRelease.toRaw()
		latest = &raw
	}

	readme := ""
	if r.ReadmeObject != nil {
		readme = r.ReadmeObject.Text
	}

	auxManifest := ""
	if r.AuxManifestObject != nil {
		auxManifest = r.AuxManifestObject.Text
	}

	return catalogmodel.RawRepository{
		Identifier:     r.Name,
		Description:    r.Description,
		URL:            r.URL,
		HomepageURL:    r.HomepageURL,
		Collaborators:  collaborators,
		README:         readme,
		AuxManifest:    auxManifest,
		LatestRelease:  latest,
		Releases:       releases,
		StargazerCount: r.StargazerCount,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type listReposResponse struct {
	Data struct {
		Organization struct {
			Repositories struct {
				PageInfo pageInfo            `json:"pageInfo"`
				Nodes    []graphQLRepository `json:"nodes"`
			} `json:"repositories"`
		} `json:"organization"`
	} `json:"data"`
}

type repoDetailResponse struct {
	Data struct {
		Repository *graphQLRepository `json:"repository"`
	} `json:"data"`
}

// ListOrgRepositories pages through org's public repositories, newest-
// updated-first, requesting pageSize repositories per page (§6).
func (c *Client) ListOrgRepositories(ctx context.Context, org string, pageSize int) ([]catalogmodel.RawRepository, error) {
	var all []catalogmodel.RawRepository
	cursor := ""

	for {
		var resp listReposResponse
		variables := map[string]interface{}{
			"login":    org,
			"pageSize": pageSize,
		}
		if cursor != "" {
			variables["after"] = cursor
		}

		if err := c.postGraphQL(ctx, orgRepositoriesQuery, variables, &resp); err != nil {
			return nil, err
		}

		for _, node := range resp.Data.Organization.Repositories.Nodes {
			all = append(all, node.toRaw())
		}

		if !resp.Data.Organization.Repositories.PageInfo.HasNextPage {
			break
		}
		cursor = resp.Data.Organization.Repositories.PageInfo.EndCursor
	}

	return all, nil
}

// GetRepository fetches a single repository's full detail, used by
// incremental mode.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*catalogmodel.RawRepository, error) {
	var resp repoDetailResponse
	variables := map[string]interface{}{"owner": owner, "name": name}

	if err := c.postGraphQL(ctx, repositoryDetailQuery, variables, &resp); err != nil {
		return nil, err
	}
	if resp.Data.Repository == nil {
		return nil, nil
	}

	raw := resp.Data.Repository.toRaw()
	return &raw, nil
}
