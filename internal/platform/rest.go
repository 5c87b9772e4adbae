package platform

import (
	"context"
	"fmt"
	"net/http"

	"github.com/KernelSU-Modules-Repo/modules/internal/catalogmodel"
)

// RESTRelease is the subset of a release's REST representation the
// notification dispatcher needs: who authored it.
type RESTRelease struct {
	TagName string `json:"tag_name"`
	Author  struct {
		Login string `json:"login"`
	} `json:"author"`
}

// GetReleaseByTag looks up a release by its tag, used to resolve the
// notification addressee (§4.7).
func (c *Client) GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*RESTRelease, error) {
	var release RESTRelease
	path := fmt.Sprintf("/repos/%s/%s/releases/tags/%s", owner, repo, tag)
	if err := c.doREST(ctx, http.MethodGet, path, nil, &release); err != nil {
		return nil, err
	}
	return &release, nil
}

// ListCollaborators lists a repository's direct collaborators.
func (c *Client) ListCollaborators(ctx context.Context, owner, repo string) ([]catalogmodel.Collaborator, error) {
	var raw []struct {
		Login string `json:"login"`
		Name  string `json:"name"`
	}
	path := fmt.Sprintf("/repos/%s/%s/collaborators?affiliation=direct", owner, repo)
	if err := c.doREST(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	collaborators := make([]catalogmodel.Collaborator, 0, len(raw))
	for _, r := range raw {
		collaborators = append(collaborators, catalogmodel.Collaborator{Login: r.Login, DisplayName: r.Name})
	}
	return collaborators, nil
}

// RefObject is a Git ref's pointee: either a commit directly, or an
// annotated tag object that must be dereferenced once more (§4.7).
type RefObject struct {
	Object struct {
		SHA  string `json:"sha"`
		Type string `json:"type"`
	} `json:"object"`
}

// GetRef resolves "tags/{tag}" to the object it points at.
func (c *Client) GetRef(ctx context.Context, owner, repo, tag string) (*RefObject, error) {
	var ref RefObject
	path := fmt.Sprintf("/repos/%s/%s/git/ref/tags/%s", owner, repo, tag)
	if err := c.doREST(ctx, http.MethodGet, path, nil, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

// TagObject is an annotated tag's body, carrying the commit it points at.
type TagObject struct {
	Object struct {
		SHA  string `json:"sha"`
		Type string `json:"type"`
	} `json:"object"`
}

// GetTag dereferences an annotated tag object to the commit it points at.
func (c *Client) GetTag(ctx context.Context, owner, repo, sha string) (*TagObject, error) {
	var tag TagObject
	path := fmt.Sprintf("/repos/%s/%s/git/tags/%s", owner, repo, sha)
	if err := c.doREST(ctx, http.MethodGet, path, nil, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// ResolveTagCommit resolves a tag name to the commit SHA it ultimately
// points at, dereferencing one level of annotated tag if necessary (§4.7).
func (c *Client) ResolveTagCommit(ctx context.Context, owner, repo, tag string) (string, error) {
	ref, err := c.GetRef(ctx, owner, repo, tag)
	if err != nil {
		return "", err
	}

	if ref.Object.Type != "tag" {
		return ref.Object.SHA, nil
	}

	tagObj, err := c.GetTag(ctx, owner, repo, ref.Object.SHA)
	if err != nil {
		return "", err
	}
	return tagObj.Object.SHA, nil
}

// CreateCommitComment posts a comment on a commit.
func (c *Client) CreateCommitComment(ctx context.Context, owner, repo, sha, body string) error {
	path := fmt.Sprintf("/repos/%s/%s/commits/%s/comments", owner, repo, sha)
	return c.doREST(ctx, http.MethodPost, path, map[string]string{"body": body}, nil)
}
