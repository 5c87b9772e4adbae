package platform

import (
	"net/url"
	"strings"

	"github.com/KernelSU-Modules-Repo/modules/internal/apperr"
)

// ParseRepoURL extracts owner and name from a repository's canonical URL,
// following the teacher's repository_service.go parseRepoURL shape.
func ParseRepoURL(repoURL string) (owner, name string, err error) {
	u, parseErr := url.Parse(repoURL)
	if parseErr != nil {
		return "", "", apperr.NewValidationError("invalid repository URL", parseErr)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 {
		return "", "", apperr.NewValidationError("invalid repository path format", nil)
	}

	return parts[0], parts[1], nil
}
