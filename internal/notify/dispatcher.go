// Package notify implements the notification dispatcher (C7): addressee
// resolution, template rendering, and commit-comment publication for a
// validation failure with shouldNotify set and a release tag name (§4.7).
package notify

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/KernelSU-Modules-Repo/modules/internal/catalogmodel"
	"github.com/KernelSU-Modules-Repo/modules/internal/config"
	"github.com/KernelSU-Modules-Repo/modules/internal/platform"
)

// PlatformClient is the subset of internal/platform.Client the dispatcher
// needs, narrowed to an interface so tests can substitute a fake.
type PlatformClient interface {
	GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*platform.RESTRelease, error)
	ListCollaborators(ctx context.Context, owner, repo string) ([]catalogmodel.Collaborator, error)
	ResolveTagCommit(ctx context.Context, owner, repo, tag string) (string, error)
	CreateCommitComment(ctx context.Context, owner, repo, sha, body string) error
}

// Dispatcher publishes a human-readable comment describing a validation
// failure on the commit pointed to by the offending release's tag.
type Dispatcher struct {
	client PlatformClient
	cfg    config.NotifyConfig
	logger *logrus.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(client PlatformClient, cfg config.NotifyConfig, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{client: client, cfg: cfg, logger: logger}
}

// Dispatch resolves an addressee, renders the skip's template, and posts a
// commit comment. Transient failures are logged and swallowed — they are
// never fatal to the pipeline (§4.7, §7).
func (d *Dispatcher) Dispatch(ctx context.Context, repo catalogmodel.RawRepository, skip catalogmodel.SkipInfo) {
	logger := d.logger.WithFields(logrus.Fields{"repository": repo.Identifier, "tag": skip.TagName, "reason": skip.Reason})

	if !skip.ShouldNotify || skip.TagName == "" {
		return
	}

	owner, name, err := platform.ParseRepoURL(repo.URL)
	if err != nil {
		logger.WithError(err).Error("failed to parse repository url for notification")
		return
	}

	mentions := d.resolveMentions(ctx, owner, name, skip.TagName, logger)

	body := renderBody(skip)
	if len(mentions) > 0 {
		body = strings.Join(mentions, " ") + "\n\n" + body
	}
	body += footer

	sha, err := d.client.ResolveTagCommit(ctx, owner, name, skip.TagName)
	if err != nil {
		logger.WithError(err).Error("failed to resolve tag to a commit")
		return
	}

	if err := d.client.CreateCommitComment(ctx, owner, name, sha, body); err != nil {
		logger.WithError(err).Error("failed to post notification comment")
	}
}

// resolveMentions implements the §4.7 addressee resolution: release author
// first, direct collaborators as fallback, bots excluded from both.
func (d *Dispatcher) resolveMentions(ctx context.Context, owner, name, tag string, logger *logrus.Entry) []string {
	release, err := d.client.GetReleaseByTag(ctx, owner, name, tag)
	if err != nil {
		logger.WithError(err).Warn("failed to look up release author")
	} else if release != nil && release.Author.Login != "" && !d.isBot(release.Author.Login) {
		return []string{"@" + release.Author.Login}
	}

	collaborators, err := d.client.ListCollaborators(ctx, owner, name)
	if err != nil {
		logger.WithError(err).Warn("failed to list collaborators")
		return nil
	}

	var mentions []string
	for _, c := range collaborators {
		if !d.isBot(c.Login) {
			mentions = append(mentions, "@"+c.Login)
		}
	}
	return mentions
}

func (d *Dispatcher) isBot(login string) bool {
	for _, bot := range d.cfg.BotLogins {
		if login == bot {
			return true
		}
	}
	return false
}
