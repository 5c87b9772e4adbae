package catalog

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/KernelSU-Modules-Repo/modules/internal/catalogmodel"
)

// epoch is the catalog's "no release of this kind" timestamp default (§4.5).
var epoch = time.Unix(0, 0).UTC()

const githubBaseURL = "https://github.com/"

const maxSummaryRunes = 512

var snapshotNamePattern = regexp.MustCompile(`(?i)^(snapshot|nightly).*`)

// auxManifest is the optional per-repository JSON document carrying author
// overrides and catalog metadata the platform itself has no field for
// (§4.5). Malformed JSON degrades to a zero-value auxManifest rather than
// failing the module.
type auxManifest struct {
	AdditionalAuthors []auxAuthorEntry `json:"additionalAuthors"`
	Summary           json.RawMessage  `json:"summary"`
	SourceURL         json.RawMessage  `json:"sourceUrl"`
	Metamodule        json.RawMessage  `json:"metamodule"`
}

type auxAuthorEntry struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Link string `json:"link"`
}

func parseAuxManifest(raw string) auxManifest {
	var m auxManifest
	if strings.TrimSpace(raw) == "" {
		return m
	}
	_ = json.Unmarshal([]byte(raw), &m)
	return m
}

// authorCandidate carries the collaborator login alongside the rendered
// Author so the "remove" directive can match on either login or display
// name (§4.5).
type authorCandidate struct {
	Name  string
	Link  string
	Login string
}

// Assemble builds the catalog Module record for a validated repository from
// its accepted releases, applying author resolution, summary/source-url
// extraction, latest-by-kind selection, and README rendering (§4.5).
func Assemble(repo catalogmodel.RawRepository, acceptedReleases []catalogmodel.AcceptedRelease) *catalogmodel.Module {
	manifest := parseAuxManifest(repo.AuxManifest)

	authors := resolveAuthors(repo.Collaborators, manifest.AdditionalAuthors)

	summary := extractSummary(manifest.Summary)
	sourceURL := extractSourceURL(manifest.SourceURL)
	metamodule := extractBool(manifest.Metamodule)

	latest, beta, snapshot := selectByKind(acceptedReleases)

	var latestName *string
	latestTime, betaTime, snapshotTime := epoch, epoch, epoch
	if latest != nil {
		name := latest.Name
		latestName = &name
		latestTime = orEpoch(latest.PublishedAt)
	}
	if beta != nil {
		betaTime = orEpoch(beta.PublishedAt)
	}
	if snapshot != nil {
		snapshotTime = orEpoch(snapshot.PublishedAt)
	}

	readmeHTML, hasREADME := RenderREADME(repo.README)
	var readme, readmeHTMLPtr *string
	if hasREADME {
		r := repo.README
		readme = &r
		readmeHTMLPtr = &readmeHTML
	}

	var homepage *string
	if repo.HomepageURL != "" {
		homepage = &repo.HomepageURL
	}

	return &catalogmodel.Module{
		ModuleID:              repo.Identifier,
		ModuleName:            repo.Description,
		URL:                   repo.URL,
		HomepageURL:           homepage,
		Authors:               authors,
		LatestReleaseName:     latestName,
		LatestReleaseTime:     latestTime,
		LatestBetaReleaseTime: betaTime,
		LatestSnapshotTime:    snapshotTime,
		Releases:              acceptedReleases,
		README:                readme,
		READMEHTML:            readmeHTMLPtr,
		Summary:               summary,
		SourceURL:             sourceURL,
		CreatedAt:             repo.CreatedAt,
		UpdatedAt:             repo.UpdatedAt,
		StargazerCount:        repo.StargazerCount,
		Metamodule:            metamodule,
	}
}

func orEpoch(t time.Time) time.Time {
	if t.IsZero() {
		return epoch
	}
	return t
}

func resolveAuthors(collaborators []catalogmodel.Collaborator, additional []auxAuthorEntry) []catalogmodel.Author {
	candidates := make([]authorCandidate, 0, len(collaborators))
	for _, c := range collaborators {
		name := c.DisplayName
		if name == "" {
			name = c.Login
		}
		candidates = append(candidates, authorCandidate{
			Name:  name,
			Link:  githubBaseURL + c.Login,
			Login: c.Login,
		})
	}

	for _, entry := range additional {
		switch entry.Type {
		case "remove":
			candidates = removeAuthorByName(candidates, entry.Name)
		case "add", "":
			if !hasAuthorName(candidates, entry.Name) {
				candidates = append(candidates, authorCandidate{Name: entry.Name, Link: entry.Link})
			}
		default:
			// unrecognized directive type, ignored per §4.5
		}
	}

	authors := make([]catalogmodel.Author, 0, len(candidates))
	for _, c := range candidates {
		authors = append(authors, catalogmodel.Author{Name: c.Name, Link: c.Link})
	}
	return authors
}

func removeAuthorByName(candidates []authorCandidate, name string) []authorCandidate {
	out := candidates[:0:0]
	for _, c := range candidates {
		if c.Name == name || c.Login == name {
			continue
		}
		out = append(out, c)
	}
	return out
}

func hasAuthorName(candidates []authorCandidate, name string) bool {
	for _, c := range candidates {
		if c.Name == name {
			return true
		}
	}
	return false
}

func extractSummary(raw json.RawMessage) *string {
	s, ok := rawJSONString(raw)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = ellipsize(s, maxSummaryRunes)
	s = strings.TrimSpace(s)
	return &s
}

func extractSourceURL(raw json.RawMessage) *string {
	s, ok := rawJSONString(raw)
	if !ok {
		return nil
	}
	s = strings.NewReplacer("\r", "", "\n", "").Replace(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func extractBool(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}

func rawJSONString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func ellipsize(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes-1]) + "…"
}

// selectByKind implements the §4.5 latest/beta/snapshot selection over
// releases in the order they were returned (newest-first, unchanged by
// validation).
func selectByKind(releases []catalogmodel.AcceptedRelease) (latest, beta, snapshot *catalogmodel.AcceptedRelease) {
	for i := range releases {
		r := &releases[i]
		if !r.IsPrerelease && latest == nil {
			latest = r
		}
		if r.IsPrerelease && beta == nil && !snapshotNamePattern.MatchString(r.Name) {
			beta = r
		}
		if r.IsPrerelease && snapshot == nil && snapshotNamePattern.MatchString(r.Name) {
			snapshot = r
		}
	}

	if beta == nil {
		beta = latest
	}
	if snapshot == nil {
		snapshot = beta
	}
	return latest, beta, snapshot
}
