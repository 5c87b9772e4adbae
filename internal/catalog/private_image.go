package catalog

import "regexp"

// publicImageURLPattern matches a release's public asset-image URL in its
// raw markdown: https://github.com/{owner}/{repo}/assets/{num}/{uuid}.
var publicImageURLPattern = regexp.MustCompile(
	`https://github\.com/[^/\s]+/[^/\s]+/assets/\d+/([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})`,
)

// privateImageURLPattern matches the time-limited private rendering of the
// same image in the rendered HTML:
// https://private-user-images.githubusercontent.com/{num1}/{num2}-{uuid}...
// up to (but not including) the next double quote.
var privateImageURLPattern = regexp.MustCompile(
	`https://private-user-images\.githubusercontent\.com/\d+/\d+-([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})[^"]*`,
)

// RewritePrivateImages replaces time-limited private-user-images URLs in
// descriptionHTML with the stable public github.com/.../assets/... URL that
// shares the same UUID, as found in the raw markdown (§4.3). Idempotent:
// applying it twice yields the same result as applying it once, since a
// replaced URL no longer matches privateImageURLPattern.
func RewritePrivateImages(markdown, descriptionHTML string) string {
	if descriptionHTML == "" {
		return descriptionHTML
	}

	publicByUUID := make(map[string]string)
	for _, m := range publicImageURLPattern.FindAllStringSubmatch(markdown, -1) {
		uuid := m[1]
		fullURL := m[0]
		if _, exists := publicByUUID[uuid]; !exists {
			publicByUUID[uuid] = fullURL
		}
	}

	if len(publicByUUID) == 0 {
		return descriptionHTML
	}

	return privateImageURLPattern.ReplaceAllStringFunc(descriptionHTML, func(match string) string {
		sub := privateImageURLPattern.FindStringSubmatch(match)
		if sub == nil {
			return match
		}
		uuid := sub[1]
		if publicURL, ok := publicByUUID[uuid]; ok {
			return publicURL
		}
		return match
	})
}
