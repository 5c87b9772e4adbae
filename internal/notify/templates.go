package notify

import (
	"strings"

	"github.com/KernelSU-Modules-Repo/modules/internal/catalogmodel"
)

// template is a skip reason's static title + body, interpolated with
// {key} placeholders sourced from the SkipInfo's details (§4.7). Templates
// are the sole user-visible vocabulary — code elsewhere refers to reasons
// symbolically (§7).
type template struct {
	Title string
	Body  string
}

var templates = map[catalogmodel.SkipReason]template{
	catalogmodel.ReasonReservedName: {
		Title: "Module name is reserved",
		Body:  "This repository's name is reserved and cannot be published as a module.",
	},
	catalogmodel.ReasonInvalidName: {
		Title: "Module name is invalid",
		Body:  "This repository's name does not meet the module identifier format requirements.",
	},
	catalogmodel.ReasonNoDescription: {
		Title: "Module is missing a description",
		Body:  "Add a repository description; it becomes the module's display name.",
	},
	catalogmodel.ReasonNoValidReleases: {
		Title: "No valid releases found",
		Body:  "No release of this module has passed validation yet.",
	},
	catalogmodel.ReasonNoZipAsset: {
		Title: "Release {tagName} has no zip asset",
		Body:  "Release {tagName} does not have an attached application/zip asset.",
	},
	catalogmodel.ReasonModuleIDMismatch: {
		Title: "Release {tagName} has a module id mismatch",
		Body:  "module.prop declares id \"{moduleId}\", which does not match the repository name \"{repoName}\".",
	},
	catalogmodel.ReasonMissingVersion: {
		Title: "Release {tagName} is missing version information",
		Body:  "module.prop must declare both version ({version}) and versionCode ({versionCode}).",
	},
	catalogmodel.ReasonMissingModuleProp: {
		Title: "Release {tagName} is missing module.prop",
		Body:  "Could not read module.prop from release {tagName}'s zip asset.",
	},
}

const footer = "\n\n---\nThis comment was generated automatically by the module catalog builder."

// renderBody interpolates {key} placeholders in the template body using
// skip.Details plus the release tag, unknown/missing keys render as the
// literal "N/A" (§4.7).
func renderBody(skip catalogmodel.SkipInfo) string {
	tpl, ok := templates[skip.Reason]
	if !ok {
		tpl = template{Title: string(skip.Reason), Body: skip.Message}
	}

	data := map[string]string{"tagName": skip.TagName}
	for k, v := range skip.Details {
		data[k] = v
	}

	body := interpolate(tpl.Body, data)
	return "**" + interpolate(tpl.Title, data) + "**\n\n" + body
}

func interpolate(s string, data map[string]string) string {
	var b strings.Builder
	for {
		start := strings.IndexByte(s, '{')
		if start == -1 {
			b.WriteString(s)
			break
		}
		end := strings.IndexByte(s[start:], '}')
		if end == -1 {
			b.WriteString(s)
			break
		}
		end += start

		b.WriteString(s[:start])
		key := s[start+1 : end]
		value, known := data[key]
		if !known || value == "" {
			value = "N/A"
		}
		b.WriteString(value)
		s = s[end+1:]
	}
	return b.String()
}
