package publish

import (
	"regexp"
	"strings"
)

// DefaultTitleSuffix and DefaultFallbackTitle mirror the channel's naming.
const (
	DefaultTitleSuffix   = " in Japanese 💖"
	DefaultFallbackTitle = "Japanese ASMR Lesson"
)

var quotedPhrase = regexp.MustCompile(`[“"](.*?)[”"]`)

// TitleOptions shapes the generated title.
type TitleOptions struct {
	Suffix   string
	Fallback string
	Hashtags []string
}

// Title derives the post title from the first quoted phrase of script. Without
// a quoted phrase the fallback title is used. Hashtags, when present, follow on
// a new line.
func Title(script string, opts TitleOptions) string {
	suffix := opts.Suffix
	if suffix == "" {
		suffix = DefaultTitleSuffix
	}
	fallback := strings.TrimSpace(opts.Fallback)
	if fallback == "" {
		fallback = DefaultFallbackTitle
	}

	title := fallback
	if match := quotedPhrase.FindStringSubmatch(script); match != nil {
		title = "'" + match[1] + "'" + suffix
	}

	tags := make([]string, 0, len(opts.Hashtags))
	for _, tag := range opts.Hashtags {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag != "" {
			tags = append(tags, "#"+tag)
		}
	}
	if len(tags) > 0 {
		title += "\n" + strings.Join(tags, " ")
	}
	return title
}
