package config

import (
	"regexp"
	"strings"
)

// Wiki markup blocks that may wrap the YAML payload of a configuration page.
var payloadBlocks = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<syntaxhighlight(?:\s[^>]*)?>(.*?)</syntaxhighlight>`),
	regexp.MustCompile(`(?is)<source(?:\s[^>]*)?>(.*?)</source>`),
	regexp.MustCompile(`(?is)<pre(?:\s[^>]*)?>(.*?)</pre>`),
}

// ExtractPayload returns the YAML payload of a configuration page.
// The earliest wrapping block wins; a page without blocks is used whole.
func ExtractPayload(text string) string {
	best := -1
	payload := text
	for _, re := range payloadBlocks {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		if best == -1 || loc[0] < best {
			best = loc[0]
			payload = text[loc[2]:loc[3]]
		}
	}
	return strings.Trim(payload, "\r\n")
}
