package voice

import (
	"regexp"
	"strings"
)

// user/role/channel mentions and custom emoji tags, e.g. <@123>, <@!123>,
// <@&123>, <#123>, <a:name:123>
var mentionPattern = regexp.MustCompile(`<(@[!&]?|#|a?:\w+:)\d+>`)

// ScrubMentions removes Discord mention markup from text so the speech
// synthesizer never reads raw IDs aloud, and collapses leftover whitespace.
func ScrubMentions(text string) string {
	text = mentionPattern.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}
