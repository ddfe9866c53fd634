package markup

import (
	"regexp"
	"strings"
)

var linkOpenTag = regexp.MustCompile(`^<lnk\s+href\s*=\s*"([^"]*)"\s*>`)

// Restore turns a translated text back into Slack text.
func Restore(translated string) string {
	return Render(Decode(translated))
}

// Decode parses the translation form back into segments. Text outside known
// tags, including unknown tags, stays Literal.
func Decode(s string) []Segment {
	var (
		segments []Segment
		lit      strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			segments = append(segments, Literal{Text: lit.String()})
			lit.Reset()
		}
	}

	for len(s) > 0 {
		open := strings.IndexByte(s, '<')
		if open < 0 {
			lit.WriteString(s)
			break
		}
		lit.WriteString(s[:open])
		s = s[open:]

		seg, n := decodeTag(s)
		if n == 0 {
			lit.WriteByte('<')
			s = s[1:]
			continue
		}
		flush()
		segments = append(segments, seg)
		s = s[n:]
	}
	flush()
	return segments
}

// decodeTag decodes the tag at the start of s and returns how many bytes it
// spans, or 0 when s does not start with a known tag.
func decodeTag(s string) (Segment, int) {
	for _, tag := range []string{"<sbt/>", "<sbt />", "<sbt></sbt>"} {
		if strings.HasPrefix(s, tag) {
			return SubteamMention{}, len(tag)
		}
	}
	if body, n, ok := element(s, tagProtected); ok {
		return ProtectedMarkup{Raw: xmlUnescaper.Replace(body)}, n
	}
	if body, n, ok := element(s, tagMention); ok {
		return SpecialMention{Name: xmlUnescaper.Replace(body)}, n
	}
	if body, n, ok := element(s, tagEmoji); ok {
		return EmojiShortcode{Name: strings.TrimSpace(body)}, n
	}
	if m := linkOpenTag.FindStringSubmatch(s); m != nil {
		closeTag := "</" + tagLink + ">"
		end := strings.Index(s[len(m[0]):], closeTag)
		if end < 0 {
			return nil, 0
		}
		label := s[len(m[0]) : len(m[0])+end]
		return FormattedLink{
			Href:  xmlUnescaper.Replace(m[1]),
			Label: Restore(label),
		}, len(m[0]) + end + len(closeTag)
	}
	return nil, 0
}

// element matches <tag>body</tag> at the start of s.
func element(s, tag string) (string, int, bool) {
	openTag, closeTag := "<"+tag+">", "</"+tag+">"
	if !strings.HasPrefix(s, openTag) {
		return "", 0, false
	}
	end := strings.Index(s[len(openTag):], closeTag)
	if end < 0 {
		return "", 0, false
	}
	return s[len(openTag) : len(openTag)+end], len(openTag) + end + len(closeTag), true
}
