package markup

import "strings"

// Escape returns the translation form of a Slack message.
func Escape(text string) string {
	return Encode(Parse(text))
}

// Parse splits a Slack message into segments. It never fails: stray or
// nested brackets become ProtectedMarkup.
func Parse(text string) []Segment {
	var (
		segments []Segment
		start    int
	)
	flush := func(end int) {
		if end > start {
			segments = append(segments, Literal{Text: text[start:end]})
		}
	}

	for i := 0; i < len(text); {
		switch text[i] {
		case '<':
			flush(i)
			end := strings.IndexByte(text[i+1:], '>')
			if end < 0 || strings.IndexByte(text[i+1:i+1+end], '<') >= 0 {
				segments = append(segments, ProtectedMarkup{Raw: "<"})
				i++
			} else {
				segments = append(segments, classify(text[i+1:i+1+end]))
				i += end + 2
			}
			start = i
		case '>':
			flush(i)
			segments = append(segments, ProtectedMarkup{Raw: ">"})
			i++
			start = i
		case ':':
			n := shortcodeLen(text[i:])
			if n == 0 {
				i++
				continue
			}
			flush(i)
			segments = append(segments, EmojiShortcode{Name: text[i+1 : i+n-1]})
			i += n
			start = i
		default:
			i++
		}
	}
	flush(len(text))
	return segments
}

// classify maps the interior of a <...> reference to a segment.
func classify(inner string) Segment {
	switch {
	case strings.HasPrefix(inner, "#"), strings.HasPrefix(inner, "@"):
		return ProtectedMarkup{Raw: "<" + inner + ">"}
	case strings.HasPrefix(inner, "!subteam"):
		return SubteamMention{}
	case strings.HasPrefix(inner, "!date"):
		return ProtectedMarkup{Raw: "<" + inner + ">"}
	case strings.HasPrefix(inner, "!"):
		name, _, _ := strings.Cut(inner[1:], "|")
		return SpecialMention{Name: name}
	}
	if sep := unescapedPipe(inner); sep >= 0 {
		return FormattedLink{Href: inner[:sep], Label: inner[sep+1:]}
	}
	return ProtectedMarkup{Raw: "<" + inner + ">"}
}

// unescapedPipe returns the index of the first "|" not preceded by a
// backslash, or -1.
func unescapedPipe(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '|' && (i == 0 || s[i-1] != '\\') {
			return i
		}
	}
	return -1
}

// shortcodeLen returns the length of a :name: shortcode at the start of s,
// or 0.
func shortcodeLen(s string) int {
	i := 1
	for i < len(s) && isShortcodeByte(s[i]) {
		i++
	}
	if i == 1 || i >= len(s) || s[i] != ':' {
		return 0
	}
	return i + 1
}

func isShortcodeByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}

func (s Literal) encode(b *strings.Builder) { b.WriteString(s.Text) }

func (s ProtectedMarkup) encode(b *strings.Builder) {
	writeTag(b, tagProtected, xmlEscaper.Replace(s.Raw))
}

func (s SpecialMention) encode(b *strings.Builder) {
	writeTag(b, tagMention, xmlEscaper.Replace(s.Name))
}

func (s SubteamMention) encode(b *strings.Builder) {
	b.WriteString("<" + tagSubteam + "/>")
}

func (s EmojiShortcode) encode(b *strings.Builder) {
	writeTag(b, tagEmoji, s.Name)
}

func (s FormattedLink) encode(b *strings.Builder) {
	b.WriteString(`<` + tagLink + ` href="`)
	b.WriteString(xmlEscaper.Replace(s.Href))
	b.WriteString(`">`)
	b.WriteString(Escape(s.Label))
	b.WriteString(`</` + tagLink + `>`)
}

func writeTag(b *strings.Builder, tag, body string) {
	b.WriteString("<" + tag + ">")
	b.WriteString(body)
	b.WriteString("</" + tag + ">")
}
