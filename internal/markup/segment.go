// Package markup protects Slack mrkdwn references while a message goes
// through machine translation.
//
// A message is parsed into segments. Every segment has an encoded form sent
// to DeepL (XML pseudo-tags, with the protected tags on DeepL's ignore list)
// and a rendered form that is valid Slack text again.
package markup

import "strings"

// SubteamPlaceholder replaces user group mentions after translation. The
// encoded form does not carry the group id.
const SubteamPlaceholder = "@usergroup"

// TagHandling is the DeepL tag_handling mode for encoded text.
const TagHandling = "xml"

const (
	tagProtected = "mrk"
	tagMention   = "mnt"
	tagEmoji     = "emj"
	tagSubteam   = "sbt"
	tagLink      = "lnk"
)

// IgnoredTags returns the tags DeepL must leave untranslated. Links are
// missing on purpose: their labels are translated.
func IgnoredTags() []string {
	return []string{tagProtected, tagMention, tagEmoji, tagSubteam}
}

// Segment is one piece of a parsed message.
type Segment interface {
	encode(b *strings.Builder)
	render(b *strings.Builder)
}

// Literal is translatable prose.
type Literal struct {
	Text string
}

// ProtectedMarkup is a bracketed reference kept verbatim: channel and user
// mentions, <!date> formatting, bare links and anything unrecognized. Raw
// includes the brackets.
type ProtectedMarkup struct {
	Raw string
}

// SpecialMention is <!here>, <!channel> and friends. Name has no "!" and no
// display label.
type SpecialMention struct {
	Name string
}

// SubteamMention is a <!subteam^ID> user group mention.
type SubteamMention struct{}

// EmojiShortcode is :name:.
type EmojiShortcode struct {
	Name string
}

// FormattedLink is <href|label>. Only the label is translated.
type FormattedLink struct {
	Href  string
	Label string
}

func (s Literal) render(b *strings.Builder)         { b.WriteString(s.Text) }
func (s ProtectedMarkup) render(b *strings.Builder) { b.WriteString(s.Raw) }
func (s SubteamMention) render(b *strings.Builder)  { b.WriteString(SubteamPlaceholder) }

func (s SpecialMention) render(b *strings.Builder) {
	b.WriteString("<!")
	b.WriteString(s.Name)
	b.WriteString(">")
}

func (s EmojiShortcode) render(b *strings.Builder) {
	b.WriteString(":")
	b.WriteString(s.Name)
	b.WriteString(":")
}

func (s FormattedLink) render(b *strings.Builder) {
	b.WriteString("<")
	b.WriteString(s.Href)
	b.WriteString("|")
	b.WriteString(s.Label)
	b.WriteString(">")
}

// Render joins the Slack form of segments.
func Render(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		s.render(&b)
	}
	return b.String()
}

// Encode joins the translation form of segments.
func Encode(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		s.encode(&b)
	}
	return b.String()
}

// EncodeEach returns the translation form of every segment separately, for
// callers that need to split a message into size-bounded requests.
func EncodeEach(segments []Segment) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		var b strings.Builder
		s.encode(&b)
		out[i] = b.String()
	}
	return out
}

var (
	xmlEscaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	xmlUnescaper = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`)
)
