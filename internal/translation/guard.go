package translation

import "github.com/pricofy/slack-translator/internal/domain"

// AlreadyPosted reports whether a thread already holds a reply with exactly
// this text. Two different messages that translate to the same text are
// treated as duplicates.
func AlreadyPosted(replies []domain.Message, candidate string) bool {
	for _, reply := range replies {
		if reply.Text != "" && reply.Text == candidate {
			return true
		}
	}
	return false
}
