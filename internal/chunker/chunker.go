// Package chunker groups encoded message segments into request-sized chunks.
package chunker

import "strings"

// DefaultMaxBytes keeps one DeepL request body under its 128 KiB cap with
// room left for the other form fields and URL encoding growth.
const DefaultMaxBytes = 96 * 1024

// ChunkBySize splits pieces into chunks whose total byte length doesn't
// exceed maxBytes. Each piece is kept whole - never split mid-piece.
// Returns a slice of chunks, where each chunk is a slice of pieces.
func ChunkBySize(pieces []string, maxBytes int) [][]string {
	if len(pieces) == 0 {
		return nil
	}

	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	var chunks [][]string
	var currentChunk []string
	currentBytes := 0

	for _, piece := range pieces {
		size := len(piece)

		// If a single piece exceeds maxBytes, it gets its own chunk
		if size > maxBytes {
			// Flush current chunk if not empty
			if len(currentChunk) > 0 {
				chunks = append(chunks, currentChunk)
				currentChunk = nil
				currentBytes = 0
			}
			// Add oversized piece as its own chunk
			chunks = append(chunks, []string{piece})
			continue
		}

		// If adding this piece would exceed the byte limit, start a new chunk
		if currentBytes+size > maxBytes && len(currentChunk) > 0 {
			chunks = append(chunks, currentChunk)
			currentChunk = nil
			currentBytes = 0
		}

		// Add piece to current chunk
		currentChunk = append(currentChunk, piece)
		currentBytes += size
	}

	// Flush remaining chunk
	if len(currentChunk) > 0 {
		chunks = append(chunks, currentChunk)
	}

	return chunks
}

// Texts splits pieces with ChunkBySize and joins every chunk into one text.
func Texts(pieces []string, maxBytes int) []string {
	chunks := ChunkBySize(pieces, maxBytes)
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = strings.Join(chunk, "")
	}
	return texts
}
