package segment

import "strings"

// Split segments text into sliding windows of chunkSize whitespace tokens,
// advancing by chunkSize-overlap tokens per window. The window always
// advances by at least one token so a misconfigured overlap >= chunkSize
// cannot stall the loop. Empty text yields no chunks.
func Split(text string, chunkSize, overlap int) []string {
	if text == "" {
		return nil
	}
	if chunkSize < 1 {
		chunkSize = 1
	}
	if overlap < 0 {
		overlap = 0
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	step := chunkSize - overlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := start + chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, strings.Join(tokens[start:end], " "))
		if end == len(tokens) {
			break
		}
	}
	return chunks
}

// TokenCount returns the whitespace token count of text, minimum 1 for
// non-empty text.
func TokenCount(text string) int {
	if text == "" {
		return 0
	}
	n := len(strings.Fields(text))
	if n < 1 {
		return 1
	}
	return n
}
