package documents

import "strings"

// splitText cuts text into chunks of roughly size runes with the given
// overlap, preferring whitespace boundaries so words stay intact.
// Empty or whitespace-only input yields no chunks.
func splitText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(text)
	var chunks []string

	for start := 0; start < len(runes); {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			// Walk back to the nearest whitespace, but never shrink the
			// chunk below the overlap window or it would stop advancing.
			boundary := end
			for boundary > start+overlap+1 && !isSpace(runes[boundary-1]) {
				boundary--
			}
			if boundary > start+overlap+1 {
				end = boundary
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}
		start = end - overlap
	}

	return chunks
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
