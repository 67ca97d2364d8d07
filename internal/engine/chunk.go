package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ChunkSegments splits ordered segments into overlapping, citation-bearing
// text windows. targetChars is a soft maximum on the sum of segment text
// lengths per window; it never truncates segment text, so a single oversized
// segment still becomes its own chunk. overlapChars controls how much
// trailing text is carried into the next window so adjacent chunks share
// context across split boundaries. Empty input yields nil.
func ChunkSegments(videoID string, segments []Segment, targetChars, overlapChars int) []Chunk {
	var chunks []Chunk
	var window []Segment
	windowChars := 0

	flush := func() {
		if len(window) == 0 {
			return
		}
		texts := make([]string, len(window))
		ids := make([]string, len(window))
		start := window[0].Start
		end := start
		for i, seg := range window {
			texts[i] = seg.Text
			ids[i] = seg.ID
			if segEnd := seg.Start + seg.Dur; segEnd > end {
				end = segEnd
			}
		}
		chunks = append(chunks, Chunk{
			ID:         fmt.Sprintf("%s:chunk:%d", videoID, len(chunks)),
			Text:       strings.Join(texts, " "),
			Start:      start,
			End:        end,
			SegmentIDs: ids,
			CiteURL:    CiteURL(videoID, start),
		})
	}

	for _, seg := range segments {
		segChars := utf8.RuneCountInString(seg.Text)
		if len(window) > 0 && windowChars+segChars > targetChars {
			flush()
			if overlapChars > 0 {
				// Seed the next window with the closed window's tail,
				// scanning backward until the overlap target is met.
				i := len(window)
				carried := 0
				for i > 0 && carried < overlapChars {
					i--
					carried += utf8.RuneCountInString(window[i].Text)
				}
				window = append([]Segment(nil), window[i:]...)
				windowChars = carried
			} else {
				window = nil
				windowChars = 0
			}
		}
		window = append(window, seg)
		windowChars += segChars
	}
	flush()
	return chunks
}
