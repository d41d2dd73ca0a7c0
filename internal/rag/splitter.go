package rag

import (
	"strings"
	"unicode/utf8"
)

// Splitter cuts text into chunks of at most chunkSize characters with
// chunkOverlap characters carried between neighbors, preferring
// paragraph, then line, then word boundaries before slicing hard.
// Lengths are counted in runes so accented text is not over-split.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   []string{"\n\n", "\n", " ", ""},
	}
}

func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var remaining []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			remaining = separators[i+1:]
			break
		}
	}

	if separator == "" {
		return s.hardSplit(text)
	}

	var final []string
	var good []string
	for _, sp := range strings.Split(text, separator) {
		if utf8.RuneCountInString(sp) < s.chunkSize {
			good = append(good, sp)
			continue
		}
		// This piece alone is too big: flush what we have and
		// recurse into it with the finer separators.
		if len(good) > 0 {
			final = append(final, s.merge(good, separator)...)
			good = nil
		}
		if len(remaining) == 0 {
			final = append(final, sp)
		} else {
			final = append(final, s.split(sp, remaining)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good, separator)...)
	}
	return final
}

// merge greedily packs splits into chunks up to chunkSize, then slides
// the window back so up to chunkOverlap characters repeat in the next
// chunk.
func (s *Splitter) merge(splits []string, separator string) []string {
	sepLen := utf8.RuneCountInString(separator)

	var docs []string
	var current []string
	total := 0

	emit := func() {
		doc := strings.TrimSpace(strings.Join(current, separator))
		if doc != "" {
			docs = append(docs, doc)
		}
	}

	for _, d := range splits {
		dLen := utf8.RuneCountInString(d)
		extra := 0
		if len(current) > 0 {
			extra = sepLen
		}

		if total+dLen+extra > s.chunkSize && len(current) > 0 {
			emit()
			for len(current) > 0 &&
				(total > s.chunkOverlap || (total+dLen+sepLen > s.chunkSize && total > 0)) {
				dec := utf8.RuneCountInString(current[0])
				if len(current) > 1 {
					dec += sepLen
				}
				total -= dec
				current = current[1:]
			}
		}

		current = append(current, d)
		total += dLen
		if len(current) > 1 {
			total += sepLen
		}
	}

	if len(current) > 0 {
		emit()
	}
	return docs
}

// hardSplit slices text with no natural boundary left, stepping by
// chunkSize minus overlap.
func (s *Splitter) hardSplit(text string) []string {
	runes := []rune(text)
	if len(runes) <= s.chunkSize {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	step := s.chunkSize - s.chunkOverlap
	if step < 1 {
		step = 1
	}

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
