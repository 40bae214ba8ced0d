package knowledge

import (
	"bufio"
	"bytes"
	"strings"
	"unicode/utf8"
)

// Entry is one question and its answer. Question is empty for free-standing
// paragraphs.
type Entry struct {
	Question string
	Answer   string
}

func (e Entry) String() string {
	switch {
	case e.Question == "":
		return e.Answer
	case e.Answer == "":
		return e.Question
	}
	return e.Question + "\n" + e.Answer
}

// ParseEntries splits FAQ Markdown into entries:
//   - a heading ("#"…) or a "Q:" line starts an entry, the lines below it up to
//     the next heading are its answer ("A:" prefixes are dropped)
//   - a table row "| question | answer |" is an entry of its own; header and
//     separator rows are skipped
//   - paragraphs before the first heading become answer-only entries
func ParseEntries(md []byte) []Entry {
	var (
		out    []Entry
		cur    *Entry
		answer []string
		header = true // next table row is a header
	)
	flush := func() {
		text := strings.TrimSpace(strings.Join(answer, "\n"))
		answer = answer[:0]
		if cur != nil {
			cur.Answer = text
			if cur.Question != "" || cur.Answer != "" {
				out = append(out, *cur)
			}
			cur = nil
			return
		}
		if text != "" {
			out = append(out, Entry{Answer: text})
		}
	}

	sc := bufio.NewScanner(bytes.NewReader(md))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		if strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|") {
			flush()
			cells := tableCells(line)
			if len(cells) == 0 {
				continue // separator
			}
			if header {
				header = false
				continue
			}
			e := Entry{Question: cells[0]}
			if len(cells) > 1 {
				e.Answer = strings.Join(cells[1:], " ")
			}
			out = append(out, e)
			continue
		}
		header = true

		switch {
		case strings.HasPrefix(line, "#"):
			flush()
			cur = &Entry{Question: strings.TrimSpace(strings.TrimLeft(line, "#"))}
		case hasPrefixFold(line, "Q:") || strings.HasPrefix(line, "Q："):
			flush()
			cur = &Entry{Question: trimLabel(line)}
		case line == "":
			if cur == nil {
				flush()
			} else {
				answer = append(answer, "")
			}
		default:
			if hasPrefixFold(line, "A:") || strings.HasPrefix(line, "A：") {
				line = trimLabel(line)
			}
			answer = append(answer, line)
		}
	}
	flush()
	return out
}

// tableCells returns the non-empty cells of a table row, or nil for a
// separator row such as "| --- | :-: |".
func tableCells(line string) []string {
	var cells []string
	sep := true
	for _, c := range strings.Split(strings.Trim(line, "|"), "|") {
		c = strings.TrimSpace(c)
		if strings.Trim(c, ":- ") != "" {
			sep = false
		}
		if c != "" {
			cells = append(cells, c)
		}
	}
	if sep {
		return nil
	}
	return cells
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func trimLabel(s string) string {
	if i := strings.IndexAny(s, ":："); i >= 0 {
		_, size := utf8.DecodeRuneInString(s[i:])
		return strings.TrimSpace(s[i+size:])
	}
	return s
}
