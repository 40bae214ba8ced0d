// Package knowledge is a small in-memory FAQ index used to ground answers to
// app-usage questions. Entries come from a Markdown file; retrieval ranks them
// by Jaccard similarity between token sets:
//
//	score = |Q ∩ D| / |Q ∪ D|
//
// Latin text is split into words. Japanese text has no spaces, so runs of
// kana and kanji are split into overlapping two-character grams instead.
// The index is read-only after construction and safe for concurrent use.
package knowledge

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

//go:embed faq.md
var defaultFAQ []byte

// Result is a ranked FAQ entry with its similarity score.
type Result struct {
	Snippet string
	Score   float64
}

// Index returns the k best entries for a query.
type Index interface {
	TopK(query string, k int) []Result
}

type Option func(*options)

type options struct {
	minRunes  int
	stopwords map[string]struct{}
	maxDocs   int
}

func defaultOptions() options {
	return options{minRunes: 4}
}

// WithMinRunes drops entries shorter than n runes.
func WithMinRunes(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.minRunes = n
		}
	}
}

func WithStopwords(words []string) Option {
	return func(o *options) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = fold(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			o.stopwords = m
		}
	}
}

func WithMaxDocs(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDocs = n
		}
	}
}

type doc struct {
	text   string
	tokens map[string]struct{}
}

type index struct {
	opts options
	docs []doc
}

// Load reads the FAQ at path, or the built-in FAQ when path is empty.
func Load(path string, opts ...Option) (Index, error) {
	if path == "" {
		return NewIndexFromReader(bytes.NewReader(defaultFAQ), opts...)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return &index{opts: defaultOptions()}, err
	}
	return NewIndexFromReader(bytes.NewReader(b), opts...)
}

// NewIndexFromReader parses Markdown FAQ text from r (see ParseEntries).
func NewIndexFromReader(r io.Reader, opts ...Option) (Index, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return &index{opts: defaultOptions()}, err
	}
	entries := ParseEntries(all)
	snippets := make([]string, 0, len(entries))
	for _, e := range entries {
		snippets = append(snippets, e.String())
	}
	return NewIndexFromStrings(snippets, opts...), nil
}

// NewIndexFromStrings indexes each string as one entry.
func NewIndexFromStrings(entries []string, opts ...Option) Index {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	docs := make([]doc, 0, len(entries))
	for _, raw := range entries {
		t := strings.TrimSpace(raw)
		if t == "" || utf8.RuneCountInString(t) < o.minRunes {
			continue
		}
		toks := tokenize(t, o.stopwords)
		if len(toks) == 0 {
			continue
		}
		docs = append(docs, doc{text: t, tokens: toks})
		if o.maxDocs > 0 && len(docs) >= o.maxDocs {
			break
		}
	}
	return &index{opts: o, docs: docs}
}

// TopK returns up to k entries with a positive score, best first. Ties go to
// the shorter entry, then to lexical order. k <= 0 means 3.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qt := tokenize(q, i.opts.stopwords)
	if len(qt) == 0 {
		return nil
	}

	type scored struct {
		text  string
		score float64
		runes int
	}
	var buf []scored
	for _, d := range i.docs {
		over := overlap(qt, d.tokens)
		if over == 0 {
			continue
		}
		union := len(qt) + len(d.tokens) - over
		buf = append(buf, scored{
			text:  d.text,
			score: float64(over) / float64(union),
			runes: utf8.RuneCountInString(d.text),
		})
	}
	if len(buf) == 0 {
		return nil
	}
	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].runes != buf[b].runes {
			return buf[a].runes < buf[b].runes
		}
		return buf[a].text < buf[b].text
	})
	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for j := range out {
		out[j] = Result{Snippet: buf[j].text, Score: buf[j].score}
	}
	return out
}

var latinRE = regexp.MustCompile(`[\p{Latin}]+\p{N}*|\p{N}+`)

// tokenize folds width and case, then emits Latin words and CJK bigrams.
func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = fold(s)
	out := make(map[string]struct{})
	add := func(t string) {
		if _, skip := stop[t]; !skip {
			out[t] = struct{}{}
		}
	}
	for _, w := range latinRE.FindAllString(s, -1) {
		add(w)
	}
	var run []rune
	flush := func() {
		switch {
		case len(run) == 1:
			add(string(run))
		case len(run) > 1:
			for j := 0; j+1 < len(run); j++ {
				add(string(run[j : j+2]))
			}
		}
		run = run[:0]
	}
	for _, r := range s {
		if isCJK(r) {
			run = append(run, r)
			continue
		}
		flush()
	}
	flush()
	if len(out) == 0 {
		return nil
	}
	return out
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana) || r == 'ー'
}

// fold maps full-width ASCII to half-width, half-width kana to full-width,
// and lowercases.
func fold(s string) string {
	return strings.ToLower(width.Fold.String(s))
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
