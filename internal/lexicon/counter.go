package lexicon

import (
	"sort"

	"catalogtool/internal/catalog"
)

// Counter is a count table that remembers the order in which keys were first
// seen. MostCommon breaks count ties by that order, so reports built from the
// same catalog are byte-for-byte reproducible.
type Counter struct {
	counts map[string]int
	order  []string
}

// Entry is one key and its count, as returned by MostCommon.
type Entry struct {
	Key   string
	Count int
}

// NewCounter returns an empty Counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

func (c *Counter) Add(keys ...string) {
	for _, k := range keys {
		if _, ok := c.counts[k]; !ok {
			c.order = append(c.order, k)
		}
		c.counts[k]++
	}
}

func (c *Counter) Count(key string) int {
	return c.counts[key]
}

// Len is the number of distinct keys.
func (c *Counter) Len() int {
	return len(c.order)
}

// Total is the sum of all counts.
func (c *Counter) Total() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// MostCommon returns up to n entries by descending count, first-seen order
// among equal counts. n <= 0 returns every entry.
func (c *Counter) MostCommon(n int) []Entry {
	entries := make([]Entry, len(c.order))
	for i, k := range c.order {
		entries[i] = Entry{Key: k, Count: c.counts[k]}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// Aggregate counts unigrams and bigrams over every canonical name and alias.
// Each field is tokenized on its own, so bigrams never span two fields.
func Aggregate(items []*catalog.Item) (tokens, bigrams *Counter) {
	tokens = NewCounter()
	bigrams = NewCounter()
	addField := func(text string) {
		words := Tokenize(text)
		tokens.Add(words...)
		bigrams.Add(Bigrams(words)...)
	}
	for _, item := range items {
		addField(item.CanonicalName)
		for _, alias := range item.Aliases {
			addField(alias)
		}
	}
	return tokens, bigrams
}
