package request

import (
	"net/url"
	"strings"
)

// Queries is an ordered multimap of query parameters. Unlike url.Values it
// preserves the insertion order of distinct names and of repeated values.
type Queries struct {
	order  []string
	values map[string][]string
}

// NewQueries returns an empty query multimap.
func NewQueries() *Queries {
	return &Queries{values: make(map[string][]string)}
}

// Set replaces all values for name. Setting no values removes the name.
func (q *Queries) Set(name string, values ...string) {
	if len(values) == 0 {
		q.Del(name)
		return
	}
	if _, ok := q.values[name]; !ok {
		q.order = append(q.order, name)
	}
	q.values[name] = append([]string(nil), values...)
}

// Add appends values for name, keeping any existing ones.
func (q *Queries) Add(name string, values ...string) {
	if len(values) == 0 {
		return
	}
	if _, ok := q.values[name]; !ok {
		q.order = append(q.order, name)
	}
	q.values[name] = append(q.values[name], values...)
}

// Get returns the values for name in insertion order.
func (q *Queries) Get(name string) []string {
	return q.values[name]
}

// Del removes name and its values.
func (q *Queries) Del(name string) {
	if _, ok := q.values[name]; !ok {
		return
	}
	delete(q.values, name)
	for i, n := range q.order {
		if n == name {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// Names returns the distinct parameter names in insertion order.
func (q *Queries) Names() []string {
	return append([]string(nil), q.order...)
}

// Len returns the number of distinct names.
func (q *Queries) Len() int {
	return len(q.order)
}

// Clone returns a deep copy.
func (q *Queries) Clone() *Queries {
	dup := NewQueries()
	dup.order = append([]string(nil), q.order...)
	for k, v := range q.values {
		dup.values[k] = append([]string(nil), v...)
	}
	return dup
}

// Encode renders the query string in insertion order, percent-escaping
// names and values. Returns "" when empty.
func (q *Queries) Encode() string {
	if len(q.order) == 0 {
		return ""
	}
	var b strings.Builder
	for _, name := range q.order {
		for _, v := range q.values[name] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(name))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
