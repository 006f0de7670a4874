package request

import "net/http"

// Headers is a case-insensitive multimap that preserves the insertion
// order of distinct names and of values within a name. http.Header is a
// plain map and loses both orderings, which the template contract needs.
type Headers struct {
	order   []string
	display map[string]string
	values  map[string][]string
}

// NewHeaders returns an empty header multimap.
func NewHeaders() *Headers {
	return &Headers{
		display: make(map[string]string),
		values:  make(map[string][]string),
	}
}

func canonical(name string) string {
	return http.CanonicalHeaderKey(name)
}

// Set replaces all values for name. Setting no values removes the name.
func (h *Headers) Set(name string, values ...string) {
	if len(values) == 0 {
		h.Del(name)
		return
	}
	key := canonical(name)
	if _, ok := h.values[key]; !ok {
		h.order = append(h.order, key)
		h.display[key] = name
	}
	h.values[key] = append([]string(nil), values...)
}

// Add appends values for name, keeping any existing ones.
func (h *Headers) Add(name string, values ...string) {
	if len(values) == 0 {
		return
	}
	key := canonical(name)
	if _, ok := h.values[key]; !ok {
		h.order = append(h.order, key)
		h.display[key] = name
	}
	h.values[key] = append(h.values[key], values...)
}

// Get returns the values for name in insertion order.
func (h *Headers) Get(name string) []string {
	return h.values[canonical(name)]
}

// Del removes name and its values.
func (h *Headers) Del(name string) {
	key := canonical(name)
	if _, ok := h.values[key]; !ok {
		return
	}
	delete(h.values, key)
	delete(h.display, key)
	for i, n := range h.order {
		if n == key {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Names returns the distinct header names in insertion order, using the
// spelling of their first insertion.
func (h *Headers) Names() []string {
	names := make([]string, len(h.order))
	for i, key := range h.order {
		names[i] = h.display[key]
	}
	return names
}

// Len returns the number of distinct names.
func (h *Headers) Len() int {
	return len(h.order)
}

// Clone returns a deep copy.
func (h *Headers) Clone() *Headers {
	dup := NewHeaders()
	dup.order = append([]string(nil), h.order...)
	for k, v := range h.display {
		dup.display[k] = v
	}
	for k, v := range h.values {
		dup.values[k] = append([]string(nil), v...)
	}
	return dup
}

// HTTP returns a frozen http.Header snapshot.
func (h *Headers) HTTP() http.Header {
	out := make(http.Header, len(h.order))
	for _, key := range h.order {
		for _, v := range h.values[key] {
			out.Add(key, v)
		}
	}
	return out
}
