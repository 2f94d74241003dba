package scoring

// omap is a map that remembers first-insertion order, so score rows come
// out in the order items were loaded from disk.
type omap[V any] struct {
	keys []string
	vals map[string]V
}

func newOmap[V any]() *omap[V] {
	return &omap[V]{vals: make(map[string]V)}
}

// newOmapOf adapts newOmap to the constructor shape at() expects.
func newOmapOf[V any]() *omap[V] { return newOmap[V]() }

// at returns the value for key, creating it with mk on first access.
func (m *omap[V]) at(key string, mk func() V) V {
	if v, ok := m.vals[key]; ok {
		return v
	}
	v := mk()
	m.vals[key] = v
	m.keys = append(m.keys, key)
	return v
}

func (m *omap[V]) each(fn func(key string, v V)) {
	for _, k := range m.keys {
		fn(k, m.vals[k])
	}
}

func (m *omap[V]) len() int { return len(m.keys) }

type leaf struct {
	items []*sourced
}

func newLeaf() *leaf { return &leaf{} }
