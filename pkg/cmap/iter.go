package cmap

// Range iterates over all key-value pairs until fn returns false.
// Locks are taken shard by shard, so the view may not be consistent.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// Keys returns all keys.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.Count())
	m.Range(func(key K, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// SetIfAbsent sets the value only if the key does not exist.
// Returns true if the value was set.
func (m *Map[K, V]) SetIfAbsent(key K, value V) bool {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; ok {
		return false
	}
	s.items[key] = value
	return true
}

// UpdateIfPresent replaces the value of an existing key with fn(current).
// Returns false, without calling fn, if the key does not exist.
func (m *Map[K, V]) UpdateIfPresent(key K, fn func(current V) V) bool {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.items[key]
	if !ok {
		return false
	}
	s.items[key] = fn(current)
	return true
}

// Pop removes a key and returns its value.
// Only one of several concurrent callers popping the same key gets ok == true.
func (m *Map[K, V]) Pop(key K) (V, bool) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	val, ok := s.items[key]
	if ok {
		delete(s.items, key)
	}
	return val, ok
}
