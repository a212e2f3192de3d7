package store

import "strings"

// scoped prefixes every key with a namespace
type scoped struct {
	Store
	prefix string
}

// Scope returns a view of s whose keys are prefixed with prefix.
// Closing the view closes the underlying store.
func Scope(s Store, prefix string) Store {
	return &scoped{Store: s, prefix: prefix}
}

func (s *scoped) Get(key string) ([]byte, error) {
	return s.Store.Get(s.prefix + key)
}

func (s *scoped) Set(key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return s.Store.Set(s.prefix+key, value)
}

func (s *scoped) Delete(key string) error {
	return s.Store.Delete(s.prefix + key)
}

func (s *scoped) Exists(key string) bool {
	return s.Store.Exists(s.prefix + key)
}

func (s *scoped) ListAll() ([]string, error) {
	all, err := s.Store.ListAll()
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, k := range all {
		if strings.HasPrefix(k, s.prefix) {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
	}
	return keys, nil
}
