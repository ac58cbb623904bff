package cache

import "golang.org/x/sync/singleflight"

// Loader fills a cache on miss. Concurrent misses for the same key share a
// single call to load.
type Loader[T any] struct {
	cache Cache[T]
	group singleflight.Group
}

func NewLoader[T any](c Cache[T]) *Loader[T] {
	return &Loader[T]{cache: c}
}

// Get returns the cached value for key, calling load on a miss. Errors are
// not cached. hit reports whether the value came from the cache.
func (l *Loader[T]) Get(key string, load func() (T, error)) (value T, hit bool, err error) {
	if v, ok := l.cache.Get(key); ok {
		return v, true, nil
	}

	res, err, _ := l.group.Do(key, func() (any, error) {
		if v, ok := l.cache.Get(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return v, err
		}
		l.cache.Set(key, v)
		return v, nil
	})
	value, _ = res.(T)
	return value, false, err
}

// Forget drops key from the cache.
func (l *Loader[T]) Forget(key string) {
	l.cache.Delete(key)
	l.group.Forget(key)
}
