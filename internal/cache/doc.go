// Package cache provides a small thread-safe LRU cache keyed by comparable
// values. The toolpath generator uses it to memoize resolved loop geometry:
// perimeter paths hit a layer-local cache, skirt and brim paths a global
// one, so identical geometry is simplified once per consumer set.
//
//	c := cache.New[string, geom.Polylines](128)
//	pl := c.GetOrCreate(key, resolve)
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
