package cache

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// The cache holds process-wide objects that are expensive to build and are
// safe to share once built, such as the zobrist table for a board size.
// Every board of a given size must hash with the same table, so the table
// is built once and handed out from here.

type cache struct {
	sync.Mutex
	objects map[string]any
}

// LoadFunc builds the object for a key on a cache miss.
type LoadFunc func(key string) (any, error)

// GlobalObjectCache holds the zobrist table for every board size in use.
var GlobalObjectCache *cache

var createOnce sync.Once

func (c *cache) load(key string, loadFunc LoadFunc) error {
	log.Debug().Str("key", key).Msg("loading into cache")

	obj, err := loadFunc(key)
	if err != nil {
		return err
	}
	c.objects[key] = obj

	return nil
}

func (c *cache) get(key string, loadFunc LoadFunc) (any, error) {
	c.Lock()
	defer c.Unlock()
	if obj, ok := c.objects[key]; ok {
		return obj, nil
	}
	if err := c.load(key, loadFunc); err != nil {
		return nil, err
	}
	return c.objects[key], nil
}

func (c *cache) drop(key string) {
	c.Lock()
	defer c.Unlock()
	delete(c.objects, key)
}

func CreateGlobalObjectCache() {
	GlobalObjectCache = &cache{objects: make(map[string]any)}
}

// Load returns the cached object for name, building it with loadFunc the
// first time it is asked for.
func Load(name string, loadFunc LoadFunc) (any, error) {
	createOnce.Do(func() {
		if GlobalObjectCache == nil {
			CreateGlobalObjectCache()
		}
	})
	return GlobalObjectCache.get(name, loadFunc)
}

// Drop forgets a cached object.
func Drop(name string) {
	createOnce.Do(func() {
		if GlobalObjectCache == nil {
			CreateGlobalObjectCache()
		}
	})
	GlobalObjectCache.drop(name)
}
