package synth

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// DefaultCacheCapacity bounds the in-memory audio cache. At 24kHz mono
// s16le this is roughly ten minutes of speech.
const DefaultCacheCapacity int64 = 32 << 20

// payloadCache is an LRU over synthesized audio, keyed by backend
// identity and chunk text. Long documents repeat themselves (running
// headers, footers, boilerplate paragraphs); a repeated chunk should not
// cost a second remote call.
type payloadCache struct {
	mu       sync.Mutex
	capacity int64
	size     int64
	items    map[string]*list.Element
	eviction *list.List
}

type cacheEntry struct {
	key  string
	data []byte
}

func newPayloadCache(capacity int64) *payloadCache {
	return &payloadCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
	}
}

// cacheKey derives a stable key from the backend name and chunk text.
// The cache lives inside one Client, whose backend has a fixed model and
// voice, so the name alone is enough to scope entries.
func cacheKey(backend, text string) string {
	h := sha256.New()
	h.Write([]byte(backend))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *payloadCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.eviction.MoveToFront(elem)
	return elem.Value.(*cacheEntry).data, true
}

func (c *payloadCache) put(key string, data []byte) {
	size := int64(len(data))
	if size == 0 || size > c.capacity {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		c.size += size - int64(len(entry.data))
		entry.data = data
		c.eviction.MoveToFront(elem)
		return
	}

	for c.size+size > c.capacity && c.eviction.Len() > 0 {
		oldest := c.eviction.Back()
		entry := oldest.Value.(*cacheEntry)
		c.eviction.Remove(oldest)
		delete(c.items, entry.key)
		c.size -= int64(len(entry.data))
	}

	c.items[key] = c.eviction.PushFront(&cacheEntry{key: key, data: data})
	c.size += size
}

func (c *payloadCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}
