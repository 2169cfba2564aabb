package transport

import (
	"sync"
	"time"
)

// messageCache remembers recently seen messages so GetMessage can serve
// inline-control callbacks that reference them later. Entries expire after a
// TTL; eviction happens opportunistically on writes once the cache grows past
// pruneThreshold.
type messageCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[cacheKey]cacheEntry
}

type cacheKey struct {
	chatID    int64
	messageID int
}

type cacheEntry struct {
	msg       *Message
	expiresAt time.Time
}

const pruneThreshold = 4096

func newMessageCache(ttl time.Duration) *messageCache {
	return &messageCache{
		ttl:     ttl,
		entries: make(map[cacheKey]cacheEntry),
	}
}

func (c *messageCache) put(msg *Message) {
	if msg == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= pruneThreshold {
		now := time.Now()
		for k, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, k)
			}
		}
	}
	key := cacheKey{chatID: msg.ChatID, messageID: msg.MessageID}
	c.entries[key] = cacheEntry{msg: msg, expiresAt: time.Now().Add(c.ttl)}
}

func (c *messageCache) get(chatID int64, messageID int) (*Message, bool) {
	key := cacheKey{chatID: chatID, messageID: messageID}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.msg, true
}
