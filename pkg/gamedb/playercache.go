package gamedb

// A_QUEUEMAX is the well-known attribute the player cache writes its
// queue-max override back to on flush. Money lives directly on
// Object.Pennies in this implementation, so flushing it is a plain field
// write rather than an attribute round-trip.
const A_QUEUEMAX = 27

// playerCacheEntry holds the hot per-player counters described in spec
// C4: a cached coin balance, cached queue depth, a cached queue-max
// override, dirty bits for money/queuemax, and a referenced-this-tick
// bit consulted by Trim.
type playerCacheEntry struct {
	money      int
	queueDepth int
	queueMax   int
	hasQueueMax bool
	moneyDirty bool
	qmaxDirty  bool
	referenced bool
	dead       bool
}

// PlayerCache is the C4 component: reads and writes to coin balance and
// queue-max go through it; queue depth lives only here. A periodic Sync
// flushes dirty entries without evicting; Trim additionally evicts
// entries with zero queue depth and no reference since the last Trim.
type PlayerCache struct {
	db      *Database
	entries map[DBRef]*playerCacheEntry
}

// NewPlayerCache creates an empty cache bound to db.
func NewPlayerCache(db *Database) *PlayerCache {
	return &PlayerCache{db: db, entries: make(map[DBRef]*playerCacheEntry)}
}

func (c *PlayerCache) entry(player DBRef) *playerCacheEntry {
	e, ok := c.entries[player]
	if !ok {
		e = &playerCacheEntry{}
		c.loadFromAttrs(player, e)
		c.entries[player] = e
	}
	e.referenced = true
	return e
}

func (c *PlayerCache) loadFromAttrs(player DBRef, e *playerCacheEntry) {
	obj, ok := c.db.Objects[player]
	if !ok {
		e.dead = true
		return
	}
	e.money = obj.Pennies
	for _, a := range obj.Attrs {
		if a.Number == A_QUEUEMAX {
			if n, ok := parseInt(a.Value); ok {
				e.queueMax = n
				e.hasQueueMax = true
			}
		}
	}
}

func parseInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	neg := false
	i := 0
	if s[0] == '-' {
		neg = true
		i = 1
	}
	if i >= len(s) {
		return 0, false
	}
	n := 0
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n, true
}

// Money returns a player's cached coin balance.
func (c *PlayerCache) Money(player DBRef) int {
	return c.entry(player).money
}

// AddMoney adjusts a player's cached balance by delta (may be negative)
// and marks the entry dirty. Returns false (no change) if the resulting
// balance would go negative and allowNegative is false.
func (c *PlayerCache) AddMoney(player DBRef, delta int, allowNegative bool) bool {
	e := c.entry(player)
	if e.dead {
		return false
	}
	if !allowNegative && e.money+delta < 0 {
		return false
	}
	e.money += delta
	e.moneyDirty = true
	return true
}

// QueueMax returns the player's effective queue-max: their own
// queuemax-attribute override if set, else fall back to fallback (the
// config default, or db_top+1 for wizards — callers decide).
func (c *PlayerCache) QueueMax(player DBRef, fallback int) int {
	e := c.entry(player)
	if e.hasQueueMax {
		return e.queueMax
	}
	return fallback
}

// SetQueueMax overrides a player's queuemax and marks the entry dirty.
func (c *PlayerCache) SetQueueMax(player, value int) {
	e := c.entry(DBRef(player))
	e.queueMax = value
	e.hasQueueMax = true
	e.qmaxDirty = true
}

// QueueDepth returns the number of entries currently queued that are
// owned by player.
func (c *PlayerCache) QueueDepth(player DBRef) int {
	return c.entry(player).queueDepth
}

// AdjustQueueDepth changes a player's live queue-entry count by delta.
func (c *PlayerCache) AdjustQueueDepth(player DBRef, delta int) {
	e := c.entry(player)
	e.queueDepth += delta
	if e.queueDepth < 0 {
		e.queueDepth = 0
	}
}

// MarkDestroyed flags player's entry dead: subsequent flushes are
// skipped and the cache never writes back into a reaped object's
// attributes.
func (c *PlayerCache) MarkDestroyed(player DBRef) {
	if e, ok := c.entries[player]; ok {
		e.dead = true
	}
	delete(c.entries, player)
}

// flush commits a dirty entry's money/queuemax back into attributes.
func (c *PlayerCache) flush(player DBRef, e *playerCacheEntry) {
	if e.dead {
		return
	}
	obj, ok := c.db.Objects[player]
	if !ok {
		return
	}
	if e.moneyDirty {
		obj.Pennies = e.money
		e.moneyDirty = false
	}
	if e.qmaxDirty {
		setAttrValue(obj, A_QUEUEMAX, itoa(e.queueMax))
		e.qmaxDirty = false
	}
}

func setAttrValue(obj *Object, num int, value string) {
	for i, a := range obj.Attrs {
		if a.Number == num {
			obj.Attrs[i].Value = value
			return
		}
	}
	obj.Attrs = append(obj.Attrs, Attribute{Number: num, Value: value})
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		return "-" + string(b)
	}
	return string(b)
}

// Sync flushes every dirty entry without evicting any of them.
func (c *PlayerCache) Sync() {
	for ref, e := range c.entries {
		c.flush(ref, e)
	}
}

// Trim flushes and evicts every entry with zero queue depth that was not
// referenced since the last Trim call. Called once per C8 tick.
func (c *PlayerCache) Trim() int {
	evicted := 0
	for ref, e := range c.entries {
		if e.queueDepth == 0 && !e.referenced {
			c.flush(ref, e)
			delete(c.entries, ref)
			evicted++
			continue
		}
		e.referenced = false
	}
	return evicted
}
