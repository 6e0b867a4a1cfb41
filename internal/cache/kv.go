package cache

// KV is the four-operation cache contract shared by every backend.
// All operations are total: a Get on a missing or stale key reports absent,
// a Delete on a missing key is a no-op, and backend failures degrade to a
// miss rather than surfacing an error. Implementations must be safe for
// concurrent use by multiple goroutines.
//
// Values are opaque byte payloads. Callers that cache typed data JSON-encode
// on Set and decode on Get; the cache never inspects what it stores.
type KV interface {
	// Get returns the value for key and true on a fresh hit. A missing
	// entry, a stale entry, or a backend failure all report false. Stale
	// entries are left in place; the next Set overwrites them.
	Get(key string) ([]byte, bool)

	// Set unconditionally inserts or overwrites the entry for key,
	// stamping it with the current time. Last write wins.
	Set(key string, value []byte)

	// Delete removes the named entries if present. Unknown keys are
	// ignored.
	Delete(keys ...string)

	// Clear empties the cache unconditionally.
	Clear()
}
