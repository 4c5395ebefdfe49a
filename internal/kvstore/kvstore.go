// Package kvstore provides the persisted key-value storage the local history
// caches sit on. Values are opaque byte slices; absence is reported via the
// ok flag, never as an error.
package kvstore

// Store defines operations for app-installation-scoped persistent storage.
// Implementations must survive process restarts and replace values
// atomically: a failed Set leaves the prior value intact.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any prior value atomically.
	Set(key string, value []byte) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error

	// Close releases any resources held by the store.
	Close() error
}
