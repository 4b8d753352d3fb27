package wind

// ArtifactStore is the contract every artifact backend (filesystem, badger,
// memory) must satisfy. Artifacts are opaque blobs keyed by slot key and are
// write-once: a Write for a key that is already present must return the
// store's ErrAlreadyExists and leave the stored bytes untouched.
//
// Reads must not block on concurrent writes beyond the per-key write-once
// check; resolvers only ever call Exists and Read.
type ArtifactStore interface {
	Exists(key string) bool
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
	Close() error
}
