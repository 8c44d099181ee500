// Package docstore defines typed access to raw document bytes by path.
package docstore

import "time"

// GeneratedPrefix is the reserved path prefix holding every artifact this
// system writes. Objects under it are never treated as workflow input.
const GeneratedPrefix = "_generated/"

// ObjectInfo is a lightweight description of a stored object.
type ObjectInfo struct {
	Path     string
	Checksum string
	ModTime  time.Time
}

// Provider is the interface for document object operations. Paths are
// /-delimited strings relative to the store root.
type Provider interface {
	// Get returns the raw bytes of the object at path.
	// Returns apperr.ErrNotFound when the object does not exist.
	Get(path string) ([]byte, error)
	// Put atomically writes content to path, creating parent directories.
	Put(path string, content []byte) error
	// Stat returns metadata for the object at path.
	Stat(path string) (ObjectInfo, error)
	// List returns metadata for every .md object under prefix.
	List(prefix string) ([]ObjectInfo, error)
}
