// Package attachments holds the process-wide attachment registry: an
// ephemeral lookup from attachment ID to raw payload, used so tool calls can
// resolve "the most recent image" without going back to the store. Entries
// are best-effort caches; losing them (process restart) must never be fatal,
// and tools degrade to "no recent image found" instead of erroring.
package attachments

import "sync"

// Registry maps attachment IDs to payloads and tracks a "latest" pointer per
// kind. Writes are last-wins under a plain mutex, consistent with the
// last-send-wins semantics of the turn controller.
type Registry struct {
	mu            sync.Mutex
	imageDataByID map[string][]byte
	docPathByID   map[string]string
	latestImageID string
	latestDocID   string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		imageDataByID: make(map[string][]byte),
		docPathByID:   make(map[string]string),
	}
}

// RegisterImage records an image payload and makes it the latest image.
func (r *Registry) RegisterImage(id string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imageDataByID[id] = data
	r.latestImageID = id
}

// ImageData returns the payload for an image ID, or nil if unknown.
func (r *Registry) ImageData(id string) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.imageDataByID[id]
}

// LatestImageID returns the most recently registered image ID, or "".
func (r *Registry) LatestImageID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latestImageID
}

// RegisterDocument records a document path and makes it the latest document.
func (r *Registry) RegisterDocument(id, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docPathByID[id] = path
	r.latestDocID = id
}

// DocumentPath returns the path for a document ID, or "" if unknown.
func (r *Registry) DocumentPath(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docPathByID[id]
}

// LatestDocumentID returns the most recently registered document ID, or "".
func (r *Registry) LatestDocumentID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latestDocID
}
