package documents

// Actor is an already-authenticated identity. The core never inspects
// raw token claims; the transport layer resolves them once per request.
type Actor struct {
	ID      string
	IsAdmin bool
}

// CanRead reports whether actor may view doc: the owner, anyone on the
// allow-list, and admins may read.
func CanRead(actor Actor, doc Document) bool {
	if actor.IsAdmin || actor.ID == doc.Owner {
		return true
	}
	for _, reader := range doc.AllowedReaders {
		if reader == actor.ID {
			return true
		}
	}
	return false
}

// CanWrite reports whether actor may mutate or delete doc. Allow-list
// membership alone never grants write; only the owner and admins do.
func CanWrite(actor Actor, doc Document) bool {
	return actor.IsAdmin || actor.ID == doc.Owner
}
