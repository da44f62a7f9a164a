package cache

// ScopedKeyer wraps a Keyer with a prefix, giving each caller its own
// namespace in a shared backend:
//
//	serverKeyer := NewScopedKeyer(NewDefaultKeyer(), "waveflow:v1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer uses
// DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ModelKey generates a prefixed model key.
func (k *ScopedKeyer) ModelKey(sampleHash string, opts ModelKeyOpts) string {
	return k.prefix + k.inner.ModelKey(sampleHash, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(modelHash string, seeded bool, opts ArtifactKeyOpts) (string, bool) {
	key, ok := k.inner.ArtifactKey(modelHash, seeded, opts)
	if !ok {
		return "", false
	}
	return k.prefix + key, true
}
