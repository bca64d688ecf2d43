package cache

// ScopedKeyer wraps a Keyer with a prefix, giving separate cache namespaces
// to callers that must not see each other's entries (the server prefixes
// per-deployment, tests prefix per-case).
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ConvertKey generates a prefixed key for a conversion bundle.
func (k *ScopedKeyer) ConvertKey(sourceFormat, sourceText string, opts ConvertKeyOpts) string {
	return k.prefix + k.inner.ConvertKey(sourceFormat, sourceText, opts)
}

// RenderKey generates a prefixed key for a rendered image.
func (k *ScopedKeyer) RenderKey(dotText, imageFormat string) string {
	return k.prefix + k.inner.RenderKey(dotText, imageFormat)
}
