package cache

// ScopedKeyer prefixes every key of an inner Keyer, so several tools or
// projects can share one Redis database without colliding:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "autoflex:design-system:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer returns a keyer prepending prefix. A nil inner keyer falls
// back to the default scheme.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// AnalysisKey implements Keyer.
func (k *ScopedKeyer) AnalysisKey(snapshotHash string, opts AnalysisKeyOpts) string {
	return k.prefix + k.inner.AnalysisKey(snapshotHash, opts)
}
