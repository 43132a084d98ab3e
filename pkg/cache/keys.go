package cache

// AnalysisKeyOpts are the option fields that change an analysis result.
type AnalysisKeyOpts struct {
	// ConfigHash is the hash of the effective engine configuration.
	ConfigHash string `json:"config"`
	Grouping   bool   `json:"grouping"`
	Rules      bool   `json:"rules"`
	Verify     bool   `json:"verify"`
	// Version invalidates entries written by other engine versions.
	Version string `json:"version"`
}

// Keyer derives cache keys.
type Keyer interface {
	// AnalysisKey returns the key of the analysis of a snapshot with the
	// given content hash.
	AnalysisKey(snapshotHash string, opts AnalysisKeyOpts) string
}

// DefaultKeyer builds unscoped keys of the form "analysis:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// AnalysisKey implements Keyer.
func (DefaultKeyer) AnalysisKey(snapshotHash string, opts AnalysisKeyOpts) string {
	return hashKey("analysis", snapshotHash, opts)
}
