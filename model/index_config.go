package model

import (
	"fmt"
	"strings"
)

// BuildQuality selects the construction effort of a collection's index.
type BuildQuality uint8

const (
	// BuildQuick favors insert latency.
	BuildQuick BuildQuality = iota
	// BuildStandard balances insert latency and graph quality.
	BuildStandard
	// BuildRobust favors graph quality (recall).
	BuildRobust
)

// DefaultBuildQuality is used when a configuration leaves the tier unset.
const DefaultBuildQuality = BuildStandard

// Value returns the construction candidate list size of the tier.
func (q BuildQuality) Value() int {
	switch q {
	case BuildQuick:
		return 100
	case BuildRobust:
		return 400
	default:
		return 200
	}
}

// String returns the stable name of the tier.
func (q BuildQuality) String() string {
	switch q {
	case BuildQuick:
		return "quick"
	case BuildStandard:
		return "standard"
	case BuildRobust:
		return "robust"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(q))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (q BuildQuality) MarshalText() ([]byte, error) {
	if q > BuildRobust {
		return nil, fmt.Errorf("unknown build quality %d", uint8(q))
	}
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *BuildQuality) UnmarshalText(text []byte) error {
	parsed, err := ParseBuildQuality(string(text))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// ParseBuildQuality parses a tier name. The empty string yields DefaultBuildQuality.
func ParseBuildQuality(s string) (BuildQuality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quick":
		return BuildQuick, nil
	case "standard", "":
		return BuildStandard, nil
	case "robust":
		return BuildRobust, nil
	default:
		return 0, fmt.Errorf("unknown build quality %q", s)
	}
}

// IndexConfig bundles the embedding type of a collection with its build effort.
type IndexConfig struct {
	BuildQuality BuildQuality  `json:"build_quality"`
	Embedding    EmbeddingType `json:"embedding"`
}

// NewIndexConfig creates an IndexConfig.
func NewIndexConfig(q BuildQuality, e EmbeddingType) IndexConfig {
	return IndexConfig{BuildQuality: q, Embedding: e}
}

// QuickIndex returns a quick-build config for e.
func QuickIndex(e EmbeddingType) IndexConfig { return NewIndexConfig(BuildQuick, e) }

// StandardIndex returns a standard-build config for e.
func StandardIndex(e EmbeddingType) IndexConfig { return NewIndexConfig(BuildStandard, e) }

// RobustIndex returns a robust-build config for e.
func RobustIndex(e EmbeddingType) IndexConfig { return NewIndexConfig(BuildRobust, e) }

// Dimension returns the embedding dimension.
func (c IndexConfig) Dimension() int { return c.Embedding.Dimension() }

// Validate checks the embedding type and build tier.
func (c IndexConfig) Validate() error {
	if c.BuildQuality > BuildRobust {
		return fmt.Errorf("unknown build quality %d", uint8(c.BuildQuality))
	}
	return c.Embedding.Validate()
}
