// Package settings defines the shared value types every other
// component consumes or produces (the caller-facing display settings and
// the merge-result record), plus a TOML config-file loader for them, the
// way a merge-driver CLI deployed in a real repository gets configured.
package settings

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/mergiraf/mergiraf/pkg/textnorm"
)

// Method records which stage of the cascade (pkg/cascade) produced a
// MergeResult.
type Method int

const (
	MethodLineBased Method = iota
	MethodStructuredResolution
	MethodFullyStructured
)

func (m Method) String() string {
	switch m {
	case MethodStructuredResolution:
		return "structured_resolution"
	case MethodFullyStructured:
		return "fully_structured"
	default:
		return "line_based"
	}
}

// rank orders methods for the cascade's tie-break:
// fully_structured > structured_resolution > line_based.
func (m Method) rank() int {
	switch m {
	case MethodFullyStructured:
		return 2
	case MethodStructuredResolution:
		return 1
	default:
		return 0
	}
}

// Better reports whether m should be preferred over other, all else equal.
func (m Method) Better(other Method) bool { return m.rank() > other.rank() }

// MergeResult is the core's sole output type.
type MergeResult struct {
	Contents            string
	ConflictCount       int
	ConflictMass        int
	Method              Method
	HasAdditionalIssues bool
}

// Display holds the caller-tunable rendering knobs.
type Display struct {
	ConflictMarkerSize uint8
	Diff3              bool
	Compact            bool
	LeftRevisionName   string
	BaseRevisionName   string
	RightRevisionName  string
	// NewlineStyleOverride, when non-nil, replaces the style inferred from
	// Base.
	NewlineStyleOverride *textnorm.Style
}

// DefaultDisplay returns the documented defaults.
func DefaultDisplay() Display {
	return Display{
		ConflictMarkerSize: 7,
		Diff3:              false,
		Compact:            false,
		LeftRevisionName:   "left",
		BaseRevisionName:   "base",
		RightRevisionName:  "right",
	}
}

// fileConfig is the on-disk shape of a .mergiraf.toml config file.
type fileConfig struct {
	ConflictMarkerSize uint8             `toml:"conflict_marker_size"`
	Diff3              bool              `toml:"diff3"`
	Compact            bool              `toml:"compact"`
	LeftRevisionName   string            `toml:"left_revision_name"`
	BaseRevisionName   string            `toml:"base_revision_name"`
	RightRevisionName  string            `toml:"right_revision_name"`
	Languages          map[string]string `toml:"languages"` // extension -> profile name override
}

// LoadDisplay reads a .mergiraf.toml file at path and overlays it onto
// DefaultDisplay. A missing file is not an error; callers get the
// defaults, matching how a merge driver should behave with no project
// config present. It also returns the raw per-extension language override
// table, consumed by cmd/mergiraf to bypass pkg/lang's extension-based
// detection when the project has pinned a different grammar to a path.
func LoadDisplay(path string) (Display, map[string]string, error) {
	d := DefaultDisplay()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return d, nil, nil
	}

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return d, nil, err
	}

	if fc.ConflictMarkerSize > 0 {
		d.ConflictMarkerSize = fc.ConflictMarkerSize
	}
	d.Diff3 = fc.Diff3
	d.Compact = fc.Compact
	if fc.LeftRevisionName != "" {
		d.LeftRevisionName = fc.LeftRevisionName
	}
	if fc.BaseRevisionName != "" {
		d.BaseRevisionName = fc.BaseRevisionName
	}
	if fc.RightRevisionName != "" {
		d.RightRevisionName = fc.RightRevisionName
	}

	return d, fc.Languages, nil
}
