package volume

import (
	"encoding/json"
	"fmt"
)

// ReclaimSetVersion discriminates the versioned envelope persisted into
// Volume.ResourcesToCleanUp. New variants must be added here and handled
// explicitly in decode; readers fail loudly on a tag they don't recognize
// rather than silently discarding resources a future cleaner would need.
type ReclaimSetVersion string

const ReclaimSetV1 ReclaimSetVersion = "V1"

// ErrUnsupportedVersion is returned by DecodeReclaimSet when the persisted
// envelope carries a version tag this build does not know how to read.
var ErrUnsupportedVersion = fmt.Errorf("unsupported reclaim set version")

// ReclaimSet is the durable list of resources a DecreaseAndSoftDelete call
// released: read/write regions no longer protected by any snapshot, and region
// snapshots that reached zero references. It is the single durable record of
// what remains to be cleaned up between a volume's soft-delete and its
// hard-delete, so that saga replay after a crash observes the same set.
type ReclaimSet struct {
	Version             ReclaimSetVersion `json:"version"`
	DatasetsAndRegions  []DatasetRegion   `json:"datasets_and_regions"`
	DatasetsAndSnapshots []DatasetSnapshot `json:"datasets_and_snapshots"`
}

// EmptyReclaimSet is returned for volumes that are already hard-deleted, or
// whose soft-delete never recorded a set (a defensive fallback; that state
// indicates a bug in an earlier run, not something to crash the caller over).
func EmptyReclaimSet() ReclaimSet {
	return ReclaimSet{
		Version:              ReclaimSetV1,
		DatasetsAndRegions:   []DatasetRegion{},
		DatasetsAndSnapshots: []DatasetSnapshot{},
	}
}

// wireReclaimSet mirrors ReclaimSet's JSON shape but keys the version tag so
// future variants (a hypothetical V2 adding ZFS filesystems, per the design
// notes) can be introduced without breaking rows written by this version.
type wireReclaimSet struct {
	Version              ReclaimSetVersion `json:"version"`
	DatasetsAndRegions   []DatasetRegion   `json:"datasets_and_regions"`
	DatasetsAndSnapshots []DatasetSnapshot `json:"datasets_and_snapshots"`
}

// Encode serializes the ReclaimSet for storage in Volume.ResourcesToCleanUp.
func (s ReclaimSet) Encode() (string, error) {
	if s.Version == "" {
		s.Version = ReclaimSetV1
	}
	b, err := json.Marshal(wireReclaimSet(s))
	if err != nil {
		return "", fmt.Errorf("encode reclaim set: %w", err)
	}
	return string(b), nil
}

// DecodeReclaimSet reads back a persisted reclaim set, failing with
// ErrUnsupportedVersion on a version tag this build doesn't know.
func DecodeReclaimSet(data string) (ReclaimSet, error) {
	var w wireReclaimSet
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return ReclaimSet{}, fmt.Errorf("decode reclaim set: %w", err)
	}
	switch w.Version {
	case ReclaimSetV1:
		return ReclaimSet(w), nil
	default:
		return ReclaimSet{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, w.Version)
	}
}
