// Package volume defines the core domain types for the volume reference-counting
// core: construction requests, the physical resources they reference, and the
// versioned envelope used to hand off reclaimable resources to the sled agents.
package volume

import (
	"time"

	"github.com/google/uuid"
)

// Volume is a logical disk assembled from a tree of construction requests.
//
// Data is immutable after insert. ResourcesToCleanUp is non-nil iff
// TimeDeleted is non-nil, and once TimeDeleted is set it is never cleared.
type Volume struct {
	ID                 uuid.UUID
	Data               string
	TimeDeleted        *time.Time
	ResourcesToCleanUp *string
}

// Dataset is the host container for regions and region snapshots on a storage
// server. Opaque to this core beyond its identity.
type Dataset struct {
	ID uuid.UUID
}

// Region is an exclusive read/write storage extent owned by exactly one volume.
type Region struct {
	ID        uuid.UUID
	VolumeID  uuid.UUID
	DatasetID uuid.UUID
}

// RegionSnapshot is a shared, read-only point-in-time image. VolumeReferences
// counts the number of live volumes whose construction request walks to
// SnapshotAddr; it is never driven below zero by a correct caller.
type RegionSnapshot struct {
	DatasetID        uuid.UUID
	RegionID         uuid.UUID
	SnapshotID       uuid.UUID
	SnapshotAddr     string
	VolumeReferences int
}

// DatasetRegion pairs a Dataset with one of its Regions, as returned by the
// reclamation query and embedded in a ReclaimSet.
type DatasetRegion struct {
	Dataset Dataset
	Region  Region
}

// DatasetSnapshot pairs a Dataset with one of its RegionSnapshots.
type DatasetSnapshot struct {
	Dataset  Dataset
	Snapshot RegionSnapshot
}

// DeletedVolumeRegion is a row from FindDeletedVolumeRegions: a region of a
// soft-deleted volume that no live snapshot protects, paired with its dataset
// and owning volume so the caller can drive hard-deletion.
type DeletedVolumeRegion struct {
	Dataset Dataset
	Region  Region
	Volume  Volume
}
