package sqlite

// schema holds the initial relational model: a volume table carrying the
// soft-delete marker and the durable reclaim envelope, an exclusively-owned
// region table, and a shared region_snapshot table keyed by its unique
// network address. CREATE TABLE IF NOT EXISTS keeps reopening an existing
// database cheap; the volume CHECK encodes the invariant that the reclaim
// envelope and the soft-delete marker are written together.
const schema = `
CREATE TABLE IF NOT EXISTS dataset (
    id TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS volume (
    id TEXT PRIMARY KEY,
    data TEXT NOT NULL,
    time_deleted DATETIME,
    resources_to_clean_up TEXT,
    CHECK (
        (time_deleted IS NULL AND resources_to_clean_up IS NULL) OR
        (time_deleted IS NOT NULL AND resources_to_clean_up IS NOT NULL)
    )
);

CREATE TABLE IF NOT EXISTS region (
    id TEXT PRIMARY KEY,
    volume_id TEXT NOT NULL REFERENCES volume(id),
    dataset_id TEXT NOT NULL REFERENCES dataset(id)
);

CREATE INDEX IF NOT EXISTS idx_region_volume_id ON region(volume_id);

CREATE TABLE IF NOT EXISTS region_snapshot (
    dataset_id TEXT NOT NULL REFERENCES dataset(id),
    region_id TEXT NOT NULL,
    snapshot_id TEXT NOT NULL,
    snapshot_addr TEXT NOT NULL UNIQUE,
    volume_references INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (dataset_id, region_id, snapshot_id)
);

CREATE INDEX IF NOT EXISTS idx_region_snapshot_addr ON region_snapshot(snapshot_addr);
CREATE INDEX IF NOT EXISTS idx_region_snapshot_region ON region_snapshot(region_id, dataset_id);
`
