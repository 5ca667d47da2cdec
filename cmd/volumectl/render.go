package main

import (
	"fmt"

	"github.com/sabledisk/volumectl/internal/ui"
	"github.com/sabledisk/volumectl/internal/volume"
)

func renderVolumeTable(v volume.Volume) string {
	status := "live"
	if v.TimeDeleted != nil {
		status = "soft-deleted@" + v.TimeDeleted.Format("2006-01-02T15:04:05Z")
	}
	return ui.Render(
		[]string{"id", "status", "data"},
		[][]string{{v.ID.String(), status, truncate(v.Data, 60)}},
	)
}

func renderVolumesTable(vols []volume.Volume) string {
	rows := make([][]string, 0, len(vols))
	for _, v := range vols {
		status := "live"
		if v.TimeDeleted != nil {
			status = "soft-deleted"
		}
		rows = append(rows, []string{v.ID.String(), status, truncate(v.Data, 60)})
	}
	return ui.Render([]string{"id", "status", "data"}, rows)
}

func renderReclaimSetTable(set volume.ReclaimSet) string {
	rows := make([][]string, 0, len(set.DatasetsAndRegions)+len(set.DatasetsAndSnapshots))
	for _, dr := range set.DatasetsAndRegions {
		rows = append(rows, []string{"region", dr.Dataset.ID.String(), dr.Region.ID.String()})
	}
	for _, ds := range set.DatasetsAndSnapshots {
		rows = append(rows, []string{"snapshot", ds.Dataset.ID.String(), ds.Snapshot.SnapshotAddr})
	}
	if len(rows) == 0 {
		return ui.Muted("nothing to reclaim")
	}
	return ui.Render([]string{"kind", "dataset", "resource"}, rows)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
