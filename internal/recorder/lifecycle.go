package recorder

import (
	"time"

	"pingdash/internal/logging"
)

// maintenanceWorker runs periodic maintenance tasks
func (r *Recorder) maintenanceWorker() {
	defer r.wg.Done()

	ticker := time.NewTicker(maintenanceEvery)
	defer ticker.Stop()

	// Run immediately on start
	r.performMaintenance()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.performMaintenance()
		}
	}
}

func (r *Recorder) performMaintenance() {
	logging.Debugf("Running maintenance tasks...")
	if err := r.store.ArchiveOldData(r.retain); err != nil {
		logging.Errorf("Failed to archive old data: %v", err)
		return
	}
	logging.Debugf("Maintenance complete")
}
