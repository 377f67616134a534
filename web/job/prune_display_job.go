// Package job contains the scheduled maintenance jobs run by the web server.
package job

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"pulmoscan/logger"
	"pulmoscan/storage"
	"pulmoscan/web/service"
)

// placeholderImage is never pruned.
const placeholderImage = "xray-placeholder.jpg"

// pruneGrace protects thumbnails of uploads still in flight: a file this
// young may belong to a history entry recorded after the job's snapshot.
const pruneGrace = time.Hour

// PruneDisplayJob removes display thumbnails whose history entries have been
// evicted from the capped log, so the display folder does not grow without
// bound.
type PruneDisplayJob struct {
	displayDir string
	history    *storage.HistoryStore
}

func NewPruneDisplayJob(displayDir string, history *storage.HistoryStore) *PruneDisplayJob {
	return &PruneDisplayJob{displayDir: displayDir, history: history}
}

// Here Run is an interface method of the cron Job interface.
func (j *PruneDisplayJob) Run() {
	entries, err := j.history.Load()
	if err != nil {
		logger.Warning("prune display job err:", err)
		return
	}

	referenced := make(map[string]bool, len(entries))
	for _, entry := range entries {
		referenced[service.DisplayName(entry.Result.Filename)] = true
	}

	files, err := os.ReadDir(j.displayDir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warning("prune display job err:", err)
		}
		return
	}

	cutoff := time.Now().Add(-pruneGrace)
	pruned := 0
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || name == placeholderImage || !strings.HasPrefix(name, "display_") {
			continue
		}
		if referenced[name] {
			continue
		}
		info, err := f.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.displayDir, name)); err != nil {
			logger.Warning("prune display job err:", err)
			continue
		}
		pruned++
	}
	if pruned > 0 {
		logger.Infof("pruned %d orphaned display images", pruned)
	}
}
