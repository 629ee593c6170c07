package workers

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"
)

// CleanupWorker runs periodic data hygiene over the register log and the
// user mirror. The register log is append-only with a unique (habit_id, date)
// constraint, so duplicates can only exist if rows predate that constraint;
// when they do, the oldest row per day wins.
type CleanupWorker struct {
	DB       *gorm.DB
	Interval time.Duration
}

func NewCleanupWorker(db *gorm.DB) *CleanupWorker {
	return &CleanupWorker{
		DB:       db,
		Interval: 24 * time.Hour,
	}
}

func (w *CleanupWorker) Start(ctx context.Context) {
	log.Println("🧹 Starting Cleanup Worker (register dedupe + mirror pruning)…")
	go w.run(ctx)
}

func (w *CleanupWorker) run(ctx context.Context) {
	// One pass at boot, then daily.
	w.sweep()

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-ctx.Done():
			log.Println("⏹️ Cleanup Worker stopped")
			return
		}
	}
}

func (w *CleanupWorker) sweep() {
	if n, err := w.dedupeRegisters(); err != nil {
		log.Printf("❌ Register dedupe failed: %v", err)
	} else if n > 0 {
		log.Printf("🧹 Removed %d duplicate register(s), keeping the oldest per (habit, date)", n)
	}

	if n, err := w.pruneDeactivatedMirrors(); err != nil {
		log.Printf("❌ Mirror pruning failed: %v", err)
	} else if n > 0 {
		log.Printf("🧹 Soft-deleted %d deactivated user mirror(s)", n)
	}
}

// dedupeRegisters deletes all but the earliest register per (habit_id, date).
func (w *CleanupWorker) dedupeRegisters() (int64, error) {
	result := w.DB.Exec(`
		DELETE FROM habit_registers hr
		USING habit_registers keep
		WHERE hr.habit_id = keep.habit_id
		  AND hr.date = keep.date
		  AND hr.created_at > keep.created_at
	`)
	return result.RowsAffected, result.Error
}

// pruneDeactivatedMirrors soft-deletes mirror rows for accounts the profile
// service has marked inactive for over 30 days. Their habits and registers
// stay; reactivation restores the mirror on the next sync.
func (w *CleanupWorker) pruneDeactivatedMirrors() (int64, error) {
	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	result := w.DB.Exec(`
		UPDATE habit_users
		SET deleted_at = NOW()
		WHERE is_active = false
		  AND deleted_at IS NULL
		  AND updated_at < ?
	`, cutoff)
	return result.RowsAffected, result.Error
}
