package scheduler

import (
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const historyFileName = ".history.db"

// Run is one row of the invocation-level history: a single apply, destroy,
// or reapply call. It supplements, and never replaces, the per-component
// .status markers the planner reads — Run records are for CLI `history`
// and operator diagnostics only.
type Run struct {
	ID        uint `gorm:"primaryKey"`
	Verb      string
	RootHuuid string
	JobCount  int
	Outcome   string
	CreatedAt time.Time
}

// History is a small sqlite-backed append log of Run rows.
type History struct {
	db *gorm.DB
}

// OpenHistory opens (creating if needed) the history database at
// <registryRoot>/.history.db.
func OpenHistory(registryRoot string) (*History, error) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(registryRoot, historyFileName)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, err
	}
	return &History{db: db}, nil
}

// Record appends one Run row.
func (h *History) Record(verb, rootHuuid string, jobCount int, outcome string) error {
	return h.db.Create(&Run{
		Verb:      verb,
		RootHuuid: rootHuuid,
		JobCount:  jobCount,
		Outcome:   outcome,
		CreatedAt: time.Now(),
	}).Error
}

// Recent returns the most recent n runs, newest first.
func (h *History) Recent(n int) ([]Run, error) {
	var runs []Run
	err := h.db.Order("id desc").Limit(n).Find(&runs).Error
	return runs, err
}

// Close releases the underlying sql.DB connection.
func (h *History) Close() error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
