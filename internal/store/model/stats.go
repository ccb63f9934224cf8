package model

// ArchiveStats summarizes the archive for the metrics collector.
type ArchiveStats struct {
	Total    int64
	ByStatus map[string]int64
}

func NewArchiveStats() ArchiveStats {
	return ArchiveStats{ByStatus: make(map[string]int64)}
}
