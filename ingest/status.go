package ingest

import "time"

// Status reports the outcome of the most recent ingestion activity.
type Status struct {
	RunID          string
	LastRun        time.Time
	LastSuccess    bool
	RecordsByTable map[string]int
}

// Status returns a copy of the current backfill status.
func (i *Ingester) Status() Status {
	i.mu.Lock()
	defer i.mu.Unlock()

	records := make(map[string]int, len(i.status.RecordsByTable))
	for k, v := range i.status.RecordsByTable {
		records[k] = v
	}
	out := i.status
	out.RecordsByTable = records
	return out
}

func (i *Ingester) recordWritten(table string, n int) {
	if n == 0 {
		return
	}
	recordsIngested.WithLabelValues(table).Add(float64(n))

	i.mu.Lock()
	i.status.RecordsByTable[table] += n
	i.mu.Unlock()
}

func (i *Ingester) recordCycle(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	ingestCycles.WithLabelValues(outcome).Inc()

	i.mu.Lock()
	i.status.LastRun = time.Now()
	i.status.LastSuccess = success
	i.mu.Unlock()
}
