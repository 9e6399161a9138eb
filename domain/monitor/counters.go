package monitor

// Counters aggregates per-table import outcomes. For every completed table
// Received = Inserted + Updated + Skipped + Errors.
type Counters struct {
	Received int `json:"received"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

// Consistent reports whether the received count matches the sum of the
// outcome counters.
func (c Counters) Consistent() bool {
	return c.Received == c.Inserted+c.Updated+c.Skipped+c.Errors
}

// SnapshotCounts holds the number of derived snapshot rows inserted per
// snapshot type.
type SnapshotCounts struct {
	InitialCapture int64 `json:"initial_capture"`
	LatestObserved int64 `json:"latest_observed"`
	Refresh24h     int64 `json:"refresh_24h"`
}

// Summary is the final import report written to standard output.
type Summary struct {
	WatchAccounts    Counters       `json:"watch_accounts"`
	Posts            Counters       `json:"posts"`
	Reports          Counters       `json:"reports"`
	PipelineRuns     Counters       `json:"pipeline_runs"`
	Embeddings       Counters       `json:"embeddings"`
	DerivedSnapshots SnapshotCounts `json:"derived_snapshots"`
}
