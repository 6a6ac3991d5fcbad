package prometheus

import "time"

// Reasons a row is skipped, used as the "reason" label.
const (
	ReasonParse     = "parse"
	ReasonReference = "reference"
	ReasonWrite     = "write"
)

// LoadMetrics holds the metrics of one load run.
type LoadMetrics struct {
	RowsRead       CounterVec
	RowsSkipped    CounterVec
	NodesMerged    CounterVec
	NodesCreated   CounterVec
	EdgesMerged    CounterVec
	EdgesCreated   CounterVec
	PropertiesSet  CounterVec
	StageDuration  HistogramVec
	RunSuccess     GaugeVec
	LastRunSeconds GaugeVec
}

// DefaultStageDurationBuckets spans seconds to several hours.
var DefaultStageDurationBuckets = []float64{1, 5, 15, 60, 300, 900, 1800, 3600, 7200, 14400}

// NewLoadMetrics registers every load metric on collector.
func NewLoadMetrics(collector MetricsCollector) *LoadMetrics {
	return &LoadMetrics{
		RowsRead: collector.RegisterCounter("rows_read_total",
			"Data rows read from each table file.", "table"),
		RowsSkipped: collector.RegisterCounter("rows_skipped_total",
			"Rows skipped per table and reason.", "table", "reason"),
		NodesMerged: collector.RegisterCounter("nodes_merged_total",
			"Node merge requests accepted by the graph store.", "label"),
		NodesCreated: collector.RegisterCounter("nodes_created_total",
			"Nodes newly created by merge requests.", "label"),
		EdgesMerged: collector.RegisterCounter("relationships_merged_total",
			"Relationship merge requests accepted by the graph store.", "type"),
		EdgesCreated: collector.RegisterCounter("relationships_created_total",
			"Relationships newly created by merge requests.", "type"),
		PropertiesSet: collector.RegisterCounter("properties_set_total",
			"Properties set by enrichment tables.", "table"),
		StageDuration: collector.RegisterHistogram("stage_duration_seconds",
			"Wall time of each load stage.", DefaultStageDurationBuckets, "stage"),
		RunSuccess: collector.RegisterGauge("last_run_success",
			"1 if the last run completed, 0 otherwise.", "run_id"),
		LastRunSeconds: collector.RegisterGauge("last_run_duration_seconds",
			"Wall time of the last run.", "run_id"),
	}
}

// RecordRun sets the run gauges.
func (m *LoadMetrics) RecordRun(runID string, ok bool, elapsed time.Duration) {
	v := 0.0
	if ok {
		v = 1
	}
	m.RunSuccess.WithLabelValues(runID).Set(v)
	m.LastRunSeconds.WithLabelValues(runID).Set(elapsed.Seconds())
}

// NewNopLoadMetrics returns metrics that record nothing.
func NewNopLoadMetrics() *LoadMetrics {
	return &LoadMetrics{
		RowsRead:       noopCounterVec{},
		RowsSkipped:    noopCounterVec{},
		NodesMerged:    noopCounterVec{},
		NodesCreated:   noopCounterVec{},
		EdgesMerged:    noopCounterVec{},
		EdgesCreated:   noopCounterVec{},
		PropertiesSet:  noopCounterVec{},
		StageDuration:  noopHistogramVec{},
		RunSuccess:     noopGaugeVec{},
		LastRunSeconds: noopGaugeVec{},
	}
}

//Personal.AI order the ending
