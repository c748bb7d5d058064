package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nemflow",
		Subsystem: "ingest",
		Name:      "records_total",
		Help:      "Records written to the store, by feed.",
	}, []string{"feed"})

	feedFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nemflow",
		Subsystem: "ingest",
		Name:      "feed_failures_total",
		Help:      "Fetch or store failures, by feed.",
	}, []string{"feed"})

	ingestCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nemflow",
		Subsystem: "ingest",
		Name:      "cycles_total",
		Help:      "Completed ingestion cycles, by outcome.",
	}, []string{"outcome"})
)
