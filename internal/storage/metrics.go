package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Placement outcomes recorded by placementsTotal.
const (
	outcomePlaced      = "placed"
	outcomeMaterialize = "materialize_failed"
	outcomeExhausted   = "exhausted"
	outcomeError       = "error"
)

var (
	placementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "afisha_store_placements_total",
		Help: "Files placed into the sharded tree, by outcome.",
	}, []string{"outcome"})

	pathCollisionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "afisha_store_path_collisions_total",
		Help: "Candidate paths discarded because a file already existed.",
	})

	placementDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "afisha_store_placement_duration_seconds",
		Help:    "Time spent reserving and materializing a file.",
		Buckets: prometheus.DefBuckets,
	})

	imageCopiesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "afisha_store_image_copies_total",
		Help: "CopyImage calls, by result.",
	}, []string{"result"})
)
