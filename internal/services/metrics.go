package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcome labels
const (
	fetchResultOK      = "ok"
	fetchResultError   = "error"
	fetchResultTimeout = "timeout"
	fetchResultParse   = "parse_error"
)

var (
	metadataFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homespace",
		Name:      "metadata_fetch_total",
		Help:      "Outbound metadata fetches by result.",
	}, []string{"result"})

	previewCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homespace",
		Name:      "preview_cache_total",
		Help:      "Preview cache lookups by result (hit, miss, error).",
	}, []string{"result"})

	linkResolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homespace",
		Name:      "link_resolve_total",
		Help:      "Link resolutions by outcome (existing, created, race).",
	}, []string{"outcome"})
)
