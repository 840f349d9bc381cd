package main

import "github.com/prometheus/client_golang/prometheus"

func init() {
	prometheus.MustRegister(metrics_requestsByRoute)
	prometheus.MustRegister(metrics_responseStatus)
	prometheus.MustRegister(metrics_importResult)
	prometheus.MustRegister(metrics_indexingInProgress)
	prometheus.MustRegister(metrics_responseTimeHistogram)
}

var metrics_requestsByRoute = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "explorer_requests_by_route",
		Help: "HTTP requests by route",
	},
	[]string{"route"},
)

var metrics_responseStatus = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "explorer_response_status",
		Help: "HTTP responses by route and status code",
	},
	[]string{"route", "code"},
)

var metrics_importResult = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "explorer_master_import_result",
		Help: "Master game imports by outcome",
	},
	[]string{"result"},
)

var metrics_indexingInProgress = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "explorer_indexing_in_progress",
		Help: "Number of players currently being indexed",
	},
	[]string{},
)

var metrics_responseTimeHistogram = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "explorer_response_time_seconds",
		Help: "Response time by route",
	},
	[]string{"route"},
)
