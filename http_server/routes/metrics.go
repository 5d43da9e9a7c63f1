package routes

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func MetricsRoute(router *mux.Router) {
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}
