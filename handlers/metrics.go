package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	printJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkin_print_jobs_total",
		Help: "Wristband print jobs sent to the print bridge, by result.",
	}, []string{"result"})

	recordsRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkin_records_registered_total",
		Help: "Child records registered through the form or an Excel import.",
	})
)
