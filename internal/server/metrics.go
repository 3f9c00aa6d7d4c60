package server

import "github.com/prometheus/client_golang/prometheus"

var (
	jobsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "optimizer_jobs_created_total",
		Help: "Total number of optimization jobs submitted.",
	})
	jobsFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_jobs_finished_total",
		Help: "Total number of finished jobs by terminal state.",
	}, []string{"state"})
	runningJobs = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "optimizer_jobs_running",
		Help: "Number of jobs currently running.",
	})
	generationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "optimizer_generations_total",
		Help: "Total number of generations evolved across all jobs.",
	})
	bestFitnessGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "optimizer_best_fitness",
		Help: "Best fitness found so far per job.",
	}, []string{"job_id"})
)

func init() {
	prometheus.MustRegister(jobsCreated, jobsFinished, runningJobs, generationsTotal, bestFitnessGauge)
}
