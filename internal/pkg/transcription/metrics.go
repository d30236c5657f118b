package transcription

import (
	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"bitbucket.org/localbzz/portalgo/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
)

var jobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "transcription_jobs_total",
	Help: "The total number of transcription jobs by result",
}, []string{"result"})

func init() {
	cmdapp.LogIf(metrics.Register(jobsTotal))
}

func observe(result string) {
	jobsTotal.WithLabelValues(result).Inc()
}
