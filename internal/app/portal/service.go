package portal

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/localbzz/portalgo/internal/app/portal/api"
	"bitbucket.org/localbzz/portalgo/internal/pkg/apperr"
	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"bitbucket.org/localbzz/portalgo/internal/pkg/metrics"
	"bitbucket.org/localbzz/portalgo/internal/pkg/records"
	"bitbucket.org/localbzz/portalgo/internal/pkg/schedule"
	"bitbucket.org/localbzz/portalgo/internal/pkg/submission"
	"bitbucket.org/localbzz/portalgo/internal/pkg/tenant"
	"bitbucket.org/localbzz/portalgo/internal/pkg/transcription"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/gorilla/mux"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//Submitter runs the submission flow
type Submitter interface {
	Submit(ctx context.Context, in *submission.Input) (*submission.Result, error)
}

//JobProcessor runs the transcription job
type JobProcessor interface {
	Process(ctx context.Context, job *transcription.Job) (*transcription.Result, error)
}

//ClientProvider reads client and schedule records
type ClientProvider interface {
	FindClient(ctx context.Context, tenant string) (*records.ClientInfo, error)
	ScheduleEvents(ctx context.Context) ([]schedule.Event, error)
}

type serviceMetric struct {
	submitResponseDur prometheus.ObserverVec
	submitRequestSize prometheus.ObserverVec
	transcribeDur     prometheus.ObserverVec
	clientInfoDur     prometheus.ObserverVec
}

// ServiceData keeps data required for service work
type ServiceData struct {
	Submitter  Submitter
	Worker     JobProcessor
	Clients    ClientProvider
	Tenants    *tenant.Resolver
	// AttachmentsDir is served at /attachments/ when set
	AttachmentsDir string
	MaxUploadBytes int64
	Now            func() time.Time

	Port    int
	health  healthcheck.Handler
	metrics *serviceMetric
}

//StartWebServer starts the HTTP service and listens for the requests
func StartWebServer(data *ServiceData) error {
	cmdapp.Log.Infof("Starting HTTP service at %d", data.Port)
	r := NewRouter(data)

	portStr := strconv.Itoa(data.Port)
	srv := http.Server{
		Addr:              ":" + portStr,
		WriteTimeout:      90 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		Handler:           r,
	}

	w := cmdapp.Log.Writer()
	defer w.Close()
	l := log.New(w, "", 0)
	gracehttp.SetLogger(l)

	return gracehttp.Serve(&srv)
}

//NewRouter creates the router for HTTP service
func NewRouter(data *ServiceData) *mux.Router {
	initDefaults(data)
	router := mux.NewRouter().StrictSlash(true)
	router.Use(corsMiddleware)
	m := data.metrics
	sh := promhttp.InstrumentHandlerDuration(m.submitResponseDur,
		promhttp.InstrumentHandlerRequestSize(m.submitRequestSize, submitHandler{data: data}))
	psh := promhttp.InstrumentHandlerDuration(m.submitResponseDur,
		promhttp.InstrumentHandlerRequestSize(m.submitRequestSize, submitHandler{data: data, requestForm: true}))
	th := promhttp.InstrumentHandlerDuration(m.transcribeDur, transcribeHandler{data: data})
	ch := promhttp.InstrumentHandlerDuration(m.clientInfoDur, clientInfoHandler{data: data})
	router.Methods("POST").Path("/submit").Handler(sh)
	router.Methods("POST").Path("/portal/submit").Handler(psh)
	router.Methods("POST").Path("/transcribe").Handler(th)
	router.Methods("GET").Path("/client-info").Handler(ch)
	for _, p := range []string{"/submit", "/portal/submit", "/transcribe", "/client-info"} {
		router.Methods("OPTIONS").Path(p).HandlerFunc(preflight)
	}
	if data.AttachmentsDir != "" {
		router.Methods("GET").PathPrefix("/attachments/").
			Handler(http.StripPrefix("/attachments/", http.FileServer(http.Dir(data.AttachmentsDir))))
	}
	router.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	router.Methods("GET").Path("/live").HandlerFunc(data.health.LiveEndpoint)
	router.Methods("GET").Path("/ready").HandlerFunc(data.health.ReadyEndpoint)
	return router
}

func initDefaults(data *ServiceData) {
	if data.health == nil {
		data.health = healthcheck.NewHandler()
	}
	if data.metrics == nil {
		data.metrics = newServiceMetric()
	}
	if data.Now == nil {
		data.Now = time.Now
	}
	if data.MaxUploadBytes <= 0 {
		data.MaxUploadBytes = 30 << 20
	}
	if data.Tenants == nil {
		data.Tenants = tenant.NewResolver(tenant.DefaultTenant, nil, nil)
	}
}

func newServiceMetric() *serviceMetric {
	res := &serviceMetric{}
	res.submitResponseDur = newDurationMetric("submit_response_duration_seconds", "Submit response durations")
	res.transcribeDur = newDurationMetric("transcribe_response_duration_seconds", "Transcription job durations")
	res.clientInfoDur = newDurationMetric("client_info_response_duration_seconds", "Client info response durations")
	rs := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: "submit_request_size_bytes",
		Help: "Submit request sizes",
	}, []string{"code"})
	cmdapp.LogIf(metrics.Register(rs))
	res.submitRequestSize = rs
	return res
}

func newDurationMetric(name, help string) prometheus.ObserverVec {
	res := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:       name,
		Help:       help,
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, []string{"code", "method"})
	cmdapp.LogIf(metrics.Register(res))
	return res
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

func preflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, code int, res interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		cmdapp.Log.Error(err)
	}
}

// writeError logs the error and returns the message that is safe for the caller
func writeError(w http.ResponseWriter, err error, generic string) {
	code := apperr.HTTPStatus(err)
	if code >= 500 {
		cmdapp.Log.Error(err)
	} else {
		cmdapp.Log.Warn(err)
	}
	writeJSON(w, code, api.ErrorResponse{Error: apperr.PublicMessage(err, generic)})
}
