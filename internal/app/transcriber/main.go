package transcriber

import (
	"time"

	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"bitbucket.org/localbzz/portalgo/internal/pkg/loader"
	"bitbucket.org/localbzz/portalgo/internal/pkg/messages"
	"bitbucket.org/localbzz/portalgo/internal/pkg/mongo"
	"bitbucket.org/localbzz/portalgo/internal/pkg/rabbit"
	"bitbucket.org/localbzz/portalgo/internal/pkg/records"
	stt "bitbucket.org/localbzz/portalgo/internal/pkg/transcriber"
	"bitbucket.org/localbzz/portalgo/internal/pkg/transcription"
	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var appName = "Voice Memo Transcription Worker"

var rootCmd = &cobra.Command{
	Use:   "transcriptionWorker",
	Short: appName,
	Long:  `Worker listens for the transcription jobs from the queue and writes transcripts back to the datastore`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	cmdapp.Config.SetDefault("lock.lease", "5m")
}

//Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting " + appName)
	data := ServiceData{}

	recsCfg, err := records.ReadConfig()
	cmdapp.CheckOrPanic(err, "Can't read datastore config")
	recs, err := records.NewClient(recsCfg)
	cmdapp.CheckOrPanic(err, "Can't init datastore")
	sttClient, err := stt.NewClient(stt.ReadConfig())
	cmdapp.CheckOrPanic(err, "Can't init speech to text client")

	var locker transcription.Locker
	if url := cmdapp.Config.GetString("mongo.url"); url != "" {
		sp, err := mongo.NewSessionProvider(url)
		cmdapp.CheckOrPanic(err, "Can't init mongo")
		defer sp.Close()
		locker, err = mongo.NewLocker(sp, cmdapp.DurationOr("lock.lease", 5*time.Minute))
		cmdapp.CheckOrPanic(err, "Can't init mongo locker")
	}
	data.Worker = transcription.NewWorker(loader.NewHTTPLoader(cmdapp.Config.GetDuration("download.timeout"),
		cmdapp.Config.GetInt64("download.maxBytes")), sttClient, recs, locker, transcription.ReadConfig())

	pr, err := connect()
	cmdapp.CheckOrPanic(err, "Can't connect to the queue")
	defer pr.Close()
	data.WorkCh, err = rabbit.NewConsumer(pr, messages.Transcribe)
	cmdapp.CheckOrPanic(err, "Can't listen "+messages.Transcribe+" queue")

	fc, err := StartWorkerService(&data)
	cmdapp.CheckOrPanic(err, "")
	sc := cmdapp.NewSignalChannel()
	select {
	case <-sc:
		cmdapp.Log.Info("Got exit signal")
	case <-fc:
		cmdapp.Log.Warn("Queue closed")
	}
	cmdapp.Log.Infof("Exiting service")
}

// connect waits for the broker on start up, jobs themselves are never retried
func connect() (*rabbit.ChannelProvider, error) {
	pr, err := rabbit.NewChannelProvider(rabbit.ReadConfig())
	if err != nil {
		return nil, err
	}
	op := func() error {
		_, err := pr.Channel()
		if err != nil {
			cmdapp.Log.Warn(errors.Wrap(err, "Can't connect"))
		}
		return err
	}
	if err := backoff.Retry(op, newBackOff()); err != nil {
		return nil, err
	}
	return pr, nil
}

func newBackOff() backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     backoff.DefaultInitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         backoff.DefaultMaxInterval,
		MaxElapsedTime:      cmdapp.DurationOr("messageServer.connectTimeout", 2*time.Minute),
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return b
}
