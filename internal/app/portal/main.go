package portal

import (
	"context"
	"time"

	"bitbucket.org/localbzz/portalgo/internal/pkg/attachment"
	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"bitbucket.org/localbzz/portalgo/internal/pkg/dispatch"
	"bitbucket.org/localbzz/portalgo/internal/pkg/inform"
	"bitbucket.org/localbzz/portalgo/internal/pkg/loader"
	"bitbucket.org/localbzz/portalgo/internal/pkg/messages"
	"bitbucket.org/localbzz/portalgo/internal/pkg/mongo"
	"bitbucket.org/localbzz/portalgo/internal/pkg/rabbit"
	"bitbucket.org/localbzz/portalgo/internal/pkg/records"
	"bitbucket.org/localbzz/portalgo/internal/pkg/submission"
	"bitbucket.org/localbzz/portalgo/internal/pkg/tenant"
	"bitbucket.org/localbzz/portalgo/internal/pkg/transcriber"
	"bitbucket.org/localbzz/portalgo/internal/pkg/transcription"
	"github.com/heptiolabs/healthcheck"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "portalService",
	Short: "Client Portal Intake Service",
	Long:  `HTTP server to accept client portal submissions, transcribe voice memos and provide client schedule info`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().Int32P("port", "", 8000, "Default service port")
	cmdapp.Config.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	cmdapp.Config.SetDefault("port", 8080)
	cmdapp.Config.SetDefault("tenants.default", tenant.DefaultTenant)
	cmdapp.Config.SetDefault("attachments.type", "local")
	cmdapp.Config.SetDefault("attachments.path", "/data/attachments/")
	cmdapp.Config.SetDefault("dispatch.type", "http")
	cmdapp.Config.SetDefault("lock.lease", "5m")
}

//Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting portalService")
	data := ServiceData{health: healthcheck.NewHandler(), Now: time.Now}
	data.Port = cmdapp.Config.GetInt("port")
	data.MaxUploadBytes = cmdapp.Config.GetInt64("upload.maxBytes")

	aliases, err := tenant.NewFileAliasMap(cmdapp.Config.GetString("tenants.aliases"))
	cmdapp.CheckOrPanic(err, "Can't init tenant aliases")
	data.Tenants = tenant.NewResolver(cmdapp.Config.GetString("tenants.default"),
		cmdapp.Config.GetStringSlice("tenants.skipHosts"), aliases)

	recs, err := newRecordsClient()
	if err != nil {
		cmdapp.Log.Warn(errors.Wrap(err, "Datastore not configured, submissions will fail"))
	} else {
		data.Clients = recs
	}

	store, closeFn := newAttachmentStore(&data)
	defer closeFn()

	var locker transcription.Locker
	if url := cmdapp.Config.GetString("mongo.url"); url != "" {
		sp, err := mongo.NewSessionProvider(url)
		cmdapp.CheckOrPanic(err, "Can't init mongo")
		defer sp.Close()
		data.health.AddLivenessCheck("mongo", healthcheck.Async(sp.Healthy, 10*time.Second))
		locker, err = mongo.NewLocker(sp, cmdapp.DurationOr("lock.lease", 5*time.Minute))
		cmdapp.CheckOrPanic(err, "Can't init mongo locker")
	}

	stt := newTranscriber()
	worker := transcription.NewWorker(loader.NewHTTPLoader(cmdapp.Config.GetDuration("download.timeout"),
		cmdapp.Config.GetInt64("download.maxBytes")), stt, recsOrNil(recs), locker, transcription.ReadConfig())
	data.Worker = worker

	dispatcher, closeFn := newDispatcher(&data, stt != nil)
	defer closeFn()

	if recs != nil {
		srv, err := submission.NewService(store, recs, dispatcher, newNotifier())
		cmdapp.CheckOrPanic(err, "Can't init submission service")
		data.Submitter = srv
	}

	err = StartWebServer(&data)
	cmdapp.CheckOrPanic(err, "Can't start web server")
}

func newRecordsClient() (*records.Client, error) {
	cfg, err := records.ReadConfig()
	if err != nil {
		return nil, err
	}
	return records.NewClient(cfg)
}

func recsOrNil(r *records.Client) transcription.Records {
	if r == nil {
		return nil
	}
	return r
}

func newTranscriber() transcription.Transcriber {
	res, err := transcriber.NewClient(transcriber.ReadConfig())
	if err != nil {
		cmdapp.Log.Warn(errors.Wrap(err, "Voice memos will not be transcribed"))
		return nil
	}
	return res
}

func newAttachmentStore(data *ServiceData) (submission.AttachmentStore, func()) {
	publicURL := cmdapp.Config.GetString("attachments.url")
	switch t := cmdapp.Config.GetString("attachments.type"); t {
	case "local":
		path := cmdapp.Config.GetString("attachments.path")
		res, err := attachment.NewLocalStore(path, publicURL)
		cmdapp.CheckOrPanic(err, "Can't init attachment storage")
		data.AttachmentsDir = path
		return res, func() {}
	case "gcs":
		res, err := attachment.NewGCSStore(context.Background(), cmdapp.Config.GetString("attachments.bucket"),
			publicURL, cmdapp.Config.GetBool("attachments.public"))
		cmdapp.CheckOrPanic(err, "Can't init gcs attachment storage")
		return res, func() { cmdapp.LogIf(res.Close()) }
	case "", "none":
		cmdapp.Log.Warn("No attachment storage, files will not be uploaded")
		return nil, func() {}
	default:
		panic(errors.Errorf("Unknown attachments.type '%s'", t))
	}
}

// newDispatcher returns nil when jobs can not be run
func newDispatcher(data *ServiceData, localWorker bool) (submission.Dispatcher, func()) {
	switch t := cmdapp.Config.GetString("dispatch.type"); t {
	case "http":
		if !localWorker {
			return nil, func() {}
		}
		url := cmdapp.Config.GetString("dispatch.url")
		if url == "" {
			url = "http://localhost:" + cmdapp.Config.GetString("port")
		}
		res, err := dispatch.NewHTTPDispatcher(url, cmdapp.Config.GetDuration("dispatch.timeout"))
		cmdapp.CheckOrPanic(err, "Can't init dispatcher")
		return res, func() {}
	case "queue":
		pr, err := rabbit.NewChannelProvider(rabbit.ReadConfig())
		cmdapp.CheckOrPanic(err, "Can't init rabbit channel")
		data.health.AddLivenessCheck("rabbit", healthcheck.Async(pr.Healthy, 10*time.Second))
		res, err := dispatch.NewQueueDispatcher(rabbit.NewSender(pr, rabbit.DeclareQueues(messages.Transcribe)))
		cmdapp.CheckOrPanic(err, "Can't init dispatcher")
		return res, func() { pr.Close() }
	case "", "none":
		return nil, func() {}
	default:
		panic(errors.Errorf("Unknown dispatch.type '%s'", t))
	}
}

func newNotifier() submission.Notifier {
	if cmdapp.Config.GetString("smtp.host") == "" {
		return nil
	}
	var location *time.Location
	if l := cmdapp.Config.GetString("mail.location"); l != "" {
		var err error
		location, err = time.LoadLocation(l)
		cmdapp.CheckOrPanic(err, "Can't init location")
	}
	res, err := inform.NewEmailNotifier(inform.ReadSMTPConfig(), inform.ReadMailConfig(), location)
	cmdapp.CheckOrPanic(err, "Can't init urgent notifier")
	return res
}
