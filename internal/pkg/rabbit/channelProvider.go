package rabbit

import (
	"sync"

	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"github.com/streadway/amqp"

	"github.com/pkg/errors"
)

//Config of the broker connection
type Config struct {
	URL         string
	User        string
	Pass        string
	QueuePrefix string
}

//ChannelProvider provider amqp channel
type ChannelProvider struct {
	url     string
	qPrefix string
	conn    *amqp.Connection
	ch      *amqp.Channel
	m       sync.Mutex // struct field mutex
}

type runOnChannelFunc func(*amqp.Channel) error

//NewChannelProvider initializes channel provider
func NewChannelProvider(c Config) (*ChannelProvider, error) {
	if c.URL == "" {
		return nil, errors.New("No broker url from messageServer.url")
	}
	if c.User != "" && c.Pass == "" {
		return nil, errors.New("No broker pass from messageServer.pass")
	}
	finalURL := "amqp://"
	if c.User != "" {
		finalURL = finalURL + c.User + ":" + c.Pass + "@"
	}
	finalURL = finalURL + c.URL
	return &ChannelProvider{url: finalURL, qPrefix: c.QueuePrefix}, nil
}

//Channel return cached channel or tries to connect to rabbit broker
func (pr *ChannelProvider) Channel() (*amqp.Channel, error) {
	pr.m.Lock()
	defer pr.m.Unlock()

	if pr.ch != nil {
		return pr.ch, nil
	}
	conn, err := amqp.Dial(pr.url)
	if err != nil {
		return nil, errors.Wrap(err, "Can't connect to rabbit broker")
	}
	ch, err := conn.Channel()
	if err != nil {
		defer conn.Close()
		return nil, errors.Wrap(err, "Can't create channel")
	}
	pr.conn = conn
	pr.ch = ch
	return pr.ch, nil
}

//RunOnChannelWithRetry invokes method on channel with retry
func (pr *ChannelProvider) RunOnChannelWithRetry(f runOnChannelFunc) error {
	ch, err := pr.Channel()
	if err != nil {
		return errors.Wrap(err, "Can't init channel")
	}
	err = f(ch)
	if err != nil {
		cmdapp.Log.Infof("Retry opening channel")
		pr.Close()
		ch, err = pr.Channel()
		if err != nil {
			return errors.Wrap(err, "Can't init channel")
		}
		err = f(ch)
	}
	return err
}

//QueueName returns the queue name with the configured prefix
func (pr *ChannelProvider) QueueName(name string) string {
	if pr.qPrefix == "" || name == "" {
		return name
	}
	return pr.qPrefix + "_" + name
}

//Healthy checks if the connection is alive
func (pr *ChannelProvider) Healthy() error {
	pr.m.Lock()
	defer pr.m.Unlock()

	if pr.conn == nil || pr.conn.IsClosed() {
		return errors.New("No broker connection")
	}
	return nil
}

//Close finalizes ChannelProvider
func (pr *ChannelProvider) Close() {
	pr.m.Lock()
	defer pr.m.Unlock()

	if pr.ch != nil {
		defer pr.ch.Close()
	}
	if pr.conn != nil {
		defer pr.conn.Close()
	}
	pr.ch = nil
	pr.conn = nil
}
