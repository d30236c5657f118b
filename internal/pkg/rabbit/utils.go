package rabbit

import (
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

//Declare decrares queue
func Declare(ch *amqp.Channel, qName string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		qName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

//DeclareQueues returns the sender init func that declares the queues
func DeclareQueues(names ...string) InitFunc {
	return func(pr *ChannelProvider) error {
		return pr.RunOnChannelWithRetry(func(ch *amqp.Channel) error {
			for _, n := range names {
				if _, err := Declare(ch, pr.QueueName(n)); err != nil {
					return errors.Wrapf(err, "Can't declare %s", n)
				}
			}
			return nil
		})
	}
}

//NewConsumer declares the queue and starts the consumer with prefetch 1
func NewConsumer(pr *ChannelProvider, queue string) (<-chan amqp.Delivery, error) {
	var res <-chan amqp.Delivery
	err := pr.RunOnChannelWithRetry(func(ch *amqp.Channel) error {
		q, err := Declare(ch, pr.QueueName(queue))
		if err != nil {
			return errors.Wrapf(err, "Can't declare %s", queue)
		}
		if err := ch.Qos(1, 0, false); err != nil {
			return errors.Wrap(err, "Can't set qos")
		}
		res, err = ch.Consume(q.Name, "", false, false, false, false, nil)
		return errors.Wrapf(err, "Can't start consumer on %s", q.Name)
	})
	return res, err
}
