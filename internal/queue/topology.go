package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// declarer is the part of *amqp.Channel needed to set up the payment
// queues.
type declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// paymentsQueueArgs dead-letters rejected messages instead of dropping them.
func paymentsQueueArgs() amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    PaymentsDeadLetterExchange,
		"x-dead-letter-routing-key": PaymentsDeadQueue,
	}
}

// declarePaymentTopology declares the dead-letter exchange and queue and
// the payments.paid queue that feeds them.  Publisher and consumer both
// call it, so the arguments must stay identical on both sides.
func declarePaymentTopology(ch declarer) error {
	if err := ch.ExchangeDeclare(PaymentsDeadLetterExchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(PaymentsDeadQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("dead-letter queue declare: %w", err)
	}
	if err := ch.QueueBind(PaymentsDeadQueue, PaymentsDeadQueue, PaymentsDeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("dead-letter queue bind: %w", err)
	}
	if _, err := ch.QueueDeclare(PaymentsPaidQueue, true, false, false, false, paymentsQueueArgs()); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}
