package rabbitmq

// QueueConfig описывает очередь и её ключ маршрутизации в обменнике биллинга.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Ключи маршрутизации событий биллинга.
const (
	RoutingKeyPaymentRecorded       = "payment.recorded"
	RoutingKeyPaymentFailed         = "payment.failed"
	RoutingKeySubscriptionCancelled = "subscription.cancelled"
)

// GetBillingQueues возвращает очереди, которые слушают воркеры биллинга.
func GetBillingQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "billing.payment.recorded", RoutingKey: RoutingKeyPaymentRecorded},
		{QueueName: "billing.payment.failed", RoutingKey: RoutingKeyPaymentFailed},
		{QueueName: "billing.subscription.cancelled", RoutingKey: RoutingKeySubscriptionCancelled},
	}
}
