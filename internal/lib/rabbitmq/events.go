package rabbitmq

// PaymentRecordedEvent публикуется после успешного проведения платежа.
type PaymentRecordedEvent struct {
	SubscriptionID  int    `json:"subscription_id"`
	PaymentID       int    `json:"payment_id"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	PaymentDate     string `json:"payment_date"`
	NextBillingDate string `json:"next_billing_date"`
}

// PaymentFailedEvent публикуется после регистрации неудачной попытки платежа.
type PaymentFailedEvent struct {
	SubscriptionID     int    `json:"subscription_id"`
	FailedPaymentCount int    `json:"failed_payment_count"`
	Paused             bool   `json:"paused"`
	PaymentDate        string `json:"payment_date"`
}

// SubscriptionCancelledEvent публикуется при отмене подписки.
type SubscriptionCancelledEvent struct {
	SubscriptionID int    `json:"subscription_id"`
	Reason         string `json:"reason"`
	EndDate        string `json:"end_date"`
}
