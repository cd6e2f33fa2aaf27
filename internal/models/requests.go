package models

// DummySubscription используется для приёма данных из JSON-запроса
// на создание подписки. Даты приходят строками в формате 2006-01-02,
// чтобы их можно было валидировать и парсить вручную.
type DummySubscription struct {
	ClientID       int      `json:"client_id" validate:"required,gt=0"`
	ProjectID      int      `json:"project_id" validate:"required,gt=0"`
	Plan           string   `json:"subscription_plan" validate:"required"`
	MonthlyPrice   string   `json:"monthly_price" validate:"required"`
	Currency       string   `json:"currency" validate:"omitempty,len=3"`
	BillingCycle   string   `json:"billing_cycle" validate:"omitempty,oneof=monthly quarterly yearly"`
	StartDate      string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate        string   `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	TrialEndDate   string   `json:"trial_end_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentMethod  string   `json:"payment_method" validate:"omitempty"`
	UserLimit      *int     `json:"user_limit" validate:"omitempty,gt=0"`
	StorageLimitGB *int     `json:"storage_limit_gb" validate:"omitempty,gt=0"`
	Features       []string `json:"features_enabled" validate:"omitempty"`
	CustomDomain   string   `json:"custom_domain" validate:"omitempty"`
	Notes          string   `json:"notes" validate:"omitempty"`
	ContractRef    string   `json:"contract_reference" validate:"omitempty"`
}

// DummySubscriptionUpdate — данные запроса на обновление подписки.
// Указатели отличают "поле не передано" от "передано пустое значение".
type DummySubscriptionUpdate struct {
	Plan           *string  `json:"subscription_plan" validate:"omitempty"`
	MonthlyPrice   *string  `json:"monthly_price" validate:"omitempty"`
	Currency       *string  `json:"currency" validate:"omitempty,len=3"`
	BillingCycle   *string  `json:"billing_cycle" validate:"omitempty,oneof=monthly quarterly yearly"`
	EndDate        *string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	TrialEndDate   *string  `json:"trial_end_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentMethod  *string  `json:"payment_method" validate:"omitempty"`
	UserLimit      *int     `json:"user_limit" validate:"omitempty,gt=0"`
	StorageLimitGB *int     `json:"storage_limit_gb" validate:"omitempty,gt=0"`
	Features       []string `json:"features_enabled" validate:"omitempty"`
	CustomDomain   *string  `json:"custom_domain" validate:"omitempty"`
	Notes          *string  `json:"notes" validate:"omitempty"`
	ContractRef    *string  `json:"contract_reference" validate:"omitempty"`
}

// NotesOnly сообщает, затрагивает ли запрос только поле заметок.
// Отменённая подписка заморожена во всём, кроме свободного текста заметок.
func (r DummySubscriptionUpdate) NotesOnly() bool {
	return r.Plan == nil && r.MonthlyPrice == nil && r.Currency == nil &&
		r.BillingCycle == nil && r.EndDate == nil && r.TrialEndDate == nil &&
		r.PaymentMethod == nil && r.UserLimit == nil && r.StorageLimitGB == nil &&
		r.Features == nil && r.CustomDomain == nil && r.ContractRef == nil
}

// DummyPayment — данные запроса на регистрацию платежа по подписке.
type DummyPayment struct {
	Amount        string `json:"amount" validate:"required"`
	Currency      string `json:"currency" validate:"omitempty,len=3"`
	PaymentDate   string `json:"payment_date" validate:"required,datetime=2006-01-02"`
	Method        string `json:"payment_method" validate:"omitempty"`
	TransactionID string `json:"transaction_id" validate:"omitempty"`
	InvoiceNumber string `json:"invoice_number" validate:"omitempty"`
	ReceiptURL    string `json:"receipt_url" validate:"omitempty,url"`
	PeriodStart   string `json:"billing_period_start" validate:"omitempty,datetime=2006-01-02"`
	PeriodEnd     string `json:"billing_period_end" validate:"omitempty,datetime=2006-01-02"`
	Notes         string `json:"notes" validate:"omitempty"`
}

// DummyCancel — данные запроса на отмену подписки.
type DummyCancel struct {
	Reason string `json:"reason" validate:"omitempty"`
}

// DummyPlanChange — данные запроса на смену тарифа.
type DummyPlanChange struct {
	Plan         string `json:"subscription_plan" validate:"required"`
	MonthlyPrice string `json:"monthly_price" validate:"required"`
}
