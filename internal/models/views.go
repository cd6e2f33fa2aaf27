package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionView — представление подписки для внешнего API.
// Содержит все хранимые поля и производные предикаты;
// даты сериализуются как календарные даты ISO-8601.
type SubscriptionView struct {
	ID        int `json:"id"`
	ClientID  int `json:"client_id"`
	ProjectID int `json:"project_id"`

	Plan         string          `json:"subscription_plan"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
	Currency     string          `json:"currency"`
	BillingCycle string          `json:"billing_cycle"`

	StartDate       string  `json:"start_date"`
	EndDate         *string `json:"end_date"`
	TrialEndDate    *string `json:"trial_end_date"`
	NextBillingDate string  `json:"next_billing_date"`

	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method,omitempty"`

	UserLimit      *int     `json:"user_limit"`
	StorageLimitGB *int     `json:"storage_limit_gb"`
	Features       []string `json:"features_enabled"`
	CustomDomain   string   `json:"custom_domain,omitempty"`

	TotalPaid          decimal.Decimal `json:"total_paid"`
	LastPaymentDate    *string         `json:"last_payment_date"`
	LastPaymentAmount  decimal.Decimal `json:"last_payment_amount"`
	FailedPaymentCount int             `json:"failed_payment_count"`

	Notes       string `json:"notes,omitempty"`
	ContractRef string `json:"contract_reference,omitempty"`

	IsTrial          bool `json:"is_trial"`
	IsExpired        bool `json:"is_expired"`
	IsOverdue        bool `json:"is_overdue"`
	DaysUntilBilling int  `json:"days_until_billing"`
	DurationMonths   int  `json:"subscription_duration_months"`

	MonthlyRevenueProjection decimal.Decimal `json:"monthly_revenue_projection"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// NewSubscriptionView строит представление подписки на момент now.
func NewSubscriptionView(s *Subscription, now time.Time) SubscriptionView {
	features := make([]string, 0, len(s.Features))
	for _, f := range s.Features {
		features = append(features, string(f))
	}
	return SubscriptionView{
		ID:                       s.ID,
		ClientID:                 s.ClientID,
		ProjectID:                s.ProjectID,
		Plan:                     s.Plan,
		MonthlyPrice:             s.MonthlyPrice,
		Currency:                 s.Currency,
		BillingCycle:             string(s.BillingCycle),
		StartDate:                s.StartDate.Format(DateLayout),
		EndDate:                  formatDatePtr(s.EndDate),
		TrialEndDate:             formatDatePtr(s.TrialEndDate),
		NextBillingDate:          s.NextBillingDate.Format(DateLayout),
		Status:                   string(s.Status),
		PaymentMethod:            s.PaymentMethod,
		UserLimit:                s.UserLimit,
		StorageLimitGB:           s.StorageLimitGB,
		Features:                 features,
		CustomDomain:             s.CustomDomain,
		TotalPaid:                s.TotalPaid,
		LastPaymentDate:          formatDatePtr(s.LastPaymentDate),
		LastPaymentAmount:        s.LastPaymentAmount,
		FailedPaymentCount:       s.FailedPaymentCount,
		Notes:                    s.Notes,
		ContractRef:              s.ContractReference,
		IsTrial:                  s.IsTrial(now),
		IsExpired:                s.IsExpired(now),
		IsOverdue:                s.IsOverdue(now),
		DaysUntilBilling:         s.DaysUntilBilling(now),
		DurationMonths:           s.DurationMonths(now),
		MonthlyRevenueProjection: s.MonthlyRevenueProjection(),
		CreatedAt:                s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:                s.UpdatedAt.Format(time.RFC3339),
	}
}

// PaymentView — представление записи платёжного журнала для внешнего API.
type PaymentView struct {
	ID             int             `json:"id"`
	SubscriptionID int             `json:"subscription_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	PaymentDate    string          `json:"payment_date"`
	Method         string          `json:"payment_method,omitempty"`
	Status         string          `json:"status"`
	TransactionID  string          `json:"transaction_id,omitempty"`
	InvoiceNumber  string          `json:"invoice_number,omitempty"`
	ReceiptURL     string          `json:"receipt_url,omitempty"`
	PeriodStart    *string         `json:"billing_period_start"`
	PeriodEnd      *string         `json:"billing_period_end"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

// NewPaymentView строит представление платежа.
func NewPaymentView(p *Payment) PaymentView {
	return PaymentView{
		ID:             p.ID,
		SubscriptionID: p.SubscriptionID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		PaymentDate:    p.PaymentDate.Format(DateLayout),
		Method:         p.Method,
		Status:         string(p.Status),
		TransactionID:  p.TransactionID,
		InvoiceNumber:  p.InvoiceNumber,
		ReceiptURL:     p.ReceiptURL,
		PeriodStart:    formatDatePtr(p.PeriodStart),
		PeriodEnd:      formatDatePtr(p.PeriodEnd),
		Notes:          p.Notes,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
}

// Statistics — сводные показатели по подпискам на момент запроса.
type Statistics struct {
	Total          int             `json:"total_subscriptions"`
	Active         int             `json:"active_subscriptions"`
	Paused         int             `json:"paused_subscriptions"`
	Cancelled      int             `json:"cancelled_subscriptions"`
	Trial          int             `json:"trial_subscriptions"`
	Overdue        int             `json:"overdue_subscriptions"`
	MonthlyRevenue decimal.Decimal `json:"monthly_revenue"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}
