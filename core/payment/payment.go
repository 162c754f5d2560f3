package payment

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
)

// Plans
const (
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"
)

// Payment statuses
const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusRefunded  = "refunded"
)

// Subscription statuses
const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

type Plan struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"` // cents
	Currency string `json:"currency"`
	Months   int    `json:"months"`
}

// Extend returns the end of a period of the plan starting at t.
func (p Plan) Extend(t time.Time) time.Time {
	return t.AddDate(0, p.Months, 0)
}

// Plans returns the available plans priced from conf.
func Plans(conf core.PlansConfig) []Plan {
	return []Plan{
		{Name: PlanMonthly, Price: conf.MonthlyPrice, Currency: conf.Currency, Months: 1},
		{Name: PlanYearly, Price: conf.YearlyPrice, Currency: conf.Currency, Months: 12},
	}
}

type Voucher struct {
	core.Model
	Code            string    `db:"code" json:"code"`
	DiscountPercent int       `db:"discount_percent" json:"discount_percent"`
	MaxUses         int       `db:"max_uses" json:"max_uses"` // 0: unlimited
	UsedCount       int       `db:"used_count" json:"used_count"`
	ExpiresAt       null.Time `db:"expires_at" json:"expires_at"`
	IsActive        bool      `db:"is_active" json:"is_active"`
}

// IsRedeemable reports whether the voucher may be applied at t.
func (v Voucher) IsRedeemable(t time.Time) bool {
	if !v.IsActive {
		return false
	}
	if v.ExpiresAt.Valid && !t.Before(v.ExpiresAt.Time) {
		return false
	}
	return v.MaxUses == 0 || v.UsedCount < v.MaxUses
}

// Discount returns the discount on price, rounded down to the cent.
func (v Voucher) Discount(price int64) int64 {
	return price * int64(v.DiscountPercent) / 100
}

type VoucherForm struct {
	core.FormID
	Code            string    `json:"code" validate:"required,min=3,max=32,alphanum_"`
	DiscountPercent int       `json:"discount_percent" validate:"required,gte=1,lte=100"`
	MaxUses         int       `json:"max_uses" validate:"gte=0"`
	ExpiresAt       null.Time `json:"expires_at"`
	IsActive        bool      `json:"is_active"`
}

func (f *VoucherForm) Validate(validate *validator.Validate) error {
	f.Code = normalizeCode(f.Code)
	return validate.Struct(f)
}

type VoucherFilter struct {
	Search   string `query:"search"` // code
	IsActive *bool  `query:"is_active"`
	Limit    int    `query:"limit"`
}

func (qf *VoucherFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

func (qf *VoucherFilter) QueryLimit() int {
	if qf == nil || qf.Limit < 0 {
		return 0
	}
	return qf.Limit
}

type Payment struct {
	core.Model
	UserID      string `db:"user_id" json:"user_id"`
	Plan        string `db:"plan" json:"plan"`
	Amount      int64  `db:"amount" json:"amount"` // cents
	Currency    string `db:"currency" json:"currency"`
	Status      string `db:"status" json:"status"`
	Provider    string `db:"provider" json:"provider"`
	ProviderRef string `db:"provider_ref" json:"provider_ref"`
	VoucherCode string `db:"voucher_code" json:"voucher_code"`
}

type PaymentForm struct {
	core.FormID
	UserID      string `json:"user_id" validate:"required,uuid"`
	Plan        string `json:"plan" validate:"required,oneof=monthly yearly"`
	Amount      int64  `json:"amount" validate:"gte=0"`
	Currency    string `json:"currency" validate:"required,len=3,alpha"`
	Status      string `json:"status" validate:"required,oneof=pending succeeded failed refunded"`
	Provider    string `json:"provider" validate:"max=32"`
	ProviderRef string `json:"provider_ref" validate:"max=200"`
	VoucherCode string `json:"voucher_code" validate:"max=32"`
}

func (f *PaymentForm) Validate(validate *validator.Validate) error {
	f.UserID = core.CleanString(f.UserID, true /* lower */)
	f.Plan = core.CleanString(f.Plan, true /* lower */)
	f.Currency = normalizeCode(f.Currency)
	f.Status = core.CleanString(f.Status, true /* lower */)
	f.Provider = core.CleanString(f.Provider, true /* lower */)
	f.ProviderRef = core.CleanString(f.ProviderRef)
	f.VoucherCode = normalizeCode(f.VoucherCode)
	return validate.Struct(f)
}

type PaymentFilter struct {
	UserID string `query:"user_id"`
	Plan   string `query:"plan"`
	Status string `query:"status"`
	Limit  int    `query:"limit"`
}

func (qf *PaymentFilter) Clean() {
	qf.UserID = core.CleanString(qf.UserID, true /* lower */)
	qf.Plan = core.CleanString(qf.Plan, true /* lower */)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

func (qf *PaymentFilter) QueryLimit() int {
	if qf == nil || qf.Limit < 0 {
		return 0
	}
	return qf.Limit
}

// CheckoutForm is sent by members to start paying for a plan.
type CheckoutForm struct {
	Plan        string `json:"plan" validate:"required,oneof=monthly yearly"`
	VoucherCode string `json:"voucher_code" validate:"max=32"`
	Provider    string `json:"provider" validate:"max=32"`
}

func (f *CheckoutForm) Validate(validate *validator.Validate) error {
	f.Plan = core.CleanString(f.Plan, true /* lower */)
	f.VoucherCode = normalizeCode(f.VoucherCode)
	f.Provider = core.CleanString(f.Provider, true /* lower */)
	return validate.Struct(f)
}

type Subscription struct {
	core.Model
	UserID   string    `db:"user_id" json:"user_id"`
	Plan     string    `db:"plan" json:"plan"`
	Status   string    `db:"status" json:"status"`
	StartsAt time.Time `db:"starts_at" json:"starts_at"`
	EndsAt   time.Time `db:"ends_at" json:"ends_at"`
}

// IsCurrent reports whether the subscription grants access at t.
func (s Subscription) IsCurrent(t time.Time) bool {
	return s.Status == SubscriptionActive && !t.Before(s.StartsAt) && t.Before(s.EndsAt)
}

type SubscriptionForm struct {
	core.FormID
	UserID   string    `json:"user_id" validate:"required,uuid"`
	Plan     string    `json:"plan" validate:"required,oneof=monthly yearly"`
	Status   string    `json:"status" validate:"required,oneof=active cancelled expired"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
}

func (f *SubscriptionForm) Validate(validate *validator.Validate) error {
	f.UserID = core.CleanString(f.UserID, true /* lower */)
	f.Plan = core.CleanString(f.Plan, true /* lower */)
	f.Status = core.CleanString(f.Status, true /* lower */)
	return validate.Struct(f)
}

type SubscriptionFilter struct {
	UserID string `query:"user_id"`
	Plan   string `query:"plan"`
	Status string `query:"status"`
	Limit  int    `query:"limit"`
}

func (qf *SubscriptionFilter) Clean() {
	qf.UserID = core.CleanString(qf.UserID, true /* lower */)
	qf.Plan = core.CleanString(qf.Plan, true /* lower */)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

func (qf *SubscriptionFilter) QueryLimit() int {
	if qf == nil || qf.Limit < 0 {
		return 0
	}
	return qf.Limit
}

func normalizeCode(code string) string {
	return strings.ToUpper(core.CleanString(code))
}
