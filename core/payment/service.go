package payment

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

var (
	ErrNotFound             = core.NewNotFoundError("payment")
	ErrVoucherNotFound      = core.NewNotFoundError("voucher")
	ErrSubscriptionNotFound = core.NewNotFoundError("subscription")

	errUnknownPlan     = errors.New("unknown plan")
	errInvalidVoucher  = errors.New("this voucher is invalid or has expired")
	errVoucherExists   = errors.New("a voucher with this code already exists")
	errPaymentFinished = errors.New("a succeeded payment cannot go back to pending or failed")
	errPaymentRefunded = errors.New("a refunded payment cannot change status")
)

type (
	VoucherRepository interface {
		core.Repository[Voucher, *VoucherFilter]
		// GetByCode returns ErrVoucherNotFound when no voucher has the (upper case) code.
		GetByCode(ctx context.Context, code string) (Voucher, error)
		// IncrementUses atomically increments Voucher.UsedCount.
		IncrementUses(ctx context.Context, id string) (Voucher, error)
	}

	Repository interface {
		core.Repository[Payment, *PaymentFilter]
	}

	SubscriptionRepository interface {
		core.Repository[Subscription, *SubscriptionFilter]
	}

	UserGetter interface {
		Get(ctx context.Context, id string) (user.User, error)
	}

	// Quote is the price of a plan once a voucher is applied.
	Quote struct {
		Plan        string `json:"plan"`
		Price       int64  `json:"price"`
		Discount    int64  `json:"discount"`
		Amount      int64  `json:"amount"`
		Currency    string `json:"currency"`
		VoucherCode string `json:"voucher_code,omitempty"`
	}

	receiptData struct {
		Name      string
		Amount    string
		Currency  string
		Plan      string
		EndsAt    string
		Reference string
	}
)

// VoucherService manages discount vouchers.
type VoucherService struct {
	repo VoucherRepository
}

func NewVoucherService(repo VoucherRepository) *VoucherService {
	return &VoucherService{repo: repo}
}

func (svc *VoucherService) Query(ctx context.Context, filter *VoucherFilter, ordering []core.DBOrdering) ([]Voucher, error) {
	return svc.repo.Query(ctx, filter, ordering)
}

func (svc *VoucherService) Get(ctx context.Context, id string) (Voucher, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *VoucherService) Save(ctx context.Context, f VoucherForm) (Voucher, bool, error) {
	return core.Save[Voucher, *Voucher, *VoucherFilter](ctx, svc.repo, f.ID, func(v *Voucher) error {
		other, err := svc.repo.GetByCode(ctx, f.Code)
		switch {
		case err == nil && other.ID != v.ID:
			return core.NewValidationError(errVoucherExists, core.FieldError{Field: "code", Error: errVoucherExists.Error()})
		case err != nil && !core.IsNotFound(err):
			return errors.Wrap(err, "finding voucher by code")
		}
		v.Code = f.Code
		v.DiscountPercent = f.DiscountPercent
		v.MaxUses = f.MaxUses
		v.ExpiresAt = f.ExpiresAt
		v.IsActive = f.IsActive
		return nil
	})
}

func (svc *VoucherService) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.Delete(ctx, ids...)
}

// SubscriptionService manages subscriptions; they are mostly created by successful payments.
type SubscriptionService struct {
	repo SubscriptionRepository
}

func NewSubscriptionService(repo SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{repo: repo}
}

func (svc *SubscriptionService) Query(ctx context.Context, filter *SubscriptionFilter, ordering []core.DBOrdering) ([]Subscription, error) {
	return svc.repo.Query(ctx, filter, ordering)
}

func (svc *SubscriptionService) Get(ctx context.Context, id string) (Subscription, error) {
	return svc.repo.Get(ctx, id)
}

// Current returns the user's subscriptions granting access now, latest ending first.
func (svc *SubscriptionService) Current(ctx context.Context, userID string) ([]Subscription, error) {
	subs, err := svc.repo.Query(
		ctx,
		&SubscriptionFilter{UserID: userID, Status: SubscriptionActive},
		[]core.DBOrdering{{Field: "ends_at"}},
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying subscriptions")
	}
	now := core.NowFunc()
	current := make([]Subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.IsCurrent(now) {
			current = append(current, sub)
		}
	}
	return current, nil
}

func (svc *SubscriptionService) Save(ctx context.Context, f SubscriptionForm) (Subscription, bool, error) {
	return core.Save[Subscription, *Subscription, *SubscriptionFilter](ctx, svc.repo, f.ID, func(sub *Subscription) error {
		sub.UserID = f.UserID
		sub.Plan = f.Plan
		sub.Status = f.Status
		sub.StartsAt = f.StartsAt.UTC()
		sub.EndsAt = f.EndsAt.UTC()
		return nil
	})
}

func (svc *SubscriptionService) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.Delete(ctx, ids...)
}

// Service records payments and fulfils them.
type Service struct {
	repo     Repository
	subs     SubscriptionRepository
	vouchers VoucherRepository
	users    UserGetter
	mailSvc  core.EmailService
	logger   core.Logger
	plans    map[string]Plan
}

func NewService(
	repo Repository,
	subs SubscriptionRepository,
	vouchers VoucherRepository,
	users UserGetter,
	mailSvc core.EmailService,
	conf *core.Config,
	logger core.Logger,
) *Service {
	plans := make(map[string]Plan)
	for _, p := range Plans(conf.Plans) {
		plans[p.Name] = p
	}
	return &Service{repo: repo, subs: subs, vouchers: vouchers, users: users, mailSvc: mailSvc, logger: logger, plans: plans}
}

func (svc *Service) Plans() []Plan {
	return []Plan{svc.plans[PlanMonthly], svc.plans[PlanYearly]}
}

func (svc *Service) plan(name string) (Plan, error) {
	p, ok := svc.plans[name]
	if !ok {
		return Plan{}, core.NewValidationError(errUnknownPlan, core.FieldError{Field: "plan", Error: errUnknownPlan.Error()})
	}
	return p, nil
}

// Quote prices plan, applying the voucher with code when given.
func (svc *Service) Quote(ctx context.Context, plan, code string) (Quote, error) {
	p, err := svc.plan(core.CleanString(plan, true /* lower */))
	if err != nil {
		return Quote{}, err
	}
	q := Quote{Plan: p.Name, Price: p.Price, Amount: p.Price, Currency: p.Currency}

	code = normalizeCode(code)
	if code == "" {
		return q, nil
	}
	v, err := svc.vouchers.GetByCode(ctx, code)
	if err != nil {
		if core.IsNotFound(err) {
			return Quote{}, core.NewValidationError(errInvalidVoucher, core.FieldError{Field: "voucher_code", Error: errInvalidVoucher.Error()})
		}
		return Quote{}, errors.Wrap(err, "finding voucher by code")
	}
	if !v.IsRedeemable(core.NowFunc()) {
		return Quote{}, core.NewValidationError(errInvalidVoucher, core.FieldError{Field: "voucher_code", Error: errInvalidVoucher.Error()})
	}
	q.VoucherCode = v.Code
	q.Discount = v.Discount(p.Price)
	q.Amount = p.Price - q.Discount
	return q, nil
}

// Checkout creates a pending payment for the quoted plan.
func (svc *Service) Checkout(ctx context.Context, usr user.User, f CheckoutForm) (Payment, error) {
	q, err := svc.Quote(ctx, f.Plan, f.VoucherCode)
	if err != nil {
		return Payment{}, err
	}
	pmt := Payment{
		UserID:      usr.ID,
		Plan:        q.Plan,
		Amount:      q.Amount,
		Currency:    q.Currency,
		Status:      StatusPending,
		Provider:    f.Provider,
		VoucherCode: q.VoucherCode,
	}
	pmt.Touch(core.NowFunc().UTC())
	pmt, err = svc.repo.Create(ctx, pmt)
	return pmt, errors.Wrap(err, "creating payment")
}

func (svc *Service) Query(ctx context.Context, filter *PaymentFilter, ordering []core.DBOrdering) ([]Payment, error) {
	return svc.repo.Query(ctx, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, id string) (Payment, error) {
	return svc.repo.Get(ctx, id)
}

// Save records a payment. When it transitions to succeeded the subscription is created or extended
// and the voucher use is counted before the status is stored, then a receipt is emailed.
func (svc *Service) Save(ctx context.Context, f PaymentForm) (Payment, bool, error) {
	var sub *Subscription
	pmt, created, err := core.Save[Payment, *Payment, *PaymentFilter](ctx, svc.repo, f.ID, func(pmt *Payment) error {
		if err := checkTransition(pmt.Status, f.Status); err != nil {
			return err
		}
		prevStatus := pmt.Status
		pmt.UserID = f.UserID
		pmt.Plan = f.Plan
		pmt.Amount = f.Amount
		pmt.Currency = f.Currency
		pmt.Status = f.Status
		pmt.Provider = f.Provider
		pmt.ProviderRef = f.ProviderRef
		pmt.VoucherCode = f.VoucherCode

		if pmt.Status == StatusSucceeded && prevStatus != StatusSucceeded {
			granted, err := svc.fulfil(ctx, *pmt)
			if err != nil {
				return err
			}
			sub = &granted
		}
		return nil
	})
	if err != nil {
		return pmt, created, err
	}

	if sub != nil {
		svc.sendReceipt(ctx, pmt, *sub)
	}
	return pmt, created, nil
}

// checkTransition rejects status changes out of the final states.
func checkTransition(from, to string) error {
	switch {
	case from == StatusSucceeded && (to == StatusPending || to == StatusFailed):
		return core.NewValidationError(errPaymentFinished, core.FieldError{Field: "status", Error: errPaymentFinished.Error()})
	case from == StatusRefunded && to != StatusRefunded:
		return core.NewValidationError(errPaymentRefunded, core.FieldError{Field: "status", Error: errPaymentRefunded.Error()})
	}
	return nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.Delete(ctx, ids...)
}

// fulfil grants the plan paid by pmt and counts its voucher use.
func (svc *Service) fulfil(ctx context.Context, pmt Payment) (Subscription, error) {
	p, err := svc.plan(pmt.Plan)
	if err != nil {
		return Subscription{}, err
	}
	sub, err := svc.extendSubscription(ctx, pmt.UserID, p)
	if err != nil {
		return Subscription{}, err
	}

	if pmt.VoucherCode != "" {
		v, err := svc.vouchers.GetByCode(ctx, pmt.VoucherCode)
		switch {
		case err == nil:
			if _, err = svc.vouchers.IncrementUses(ctx, v.ID); err != nil {
				return Subscription{}, errors.Wrap(err, "incrementing voucher uses")
			}
		case !core.IsNotFound(err):
			return Subscription{}, errors.Wrap(err, "finding voucher by code")
		}
	}
	return sub, nil
}

// sendReceipt is best effort: a failure is logged, never returned.
func (svc *Service) sendReceipt(ctx context.Context, pmt Payment, sub Subscription) {
	usr, err := svc.users.Get(ctx, pmt.UserID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("payment %s: no receipt sent, user %s lookup failed", pmt.ID, pmt.UserID), err)
		return
	}
	if usr.Email == "" {
		return
	}
	ref := pmt.ProviderRef
	if ref == "" {
		ref = pmt.ID
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Payment receipt",
		TemplateName: "payment_receipt",
		TemplateData: receiptData{
			Name:      usr.Name,
			Amount:    FormatAmount(pmt.Amount),
			Currency:  pmt.Currency,
			Plan:      pmt.Plan,
			EndsAt:    sub.EndsAt.Format("02 Jan 2006"),
			Reference: ref,
		},
	})
}

// extendSubscription adds a period of p to the user's active subscription of that plan,
// or starts a new one.
func (svc *Service) extendSubscription(ctx context.Context, userID string, p Plan) (Subscription, error) {
	now := core.NowFunc().UTC()
	subs, err := svc.subs.Query(
		ctx,
		&SubscriptionFilter{UserID: userID, Plan: p.Name, Status: SubscriptionActive, Limit: 1},
		[]core.DBOrdering{{Field: "ends_at"}},
	)
	if err != nil {
		return Subscription{}, errors.Wrap(err, "querying subscriptions")
	}

	if len(subs) == 0 {
		sub := Subscription{UserID: userID, Plan: p.Name, Status: SubscriptionActive, StartsAt: now, EndsAt: p.Extend(now)}
		sub.Touch(now)
		sub, err = svc.subs.Create(ctx, sub)
		return sub, errors.Wrap(err, "creating subscription")
	}

	sub := subs[0]
	from := sub.EndsAt
	if from.Before(now) {
		from = now
	}
	sub.EndsAt = p.Extend(from)
	sub.Touch(now)
	sub, err = svc.subs.Update(ctx, sub)
	return sub, errors.Wrap(err, "updating subscription")
}

// FormatAmount formats cents as a decimal amount.
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
