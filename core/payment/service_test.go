package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/payment"
	"github.com/trezcool/elimu/core/user"
	"github.com/trezcool/elimu/services/email"
	"github.com/trezcool/elimu/storage/database/dummy"
	"github.com/trezcool/elimu/tests"
)

type fixture struct {
	users    user.Repository
	vouchers *payment.VoucherService
	subs     *payment.SubscriptionService
	subRepo  *flakySubscriptions
	payments *payment.Service
	logger   *testutil.RecordingLogger
}

// flakySubscriptions fails the next failCreates subscription inserts.
type flakySubscriptions struct {
	payment.SubscriptionRepository
	failCreates int
}

func (r *flakySubscriptions) Create(ctx context.Context, sub payment.Subscription) (payment.Subscription, error) {
	if r.failCreates > 0 {
		r.failCreates--
		return payment.Subscription{}, errors.New("connection reset")
	}
	return r.SubscriptionRepository.Create(ctx, sub)
}

func setUp(t *testing.T) fixture {
	conf := testutil.NewConfig()
	db := dummydb.Open()
	usrRepo := dummydb.NewUserRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	subRepo := &flakySubscriptions{SubscriptionRepository: dummydb.NewSubscriptionRepository(db)}
	voucherRepo := dummydb.NewVoucherRepository(db)
	logger := new(testutil.RecordingLogger)

	emailsvc.ResetSentMessages()
	return fixture{
		users:    usrRepo,
		vouchers: payment.NewVoucherService(voucherRepo),
		subs:     payment.NewSubscriptionService(subRepo),
		subRepo:  subRepo,
		payments: payment.NewService(
			dummydb.NewPaymentRepository(db),
			subRepo,
			voucherRepo,
			user.NewService(usrRepo, mailSvc, conf),
			mailSvc,
			conf,
			logger,
		),
		logger: logger,
	}
}

func createVoucher(t *testing.T, svc *payment.VoucherService, f payment.VoucherForm) payment.Voucher {
	v, created, err := svc.Save(context.Background(), f)
	require.NoError(t, err)
	require.True(t, created)
	return v
}

func TestQuote(t *testing.T) {
	fx := setUp(t)
	ctx := context.Background()

	createVoucher(t, fx.vouchers, payment.VoucherForm{Code: "HALF", DiscountPercent: 50, IsActive: true})
	createVoucher(t, fx.vouchers, payment.VoucherForm{Code: "THIRD", DiscountPercent: 33, IsActive: true})
	createVoucher(t, fx.vouchers, payment.VoucherForm{Code: "OFF", DiscountPercent: 10})
	createVoucher(t, fx.vouchers, payment.VoucherForm{
		Code:            "OLD",
		DiscountPercent: 10,
		IsActive:        true,
		ExpiresAt:       null.TimeFrom(time.Now().Add(-time.Hour)),
	})

	tests := []struct {
		name    string
		plan    string
		code    string
		want    payment.Quote
		wantErr bool
	}{
		{"monthly", "monthly", "", payment.Quote{Plan: "monthly", Price: 999, Amount: 999, Currency: "USD"}, false},
		{"yearly", "Yearly ", "", payment.Quote{Plan: "yearly", Price: 9999, Amount: 9999, Currency: "USD"}, false},
		{
			"voucher",
			"monthly",
			" half",
			payment.Quote{Plan: "monthly", Price: 999, Discount: 499, Amount: 500, Currency: "USD", VoucherCode: "HALF"},
			false,
		},
		{
			"discount rounded down",
			"yearly",
			"THIRD",
			payment.Quote{Plan: "yearly", Price: 9999, Discount: 3299, Amount: 6700, Currency: "USD", VoucherCode: "THIRD"},
			false,
		},
		{"unknown plan", "weekly", "", payment.Quote{}, true},
		{"unknown voucher", "monthly", "NOPE", payment.Quote{}, true},
		{"inactive voucher", "monthly", "OFF", payment.Quote{}, true},
		{"expired voucher", "monthly", "OLD", payment.Quote{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := fx.payments.Quote(ctx, tc.plan, tc.code)
			if tc.wantErr {
				_, ok := err.(*core.ValidationError)
				assert.True(t, ok, "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, q)
		})
	}
}

func TestVoucherCodeIsUnique(t *testing.T) {
	fx := setUp(t)
	v := createVoucher(t, fx.vouchers, payment.VoucherForm{Code: "WELCOME", DiscountPercent: 20, IsActive: true})

	_, _, err := fx.vouchers.Save(context.Background(), payment.VoucherForm{Code: "WELCOME", DiscountPercent: 5})
	_, ok := err.(*core.ValidationError)
	assert.True(t, ok, "got %v", err)

	// updating the owner keeps its code
	v2, created, err := fx.vouchers.Save(context.Background(), payment.VoucherForm{
		FormID:          core.FormID{ID: v.ID},
		Code:            "WELCOME",
		DiscountPercent: 25,
		IsActive:        true,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 25, v2.DiscountPercent)
}

func TestCheckoutAndFulfil(t *testing.T) {
	fx := setUp(t)
	ctx := context.Background()
	member := testutil.CreateMember(t, fx.users, "jane")
	v := createVoucher(t, fx.vouchers, payment.VoucherForm{Code: "ONCE", DiscountPercent: 10, MaxUses: 1, IsActive: true})

	pmt, err := fx.payments.Checkout(ctx, member, payment.CheckoutForm{Plan: "monthly", VoucherCode: "ONCE", Provider: "stripe"})
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, pmt.Status)
	assert.Equal(t, int64(900), pmt.Amount)
	assert.Equal(t, "ONCE", pmt.VoucherCode)

	subs, err := fx.subs.Current(ctx, member.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)

	form := payment.PaymentForm{
		FormID:      core.FormID{ID: pmt.ID},
		UserID:      member.ID,
		Plan:        pmt.Plan,
		Amount:      pmt.Amount,
		Currency:    pmt.Currency,
		Status:      payment.StatusSucceeded,
		Provider:    pmt.Provider,
		ProviderRef: "ch_123",
		VoucherCode: pmt.VoucherCode,
	}
	before := time.Now().UTC()
	pmt, created, err := fx.payments.Save(ctx, form)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, payment.StatusSucceeded, pmt.Status)

	subs, err = fx.subs.Current(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	first := subs[0]
	assert.Equal(t, payment.PlanMonthly, first.Plan)
	assert.WithinDuration(t, before.AddDate(0, 1, 0), first.EndsAt, time.Minute)

	v, err = fx.vouchers.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, v.UsedCount)

	msgs := emailsvc.GetSentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "payment_receipt", msgs[0].TemplateName)
	assert.Contains(t, msgs[0].TextContent, "9.00 USD")
	assert.Contains(t, msgs[0].TextContent, "ch_123")

	t.Run("voucher used up", func(t *testing.T) {
		_, err := fx.payments.Checkout(ctx, member, payment.CheckoutForm{Plan: "monthly", VoucherCode: "ONCE"})
		assert.Error(t, err)
	})

	t.Run("saving again does not fulfil twice", func(t *testing.T) {
		emailsvc.ResetSentMessages()
		_, _, err := fx.payments.Save(ctx, form)
		require.NoError(t, err)
		assert.Empty(t, emailsvc.GetSentMessages())
		subs, err := fx.subs.Current(ctx, member.ID)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, first.EndsAt, subs[0].EndsAt)
	})

	t.Run("succeeded payment cannot go back", func(t *testing.T) {
		f := form
		f.Status = payment.StatusFailed
		_, _, err := fx.payments.Save(ctx, f)
		_, ok := err.(*core.ValidationError)
		assert.True(t, ok, "got %v", err)
	})

	t.Run("second payment extends the subscription", func(t *testing.T) {
		f := form
		f.ID = ""
		f.VoucherCode = ""
		f.ProviderRef = "ch_456"
		_, created, err := fx.payments.Save(ctx, f)
		require.NoError(t, err)
		assert.True(t, created)

		subs, err := fx.subs.Current(ctx, member.ID)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, first.ID, subs[0].ID)
		assert.Equal(t, first.EndsAt.AddDate(0, 1, 0), subs[0].EndsAt)
	})
}

func TestExpiredSubscriptionRestartsFromNow(t *testing.T) {
	fx := setUp(t)
	ctx := context.Background()
	member := testutil.CreateMember(t, fx.users, "jane")

	past := time.Now().UTC().AddDate(0, -2, 0)
	sub, _, err := fx.subs.Save(ctx, payment.SubscriptionForm{
		UserID:   member.ID,
		Plan:     payment.PlanYearly,
		Status:   payment.SubscriptionActive,
		StartsAt: past,
		EndsAt:   past.AddDate(0, 1, 0),
	})
	require.NoError(t, err)

	before := time.Now().UTC()
	_, _, err = fx.payments.Save(ctx, payment.PaymentForm{
		UserID:   member.ID,
		Plan:     payment.PlanYearly,
		Amount:   9999,
		Currency: "USD",
		Status:   payment.StatusSucceeded,
	})
	require.NoError(t, err)

	sub, err = fx.subs.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, before.AddDate(1, 0, 0), sub.EndsAt, time.Minute)
}

func TestFulfilFailureKeepsPaymentPending(t *testing.T) {
	fx := setUp(t)
	ctx := context.Background()
	member := testutil.CreateMember(t, fx.users, "jane")

	pmt, err := fx.payments.Checkout(ctx, member, payment.CheckoutForm{Plan: "monthly", Provider: "stripe"})
	require.NoError(t, err)
	form := payment.PaymentForm{
		FormID:   core.FormID{ID: pmt.ID},
		UserID:   member.ID,
		Plan:     pmt.Plan,
		Amount:   pmt.Amount,
		Currency: pmt.Currency,
		Status:   payment.StatusSucceeded,
		Provider: pmt.Provider,
	}

	fx.subRepo.failCreates = 1
	_, _, err = fx.payments.Save(ctx, form)
	require.Error(t, err)

	stored, err := fx.payments.Get(ctx, pmt.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, stored.Status)
	assert.Empty(t, emailsvc.GetSentMessages())

	// the retry fulfils exactly once
	stored, _, err = fx.payments.Save(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSucceeded, stored.Status)

	subs, err := fx.subs.Query(ctx, &payment.SubscriptionFilter{UserID: member.ID}, nil)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
	assert.Len(t, emailsvc.GetSentMessages(), 1)
}

func TestRefundedPaymentIsFinal(t *testing.T) {
	fx := setUp(t)
	ctx := context.Background()
	member := testutil.CreateMember(t, fx.users, "jane")

	form := payment.PaymentForm{
		UserID:   member.ID,
		Plan:     payment.PlanMonthly,
		Amount:   999,
		Currency: "USD",
		Status:   payment.StatusRefunded,
	}
	pmt, created, err := fx.payments.Save(ctx, form)
	require.NoError(t, err)
	assert.True(t, created)

	form.ID = pmt.ID
	for _, status := range []string{payment.StatusSucceeded, payment.StatusPending, payment.StatusFailed} {
		f := form
		f.Status = status
		_, _, err = fx.payments.Save(ctx, f)
		_, ok := err.(*core.ValidationError)
		assert.True(t, ok, "%s: got %v", status, err)
	}

	subs, err := fx.subs.Query(ctx, &payment.SubscriptionFilter{UserID: member.ID}, nil)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestReceiptLookupFailureIsLogged(t *testing.T) {
	fx := setUp(t)
	ctx := context.Background()
	userID := core.NewID()

	pmt, _, err := fx.payments.Save(ctx, payment.PaymentForm{
		UserID:   userID,
		Plan:     payment.PlanMonthly,
		Amount:   999,
		Currency: "USD",
		Status:   payment.StatusSucceeded,
	})
	require.NoError(t, err, "the receipt is best effort")
	assert.Equal(t, payment.StatusSucceeded, pmt.Status)
	assert.Empty(t, emailsvc.GetSentMessages())

	logged := fx.logger.Errors()
	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], "user "+userID+" lookup failed")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.00", payment.FormatAmount(0))
	assert.Equal(t, "9.99", payment.FormatAmount(999))
	assert.Equal(t, "100.05", payment.FormatAmount(10005))
	assert.Equal(t, "-1.50", payment.FormatAmount(-150))
}
