package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core/payment"
	"github.com/trezcool/elimu/tests"
)

func TestPaymentQuotes(t *testing.T) {
	fx := setUp(t)
	ctx := context.Background()

	_, _, err := fx.deps.VoucherSvc.Save(ctx, payment.VoucherForm{Code: "SAVE20", DiscountPercent: 20, IsActive: true})
	require.NoError(t, err)
	_, _, err = fx.deps.VoucherSvc.Save(ctx, payment.VoucherForm{Code: "OFF", DiscountPercent: 50})
	require.NoError(t, err)

	tests := []httpTest{
		{
			name:     "plans",
			path:     "/v1/payments/plans",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, payment.Plans(fx.conf.Plans)),
		},
		{
			name:     "full price",
			path:     "/v1/payments/quote?plan=monthly",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, payment.Quote{Plan: "monthly", Price: 999, Amount: 999, Currency: "USD"}),
		},
		{
			name:     "with voucher",
			path:     "/v1/payments/quote?plan=Monthly&voucher_code=save20",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, payment.Quote{Plan: "monthly", Price: 999, Discount: 199, Amount: 800, Currency: "USD", VoucherCode: "SAVE20"}),
		},
		{
			name:     "inactive voucher",
			path:     "/v1/payments/quote?plan=yearly&voucher_code=OFF",
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"voucher_code": "this voucher is invalid or has expired"}`),
		},
		{
			name:     "unknown voucher",
			path:     "/v1/payments/quote?plan=yearly&voucher_code=NOPE",
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"voucher_code": "this voucher is invalid or has expired"}`),
		},
		{
			name:     "unknown plan",
			path:     "/v1/payments/quote?plan=weekly",
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := fx.do(newRequest(http.MethodGet, tt.path))
			if tt.wantData == nil {
				checkCode(t, tt, rec)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestCheckout(t *testing.T) {
	fx := setUp(t)
	ctx := context.Background()
	usr := testutil.CreateMember(t, fx.users, "john")
	token := fx.token(t, usr)
	adminToken := fx.token(t, testutil.CreateAdmin(t, fx.users, "admin"))

	_, _, err := fx.deps.VoucherSvc.Save(ctx, payment.VoucherForm{Code: "SAVE20", DiscountPercent: 20, MaxUses: 1, IsActive: true})
	require.NoError(t, err)

	rec := fx.do(newRequest(http.MethodPost, "/v1/payments/checkout", []byte(`{"plan": "yearly"}`)))
	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)

	rec = fx.do(newAuthRequest(http.MethodPost, "/v1/payments/checkout", token, []byte(`{"plan": "daily"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = fx.do(newAuthRequest(http.MethodPost, "/v1/payments/checkout", token, []byte(`{"plan": "yearly", "voucher_code": "save20", "provider": "Stripe"}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var pmt payment.Payment
	unmarshal(t, rec, &pmt)
	assert.Equal(t, usr.ID, pmt.UserID)
	assert.Equal(t, payment.StatusPending, pmt.Status)
	assert.Equal(t, int64(8000), pmt.Amount)
	assert.Equal(t, "SAVE20", pmt.VoucherCode)
	assert.Equal(t, "stripe", pmt.Provider)

	rec = fx.do(newAuthRequest(http.MethodGet, "/v1/payments", token))
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, pmt)}, rec)

	// no access until the payment succeeds
	rec = fx.do(newAuthRequest(http.MethodGet, "/v1/subscriptions", token))
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`[]`)}, rec)

	rec = fx.do(newAuthRequest(http.MethodPut, "/v1/admin/payments/"+pmt.ID, adminToken, []byte(`{
		"user_id": "`+usr.ID+`",
		"plan": "yearly",
		"amount": 8000,
		"currency": "USD",
		"status": "succeeded",
		"provider": "stripe",
		"provider_ref": "ch_123",
		"voucher_code": "SAVE20"
	}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = fx.do(newAuthRequest(http.MethodGet, "/v1/subscriptions", token))
	require.Equal(t, http.StatusOK, rec.Code)
	var subs []payment.Subscription
	unmarshal(t, rec, &subs)
	require.Len(t, subs, 1)
	assert.Equal(t, payment.PlanYearly, subs[0].Plan)
	assert.True(t, subs[0].EndsAt.After(subs[0].StartsAt.AddDate(0, 11, 0)))

	// the voucher was used up
	rec = fx.do(newAuthRequest(http.MethodGet, "/v1/payments/quote?plan=yearly&voucher_code=SAVE20", token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// a succeeded payment cannot go back to pending
	rec = fx.do(newAuthRequest(http.MethodPut, "/v1/admin/payments/"+pmt.ID, adminToken, []byte(`{
		"user_id": "`+usr.ID+`",
		"plan": "yearly",
		"currency": "USD",
		"status": "pending"
	}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
