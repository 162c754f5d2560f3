package dummydb

import (
	"context"
	"strings"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/payment"
)

type (
	paymentRepository struct {
		*table[payment.Payment, *payment.PaymentFilter]
	}
	subscriptionRepository struct {
		*table[payment.Subscription, *payment.SubscriptionFilter]
	}
	voucherRepository struct {
		*table[payment.Voucher, *payment.VoucherFilter]
	}
)

// interface compliance checks
var (
	_ payment.Repository             = (*paymentRepository)(nil)
	_ payment.SubscriptionRepository = (*subscriptionRepository)(nil)
	_ payment.VoucherRepository      = (*voucherRepository)(nil)
)

func NewPaymentRepository(db *DB) payment.Repository {
	return &paymentRepository{table: db.payment}
}

func NewSubscriptionRepository(db *DB) payment.SubscriptionRepository {
	return &subscriptionRepository{table: db.subscription}
}

func NewVoucherRepository(db *DB) payment.VoucherRepository {
	return &voucherRepository{table: db.voucher}
}

func matchPayment(pmt payment.Payment, filter *payment.PaymentFilter) bool {
	if filter == nil {
		return true
	}
	return eqMatch(filter.UserID, pmt.UserID) &&
		eqMatch(filter.Plan, pmt.Plan) &&
		eqMatch(filter.Status, pmt.Status)
}

func matchSubscription(sub payment.Subscription, filter *payment.SubscriptionFilter) bool {
	if filter == nil {
		return true
	}
	return eqMatch(filter.UserID, sub.UserID) &&
		eqMatch(filter.Plan, sub.Plan) &&
		eqMatch(filter.Status, sub.Status)
}

func matchVoucher(v payment.Voucher, filter *payment.VoucherFilter) bool {
	if filter == nil {
		return true
	}
	return searchMatch(filter.Search, v.Code) && boolMatch(filter.IsActive, v.IsActive)
}

func (repo *voucherRepository) GetByCode(_ context.Context, code string) (payment.Voucher, error) {
	v, ok := repo.find(func(v payment.Voucher) bool { return strings.EqualFold(v.Code, code) })
	if !ok {
		return payment.Voucher{}, payment.ErrVoucherNotFound
	}
	return v, nil
}

func (repo *voucherRepository) IncrementUses(_ context.Context, id string) (payment.Voucher, error) {
	return repo.update(id, func(v *payment.Voucher) {
		v.UsedCount++
		v.UpdatedAt = core.NowFunc().UTC()
	})
}
