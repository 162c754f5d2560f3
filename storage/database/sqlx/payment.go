package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

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

func NewPaymentRepository(db *sqlx.DB) payment.Repository {
	return &paymentRepository{table: newTable[payment.Payment](db, "payments", payment.ErrNotFound, paymentWhere)}
}

func NewSubscriptionRepository(db *sqlx.DB) payment.SubscriptionRepository {
	return &subscriptionRepository{
		table: newTable[payment.Subscription](db, "subscriptions", payment.ErrSubscriptionNotFound, subscriptionWhere),
	}
}

func NewVoucherRepository(db *sqlx.DB) payment.VoucherRepository {
	return &voucherRepository{table: newTable[payment.Voucher](db, "vouchers", payment.ErrVoucherNotFound, voucherWhere)}
}

func paymentWhere(filter *payment.PaymentFilter) sq.And {
	if filter == nil {
		return nil
	}
	return and(eqID("user_id", filter.UserID), eq("plan", filter.Plan), eq("status", filter.Status))
}

func subscriptionWhere(filter *payment.SubscriptionFilter) sq.And {
	if filter == nil {
		return nil
	}
	return and(eqID("user_id", filter.UserID), eq("plan", filter.Plan), eq("status", filter.Status))
}

func voucherWhere(filter *payment.VoucherFilter) sq.And {
	if filter == nil {
		return nil
	}
	return and(search(filter.Search, "code"), isTrue("is_active", filter.IsActive))
}

func (repo *voucherRepository) GetByCode(ctx context.Context, code string) (payment.Voucher, error) {
	return repo.get(ctx, psql.Select("*").From(repo.name).Where(eq("code", code)), "getting voucher from")
}

func (repo *voucherRepository) IncrementUses(ctx context.Context, id string) (payment.Voucher, error) {
	if !isUUID(id) {
		return payment.Voucher{}, payment.ErrVoucherNotFound
	}
	query := psql.Update(repo.name).
		Set("used_count", sq.Expr("used_count + 1")).
		Set("updated_at", core.NowFunc().UTC()).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING *")
	return repo.get(ctx, query, "incrementing voucher uses in")
}
