package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/M0R1S0N/steampay/internal/steampay/providers/wallet"
)

type AdminResult struct {
	OrderID string
	OK      bool
	Paid    bool
}

// ProcessAdminTopup creates and settles a wallet order on behalf of an
// operator. No pricing applies: the amount is sent as-is, and the external id
// is freshly generated, so the idempotency gate is the caller's uniqueness.
func (s *Settlement) ProcessAdminTopup(ctx context.Context, login string, amount decimal.Decimal) (AdminResult, error) {
	ctx = context.WithoutCancel(ctx)

	externalID := fmt.Sprintf("manual_admin_%s", uuid.NewString())
	result, err := s.fulfill(ctx, externalID, login, amount)
	if err != nil {
		if errors.Is(err, wallet.ErrOrderRejected) {
			return AdminResult{OK: false}, nil
		}
		return AdminResult{}, err
	}
	if result.Paid {
		s.notifier.Notify(ctx, fmt.Sprintf(
			"🛠 Admin topup\n👤 %s\n💵 %s USD (no commission)",
			login, amount.StringFixed(2),
		))
	}
	return AdminResult{OK: true, OrderID: result.OrderID, Paid: result.Paid}, nil
}
