// Package shares runs the collateral share pool: purchases settle immediately, sales
// wait for an administrator.
package shares

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"loanledger/internal/config"
	"loanledger/internal/domain/apperr"
	"loanledger/internal/domain/share"
	"loanledger/internal/domain/uow"
	"loanledger/internal/domain/wallet"
	"loanledger/internal/infrastructure/logger"
	"loanledger/pkg/clock"
	"loanledger/pkg/money"
)

var (
	ErrSharesDisabled    = apperr.FeatureDisabled("share trading is currently disabled")
	ErrSoldOut           = apperr.Validation("quantity", "not enough shares available in the offering")
	ErrInsufficientShare = apperr.Validation("quantity", "insufficient shares to sell")
)

type Usecase struct {
	uow    uow.UnitOfWork
	policy config.Policy
	clock  clock.Clock
	log    *zap.Logger
}

func NewUsecase(tx uow.UnitOfWork, policy config.Policy, clk clock.Clock, log *zap.Logger) *Usecase {
	if clk == nil {
		clk = clock.System()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, policy: policy, clock: clk, log: log}
}

func checkQuantity(q int64) error {
	if q <= 0 {
		return apperr.Validation("quantity", "quantity must be greater than zero")
	}
	return nil
}

// Buy purchases shares from the current offering and pays for them from the wallet.
func (u *Usecase) Buy(ctx context.Context, in BuyInput) (*share.Transaction, error) {
	log := logger.For(ctx, u.log)
	if !u.policy.SharesEnabled {
		return nil, ErrSharesDisabled
	}
	if err := checkQuantity(in.Quantity); err != nil {
		return nil, err
	}

	var out *share.Transaction
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		s, err := r.Offerings.GetCurrentForUpdate(ctx)
		if err != nil {
			return apperr.Wrap(err, "lock share offering")
		}
		if err := s.CheckPurchaseBounds(in.Quantity); err != nil {
			return err
		}
		cost := s.Cost(in.Quantity)
		if err := u.checkAmount(cost); err != nil {
			return err
		}
		if s.AvailableShares < in.Quantity {
			return ErrSoldOut
		}

		txn := share.NewBuy(in.UserID, s, in.Quantity, u.clock.Now())
		memo := fmt.Sprintf("Purchase of %d %s shares", in.Quantity, s.Name)
		if _, err := wallet.NewLedger(r.Wallets).Debit(ctx, in.UserID, cost, memo, txn.TransactionID); err != nil {
			return apperr.Wrap(err, "debit wallet")
		}

		h, err := r.Holdings.GetForUpdate(ctx, in.UserID, s.ID)
		switch {
		case errors.Is(err, share.ErrHoldingNotFound):
			h = &share.Holding{UserID: in.UserID, ShareID: s.ID}
			h.Add(in.Quantity, cost)
			err = r.Holdings.Create(ctx, h)
		case err == nil:
			h.Add(in.Quantity, cost)
			err = r.Holdings.Save(ctx, h)
		}
		if err != nil {
			return apperr.Wrap(err, "update holding")
		}

		s.AvailableShares -= in.Quantity
		if err := r.Offerings.Save(ctx, s); err != nil {
			return apperr.Wrap(err, "update share offering")
		}
		if err := r.ShareTxns.Create(ctx, txn); err != nil {
			return apperr.Wrap(err, "record share purchase")
		}
		out = txn
		return nil
	})
	if err != nil {
		log.Debug("share purchase refused", zap.Int64("quantity", in.Quantity), zap.Error(err))
		return nil, err
	}
	log.Info("shares bought",
		zap.String("transaction_id", out.TransactionID),
		zap.Int64("quantity", out.Quantity),
		zap.String("total_amount", out.TotalAmount.String()),
	)
	return out, nil
}

// checkAmount enforces the policy bounds on the order value.
func (u *Usecase) checkAmount(cost decimal.Decimal) error {
	p := u.policy
	if cost.LessThan(p.MinimumShareAmount) {
		return apperr.Validation("quantity", fmt.Sprintf("minimum share purchase amount is %s", p.MinimumShareAmount.StringFixed(money.Places)))
	}
	if p.MaximumShareAmount.IsPositive() && cost.GreaterThan(p.MaximumShareAmount) {
		return apperr.Validation("quantity", fmt.Sprintf("maximum share purchase amount is %s", p.MaximumShareAmount.StringFixed(money.Places)))
	}
	return nil
}

// Sell places a pending sell order against the current offering. Nothing moves until
// an administrator approves it.
func (u *Usecase) Sell(ctx context.Context, in SellInput) (*share.Transaction, error) {
	log := logger.For(ctx, u.log)
	if !u.policy.SharesEnabled {
		return nil, ErrSharesDisabled
	}
	if err := checkQuantity(in.Quantity); err != nil {
		return nil, err
	}

	var out *share.Transaction
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		s, err := r.Offerings.GetCurrentForUpdate(ctx)
		if err != nil {
			return apperr.Wrap(err, "lock share offering")
		}
		h, err := r.Holdings.GetForUpdate(ctx, in.UserID, s.ID)
		if errors.Is(err, share.ErrHoldingNotFound) {
			return ErrInsufficientShare
		}
		if err != nil {
			return apperr.Wrap(err, "lock holding")
		}
		pending, err := r.ShareTxns.PendingSellQuantity(ctx, in.UserID, s.ID)
		if err != nil {
			return apperr.Wrap(err, "sum pending sales")
		}
		if h.Quantity-pending < in.Quantity {
			return ErrInsufficientShare
		}

		txn := share.NewSell(in.UserID, s, in.Quantity, u.policy.ShareSaleFeePercentage)
		if err := r.ShareTxns.Create(ctx, txn); err != nil {
			return apperr.Wrap(err, "record share sale")
		}
		out = txn
		return nil
	})
	if err != nil {
		log.Debug("share sale refused", zap.Int64("quantity", in.Quantity), zap.Error(err))
		return nil, err
	}
	log.Info("share sale requested",
		zap.String("transaction_id", out.TransactionID),
		zap.Int64("quantity", out.Quantity),
	)
	return out, nil
}

// ApproveSale settles a pending sale: the seller is paid the net amount, the shares
// go back to the offering and the holding shrinks, or disappears at zero.
func (u *Usecase) ApproveSale(ctx context.Context, in ReviewInput) (*share.Transaction, error) {
	var out *share.Transaction
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		txn, err := r.ShareTxns.GetByTransactionIDForUpdate(ctx, in.TransactionID)
		if err != nil {
			return apperr.Wrap(err, "lock share transaction")
		}
		if !txn.IsPendingSale() {
			return share.ErrNotPendingSale
		}
		s, err := r.Offerings.GetByIDForUpdate(ctx, txn.ShareID)
		if err != nil {
			return apperr.Wrap(err, "lock share offering")
		}
		h, err := r.Holdings.GetForUpdate(ctx, txn.UserID, txn.ShareID)
		if errors.Is(err, share.ErrHoldingNotFound) {
			return share.ErrHoldingShort
		}
		if err != nil {
			return apperr.Wrap(err, "lock holding")
		}
		if h.Quantity < txn.Quantity {
			return share.ErrHoldingShort
		}

		if txn.NetAmount.IsPositive() {
			memo := fmt.Sprintf("Sale of %d %s shares", txn.Quantity, s.Name)
			if _, err := wallet.NewLedger(r.Wallets).Credit(ctx, txn.UserID, txn.NetAmount, memo, txn.TransactionID); err != nil {
				return apperr.Wrap(err, "credit wallet")
			}
		}

		h.Remove(txn.Quantity)
		if h.Quantity == 0 {
			err = r.Holdings.Delete(ctx, h)
		} else {
			err = r.Holdings.Save(ctx, h)
		}
		if err != nil {
			return apperr.Wrap(err, "update holding")
		}

		s.AvailableShares += txn.Quantity
		if err := r.Offerings.Save(ctx, s); err != nil {
			return apperr.Wrap(err, "update share offering")
		}
		if err := txn.Complete(in.AdminID, u.clock.Now()); err != nil {
			return err
		}
		if err := r.ShareTxns.Save(ctx, txn); err != nil {
			return apperr.Wrap(err, "save share transaction")
		}
		out = txn
		return nil
	})
	return u.logged(ctx, "share sale approved", in.TransactionID, out, err)
}

func (u *Usecase) RejectSale(ctx context.Context, in ReviewInput) (*share.Transaction, error) {
	out, err := u.settle(ctx, in.TransactionID, "", func(t *share.Transaction) error {
		return t.Reject(in.AdminID, in.Reason, u.clock.Now())
	})
	return u.logged(ctx, "share sale rejected", in.TransactionID, out, err)
}

// CancelSale withdraws the caller's own pending sale. Another user's sale reads as
// not found.
func (u *Usecase) CancelSale(ctx context.Context, in CancelInput) (*share.Transaction, error) {
	out, err := u.settle(ctx, in.TransactionID, in.UserID, func(t *share.Transaction) error {
		return t.Cancel(in.UserID, u.clock.Now())
	})
	return u.logged(ctx, "share sale cancelled", in.TransactionID, out, err)
}

func (u *Usecase) settle(ctx context.Context, transactionID, owner string, apply func(*share.Transaction) error) (*share.Transaction, error) {
	var out *share.Transaction
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		txn, err := r.ShareTxns.GetByTransactionIDForUpdate(ctx, transactionID)
		if err != nil {
			return apperr.Wrap(err, "lock share transaction")
		}
		if owner != "" && txn.UserID != owner {
			return share.ErrTransactionNotFound
		}
		if err := apply(txn); err != nil {
			return err
		}
		if err := r.ShareTxns.Save(ctx, txn); err != nil {
			return apperr.Wrap(err, "save share transaction")
		}
		out = txn
		return nil
	})
	return out, err
}

func (u *Usecase) logged(ctx context.Context, event, transactionID string, out *share.Transaction, err error) (*share.Transaction, error) {
	log := logger.For(ctx, u.log)
	if err != nil {
		log.Debug(event+" refused", zap.String("transaction_id", transactionID), zap.Error(err))
		return nil, err
	}
	log.Info(event,
		zap.String("transaction_id", transactionID),
		zap.String("status", string(out.Status)),
	)
	return out, nil
}

// Portfolio values the user's holdings at current prices alongside their orders.
func (u *Usecase) Portfolio(ctx context.Context, userID string) (*PortfolioDTO, error) {
	if userID == "" {
		return nil, apperr.Validation("user_id", "user id is required")
	}
	var out *PortfolioDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		holdings, err := r.Holdings.ListByUser(ctx, userID)
		if err != nil {
			return apperr.Wrap(err, "list holdings")
		}
		offerings, err := r.Offerings.List(ctx)
		if err != nil {
			return apperr.Wrap(err, "list share offerings")
		}
		txns, err := r.ShareTxns.ListByUser(ctx, userID)
		if err != nil {
			return apperr.Wrap(err, "list share transactions")
		}

		byID := make(map[uint64]*share.Share, len(offerings))
		for i := range offerings {
			byID[offerings[i].ID] = &offerings[i]
		}
		v := share.Value(holdings, offerings)
		out = &PortfolioDTO{
			UserID:                   userID,
			Holdings:                 make([]HoldingDTO, 0, len(holdings)),
			TotalShareValue:          money.Round(v.UserValue),
			PoolValue:                money.Round(v.PoolValue),
			ShareOwnershipPercentage: v.OwnershipPercentage(),
			Transactions:             txns,
		}
		for _, h := range holdings {
			d := HoldingDTO{
				ShareID:       h.ShareID,
				Quantity:      h.Quantity,
				PurchasePrice: h.PurchasePrice,
				TotalPaid:     h.TotalPaid,
				CurrentPrice:  decimal.Zero,
				CurrentValue:  decimal.Zero,
			}
			if s, ok := byID[h.ShareID]; ok {
				d.ShareName = s.Name
				d.CurrentPrice = s.PricePerShare
				d.CurrentValue = s.Cost(h.Quantity)
			}
			if d.PendingSell, err = r.ShareTxns.PendingSellQuantity(ctx, userID, h.ShareID); err != nil {
				return apperr.Wrap(err, "sum pending sales")
			}
			out.Holdings = append(out.Holdings, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IssueOffering opens a new offering with every share available. The newest active
// offering is the one Buy and Sell trade against.
func (u *Usecase) IssueOffering(ctx context.Context, in IssueInput) (*share.Share, error) {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return nil, apperr.Validation("name", "name is required")
	case in.TotalShares <= 0:
		return nil, apperr.Validation("total_shares", "total shares must be greater than zero")
	case !in.PricePerShare.IsPositive():
		return nil, apperr.Validation("price_per_share", "price per share must be greater than zero")
	case in.MinimumPurchase < 0 || in.MaximumPurchase < 0:
		return nil, apperr.Validation("minimum_purchase", "purchase bounds cannot be negative")
	case in.MaximumPurchase > 0 && in.MaximumPurchase < in.MinimumPurchase:
		return nil, apperr.Validation("maximum_purchase", "maximum purchase is below minimum purchase")
	}

	s := &share.Share{
		Name:            name,
		TotalShares:     in.TotalShares,
		AvailableShares: in.TotalShares,
		PricePerShare:   money.Round(in.PricePerShare),
		MinimumPurchase: in.MinimumPurchase,
		MaximumPurchase: in.MaximumPurchase,
		IsActive:        true,
	}
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		return apperr.Wrap(r.Offerings.Create(ctx, s), "create share offering")
	})
	if err != nil {
		return nil, err
	}
	logger.For(ctx, u.log).Info("share offering issued",
		zap.Uint64("share_id", s.ID),
		zap.String("admin_id", in.AdminID),
		zap.Int64("total_shares", s.TotalShares),
	)
	return s, nil
}
