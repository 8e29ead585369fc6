package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"parlayhouse/internal/exchange"
	"parlayhouse/internal/http/middleware"
	"parlayhouse/internal/ledger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// WalletHandler serves the wallet balance read (spec §6:
// GET /api/wallet/:userId).
type WalletHandler struct {
	DB *pgxpool.Pool
}

type walletResp struct {
	Balance string `json:"balance"`
}

func (h *WalletHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UserID(r)
	if uid == "" || uid != r.PathValue("userId") {
		writeErr(w, http.StatusForbidden, "forbidden")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var balance decimal.Decimal
	err := h.DB.QueryRow(ctx, `select balance from wallets where user_id = $1`, uid).Scan(&balance)
	if err != nil {
		writeErr(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, walletResp{Balance: balance.String()})
}

// WithdrawalHandler opens a withdrawal request (spec §6:
// POST /api/withdraw/:userId) and drives the venue transfer behind it.
// The wallet debit commits synchronously; the venue leg runs in the
// background and, if the transfer is rejected, FailWithdrawal credits
// the wallet back.
type WithdrawalHandler struct {
	Ledger   *ledger.Ledger
	Exchange exchange.Client
}

type withdrawReq struct {
	Amount string `json:"amount"`
}

type withdrawResp struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
}

func (h *WithdrawalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UserID(r)
	if uid == "" || uid != r.PathValue("userId") {
		writeErr(w, http.StatusForbidden, "forbidden")
		return
	}

	var req withdrawReq
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_request")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.Sign() <= 0 {
		writeErr(w, http.StatusBadRequest, "invalid_amount")
		return
	}

	wr, err := h.Ledger.OpenWithdrawal(r.Context(), uid, amount)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			writeErr(w, http.StatusPaymentRequired, "InsufficientFunds")
			return
		}
		writeErr(w, http.StatusInternalServerError, "internal_error")
		return
	}

	go h.transfer(wr)

	writeJSON(w, http.StatusCreated, withdrawResp{RequestID: wr.ID, Status: wr.Status})
}

func (h *WithdrawalHandler) transfer(wr ledger.WithdrawalRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out, err := h.Exchange.TransferOut(ctx, exchange.TransferOutRequest{
		UserHandle:  wr.UserID,
		AmountCents: wr.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
	})
	if err != nil {
		slog.Warn("withdraw.transfer_failed", "request_id", wr.ID, "err", err)
		if ferr := h.Ledger.FailWithdrawal(ctx, wr.ID, err.Error()); ferr != nil {
			slog.Error("withdraw.fail_transition_failed", "request_id", wr.ID, "err", ferr)
		}
		return
	}
	err = h.Ledger.WithTx(ctx, func(q ledger.Querier) error {
		return h.Ledger.CompleteWithdrawal(ctx, q, wr.ID, out.VenueTransferID)
	})
	if err != nil {
		slog.Error("withdraw.complete_transition_failed", "request_id", wr.ID, "err", err)
	}
}

// PurchaseHistoryHandler lists a user's parlay purchases with the hedging
// plan captured at placement and whether any hedge order actually executed
// at the venue (spec §6: GET /api/purchase-history/:userId).
type PurchaseHistoryHandler struct {
	DB *pgxpool.Pool
}

type purchaseResp struct {
	SessionID      string          `json:"sessionId"`
	Amount         string          `json:"amount"`
	Status         string          `json:"status"`
	HedgingPlan    json.RawMessage `json:"hedgingPlan"`
	HedgesExecuted bool            `json:"hedgesExecuted"`
}

func (h *PurchaseHistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UserID(r)
	if uid == "" || uid != r.PathValue("userId") {
		writeErr(w, http.StatusForbidden, "forbidden")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rows, err := h.DB.Query(ctx, `
		select p.session_id::text, p.stake, p.status, p.hedging_plan,
			exists (
				select 1 from hedge_orders h
				where h.parlay_session_id = p.session_id and h.status = 'accepted'
			)
		from parlays p where p.user_id = $1 order by p.created_at desc
	`, uid)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	defer rows.Close()

	purchases := []purchaseResp{}
	for rows.Next() {
		var p purchaseResp
		var amount decimal.Decimal
		if err := rows.Scan(&p.SessionID, &amount, &p.Status, &p.HedgingPlan, &p.HedgesExecuted); err != nil {
			writeErr(w, http.StatusInternalServerError, "db_error")
			return
		}
		p.Amount = amount.String()
		purchases = append(purchases, p)
	}
	writeJSON(w, http.StatusOK, purchases)
}
