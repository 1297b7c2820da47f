package stellar

import (
	"fmt"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/chain"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/goodnatureofminers/donation-ledger-backend/pkg/safe"
	"github.com/shopspring/decimal"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/protocols/horizon/base"
	"github.com/stellar/go/protocols/horizon/operations"
)

const nativeAssetType = "native"

func convertFeeStats(stats hProtocol.FeeStats) model.FeeStatistics {
	charged := stats.FeeCharged
	return model.FeeStatistics{
		Min:  charged.Min,
		Max:  charged.Max,
		Mode: charged.Mode,
		P10:  charged.P10,
		P50:  charged.P50,
		P90:  charged.P90,
		P95:  charged.P95,
		P99:  charged.P99,
	}
}

func convertSubmitResponse(tx hProtocol.Transaction) (chain.SubmitResponse, error) {
	ledger, err := safe.Uint32(tx.Ledger)
	if err != nil {
		return chain.SubmitResponse{}, fmt.Errorf("ledger sequence: %w", err)
	}
	return chain.SubmitResponse{
		Hash:       tx.Hash,
		Ledger:     ledger,
		Successful: tx.Successful,
		FeeCharged: tx.FeeCharged,
	}, nil
}

func convertTransaction(tx hProtocol.Transaction) (chain.LedgerTransaction, error) {
	ledger, err := safe.Uint32(tx.Ledger)
	if err != nil {
		return chain.LedgerTransaction{}, fmt.Errorf("ledger sequence: %w", err)
	}
	opCount, err := safe.Uint32(tx.OperationCount)
	if err != nil {
		return chain.LedgerTransaction{}, fmt.Errorf("operation count: %w", err)
	}
	return chain.LedgerTransaction{
		Hash:           tx.Hash,
		Ledger:         ledger,
		Successful:     tx.Successful,
		FeeCharged:     tx.FeeCharged,
		Memo:           tx.Memo,
		OperationCount: opCount,
		ClosedAt:       tx.LedgerCloseTime.UTC(),
	}, nil
}

func convertAccount(acc hProtocol.Account) (chain.Account, error) {
	seq, err := acc.GetSequenceNumber()
	if err != nil {
		return chain.Account{}, err
	}

	balances := make([]chain.Balance, 0, len(acc.Balances))
	for _, b := range acc.Balances {
		if b.Type == "liquidity_pool_shares" {
			continue
		}
		amount, err := decimal.NewFromString(b.Balance)
		if err != nil {
			return chain.Account{}, fmt.Errorf("balance %s: %w", b.Code, err)
		}
		ref := assetRef(b.Asset)
		balances = append(balances, chain.Balance{Code: ref.Code, Issuer: ref.Issuer, Amount: amount})
	}

	return chain.Account{
		ID:       acc.AccountID,
		Sequence: seq,
		Balances: balances,
	}, nil
}

func convertOperation(op operations.Operation) chain.LedgerOperation {
	switch o := op.(type) {
	case operations.Payment:
		return paymentOperation(op.GetType(), o)
	case operations.PathPayment:
		return paymentOperation(op.GetType(), o.Payment)
	case operations.PathPaymentStrictSend:
		return paymentOperation(op.GetType(), o.Payment)
	case operations.CreateAccount:
		return chain.LedgerOperation{
			Type:   op.GetType(),
			From:   o.Funder,
			To:     o.Account,
			Amount: o.StartingBalance,
			Asset:  chain.NativeAsset(),
		}
	default:
		return chain.LedgerOperation{Type: op.GetType()}
	}
}

func paymentOperation(opType string, p operations.Payment) chain.LedgerOperation {
	return chain.LedgerOperation{
		Type:   opType,
		From:   p.From,
		To:     p.To,
		Amount: p.Amount,
		Asset:  assetRef(p.Asset),
	}
}

func assetRef(a base.Asset) chain.AssetRef {
	if a.Type == nativeAssetType {
		return chain.NativeAsset()
	}
	return chain.AssetRef{Code: a.Code, Issuer: a.Issuer}
}
