// Package stellar adapts the Stellar Go SDK to the engine's ledger boundary.
package stellar

import (
	"context"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/chain"
	"github.com/stellar/go/clients/horizonclient"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/protocols/horizon/operations"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// HorizonAPI is the subset of horizonclient.ClientInterface the adapter calls.
	HorizonAPI interface {
		AccountDetail(request horizonclient.AccountRequest) (hProtocol.Account, error)
		FeeStats() (hProtocol.FeeStats, error)
		SubmitTransactionXDR(transactionXdr string) (hProtocol.Transaction, error)
		TransactionDetail(txHash string) (hProtocol.Transaction, error)
		Operations(request horizonclient.OperationRequest) (operations.OperationsPage, error)
	}

	// Metrics records metrics for ledger API calls.
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}

	// AccountSource reads account state for balance checks.
	AccountSource interface {
		Account(ctx context.Context, id string) (chain.Account, error)
	}
)
