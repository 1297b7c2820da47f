package stellar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/chain"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/stellar/go/clients/horizonclient"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/protocols/horizon/operations"
	"go.uber.org/ratelimit"
)

const operationsPageLimit = 200

// NewHorizonAPI builds a Horizon SDK client whose requests are bounded by timeout.
func NewHorizonAPI(url string, timeout time.Duration) *horizonclient.Client {
	return &horizonclient.Client{
		HorizonURL: url,
		HTTP:       &http.Client{Timeout: timeout},
	}
}

// HorizonClient implements chain.Ledger over the Horizon API with rate limiting and metrics.
type HorizonClient struct {
	api     HorizonAPI
	limiter ratelimit.Limiter
	metrics Metrics
}

// NewHorizonClient constructs an instrumented ledger client. rps <= 0 disables rate limiting.
func NewHorizonClient(api HorizonAPI, rps int, metrics Metrics) *HorizonClient {
	limiter := ratelimit.NewUnlimited()
	if rps > 0 {
		limiter = ratelimit.New(rps)
	}
	return &HorizonClient{
		api:     api,
		limiter: limiter,
		metrics: metrics,
	}
}

type result[T any] struct {
	value T
	err   error
}

// call runs fn under the rate limiter and returns early when ctx is done.
// The SDK has no context support, so an abandoned call finishes in the background
// bounded by the HTTP client timeout.
func call[T any](ctx context.Context, c *HorizonClient, operation string, fn func() (T, error)) (value T, err error) {
	started := time.Now()
	defer func() {
		c.metrics.Observe(operation, err, started)
	}()

	if err = ctx.Err(); err != nil {
		return value, err
	}
	c.limiter.Take()

	done := make(chan result[T], 1)
	go func() {
		v, fnErr := fn()
		done <- result[T]{value: v, err: fnErr}
	}()

	select {
	case <-ctx.Done():
		return value, ctx.Err()
	case r := <-done:
		return r.value, r.err
	}
}

// SubmitTransaction posts a signed envelope. Rejections are returned as *model.LedgerError.
func (c *HorizonClient) SubmitTransaction(ctx context.Context, tx chain.SignedTransaction) (chain.SubmitResponse, error) {
	resp, err := call(ctx, c, "submit_transaction", func() (hProtocol.Transaction, error) {
		return c.api.SubmitTransactionXDR(tx.Envelope)
	})
	if err != nil {
		if ctx.Err() != nil {
			return chain.SubmitResponse{}, err
		}
		return chain.SubmitResponse{}, submitError(err)
	}
	return convertSubmitResponse(resp)
}

// TransactionByHash looks up a transaction recorded by the ledger.
func (c *HorizonClient) TransactionByHash(ctx context.Context, hash string) (chain.LedgerTransaction, error) {
	tx, err := call(ctx, c, "transaction_detail", func() (hProtocol.Transaction, error) {
		return c.api.TransactionDetail(hash)
	})
	if err != nil {
		if ctx.Err() != nil {
			return chain.LedgerTransaction{}, err
		}
		return chain.LedgerTransaction{}, queryError("transaction_detail", err)
	}
	return convertTransaction(tx)
}

// OperationsByTransaction lists the operations of a recorded transaction.
func (c *HorizonClient) OperationsByTransaction(ctx context.Context, hash string) ([]chain.LedgerOperation, error) {
	page, err := call(ctx, c, "operations", func() (operations.OperationsPage, error) {
		return c.api.Operations(horizonclient.OperationRequest{ForTransaction: hash, Limit: operationsPageLimit})
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, queryError("operations", err)
	}

	ops := make([]chain.LedgerOperation, 0, len(page.Embedded.Records))
	for _, record := range page.Embedded.Records {
		ops = append(ops, convertOperation(record))
	}
	return ops, nil
}

// FeeStats returns the fee-charged distribution of recent ledgers.
func (c *HorizonClient) FeeStats(ctx context.Context) (model.FeeStatistics, error) {
	stats, err := call(ctx, c, "fee_stats", func() (hProtocol.FeeStats, error) {
		return c.api.FeeStats()
	})
	if err != nil {
		if ctx.Err() != nil {
			return model.FeeStatistics{}, err
		}
		return model.FeeStatistics{}, queryError("fee_stats", err)
	}
	return convertFeeStats(stats), nil
}

// Account loads the sequence number and balances of an account.
func (c *HorizonClient) Account(ctx context.Context, id string) (chain.Account, error) {
	acc, err := call(ctx, c, "account_detail", func() (hProtocol.Account, error) {
		return c.api.AccountDetail(horizonclient.AccountRequest{AccountID: id})
	})
	if err != nil {
		if ctx.Err() != nil {
			return chain.Account{}, err
		}
		return chain.Account{}, queryError("account_detail", err)
	}

	account, err := convertAccount(acc)
	if err != nil {
		return chain.Account{}, fmt.Errorf("convert account %s: %w", id, err)
	}
	return account, nil
}
