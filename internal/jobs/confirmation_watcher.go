package jobs

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"lock-in/internal/logger"
	"lock-in/internal/models"
	"lock-in/internal/services"
)

const watcherBatchSize = 100

// PendingLedger is the part of the ledger the watcher settles
type PendingLedger interface {
	ListPending(ctx context.Context, limit int) ([]*models.TransactionRecord, error)
	Settle(ctx context.Context, rec *models.TransactionRecord, receipt *types.Receipt) error
	Touch(ctx context.Context, rec *models.TransactionRecord) error
}

// ConfirmationWatcher settles ledger records whose confirmation wait ended
// without a receipt
type ConfirmationWatcher struct {
	ledger   PendingLedger
	chain    services.ReceiptReader
	interval time.Duration
	stopChan chan struct{}
	log      zerolog.Logger
}

// NewConfirmationWatcher creates a new confirmation watcher job
func NewConfirmationWatcher(ledger PendingLedger, chain services.ReceiptReader, interval time.Duration) *ConfirmationWatcher {
	return &ConfirmationWatcher{
		ledger:   ledger,
		chain:    chain,
		interval: interval,
		stopChan: make(chan struct{}),
		log:      logger.Component("ConfirmationWatcher"),
	}
}

// Start begins the polling loop. It blocks until Stop is called.
func (w *ConfirmationWatcher) Start() {
	w.log.Info().Dur("interval", w.interval).Msg("Starting confirmation watcher")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.SettlePending(context.Background())
		case <-w.stopChan:
			w.log.Info().Msg("Stopping confirmation watcher")
			return
		}
	}
}

// Stop stops the polling loop
func (w *ConfirmationWatcher) Stop() {
	close(w.stopChan)
}

// SettlePending checks one batch of pending records and returns how many
// were settled. Records without a receipt stay pending and go to the back of
// the queue so later records get checked on the next pass.
func (w *ConfirmationWatcher) SettlePending(ctx context.Context) int {
	records, err := w.ledger.ListPending(ctx, watcherBatchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("Error fetching pending transactions")
		return 0
	}
	if len(records) == 0 {
		return 0
	}

	w.log.Debug().Int("pending", len(records)).Msg("Checking pending transactions")

	settled := 0
	for _, rec := range records {
		receipt, err := w.chain.Receipt(ctx, common.HexToHash(rec.TxHash))
		if err != nil {
			w.log.Warn().Err(err).Str("tx", rec.TxHash).Msg("Error fetching receipt")
		}
		if receipt == nil {
			w.requeue(ctx, rec)
			continue
		}
		if err := w.ledger.Settle(ctx, rec, receipt); err != nil {
			w.log.Error().Err(err).Str("tx", rec.TxHash).Msg("Error settling transaction")
			continue
		}
		settled++
		w.log.Info().Str("tx", rec.TxHash).Str("kind", string(rec.Kind)).Uint64("status", receipt.Status).Msg("Settled transaction")
	}

	if settled > 0 {
		w.log.Info().Int("settled", settled).Msg("Settled pending transactions")
	}
	return settled
}

func (w *ConfirmationWatcher) requeue(ctx context.Context, rec *models.TransactionRecord) {
	if err := w.ledger.Touch(ctx, rec); err != nil {
		w.log.Error().Err(err).Str("tx", rec.TxHash).Msg("Error requeueing transaction")
	}
}
