package notify

import (
	"context"
	"log/slog"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
)

// LogDispatcher emits charge-payable notices to the structured log. The
// delivery channel is pluggable behind the NotificationDispatcher port; this
// implementation is what runs until an outbound mail integration exists.
type LogDispatcher struct {
	logger *slog.Logger
}

var _ portsvc.NotificationDispatcher = (*LogDispatcher)(nil)

// NewLogDispatcher creates the log-backed dispatcher.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// NotifyChargePayable records that the charge is confirmed payable, addressed
// to the assignor's notification recipients.
func (d *LogDispatcher) NotifyChargePayable(ctx context.Context, counterparty domain.Counterparty, assignor domain.Assignor, charge domain.Charge) error {
	d.logger.InfoContext(ctx, "Charge payable notice",
		"counterpartyID", counterparty.CounterpartyID,
		"assignorID", assignor.AssignorID,
		"recipients", assignor.NotifyEmails,
		"txid", charge.TxID,
		"amount", charge.Amount.StringFixed(2),
		"location", charge.Location,
	)
	return nil
}
