package briefing

// ExitStatus is the terminal state of one invocation.
type ExitStatus int

const (
	// StatusSent means the report was delivered and recorded.
	StatusSent ExitStatus = iota
	// StatusSkipped is a clean no-op: outside every period or already sent.
	StatusSkipped
	// StatusAborted means the foundational weather data was unobtainable.
	StatusAborted
	// StatusDeliveryFailed means publishing failed; the ledger is untouched.
	StatusDeliveryFailed
	// StatusLedgerFailed means the ledger could not be read or written.
	StatusLedgerFailed
)

func (s ExitStatus) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusSkipped:
		return "skipped"
	case StatusAborted:
		return "aborted"
	case StatusDeliveryFailed:
		return "delivery_failed"
	case StatusLedgerFailed:
		return "ledger_failed"
	default:
		return "unknown"
	}
}

// Code is the process exit code for the status.
func (s ExitStatus) Code() int {
	switch s {
	case StatusSent, StatusSkipped:
		return 0
	case StatusAborted:
		return 1
	case StatusDeliveryFailed:
		return 2
	default:
		return 3
	}
}
