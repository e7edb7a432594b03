package checkout

// State is a step of one checkout attempt.
type State int

const (
	Address State = iota
	PaymentMethodSelection
	CODConfirm
	OnlineRedirect
	Submitted
	// Interrupted is a halted online attempt: the widget was dismissed or
	// the payment could not be verified. The buyer has to start over.
	Interrupted
)

func (s State) String() string {
	switch s {
	case Address:
		return "address"
	case PaymentMethodSelection:
		return "payment method selection"
	case CODConfirm:
		return "cash on delivery confirmation"
	case OnlineRedirect:
		return "online payment"
	case Submitted:
		return "submitted"
	case Interrupted:
		return "interrupted"
	}
	return "unknown"
}

// Terminal reports whether no further step is possible.
func (s State) Terminal() bool {
	return s == Submitted || s == Interrupted
}
