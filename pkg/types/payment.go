package types

type PaymentProvider string

const (
	PaymentProviderMulticaixa PaymentProvider = "multicaixa"
	PaymentProviderAppyPay    PaymentProvider = "appypay"
	PaymentProviderManual     PaymentProvider = "manual"
)

// CallbackOutcome is the tri-state a provider callback normalizes to.
// Anything not recognizably terminal stays pending and is a no-op.
type CallbackOutcome string

const (
	OutcomePaid      CallbackOutcome = "paid"
	OutcomeCancelled CallbackOutcome = "cancelled"
	OutcomePending   CallbackOutcome = "pending"
)

type PaymentMethod string

const (
	PaymentMethodReference PaymentMethod = "reference"
	PaymentMethodWallet    PaymentMethod = "wallet"
)
