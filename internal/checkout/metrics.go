package checkout

import (
	"github.com/fjod/go_grocery/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	intentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_payment_intents_total",
			Help: "Payment intents requested, by result",
		},
		[]string{"result"},
	)

	confirmationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_confirmations_total",
			Help: "Payment confirmations received, by result",
		},
		[]string{"result"},
	)
)

func resultLabel(err error) string {
	switch {
	case domain.IsValidation(err):
		return "validation"
	case domain.IsGateway(err):
		return "gateway"
	default:
		return "error"
	}
}
