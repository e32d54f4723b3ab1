package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LocalGateway is a PaymentGateway that mints intent IDs locally without
// talking to any processor. It is the default when no external gateway is
// configured: payments created through it are only ever completed by
// explicit webhook-style calls, which makes it usable for development and
// tests.
type LocalGateway struct{}

// CreateIntent returns a locally-generated intent.
func (LocalGateway) CreateIntent(_ context.Context, _ decimal.Decimal, _ string, _ map[string]string) (*PaymentIntent, error) {
	id := uuid.New().String()
	return &PaymentIntent{
		ID:           "pi_" + id,
		ClientSecret: "pi_" + id + "_secret_" + uuid.New().String(),
	}, nil
}
