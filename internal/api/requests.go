package api

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ledger-service/internal/ledger"
	"ledger-service/internal/model"
)

// ValidationError reports which request fields failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	problems := make([]string, 0, len(e.Fields))
	for field, reason := range e.Fields {
		problems = append(problems, field+": "+reason)
	}
	return "invalid request: " + strings.Join(problems, "; ")
}

// TransferRequest is the request body shared by the topup, bonus and
// spend endpoints.
type TransferRequest struct {
	UserID         uint   `json:"user_id"`
	AssetTypeID    uint   `json:"asset_type_id"`
	Amount         string `json:"amount"`
	IdempotencyKey string `json:"idempotency_key"`
	Description    string `json:"description,omitempty"`
}

// Validate checks the request and converts it into the engine's input.
func (r *TransferRequest) Validate() (ledger.TransferRequest, error) {
	fields := make(map[string]string)

	if r.UserID == 0 {
		fields["user_id"] = "required"
	}
	if r.AssetTypeID == 0 {
		fields["asset_type_id"] = "required"
	}

	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		fields["amount"] = "must be a decimal number"
	} else {
		amount = amount.Round(model.AmountScale)
		if !amount.IsPositive() {
			fields["amount"] = "must be positive"
		}
	}

	if l := len(r.IdempotencyKey); l == 0 || l > 255 {
		fields["idempotency_key"] = fmt.Sprintf("must be 1-255 characters, got %d", l)
	}

	if len(fields) > 0 {
		return ledger.TransferRequest{}, &ValidationError{Fields: fields}
	}

	return ledger.TransferRequest{
		UserID:         r.UserID,
		AssetTypeID:    r.AssetTypeID,
		Amount:         amount,
		IdempotencyKey: r.IdempotencyKey,
		Description:    r.Description,
	}, nil
}
