package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransferRequestValidate(t *testing.T) {
	valid := TransferRequest{
		UserID:         1,
		AssetTypeID:    2,
		Amount:         "10.50",
		IdempotencyKey: "key-1",
		Description:    "lunch",
	}

	req, err := valid.Validate()
	require.NoError(t, err)
	require.Equal(t, uint(1), req.UserID)
	require.Equal(t, uint(2), req.AssetTypeID)
	require.Equal(t, "10.5000", req.Amount.StringFixed(4))
	require.Equal(t, "key-1", req.IdempotencyKey)
	require.Equal(t, "lunch", req.Description)
}

func TestTransferRequestValidateRejects(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(r *TransferRequest)
		field string
	}{
		{"missing user", func(r *TransferRequest) { r.UserID = 0 }, "user_id"},
		{"missing asset", func(r *TransferRequest) { r.AssetTypeID = 0 }, "asset_type_id"},
		{"garbage amount", func(r *TransferRequest) { r.Amount = "ten" }, "amount"},
		{"zero amount", func(r *TransferRequest) { r.Amount = "0" }, "amount"},
		{"negative amount", func(r *TransferRequest) { r.Amount = "-3" }, "amount"},
		{"amount rounds to zero", func(r *TransferRequest) { r.Amount = "0.00001" }, "amount"},
		{"empty key", func(r *TransferRequest) { r.IdempotencyKey = "" }, "idempotency_key"},
		{"oversized key", func(r *TransferRequest) { r.IdempotencyKey = strings.Repeat("k", 256) }, "idempotency_key"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := TransferRequest{
				UserID:         1,
				AssetTypeID:    2,
				Amount:         "10",
				IdempotencyKey: "key",
			}
			tc.mut(&r)

			_, err := r.Validate()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Contains(t, verr.Fields, tc.field)
		})
	}
}
