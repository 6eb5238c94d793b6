package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"ledger-service/internal/ledger"
	"ledger-service/internal/model"
	"ledger-service/internal/repository"
)

type transferFunc func(r *http.Request, req ledger.TransferRequest) (*ledger.TransferResult, error)

type transferResponse struct {
	TransactionID uint    `json:"transaction_id"`
	Reference     string  `json:"reference"`
	Kind          string  `json:"kind"`
	Amount        string  `json:"amount"`
	Replay        bool    `json:"replay"`
	Balance       *string `json:"balance,omitempty"`
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) topUp(w http.ResponseWriter, r *http.Request) {
	s.handleTransfer(w, r, func(r *http.Request, req ledger.TransferRequest) (*ledger.TransferResult, error) {
		return s.coordinator.TopUp(r.Context(), req)
	})
}

func (s *Server) bonus(w http.ResponseWriter, r *http.Request) {
	s.handleTransfer(w, r, func(r *http.Request, req ledger.TransferRequest) (*ledger.TransferResult, error) {
		return s.coordinator.Bonus(r.Context(), req)
	})
}

func (s *Server) spend(w http.ResponseWriter, r *http.Request) {
	s.handleTransfer(w, r, func(r *http.Request, req ledger.TransferRequest) (*ledger.TransferResult, error) {
		return s.coordinator.Spend(r.Context(), req)
	})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request, fn transferFunc) {
	var body TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	req, err := body.Validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := fn(r, req)
	if err != nil {
		s.writeTransferError(w, err)
		return
	}

	resp := transferResponse{
		TransactionID: result.TransactionID,
		Reference:     result.Reference,
		Kind:          string(result.Kind),
		Amount:        result.Amount.StringFixed(model.AmountScale),
		Replay:        result.Replay,
	}
	if result.Balance != nil {
		b := result.Balance.StringFixed(model.AmountScale)
		resp.Balance = &b
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeTransferError(w http.ResponseWriter, err error) {
	var insufficient *ledger.InsufficientFundsError
	switch {
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":     "insufficient funds",
			"available": insufficient.Available.StringFixed(model.AmountScale),
			"requested": insufficient.Requested.StringFixed(model.AmountScale),
		})
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidIdempotencyKey):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrAssetNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrTreasuryNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.log.WithError(err).Error("transfer failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(w, r.PathValue("userId"))
	if !ok {
		return
	}
	assetID, ok := parseID(w, r.URL.Query().Get("asset_type_id"))
	if !ok {
		return
	}

	result, err := s.queries.GetBalance(r.Context(), userID, assetID)
	if err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.log.WithError(err).Error("balance query failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(w, r.PathValue("userId"))
	if !ok {
		return
	}

	var assetID *uint
	if raw := r.URL.Query().Get("asset_type_id"); raw != "" {
		id, ok := parseID(w, raw)
		if !ok {
			return
		}
		assetID = &id
	}

	entries, err := s.queries.GetHistory(r.Context(), userID, assetID)
	if err != nil {
		s.log.WithError(err).Error("history query failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.queries.ListAssets(r.Context())
	if err != nil {
		s.log.WithError(err).Error("asset listing failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": assets})
}

func parseID(w http.ResponseWriter, raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "malformed identifier")
		return 0, false
	}
	return uint(id), true
}
