package rest

import (
	"math/big"
	"net/http"

	"github.com/psahay/rampflow/fees"
	"github.com/psahay/rampflow/logger"
	"github.com/psahay/rampflow/model"
	"go.uber.org/zap"
)

type estimateRequest struct {
	UsdAmount string `json:"usdAmount"`
}

func (s *Server) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid estimate request")
		return
	}
	amount, ok := new(big.Int).SetString(req.UsdAmount, 10)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "usdAmount must be a base-10 integer")
		return
	}
	schedule, err := s.feeCache.Get(r.Context())
	if err != nil {
		logger.Error("error loading fee schedule", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error loading fee schedule")
		return
	}
	breakdown, err := fees.Estimate(amount, schedule)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, breakdown)
}

func (s *Server) HandleUpdateFeeSchedule(w http.ResponseWriter, r *http.Request) {
	var schedule model.FeeSchedule
	if err := decodeJSONBody(r, &schedule); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid fee schedule")
		return
	}
	if err := s.feeCache.Put(r.Context(), schedule); err != nil {
		logger.Error("error updating fee schedule", zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleGetFeeSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := s.feeCache.Get(r.Context())
	if err != nil {
		logger.Error("error loading fee schedule", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error loading fee schedule")
		return
	}
	respondWithJSON(w, http.StatusOK, schedule)
}
