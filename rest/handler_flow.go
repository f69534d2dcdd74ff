package rest

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/psahay/rampflow/logger"
	"github.com/psahay/rampflow/model"
	"github.com/psahay/rampflow/persistence"
	"go.uber.org/zap"
)

func (s *Server) HandleInitiateFlow(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "error reading request body")
		return
	}
	defer r.Body.Close()
	def, err := model.ParseFlowInitiationRequest(body)
	if err != nil {
		logger.Error("invalid flow initiation payload", zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	flowId, err := s.sequencer.Initiate(r.Context(), def)
	if err != nil {
		logger.Error("error initiating flow", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error initiating flow")
		return
	}
	respondOK(w, map[string]any{"flowId": flowId})
}

func (s *Server) HandleAdvanceFlow(w http.ResponseWriter, r *http.Request) {
	flowCtx, err := s.sequencer.Advance(r.Context())
	if err != nil {
		respondFlowError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, flowCtx)
}

func (s *Server) HandleProceedPending(w http.ResponseWriter, r *http.Request) {
	flowCtx, err := s.sequencer.ProceedPending(r.Context())
	if err != nil {
		respondFlowError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, flowCtx)
}

func (s *Server) HandleAbortFlow(w http.ResponseWriter, r *http.Request) {
	if err := s.sequencer.Abort(r.Context()); err != nil {
		respondFlowError(w, err)
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleGetFlow(w http.ResponseWriter, r *http.Request) {
	flowCtx, err := s.sequencer.Current(r.Context())
	if err != nil {
		respondFlowError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, flowCtx)
}

func (s *Server) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.ledger.List(r.Context())
	if err != nil {
		logger.Error("error listing history", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error listing history")
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}

func respondFlowError(w http.ResponseWriter, err error) {
	if _, ok := err.(persistence.NoActiveFlowError); ok {
		respondWithError(w, http.StatusNotFound, "no active flow")
		return
	}
	logger.Error("error in flow operation", zap.Error(err))
	respondWithError(w, http.StatusInternalServerError, err.Error())
}

func decodeJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
