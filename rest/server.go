package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/psahay/rampflow/cache"
	"github.com/psahay/rampflow/flow"
	"github.com/psahay/rampflow/history"
	"github.com/psahay/rampflow/logger"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port      int
	sequencer *flow.Sequencer
	ledger    *history.Ledger
	feeCache  *cache.FeeScheduleCache
}

func NewServer(httpPort int, sequencer *flow.Sequencer, ledger *history.Ledger, feeCache *cache.FeeScheduleCache) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr:        fmt.Sprintf(":%d", httpPort),
			IdleTimeout: 2 * time.Second,
		},
		sequencer: sequencer,
		ledger:    ledger,
		feeCache:  feeCache,
		Port:      httpPort,
	}

	router := mux.NewRouter()
	router.HandleFunc("/flow", s.HandleInitiateFlow).Methods(http.MethodPost)
	router.HandleFunc("/flow", s.HandleGetFlow).Methods(http.MethodGet)
	router.HandleFunc("/flow", s.HandleAbortFlow).Methods(http.MethodDelete)
	router.HandleFunc("/flow/advance", s.HandleAdvanceFlow).Methods(http.MethodPost)
	router.HandleFunc("/flow/advance/pending", s.HandleProceedPending).Methods(http.MethodPost)

	router.HandleFunc("/history", s.HandleGetHistory).Methods(http.MethodGet)

	router.HandleFunc("/estimate", s.HandleEstimate).Methods(http.MethodPost)
	router.HandleFunc("/admin/fees", s.HandleUpdateFeeSchedule).Methods(http.MethodPut)
	router.HandleFunc("/admin/fees", s.HandleGetFeeSchedule).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		logger.Error("error shutting down http server")
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, message map[string]any) {
	respondWithJSON(w, http.StatusOK, message)
}

func respondOKWithoutBody(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
