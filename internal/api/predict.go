package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/TimurManjosov/erpredict/internal/features"
	"github.com/TimurManjosov/erpredict/internal/inference"
	"github.com/TimurManjosov/erpredict/internal/telemetry"
)

// PredictionIDHeader carries the id under which a prediction was logged.
const PredictionIDHeader = "X-Prediction-Id"

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	logger := hlog.FromRequest(r)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RequestTooLargeError(w, r, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		InvalidJSONError(w, r, "could not read request body")
		return
	}

	payload, err := features.DecodePayload(bytes.NewReader(body))
	if err != nil {
		InvalidJSONError(w, r, err.Error())
		return
	}
	if unknown := payload.UnknownKeys(); len(unknown) > 0 {
		logger.Debug().Strs("keys", unknown).Msg("ignoring unknown payload keys")
	}

	row, warnings, err := s.mapper.Assemble(payload)
	if err != nil {
		var verr *features.ValidationError
		if errors.As(err, &verr) {
			ValidationError(w, r, verr.Error(), verr.Fields)
			return
		}
		logger.Error().Err(err).Msg("feature assembly failed")
		InternalError(w, r, "could not assemble features")
		return
	}
	for _, warn := range warnings {
		telemetry.CategoricalDefaults.WithLabelValues(warn.Field).Inc()
		logger.Warn().Str("field", warn.Field).Str("reason", warn.Reason).Msg("categorical value defaulted")
	}

	res, err := s.predictor.Predict(r.Context(), row)
	if ctxErr := r.Context().Err(); ctxErr != nil {
		// the timeout middleware answers once the deadline has passed
		logger.Warn().Err(ctxErr).Msg("prediction abandoned")
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("prediction failed")
		var ierr *inference.InferenceError
		if errors.As(err, &ierr) {
			InferenceError(w, r, ierr.Error())
			return
		}
		InternalError(w, r, "prediction failed")
		return
	}

	id := uuid.NewString()
	logger.Info().
		Str("prediction_id", id).
		Int("prediction", res.Prediction).
		Float64("er_visit", res.Probabilities.ERVisit).
		Msg("prediction served")

	w.Header().Set(PredictionIDHeader, id)
	writeJSON(w, http.StatusOK, res)
}
