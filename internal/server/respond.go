package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sohta/kotoba/internal/engine"
	"github.com/sohta/kotoba/internal/learner"
	"github.com/sohta/kotoba/internal/memory"
	"github.com/sohta/kotoba/internal/placement"
	"github.com/sohta/kotoba/internal/selector"
	"github.com/sohta/kotoba/internal/store"
)

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type dataEnvelope struct {
	Data any `json:"data"`
}

func respondData(c *gin.Context, status int, payload any) {
	c.JSON(status, dataEnvelope{Data: payload})
}

func respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	c.JSON(status, errorEnvelope{Error: apiError{Message: err.Error(), Code: code}})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorEnvelope{Error: apiError{Message: err.Error(), Code: "validation_error"}})
}

// statusFor maps domain errors onto HTTP statuses: rejected input 400,
// unknown resources 404, lost races 409, a failed model pipeline 502,
// everything else 500.
func statusFor(err error) (int, string) {
	var (
		genFailed    *selector.ErrGenerationFailed
		noProviders  *selector.ErrNoProviders
		gradeRange   *selector.ErrGradingOutOfRange
		saveConflict *store.ErrVersionConflict
	)
	switch {
	case errors.Is(err, engine.ErrInvalidRequest),
		errors.Is(err, learner.ErrScoreOutOfRange),
		errors.Is(err, memory.ErrInvalidRating),
		errors.Is(err, placement.ErrQuestionIndex):
		return http.StatusBadRequest, "validation_error"

	case errors.Is(err, engine.ErrContentNotFound),
		errors.Is(err, engine.ErrPlacementNotFound):
		return http.StatusNotFound, "not_found"

	case errors.Is(err, placement.ErrTestFinished),
		errors.Is(err, placement.ErrAlreadyAnswered),
		errors.As(err, &saveConflict):
		return http.StatusConflict, "conflict"

	case errors.As(err, &genFailed), errors.As(err, &noProviders):
		return http.StatusBadGateway, "generation_failed"

	case errors.As(err, &gradeRange):
		return http.StatusBadGateway, "grading_out_of_range"

	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
