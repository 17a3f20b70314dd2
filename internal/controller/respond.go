package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/voicecampaign-backend/internal/errors"
)

type errorBody struct {
	Message string                 `json:"message"`
	Errors  []appErrors.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Message: message})
}

// urlID parses the {id} path parameter.
func urlID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil
}

// fail maps err onto a status code. notFound and failure are the messages
// for 404 and 500; internal details are logged, never returned.
func fail(w http.ResponseWriter, log *zap.Logger, err error, notFound, failure string) {
	var verr *appErrors.ValidationError
	var conflict *appErrors.ConflictError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: verr.Message, Errors: verr.Fields})
	case appErrors.IsNotFound(err):
		if notFound == "" {
			notFound = err.Error()
		}
		writeMessage(w, http.StatusNotFound, notFound)
	case errors.As(err, &conflict):
		writeMessage(w, http.StatusConflict, conflict.Error())
	case errors.Is(err, appErrors.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "Invalid username or password")
	default:
		if log != nil {
			log.Error(failure, zap.Error(err))
		}
		writeMessage(w, http.StatusInternalServerError, failure)
	}
}
