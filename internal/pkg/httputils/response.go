package httputils

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"tush00nka/chitchat/api/response"
)

const maxBodyBytes = 1 << 20

var ErrBadRequest = errors.New("invalid request format")

func ResponseError(w http.ResponseWriter, errorCode int, errorMessage string) {
	ResponseJSON(w, errorCode, response.ErrorResponse{
		Message: errorMessage,
	})
}

func ResponseMessage(w http.ResponseWriter, statusCode int, message string) {
	ResponseJSON(w, statusCode, response.MessageResponse{
		Message: message,
	})
}

func ResponseJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// заголовок уже отправлен, остаётся только залогировать
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// DecodeJSON читает один JSON объект из тела запроса в dst
func DecodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}
