package response

import (
	"encoding/json"
	"iter"
	"net/http"

	"todo/shared/constant"
	"todo/shared/failure"
	"todo/shared/logger"
)

type Error struct {
	Error *string `json:"error,omitempty"`
}

type Message struct {
	Message *string `json:"message,omitempty"`
}

// WithMessage sends a response with a simple text message
func WithMessage(writer http.ResponseWriter, code int, message string) {
	response(writer, code, Message{Message: &message})
}

// WithJSON sends a response containing a JSON object
func WithJSON(writer http.ResponseWriter, code int, jsonPayload any) {
	response(writer, code, jsonPayload)
}

func WithNoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

// WithError sends a response with an error message. Not found responses carry no body.
func WithError(writer http.ResponseWriter, err error) {
	code := failure.GetCode(err)
	if code == http.StatusNotFound {
		writer.WriteHeader(code)

		return
	}

	errMsg := err.Error()

	response(writer, code, Error{Error: &errMsg})
}

// WithJSONStream writes seq as a JSON array, encoding one element at a time. The status line is held
// back until the first element or the end of seq, so an error raised before anything was produced is
// still reported as a regular error response. An error after that point truncates the body.
func WithJSONStream[T any](writer http.ResponseWriter, seq iter.Seq2[T, error]) {
	encoder := json.NewEncoder(writer)
	started := false

	for item, err := range seq {
		if err != nil {
			if !started {
				WithError(writer, err)

				return
			}

			logger.ErrorWithStack(err)

			return
		}

		separator := ","
		if !started {
			writer.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
			writer.WriteHeader(http.StatusOK)

			started = true
			separator = "["
		}

		if _, err := writer.Write([]byte(separator)); err != nil {
			logger.ErrorWithStack(err)

			return
		}

		if err := encoder.Encode(item); err != nil {
			logger.ErrorWithStack(err)

			return
		}
	}

	if !started {
		writer.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
		writer.WriteHeader(http.StatusOK)

		if _, err := writer.Write([]byte("[]")); err != nil {
			logger.ErrorWithStack(err)
		}

		return
	}

	if _, err := writer.Write([]byte("]")); err != nil {
		logger.ErrorWithStack(err)
	}
}

// WithEventStream writes every element of seq as a server-sent event and flushes after each one.
func WithEventStream[T any](writer http.ResponseWriter, seq iter.Seq2[T, error]) {
	flusher, _ := writer.(http.Flusher)
	started := false

	for item, err := range seq {
		if err != nil {
			if !started {
				WithError(writer, err)

				return
			}

			logger.ErrorWithStack(err)

			return
		}

		if !started {
			writer.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeEventStream)
			writer.Header().Set(constant.RequestHeaderCacheControl, "no-cache")
			writer.WriteHeader(http.StatusOK)

			started = true
		}

		payload, err := json.Marshal(item)
		if err != nil {
			logger.ErrorWithStack(err)

			return
		}

		if _, err := writer.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
			logger.ErrorWithStack(err)

			return
		}

		if flusher != nil {
			flusher.Flush()
		}
	}

	if !started {
		writer.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeEventStream)
		writer.Header().Set(constant.RequestHeaderCacheControl, "no-cache")
		writer.WriteHeader(http.StatusOK)
	}
}

// WithRequestLimitExceeded sends a default response for when the request limit is exceeded
func WithRequestLimitExceeded(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusTooManyRequests, constant.ResponseErrorRequestLimitExceeded)
}

// WithPreparingShutdown sends a default response for when the server is preparing to shut down
func WithPreparingShutdown(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorPrepareShutdown)
}

func response(writer http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.ErrorWithStack(err)

		return
	}

	writer.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	writer.WriteHeader(code)
	_, err = writer.Write(response)

	if err != nil {
		logger.ErrorWithStack(err)
	}
}
