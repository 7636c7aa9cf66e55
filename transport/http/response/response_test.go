package response_test

import (
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"todo/shared/constant"
	"todo/shared/failure"
	"todo/transport/http/response"
)

type item struct {
	ID string `json:"id"`
}

func seqOf(items []item, err error) iter.Seq2[item, error] {
	return func(yield func(item, error) bool) {
		for _, it := range items {
			if !yield(it, nil) {
				return
			}
		}

		if err != nil {
			yield(item{}, err)
		}
	}
}

func TestWithJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	response.WithJSON(rec, http.StatusCreated, item{ID: "1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, constant.ContentTypeJSON, rec.Header().Get(constant.RequestHeaderContentType))
	assert.JSONEq(t, `{"id":"1"}`, rec.Body.String())
}

func TestWithNoContent(t *testing.T) {
	rec := httptest.NewRecorder()

	response.WithNoContent(rec)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestWithError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedBody string
	}{
		{
			name:         "not found has empty body",
			err:          failure.NotFound("todo not found"),
			expectedCode: http.StatusNotFound,
			expectedBody: "",
		},
		{
			name:         "bad request",
			err:          failure.BadRequestFromString("request body is required"),
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"request body is required"}`,
		},
		{
			name:         "store fault",
			err:          errors.New("connection reset"),
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":"connection reset"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			response.WithError(rec, tt.err)

			assert.Equal(t, tt.expectedCode, rec.Code)

			if tt.expectedBody == "" {
				assert.Empty(t, rec.Body.String())
			} else {
				assert.JSONEq(t, tt.expectedBody, rec.Body.String())
			}
		})
	}
}

func TestWithJSONStream(t *testing.T) {
	tests := []struct {
		name         string
		seq          iter.Seq2[item, error]
		expectedCode int
		expectedBody string
		truncated    bool
	}{
		{
			name:         "elements",
			seq:          seqOf([]item{{ID: "1"}, {ID: "2"}}, nil),
			expectedCode: http.StatusOK,
			expectedBody: `[{"id":"1"},{"id":"2"}]`,
		},
		{
			name:         "empty",
			seq:          seqOf(nil, nil),
			expectedCode: http.StatusOK,
			expectedBody: `[]`,
		},
		{
			name:         "error before first element",
			seq:          seqOf(nil, errors.New("store down")),
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":"store down"}`,
		},
		{
			name:         "error mid stream",
			seq:          seqOf([]item{{ID: "1"}}, errors.New("store down")),
			expectedCode: http.StatusOK,
			expectedBody: "[{\"id\":\"1\"}\n",
			truncated:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			response.WithJSONStream(rec, tt.seq)

			assert.Equal(t, tt.expectedCode, rec.Code)

			if tt.truncated {
				assert.Equal(t, tt.expectedBody, rec.Body.String())
			} else {
				assert.JSONEq(t, tt.expectedBody, rec.Body.String())
			}
		})
	}
}

func TestWithEventStream(t *testing.T) {
	rec := httptest.NewRecorder()

	response.WithEventStream(rec, seqOf([]item{{ID: "1"}, {ID: "2"}}, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, constant.ContentTypeEventStream, rec.Header().Get(constant.RequestHeaderContentType))
	assert.Equal(t, "data: {\"id\":\"1\"}\n\ndata: {\"id\":\"2\"}\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestWithEventStream_ErrorBeforeFirstElement(t *testing.T) {
	rec := httptest.NewRecorder()

	response.WithEventStream(rec, seqOf(nil, failure.NotFound("gone")))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDefaultResponses(t *testing.T) {
	rec := httptest.NewRecorder()
	response.WithRequestLimitExceeded(rec)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"message":"REQUEST LIMIT EXCEEDED"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	response.WithPreparingShutdown(rec)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"message":"SERVER PREPARING TO SHUT DOWN"}`, rec.Body.String())
}
