package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"todo/config"
	"todo/infras/otel/mocks"
	"todo/shared/cache"
	cacheMocks "todo/shared/cache/mocks"
	"todo/shared/constant"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestID(t *testing.T) {
	m := NewAppMiddleware(mocks.NewOtel(), &config.Config{}, nil)

	tests := []struct {
		name     string
		incoming string
	}{
		{name: "generated", incoming: ""},
		{name: "propagated", incoming: "req-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string

			handler := m.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen, _ = r.Context().Value(constant.ContextKeyRequestID).(string)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(constant.RequestHeaderRequestID, tt.incoming)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(constant.RequestHeaderRequestID))

			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, seen)
			}
		})
	}
}

func TestAccessLogAndTracing_PassThrough(t *testing.T) {
	m := NewAppMiddleware(mocks.NewOtel(), &config.Config{}, nil)

	handler := m.AccessLog(m.Tracing(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestCORS(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.CORS.Enable = true
	cfg.App.CORS.AllowedOrigins = []string{"https://example.com"}
	cfg.App.CORS.AllowedMethods = []string{http.MethodGet}

	m := NewAppMiddleware(mocks.NewOtel(), cfg, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://example.com")

	rec := httptest.NewRecorder()
	m.CORS()(okHandler).ServeHTTP(rec, req)

	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Disabled(t *testing.T) {
	m := NewAppMiddleware(mocks.NewOtel(), &config.Config{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://example.com")

	rec := httptest.NewRecorder()
	m.CORS()(okHandler).ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	const key = "limiter:10.0.0.1:test-agent"

	tests := []struct {
		name              string
		setupMock         func(m *cacheMocks.MockRedisCache)
		expectedCode      int
		expectedRemaining string
	}{
		{
			name: "first request opens the window",
			setupMock: func(m *cacheMocks.MockRedisCache) {
				m.EXPECT().Incr(gomock.Any(), key, 60).Return(int64(1), nil)
			},
			expectedCode:      http.StatusOK,
			expectedRemaining: "1",
		},
		{
			name: "last request allowed in window",
			setupMock: func(m *cacheMocks.MockRedisCache) {
				m.EXPECT().Incr(gomock.Any(), key, 60).Return(int64(2), nil)
			},
			expectedCode:      http.StatusOK,
			expectedRemaining: "0",
		},
		{
			name: "limit exceeded",
			setupMock: func(m *cacheMocks.MockRedisCache) {
				m.EXPECT().Incr(gomock.Any(), key, 60).Return(int64(3), nil)
			},
			expectedCode:      http.StatusTooManyRequests,
			expectedRemaining: "0",
		},
		{
			name: "cache fault lets request through",
			setupMock: func(m *cacheMocks.MockRedisCache) {
				m.EXPECT().Incr(gomock.Any(), key, 60).Return(int64(0), errors.New("connection refused"))
			},
			expectedCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockCache := cacheMocks.NewMockRedisCache(ctrl)
			tt.setupMock(mockCache)

			m := NewAppMiddleware(mocks.NewOtel(), limiterConfig(2, 60), mockCache)

			rec := httptest.NewRecorder()
			m.RateLimit()(okHandler).ServeHTTP(rec, limitedRequest())

			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.Equal(t, tt.expectedRemaining, rec.Header().Get(constant.RequestHeaderRateLimitRemaining))
		})
	}
}

// windowCounter counts hits the way a fixed window does: the expiry is set by the first hit only.
type windowCounter struct {
	cache.RedisCache

	hits      map[string]int64
	expiresAt map[string]int
	now       int
}

func (c *windowCounter) Incr(_ context.Context, key string, duration int) (int64, error) {
	if exp, ok := c.expiresAt[key]; ok && c.now >= exp {
		delete(c.hits, key)
		delete(c.expiresAt, key)
	}

	c.hits[key]++

	if _, ok := c.expiresAt[key]; !ok {
		c.expiresAt[key] = c.now + duration
	}

	return c.hits[key], nil
}

func TestRateLimit_SteadyTrafficGetsFreshWindow(t *testing.T) {
	counter := &windowCounter{hits: map[string]int64{}, expiresAt: map[string]int{}}
	handler := NewAppMiddleware(mocks.NewOtel(), limiterConfig(3, 10), counter).RateLimit()(okHandler)

	var codes []int

	// one request per second for two windows
	for counter.now = 0; counter.now < 20; counter.now++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, limitedRequest())

		codes = append(codes, rec.Code)
	}

	for window := 0; window < 2; window++ {
		allowed := 0

		for _, code := range codes[window*10 : (window+1)*10] {
			if code == http.StatusOK {
				allowed++
			}
		}

		assert.Equal(t, 3, allowed, "window %d", window)
	}

	assert.Equal(t, http.StatusOK, codes[10])
}

func TestRateLimit_Disabled(t *testing.T) {
	m := NewAppMiddleware(mocks.NewOtel(), &config.Config{}, nil)

	rec := httptest.NewRecorder()
	m.RateLimit()(okHandler).ServeHTTP(rec, limitedRequest())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(constant.RequestHeaderRateLimit))
}

func limiterConfig(limit, window int) *config.Config {
	cfg := &config.Config{}
	cfg.App.RateLimiter.Enable = true
	cfg.App.RateLimiter.MaxRequests = limit
	cfg.App.RateLimiter.WindowSeconds = window

	return cfg
}

func limitedRequest() *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(constant.RequestHeaderForwardedFor, "10.0.0.1, 10.0.0.2")
	req.Header.Set(constant.RequestHeaderUserAgent, "test-agent")

	return req
}

func TestGetClientIP(t *testing.T) {
	m := &appMiddleware{}

	tests := []struct {
		name     string
		headers  map[string]string
		expected string
	}{
		{name: "forwarded for", headers: map[string]string{constant.RequestHeaderForwardedFor: " 1.1.1.1 , 2.2.2.2"}, expected: "1.1.1.1"},
		{name: "real ip", headers: map[string]string{constant.RequestHeaderRealIP: "3.3.3.3"}, expected: "3.3.3.3"},
		{name: "remote addr", headers: nil, expected: "192.0.2.1:1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.expected, m.getClientIP(req))
		})
	}
}
