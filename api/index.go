package handler

import (
	"net/http"
	"sync"

	"todo/config"
	"todo/di"
	"todo/shared/logger"
	transport "todo/transport/http"
)

var (
	app  *transport.HTTP
	once sync.Once
)

// Handler is the serverless entry point. The application graph is built on the first invocation and
// reused by warm instances.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		cfg := config.Get()

		logger.InitLogger(cfg)

		logger.SetLogLevel(cfg)

		app = di.InitializeService()
	})

	r.RequestURI = r.URL.String()

	app.ServeHTTP(w, r)
}
