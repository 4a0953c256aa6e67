// internal/gateway/middleware.go
package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/bootstrap"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/logger"
)

// MiddlewareStack 按顺序组装网关的中间件链。
// 顺序有讲究: RealIP 必须在限流取 IP 之前，Recoverer 要包住业务逻辑，
// 安全头在压缩之前写出。
func MiddlewareStack(cfg bootstrap.Config) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	})

	corsMiddleware := cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	})

	rateLimit := cfg.RateLimit.RequestLimit
	if rateLimit <= 0 {
		rateLimit = 60
	}
	window := cfg.RateLimit.Window
	if window <= 0 {
		window = time.Minute
	}

	return []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		requestLogger,
		middleware.Recoverer,
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		corsMiddleware,
		middleware.Compress(5),
		httprate.Limit(rateLimit, window, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
}

// requestLogger 记录每个请求的访问日志，挂上 trace_id 便于和链路对齐。
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("remote", r.RemoteAddr).
			Msg("request completed")
	})
}
