package middleware

import "net/http"

// AllowAllOrigins はリクエストのOriginをそのまま許可する設定値。
const AllowAllOrigins = "*"

// NewCORSMiddleware はCORSミドルウェアを返す。
// allowedOriginが"*"の場合はリクエストのOriginを反射し（Originがなければ"*"）、
// それ以外は指定されたオリジンだけを返す。
// 要求されたヘッダーはそのまま許可し、OPTIONSプリフライトリクエストには204で応答する。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := allowedOrigin
			if allowedOrigin == AllowAllOrigins {
				origin = r.Header.Get("Origin")
				if origin == "" {
					origin = AllowAllOrigins
				}
				w.Header().Add("Vary", "Origin")
			}

			allowHeaders := r.Header.Get("Access-Control-Request-Headers")
			if allowHeaders == "" {
				allowHeaders = "*"
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)

			// OPTIONSプリフライトリクエストには204で応答
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
