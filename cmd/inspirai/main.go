// inspirai - poem and essay generator backed by Gemini.
//
// Provider credential:
//
//	GEMINI_API_KEY                  - Gemini API key (a value linked in with
//	                                  -ldflags "-X github.com/abdhe/inspirai/pkg/config.buildCredential=..."
//	                                  takes precedence)
//
// Service settings (also readable from --config YAML):
//
//	INSPIRAI_HTTP_ADDR              - HTTP API address (default: :8080)
//	INSPIRAI_GRPC_ADDR              - gRPC address (default: :50051)
//	INSPIRAI_GEMINI_BASE_URL        - Gemini REST base URL
//	INSPIRAI_GEMINI_MODEL           - model name (default: gemini-2.0-flash)
//	INSPIRAI_SERVER_REQUEST_TIMEOUT - per-generation deadline (default: none)
//	INSPIRAI_BUSY_TTL               - busy lease lifetime in Redis (default: 2m)
//	INSPIRAI_REDIS_ADDR             - Redis for the busy guard (default: in-process)
//	INSPIRAI_REDIS_PASSWORD         - Redis password
//	INSPIRAI_REDIS_DB               - Redis database (default: 0)
//	INSPIRAI_LOG_LEVEL              - debug, info, warn, error (default: info)
//	INSPIRAI_LOG_FORMAT             - json or text (default: json)
//	INSPIRAI_TRACING_ENDPOINT       - OTLP/gRPC collector (default: disabled)
//	INSPIRAI_TRACING_SAMPLE_RATE    - trace sampling ratio (default: 1.0)
//	INSPIRAI_CORS_ALLOWED_ORIGINS   - comma-separated origins (default: *)
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
