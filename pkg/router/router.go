package router

import (
	"strings"

	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/env"
)

var BaseURL, CORSOrigin string
var GZipLevel int
var bodyLimitBytes int

func init() {
	// HTTP_BASE_URL: empty by default (no prefix)
	BaseURL = normalizeBaseURL(env.GetEnvStringOrDefault("HTTP_BASE_URL", ""))

	// HTTP_CORS_ORIGIN: default "*" (allow all)
	CORSOrigin = env.GetEnvStringOrDefault("HTTP_CORS_ORIGIN", "*")

	// HTTP_BODY_LIMIT_SIZE: default "64M", room for a batch of 5M images
	bodyLimitBytes = env.GetEnvSizeOrDefault("HTTP_BODY_LIMIT_SIZE", 64*1024*1024)

	// HTTP_GZIP_LEVEL: default 1
	GZipLevel = env.GetEnvIntOrDefault("HTTP_GZIP_LEVEL", 1)
}

func BodyLimitBytes() int {
	return bodyLimitBytes
}

func normalizeBaseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		return ""
	}
	return "/" + strings.TrimLeft(base, "/")
}
