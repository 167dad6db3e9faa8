package llm

import (
	"net/url"
	"strings"

	"github.com/fleveque/motqot/internal/model"
)

// CleanQuote trims whitespace, then removes at most one leading and at most
// one trailing quotation mark (" or '). The two ends are handled
// independently, so `"hi` becomes `hi`.
func CleanQuote(s string) string {
	s = strings.TrimSpace(s)
	if s != "" && isQuoteChar(s[0]) {
		s = s[1:]
	}
	if s != "" && isQuoteChar(s[len(s)-1]) {
		s = s[:len(s)-1]
	}
	return s
}

func isQuoteChar(b byte) bool {
	return b == '"' || b == '\''
}

// ChatCompletionsURL returns the target URL for a base URL.
func ChatCompletionsURL(baseURL string) string {
	return model.NormalizeBaseURL(baseURL) + "chat/completions"
}

// ProviderHost returns the host part of a base URL, used to label
// generation records and to route the auto transport.
func ProviderHost(baseURL string) string {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Host == "" {
		return baseURL
	}
	return u.Host
}
