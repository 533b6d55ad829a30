package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// sensitiveKeys contains attribute keys whose values are always masked.
var sensitiveKeys = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"password":      true,
	"passwd":        true,
	"passphrase":    true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"access_token":  true,
	"refresh_token": true,
	"private_key":   true,
	"secret_key":    true,
	"session_id":    true,
	"credential":    true,
	"credentials":   true,
	"key_material":  true,
}

// sensitiveKeywords mark a key as sensitive when contained in it.
// The bare word "key" is not listed because of keys like "key_type".
var sensitiveKeywords = []string{
	"password", "passwd", "passphrase", "secret", "token", "credential", "private",
}

// sensitivePatterns match values that are masked regardless of their key.
var sensitivePatterns = []*regexp.Regexp{
	// JWT tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	// Bearer and basic authorization values
	regexp.MustCompile(`(?i)^(bearer|basic)\s+\S+`),
	// AWS access keys
	regexp.MustCompile(`\b(AKIA|ASIA)[0-9A-Z]{16}\b`),
	// GitHub tokens
	regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`),
	// PEM, OpenSSH and PGP private key blocks
	regexp.MustCompile(`(?i)-----BEGIN [A-Z ]*PRIVATE KEY( BLOCK)?-----`),
	// PuTTY private keys
	regexp.MustCompile(`PuTTY-User-Key-File-\d`),
	// Tor v3 hidden service secret keys
	regexp.MustCompile(`== ed25519v1-secret:`),
}

// sensitiveQueryParams are URL query parameters whose values are masked.
var sensitiveQueryParams = map[string]bool{
	"token":        true,
	"access_token": true,
	"auth":         true,
	"key":          true,
	"api_key":      true,
	"apikey":       true,
	"password":     true,
	"sig":          true,
	"signature":    true,
	"session":      true,
	"sessionid":    true,
}

// RedactingHandler wraps an slog.Handler and masks sensitive attribute values
// before passing records to the underlying handler.
//
// Design decision: We use a handler wrapper rather than a custom logger so
// that every component keeps using the standard slog API and any underlying
// handler (text, JSON) can be used.
type RedactingHandler struct {
	handler slog.Handler
}

// NewRedactingHandler creates a RedactingHandler wrapping handler.
// If handler is nil, slog.Default().Handler() is used.
func NewRedactingHandler(handler slog.Handler) *RedactingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactingHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it to the underlying handler.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	redacted := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, redacted)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactingHandler{handler: h.handler.WithAttrs(redacted)}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: h.handler.WithGroup(name)}
}

// redactAttr masks a single attribute, recursively handling groups.
func redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			redacted[i] = redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}

	v := a.Value.String()
	if isSensitiveValue(v) {
		return slog.String(a.Key, MaskValue)
	}
	if looksLikeURL(v) {
		return slog.String(a.Key, RedactURL(v))
	}
	return a
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if sensitiveKeys[k] {
		return true
	}
	for _, kw := range sensitiveKeywords {
		if strings.Contains(k, kw) {
			return true
		}
	}
	return false
}

func isSensitiveValue(v string) bool {
	for _, p := range sensitivePatterns {
		if p.MatchString(v) {
			return true
		}
	}
	return false
}

func looksLikeURL(v string) bool {
	return strings.Contains(v, "://") && !strings.ContainsAny(v, " \n\t")
}

// RedactURL masks the userinfo and credential query parameters of rawURL.
// Values that do not parse as URLs are returned unchanged.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}

	changed := false
	if u.User != nil {
		u.User = url.User(MaskValue)
		changed = true
	}

	if u.RawQuery != "" {
		q := u.Query()
		for name := range q {
			if sensitiveQueryParams[strings.ToLower(name)] {
				q.Set(name, MaskValue)
				changed = true
			}
		}
		if changed {
			u.RawQuery = q.Encode()
		}
	}

	if !changed {
		return rawURL
	}
	s := u.String()
	// url.User escapes the mask; keep it readable.
	return strings.ReplaceAll(s, url.QueryEscape(MaskValue), MaskValue)
}

// NewLogger creates a text slog.Logger with redaction.
// When verbose is true the level is Debug, otherwise Warn.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewRedactingHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewJSONLogger creates a JSON slog.Logger with redaction.
// When verbose is true the level is Debug, otherwise Warn.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewRedactingHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
