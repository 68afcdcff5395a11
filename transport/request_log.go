package transport

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	green      = "\033[32m"
	blue       = "\033[34m"
	cyan       = "\033[36m"
	yellow     = "\033[33m"
	magenta    = "\033[35m"
	gray       = "\033[90m"
	resetColor = "\033[0m"
)

var methodColors = map[string]string{
	http.MethodGet:    green,
	http.MethodPost:   blue,
	http.MethodPut:    cyan,
	http.MethodDelete: yellow,
	http.MethodPatch:  magenta,
}

// requestLog logs every request after decoration, with a coloured method.
type requestLog struct {
	next   http.RoundTripper
	logger zerolog.Logger
}

func (l *requestLog) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := l.next.RoundTrip(req)

	event := l.logger.Debug()
	if err != nil {
		event = l.logger.Warn().Err(err)
	} else {
		event = event.Int("status", resp.StatusCode)
	}
	event.Dur("took", time.Since(start)).Msgf("[%-19s] %s", displayMethod(req.Method), req.URL.RequestURI())
	return resp, err
}

func displayMethod(method string) string {
	padded := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + padded + resetColor
	}
	return gray + padded + resetColor
}
