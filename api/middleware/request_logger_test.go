// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/vault/log"
)

type record struct {
	msg string
	ctx []any
}

// recordingLogger keeps Info records and drops the rest.
type recordingLogger struct {
	records []record
}

func (l *recordingLogger) With(_ ...any) log.Logger { return l }
func (l *recordingLogger) Trace(_ string, _ ...any) {}
func (l *recordingLogger) Debug(_ string, _ ...any) {}
func (l *recordingLogger) Warn(_ string, _ ...any)  {}
func (l *recordingLogger) Error(_ string, _ ...any) {}
func (l *recordingLogger) Info(msg string, ctx ...any) {
	l.records = append(l.records, record{msg, ctx})
}

// field returns the value logged under key.
func (r record) field(key string) any {
	for i := 0; i+1 < len(r.ctx); i += 2 {
		if r.ctx[i] == key {
			return r.ctx[i+1]
		}
	}
	return nil
}

func replyWith(status int, delay time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(delay)
		w.WriteHeader(status)
	}
}

func serve(logger log.Logger, enabled bool, slow time.Duration, log5xx bool, next http.Handler, req *http.Request) *httptest.ResponseRecorder {
	var flag atomic.Bool
	flag.Store(enabled)
	rr := httptest.NewRecorder()
	RequestLoggerMiddleware(logger, &flag, slow, log5xx)(next).ServeHTTP(rr, req)
	return rr
}

func TestRequestLogger(t *testing.T) {
	const depositBody = `{"amount":"0x64"}`

	tests := []struct {
		name    string
		next    http.HandlerFunc
		enabled bool
		slow    time.Duration
		log5xx  bool
		logged  bool
	}{
		{"enabled deposit", replyWith(http.StatusOK, 0), true, 0, false, true},
		{"disabled deposit", replyWith(http.StatusOK, 0), false, 0, false, false},
		{"slow deposit", replyWith(http.StatusOK, 15*time.Millisecond), false, 5 * time.Millisecond, false, true},
		{"fast deposit under threshold", replyWith(http.StatusOK, 0), false, time.Second, false, false},
		{"vault store failure", replyWith(http.StatusInternalServerError, 0), false, 0, true, true},
		{"vault store failure unlogged", replyWith(http.StatusInternalServerError, 0), false, 0, false, false},
		{"unauthorized is not a failure", replyWith(http.StatusUnauthorized, 0), false, 0, true, false},
		{"rejected batch is not a failure", replyWith(http.StatusConflict, 0), false, 0, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &recordingLogger{}
			req := httptest.NewRequest(http.MethodPost, "/vault/deposit", strings.NewReader(depositBody))

			rr := serve(logger, tt.enabled, tt.slow, tt.log5xx, tt.next, req)

			if !tt.logged {
				assert.Empty(t, logger.records)
				return
			}
			require.Len(t, logger.records, 1)
			rec := logger.records[0]
			assert.Equal(t, "API Request", rec.msg)
			assert.Equal(t, "/vault/deposit", rec.field("URI"))
			assert.Equal(t, http.MethodPost, rec.field("Method"))
			assert.Equal(t, rr.Code, rec.field("Status"))
			assert.Equal(t, depositBody, rec.field("Body"))
			assert.IsType(t, int64(0), rec.field("Timestamp"))
		})
	}
}

func TestRequestLoggerRestoresBody(t *testing.T) {
	const body = `{"to":"0x7567d83b7b8d80addcb281a71d54fc7b3364ffed","amount":"0x1"}`

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = string(b)
	})

	logger := &recordingLogger{}
	req := httptest.NewRequest(http.MethodPost, "/vault/transfer", strings.NewReader(body))
	rr := serve(logger, true, 0, false, next, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, body, seen)
	require.Len(t, logger.records, 1)
	assert.Equal(t, http.StatusOK, logger.records[0].field("Status"))
}

func TestRequestLoggerTruncatesBody(t *testing.T) {
	body := strings.Repeat("a", maxLoggedBody+10)

	logger := &recordingLogger{}
	req := httptest.NewRequest(http.MethodPost, "/vault/notify", strings.NewReader(body))
	serve(logger, true, 0, false, replyWith(http.StatusOK, 0), req)

	require.Len(t, logger.records, 1)
	assert.Equal(t, body[:maxLoggedBody]+"...", logger.records[0].field("Body"))
}
