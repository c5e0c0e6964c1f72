package middlewares

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"shiftreport.com/shiftreport/core"
	"shiftreport.com/shiftreport/core/coretest"
	"shiftreport.com/shiftreport/model"
	"shiftreport.com/shiftreport/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newIssuer(t *testing.T) *security.TokenIssuer {
	secret := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	issuer, err := security.NewTokenIssuer(secret, "shiftreport", time.Minute, time.Hour)
	require.NoError(t, err)
	return issuer
}

func serve(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthentication(t *testing.T) {
	issuer := newIssuer(t)
	blacklist := security.NewMemoryBlacklist()
	user := &model.User{ID: uuid.New(), Username: "alice", Role: model.RoleEmployee}

	r := gin.New()
	r.GET("/protected", Authentication(issuer, blacklist), func(c *gin.Context) {
		c.String(http.StatusOK, Identity(c).Username)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "garbage").Code)

	pair, err := issuer.Issue(user)
	require.NoError(t, err)

	w := serve(r, pair.Access)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(r, pair.Refresh).Code)

	claims, err := issuer.Parse(pair.Access, security.AccessToken)
	require.NoError(t, err)
	require.NoError(t, blacklist.Revoke(context.Background(), claims.ID, time.Minute))
	assert.Equal(t, http.StatusUnauthorized, serve(r, pair.Access).Code)
}

func TestRequireRole(t *testing.T) {
	issuer := newIssuer(t)
	dm := coretest.NewDatabase(t)
	manager := coretest.CreateUser(t, dm, "boss", model.RoleManager)
	employee := coretest.CreateUser(t, dm, "worker", model.RoleEmployee)

	r := gin.New()
	r.GET("/protected",
		Authentication(issuer, security.NewMemoryBlacklist()),
		RequireRole(core.NewUserDirectory(dm), model.RoleManager),
		func(c *gin.Context) { c.Status(http.StatusNoContent) },
	)

	token, err := issuer.IssueAccess(manager)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, serve(r, token).Code)

	token, err = issuer.IssueAccess(employee)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, serve(r, token).Code)

	// role in a stale token does not grant access
	employee.Role = model.RoleManager
	token, err = issuer.IssueAccess(employee)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, serve(r, token).Code)
}

func TestRequestLoggerAndTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	obs, logs := observer.New(zapcore.InfoLevel)

	r := gin.New()
	r.Use(Tracing(), RequestLogger(zap.New(obs)))
	r.GET("/dailyreport/:date/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/dailyreport/2024-01-01/", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /dailyreport/:date/", spans[0].Name())

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Request completed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/dailyreport/:date/", fields["route"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, spans[0].SpanContext().TraceID().String(), fields["trace_id"])
}
