package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/code-payments/moderation-gateway/metrics"
	"github.com/code-payments/moderation-gateway/moderation"
	"github.com/code-payments/moderation-gateway/moderation/memory"
	spool "github.com/code-payments/moderation-gateway/spool/memory"
)

type testEnv struct {
	text   *memory.TextGenerator
	router http.Handler
}

func newTestEnv(t *testing.T, text *memory.TextGenerator, detector moderation.AIDetector, labels moderation.LabelDetector, origins ...string) *testEnv {
	log := zap.NewNop()
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	collector := metrics.NewCollector("test")
	server := moderation.NewServer(log, text, detector, labels, spool.NewInMemory())
	return &testEnv{
		text:   text,
		router: NewRouter(log, NewHandler(log, server), collector, origins),
	}
}

func defaultEnv(t *testing.T) *testEnv {
	return newTestEnv(t,
		memory.NewTextGenerator(`{"classification": "safe", "explanation": "A greeting."}`),
		memory.NewAIDetector(0.1),
		memory.NewLabelDetector(),
	)
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func postText(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, RouteModerateText, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func imageRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, RouteModerateImage, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorInfo {
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestModerateText(t *testing.T) {
	env := defaultEnv(t)

	rec := env.do(postText(`{"user_id":1,"text":"hello"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, `{"classification": "safe", "explanation": "A greeting."}`, resp["analysis"])

	prompts := env.text.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], `"hello"`)
}

func TestModerateText_PassesMalformedOutputThrough(t *testing.T) {
	const raw = "Sure! ```json\n{\"classification\": \"toxic\"\n``` (truncated"
	env := newTestEnv(t, memory.NewTextGenerator(raw), memory.NewAIDetector(0), memory.NewLabelDetector())

	rec := env.do(postText(`{"user_id":7,"text":"you are awful"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp moderation.TextAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, raw, resp.Analysis)
}

func TestModerateText_LongTextNotTruncated(t *testing.T) {
	env := defaultEnv(t)
	long := strings.Repeat("abcdefghij", 50_000)

	body, err := json.Marshal(map[string]any{"user_id": 3, "text": long})
	require.NoError(t, err)

	rec := env.do(postText(string(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	prompts := env.text.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], long)
}

func TestModerateText_Validation(t *testing.T) {
	env := defaultEnv(t)

	for _, tc := range []struct {
		name   string
		body   string
		status int
	}{
		{"invalid json", `{"user_id":`, http.StatusBadRequest},
		{"not an object", `["hi"]`, http.StatusUnprocessableEntity},
		{"string user_id", `{"user_id":"one","text":"hi"}`, http.StatusUnprocessableEntity},
		{"fractional user_id", `{"user_id":1.5,"text":"hi"}`, http.StatusUnprocessableEntity},
		{"numeric text", `{"user_id":1,"text":42}`, http.StatusUnprocessableEntity},
		{"missing user_id", `{"text":"hi"}`, http.StatusUnprocessableEntity},
		{"missing text", `{"user_id":1}`, http.StatusUnprocessableEntity},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(postText(tc.body))
			require.Equal(t, tc.status, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec).Message)
		})
	}

	// Empty text is valid input
	rec := env.do(postText(`{"user_id":1,"text":"","extra":true}`))
	require.Equal(t, http.StatusOK, rec.Code)

	prompts := env.text.Prompts()
	require.Len(t, prompts, 1, "rejected requests should not reach the model")
	assert.Contains(t, prompts[0], `""`)
}

func TestModerateText_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t,
		memory.NewFailingTextGenerator(errors.New("quota exceeded")),
		memory.NewAIDetector(0), memory.NewLabelDetector(),
	)

	rec := env.do(postText(`{"user_id":1,"text":"hello"}`))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	info := decodeError(t, rec)
	assert.Equal(t, CodeUpstream, info.Code)
	assert.NotContains(t, info.Message, "quota", "upstream details should not leak")
}

func TestModerateImage(t *testing.T) {
	env := newTestEnv(t,
		memory.NewTextGenerator(""),
		memory.NewAIDetector(0.9),
		memory.NewLabelDetector(moderation.Label{Name: aws.String("Violence"), Confidence: aws.Float32(88.0)}),
	)

	rec := env.do(imageRequest(t, "file", "photo.jpg", []byte("\xff\xd8\xff\xe0jpeg-ish")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ai_generated": true, "aws_labels": [{"Name":"Violence","Confidence":88.0}]}`, rec.Body.String())
}

func TestModerateImage_BoundaryAndEmptyLabels(t *testing.T) {
	env := newTestEnv(t, memory.NewTextGenerator(""), memory.NewAIDetector(0.5), memory.NewLabelDetector())

	rec := env.do(imageRequest(t, "file", "photo.png", []byte("png-ish")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ai_generated": false, "aws_labels": []}`, rec.Body.String())
}

func TestModerateImage_AbsentScore(t *testing.T) {
	env := newTestEnv(t, memory.NewTextGenerator(""), memory.NewAbsentScoreDetector(), memory.NewLabelDetector())

	rec := env.do(imageRequest(t, "file", "photo.png", []byte("png-ish")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ai_generated": false, "aws_labels": []}`, rec.Body.String())
}

func TestModerateImage_Validation(t *testing.T) {
	env := defaultEnv(t)

	rec := env.do(imageRequest(t, "image", "photo.jpg", []byte("data")))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, "wrong field name")

	rec = env.do(imageRequest(t, "file", "photo.jpg", nil))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, "empty file")

	req := httptest.NewRequest(http.MethodPost, RouteModerateImage, strings.NewReader(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = env.do(req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, "not multipart")
}

func TestModerateImage_UpstreamFailure(t *testing.T) {
	for _, tc := range []struct {
		name     string
		detector moderation.AIDetector
		labels   moderation.LabelDetector
	}{
		{"detector", memory.NewFailingAIDetector(errors.New("down")), memory.NewLabelDetector()},
		{"labels", memory.NewAIDetector(0.1), memory.NewFailingLabelDetector(errors.New("down"))},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, memory.NewTextGenerator(""), tc.detector, tc.labels)

			rec := env.do(imageRequest(t, "file", "photo.jpg", []byte("data")))
			require.Equal(t, http.StatusBadGateway, rec.Code)
			assert.Equal(t, CodeUpstream, decodeError(t, rec).Code)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := defaultEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, RouteModerateText, nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Allow"), http.MethodPost)
	assert.Equal(t, CodeMethodNotAllowed, decodeError(t, rec).Code)
}

func TestNotFound(t *testing.T) {
	env := defaultEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/moderate-video", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, CodeNotFound, decodeError(t, rec).Code)
}

func TestCORS_AllowAll(t *testing.T) {
	env := defaultEnv(t)

	req := httptest.NewRequest(http.MethodOptions, RouteModerateImage, nil)
	req.Header.Set("Origin", "https://anything.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type, x-custom")

	rec := env.do(req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://anything.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Equal(t, "content-type, x-custom", rec.Header().Get("Access-Control-Allow-Headers"))

	req = postText(`{"user_id":1,"text":"hello"}`)
	req.Header.Set("Origin", "https://anything.example")
	rec = env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://anything.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_AllowList(t *testing.T) {
	env := newTestEnv(t, memory.NewTextGenerator("ok"), memory.NewAIDetector(0), memory.NewLabelDetector(), "https://app.example")

	req := httptest.NewRequest(http.MethodOptions, RouteModerateText, nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := env.do(req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, RouteModerateText, nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = env.do(req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	env := defaultEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, RouteHealth, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, RouteHealth, nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = env.do(req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestMetricsRoute(t *testing.T) {
	env := defaultEnv(t)

	env.do(postText(`{"user_id":1,"text":"hello"}`))

	rec := env.do(httptest.NewRequest(http.MethodGet, RouteMetrics, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_http_requests_total{method="POST",path="/moderate-text",status="200"} 1`)
}

func TestRecovery(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), Recovery(zap.NewNop()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CodeInternal, decodeError(t, rec).Code)
}

func TestRecovery_LoggedWithRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	// A handler without a server panics on the first moderation call.
	router := NewRouter(log, NewHandler(log, nil), nil, []string{"*"})

	req := postText(`{"user_id":1,"text":"hello"}`)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

	panics := logs.FilterMessage("panic recovered").All()
	require.Len(t, panics, 1)
	assert.Equal(t, "req-42", panics[0].ContextMap()["request_id"])

	requests := logs.FilterMessage("request").All()
	require.Len(t, requests, 1)
	assert.Equal(t, int64(http.StatusInternalServerError), requests[0].ContextMap()["status"])
	assert.Equal(t, "req-42", requests[0].ContextMap()["request_id"])
}
