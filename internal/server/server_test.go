package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cherrymixy/signum/internal/canvas"
	"github.com/cherrymixy/signum/internal/config"
	"github.com/cherrymixy/signum/internal/core"
	"github.com/cherrymixy/signum/internal/llm"
)

const stubResponse = `{
	"observation": ["x"],
	"connotation": [],
	"decoding_hypotheses": [{"label": "L", "probability": 0.7, "rationale": "r"}],
	"risks": [],
	"edit_suggestions": []
}`

type stubVision struct{}

func (stubVision) Analyze(ctx context.Context, system, prompt string, img llm.Image) (string, error) {
	return stubResponse, nil
}

func newTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Server.UploadDir = t.TempDir()
	cfg.Canvas.StateDir = t.TempDir()
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = "gpt-4o-mini"

	srv, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	// No network in tests: swap the provider behind the orchestrator.
	srv.orch = core.NewOrchestrator(srv.store, srv.registry, stubVision{}, cfg.Prompts, zap.NewNop())
	return srv, srv.SetupRouter()
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func uploadPNG(t *testing.T, r *gin.Engine, name string) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			ImageID string `json:"imageId"`
			URL     string `json:"url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.ImageID)
	assert.True(t, strings.HasPrefix(resp.Data.URL, "/api/images/"))
	return resp.Data.ImageID
}

func TestUploadAndServeImage(t *testing.T) {
	_, r := newTestServer(t)
	id := uploadPNG(t, r, "poster.png")

	w := doJSON(r, http.MethodGet, "/api/images/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "png-bytes", w.Body.String())

	w = doJSON(r, http.MethodGet, "/api/images/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCanvasRunFlow(t *testing.T) {
	_, r := newTestServer(t)
	assetID := uploadPNG(t, r, "poster.png")

	w := doJSON(r, http.MethodPost, "/api/canvas/nodes", gin.H{
		"id":       "src",
		"kind":     "source",
		"position": gin.H{"x": 1, "y": 2},
		"source":   gin.H{"assetId": assetID},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/canvas/nodes", gin.H{
		"id":   "sink",
		"kind": "sink",
		"sink": gin.H{
			"intentText":    "test",
			"targetPreset":  "general",
			"contextPreset": "poster",
			"status":        "idle",
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/canvas/edges", gin.H{
		"source": "src",
		"target": "sink",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/canvas/nodes/sink/run", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var node canvas.Node
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &node))
	require.NotNil(t, node.Sink)
	assert.Equal(t, canvas.StatusCompleted, node.Sink.Status)
	require.NotNil(t, node.Sink.Result)
	assert.Equal(t, 0.7, node.Sink.Result.DecodingHypotheses[0].Probability)
	require.NotNil(t, node.Sink.LastRun)
	assert.Equal(t, assetID, node.Sink.LastRun.AssetID)
}

func TestRunWithoutUpstreamFailsInline(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(r, http.MethodPost, "/api/canvas/nodes", gin.H{
		"id":   "sink",
		"kind": "sink",
		"sink": gin.H{"intentText": "t", "targetPreset": "g", "contextPreset": "p", "status": "idle"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/api/canvas/nodes/sink/run", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var node canvas.Node
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &node))
	assert.Equal(t, canvas.StatusFailed, node.Sink.Status)
	assert.NotEmpty(t, node.Sink.ErrorMessage)

	w = doJSON(r, http.MethodPost, "/api/canvas/nodes/unknown/run", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddNodeDuplicateID(t *testing.T) {
	_, r := newTestServer(t)

	body := gin.H{"id": "n1", "kind": "source"}
	require.Equal(t, http.StatusOK, doJSON(r, http.MethodPost, "/api/canvas/nodes", body).Code)
	assert.Equal(t, http.StatusConflict, doJSON(r, http.MethodPost, "/api/canvas/nodes", body).Code)
}

func TestPatchNode(t *testing.T) {
	_, r := newTestServer(t)
	require.Equal(t, http.StatusOK, doJSON(r, http.MethodPost, "/api/canvas/nodes", gin.H{
		"id": "sink", "kind": "sink",
	}).Code)

	w := doJSON(r, http.MethodPatch, "/api/canvas/nodes/sink", gin.H{
		"sink": gin.H{"intentText": "hello"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var node canvas.Node
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &node))
	assert.Equal(t, "hello", node.Sink.IntentText)

	w = doJSON(r, http.MethodPatch, "/api/canvas/nodes/missing", gin.H{
		"sink": gin.H{"intentText": "hello"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyzeEndpointValidation(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(r, http.MethodPost, "/api/analysis/analyze", gin.H{
		"imageId": "not-a-uuid", "intentText": "t", "targetPreset": "g", "contextPreset": "p",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/analysis/analyze", gin.H{
		"imageId": "2f0b2a1e-7c2b-4ed0-9a5a-0a4f8f6f9d11", "intentText": "t", "targetPreset": "g", "contextPreset": "p",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyzeEndpointSuccess(t *testing.T) {
	_, r := newTestServer(t)
	assetID := uploadPNG(t, r, "a.png")

	w := doJSON(r, http.MethodPost, "/api/analysis/analyze", gin.H{
		"imageId": assetID, "intentText": "t", "targetPreset": "g", "contextPreset": "p",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			AnalysisID string          `json:"analysisId"`
			Result     json.RawMessage `json:"result"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.AnalysisID)
	assert.Contains(t, string(resp.Data.Result), "decoding_hypotheses")
}

func TestClearCanvas(t *testing.T) {
	_, r := newTestServer(t)
	require.Equal(t, http.StatusOK, doJSON(r, http.MethodPost, "/api/canvas/nodes", gin.H{
		"id": "n1", "kind": "source",
	}).Code)

	require.Equal(t, http.StatusOK, doJSON(r, http.MethodDelete, "/api/canvas", nil).Code)

	var snap canvas.Snapshot
	w := doJSON(r, http.MethodGet, "/api/canvas", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Empty(t, snap.Nodes)
}
