package agents

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takerupon/lp-generator/internal/core/generator/anthropic"
	"github.com/takerupon/lp-generator/internal/core/generator/gemini"
)

func anthropicStub(t *testing.T, reply func(system, prompt string) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("x-api-key"))

		var req struct {
			System   string `json:"system"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": reply(req.System, req.Messages[0].Content)},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func geminiStub(t *testing.T, generateReply string, imageBytes []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, ":generateContent"):
			resp := map[string]any{
				"candidates": []map[string]any{
					{"content": map[string]any{"parts": []map[string]any{{"text": generateReply}}}},
				},
			}
			_ = json.NewEncoder(w).Encode(resp)
		case strings.Contains(r.URL.Path, ":predict"):
			resp := map[string]any{
				"predictions": []map[string]any{
					{"bytesBase64Encoded": base64.StdEncoding.EncodeToString(imageBytes)},
				},
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
}

func TestWireframeStripsFence(t *testing.T) {
	srv := anthropicStub(t, func(system, prompt string) string {
		assert.Contains(t, system, "wireframes")
		assert.Contains(t, prompt, "EasySpeak")
		return "```html\n<html><body></body></html>\n```"
	})
	defer srv.Close()

	a := New(anthropic.NewClient(srv.URL, "test-key", "test-model", 0), nil, nil, "", "")
	out, err := a.Wireframe(context.Background(), "1. Service name: EasySpeak")
	require.NoError(t, err)
	assert.Equal(t, "<html><body></body></html>", out)
}

func TestScriptSendsBothArtifacts(t *testing.T) {
	srv := anthropicStub(t, func(_, prompt string) string {
		assert.Contains(t, prompt, "**HTML**:")
		assert.Contains(t, prompt, "**CSS**:")
		return "console.log('hi');"
	})
	defer srv.Close()

	a := New(anthropic.NewClient(srv.URL, "test-key", "test-model", 0), nil, nil, "", "")
	out, err := a.Script(context.Background(), "<html></html>", "body {}")
	require.NoError(t, err)
	assert.Equal(t, "console.log('hi');", out)
}

func TestHeroImages(t *testing.T) {
	promptJSON := "```json\n{\"placeholder_css_1.jpg\": \"a sunny classroom\"}\n```"
	imageBytes := []byte("jpeg-data")
	srv := geminiStub(t, promptJSON, imageBytes)
	defer srv.Close()

	client := gemini.NewClient(srv.URL, "test-key")
	a := New(nil, client, client, "gemini-test", "imagen-test")
	images, err := a.HeroImages(context.Background(), "<html></html>")
	require.NoError(t, err)

	require.Len(t, images, 1)
	assert.Equal(t, "placeholder_css_1.jpg", images[0].Name)
	assert.Equal(t, imageBytes, images[0].Data)
}

func TestHeroImagesRenderFailureIsSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Path, ":generateContent") {
			resp := map[string]any{
				"candidates": []map[string]any{
					{"content": map[string]any{"parts": []map[string]any{
						{"text": `{"placeholder_css_1.jpg": "a sunny classroom"}`},
					}}},
				},
			}
			_ = json.NewEncoder(w).Encode(resp)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 429, "message": "quota exhausted"},
		})
	}))
	defer srv.Close()

	client := gemini.NewClient(srv.URL, "test-key")
	a := New(nil, client, client, "gemini-test", "imagen-test")
	images, err := a.HeroImages(context.Background(), "<html></html>")
	require.NoError(t, err, "a failed render is not an error")
	assert.Empty(t, images)
}

func TestHeroImagesUsesImagenKeyForRendering(t *testing.T) {
	var mu sync.Mutex
	keysByPath := make(map[string]string)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, ":generateContent"):
			mu.Lock()
			keysByPath["generateContent"] = r.URL.Query().Get("key")
			mu.Unlock()
			resp := map[string]any{
				"candidates": []map[string]any{
					{"content": map[string]any{"parts": []map[string]any{
						{"text": `{"placeholder_css_1.jpg": "a sunny classroom"}`},
					}}},
				},
			}
			_ = json.NewEncoder(w).Encode(resp)
		case strings.Contains(r.URL.Path, ":predict"):
			mu.Lock()
			keysByPath["predict"] = r.URL.Query().Get("key")
			mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]any{
				"predictions": []map[string]any{
					{"bytesBase64Encoded": base64.StdEncoding.EncodeToString([]byte("jpeg-data"))},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	geminiClient := gemini.NewClient(srv.URL, "gemini-key")
	imagenClient := gemini.NewClient(srv.URL, "imagen-key")
	a := New(nil, geminiClient, imagenClient, "gemini-test", "imagen-test")

	images, err := a.HeroImages(context.Background(), "<html></html>")
	require.NoError(t, err)
	require.Len(t, images, 1)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "gemini-key", keysByPath["generateContent"], "prompt generation uses the gemini key")
	assert.Equal(t, "imagen-key", keysByPath["predict"], "rendering uses the imagen key")
}

func TestApplyImage(t *testing.T) {
	reply := "Here you go:\n\n```html\n<html>hero</html>\n```\n\n```css\n.hero { background: url('placeholder_css_1.jpg'); }\n```"
	srv := geminiStub(t, reply, nil)
	defer srv.Close()

	client := gemini.NewClient(srv.URL, "test-key")
	a := New(nil, client, client, "gemini-test", "imagen-test")
	html, css, err := a.ApplyImage(context.Background(), "<html></html>", "body {}")
	require.NoError(t, err)
	assert.Equal(t, "<html>hero</html>", html)
	assert.Contains(t, css, "placeholder_css_1.jpg")
}

func TestApplyImageMissingBlock(t *testing.T) {
	srv := geminiStub(t, "```html\n<html></html>\n```", nil)
	defer srv.Close()

	client := gemini.NewClient(srv.URL, "test-key")
	a := New(nil, client, client, "gemini-test", "imagen-test")
	_, _, err := a.ApplyImage(context.Background(), "<html></html>", "body {}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing html or css block")
}

func TestAspectRatioFor(t *testing.T) {
	assert.Equal(t, "16:9", aspectRatioFor("placeholder_css_1.jpg"))
	assert.Equal(t, "1:1", aspectRatioFor("feature_icon.png"))
}
