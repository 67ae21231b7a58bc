package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"cardshare/internal/config"
	applog "cardshare/internal/log"
	"cardshare/internal/media"
	"cardshare/internal/repos"
	"cardshare/internal/server"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

type testEnv struct {
	app    *fiber.App
	cards  *repos.CardRepo
	assets *media.Store
	cfg    config.Config
}

func newEnv(t *testing.T, tweak ...func(*config.Config)) *testEnv {
	t.Helper()
	root := t.TempDir()
	cfg := config.Config{
		Port:            "8080",
		CardsFile:       filepath.Join(root, "cards.json"),
		UploadDir:       filepath.Join(root, "uploads"),
		UploadURLPrefix: "uploads",
		MaxUploadBytes:  5_000_000,
		BodyLimit:       12 << 20,
		TemplatesDir:    "../../web/templates",
		LogLevel:        "info",
	}
	for _, fn := range tweak {
		fn(&cfg)
	}
	cards := repos.NewCardRepo(cfg.CardsFile)
	assets := media.NewStore(cfg.UploadDir, cfg.UploadURLPrefix, cfg.MaxUploadBytes)
	return &testEnv{app: server.New(cfg, cards, assets), cards: cards, assets: assets, cfg: cfg}
}

type filePart struct {
	field, name, contentType string
	body                     []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...filePart) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name))
		h.Set("Content-Type", f.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(f.body)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func cardFields(overrides map[string]string) map[string]string {
	f := map[string]string{
		"action":         "add",
		"card_name":      "Retro Console",
		"description":    "Boxed, complete",
		"back_details":   "Model 2",
		"price":          "149.99",
		"back_image_url": "https://cdn.example.com/back.jpg",
	}
	for k, v := range overrides {
		if v == "" {
			delete(f, k)
			continue
		}
		f[k] = v
	}
	return f
}

func frontPNG() filePart {
	return filePart{field: "image_file", name: "front.png", contentType: "image/png", body: pngBytes}
}

func (e *testEnv) upload(t *testing.T, fields map[string]string, files ...filePart) (int, map[string]any) {
	t.Helper()
	body, ct := multipartBody(t, fields, files...)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	return e.doJSON(t, req)
}

func (e *testEnv) postForm(t *testing.T, form url.Values) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.doJSON(t, req)
}

func (e *testEnv) get(t *testing.T, target string) (*http.Response, string) {
	t.Helper()
	resp, err := e.app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func (e *testEnv) getJSON(t *testing.T, target string) (int, map[string]any) {
	t.Helper()
	return e.doJSON(t, httptest.NewRequest(http.MethodGet, target, nil))
}

func (e *testEnv) doJSON(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (e *testEnv) uploadedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.assets.Dir())
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, en := range entries {
		names = append(names, en.Name())
	}
	return names
}

type logLine struct {
	Action string         `json:"action"`
	Level  string         `json:"level"`
	Audit  bool           `json:"audit"`
	ReqID  string         `json:"req_id"`
	IP     string         `json:"ip"`
	Path   string         `json:"path"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

// captureLogs routes the process logger into a buffer for the duration of fn
// and returns the structured lines it produced.
func captureLogs(t *testing.T, fn func()) []logLine {
	t.Helper()
	buf := &lockedBuf{}
	applog.Configure("debug", buf)
	t.Cleanup(func() { applog.Configure("info", os.Stdout) })

	fn()

	buf.mu.Lock()
	defer buf.mu.Unlock()
	var out []logLine
	for _, line := range strings.Split(buf.b.String(), "\n") {
		var l logLine
		if json.Unmarshal([]byte(strings.TrimSpace(line)), &l) == nil && l.Action != "" {
			out = append(out, l)
		}
	}
	return out
}

func findLog(lines []logLine, action string) (logLine, bool) {
	for _, l := range lines {
		if l.Action == action {
			return l, true
		}
	}
	return logLine{}, false
}
