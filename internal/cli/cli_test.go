package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"cardshare/internal/domain"
)

type harness struct {
	cards   string
	uploads string
	dir     string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ENV_FILE", filepath.Join(dir, "none.env"))
	t.Setenv("PUBLIC_BASE_URL", "")
	t.Setenv("PORT", "")
	return harness{
		cards:   filepath.Join(dir, "data", "cards.json"),
		uploads: filepath.Join(dir, "uploads"),
		dir:     dir,
	}
}

func (h harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--cards-file", h.cards, "--upload-dir", h.uploads}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h harness) png(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(h.dir, name)
	require.NoError(t, os.WriteFile(p, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01"), 0o644))
	return p
}

func (h harness) add(t *testing.T, name string) string {
	t.Helper()
	out, err := h.run(t, "add",
		"--name", name,
		"--description", "front text",
		"--back-details", "back text",
		"--price", "12.50",
		"--image", h.png(t, "front.png"),
		"--back-image", "https://cdn.example.com/back.jpg",
	)
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.True(t, strings.HasPrefix(id, "card-"), out)
	return id
}

func TestCLI_AddListShare(t *testing.T) {
	h := newHarness(t)
	id := h.add(t, "Retro Console")

	entries, err := os.ReadDir(h.uploads)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "front_"))
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".png"))

	out, err := h.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Retro Console")
	assert.Contains(t, out, "12.5")

	out, err = h.run(t, "share", id, "--base-url", "https://cards.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://cards.example.com/share?view="+id+"\n", out)

	out, err = h.run(t, "share", id)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/share?view="+id+"\n", out)

	out, err = h.run(t, "share", id, "--json", "--base-url", "http://h")
	require.NoError(t, err)
	var view domain.PublicCardView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "http://h/uploads/"+entries[0].Name(), view.FirstImage)
	assert.Equal(t, "https://cdn.example.com/back.jpg", view.BackImage)
}

func TestCLI_ListEmpty(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "list")
	require.NoError(t, err)
	assert.Equal(t, "No cards stored.\n", out)
}

func TestCLI_AddRejectsInvalid(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "add", "--name", "x", "--description", "d", "--back-details", "b",
		"--price", "0", "--image", "https://a.example.com/f.png", "--back-image", "https://a.example.com/b.png")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.run(t, "add", "--name", "x", "--description", "d", "--back-details", "b",
		"--price", "1", "--image", "https://a.example.com/f.png")
	assert.ErrorIs(t, err, domain.ErrMissingAsset)

	gif := filepath.Join(h.dir, "anim.gif")
	require.NoError(t, os.WriteFile(gif, []byte("GIF89a\x01\x00\x01\x00"), 0o644))
	_, err = h.run(t, "add", "--name", "x", "--description", "d", "--back-details", "b",
		"--price", "1", "--image", gif, "--back-image", "https://a.example.com/b.png")
	assert.ErrorIs(t, err, domain.ErrAssetType)

	_, err = os.Stat(h.cards)
	assert.True(t, os.IsNotExist(err), "nothing was stored")
}

func TestCLI_EditKeepsImages(t *testing.T) {
	h := newHarness(t)
	id := h.add(t, "Before")

	out, err := h.run(t, "edit", id,
		"--name", "After",
		"--description", "new front",
		"--back-details", "new back",
		"--price", "99",
		"--keep-image", "--keep-back-image",
	)
	require.NoError(t, err)
	assert.Equal(t, "updated "+id+"\n", out)

	out, err = h.run(t, "export", "--format", "json")
	require.NoError(t, err)
	var cards []domain.Card
	require.NoError(t, json.Unmarshal([]byte(out), &cards))
	require.Len(t, cards, 1)
	assert.Equal(t, "After", cards[0].Name)
	assert.Equal(t, 99.0, cards[0].Price)
	assert.True(t, strings.HasPrefix(cards[0].Image, "uploads/front_"))
	assert.Equal(t, "https://cdn.example.com/back.jpg", cards[0].BackImage)

	entries, err := os.ReadDir(h.uploads)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "kept image is not re-uploaded")

	_, err = h.run(t, "edit", "card-404", "--name", "x", "--description", "d", "--back-details", "b",
		"--price", "1", "--image", "https://a.example.com/f.png", "--back-image", "https://a.example.com/b.png")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCLI_ExportYAMLAndFile(t *testing.T) {
	h := newHarness(t)
	a := h.add(t, "Alpha")
	b := h.add(t, "Beta")

	out, err := h.run(t, "export", "-f", "yaml")
	require.NoError(t, err)
	var cards []domain.Card
	require.NoError(t, yaml.Unmarshal([]byte(out), &cards))
	require.Len(t, cards, 2)
	assert.Equal(t, a, cards[0].ID)
	assert.Equal(t, b, cards[1].ID)
	assert.Contains(t, out, "backDetails: back text")

	dest := filepath.Join(h.dir, "export.json")
	out, err = h.run(t, "export", "-o", dest)
	require.NoError(t, err)
	assert.Empty(t, out)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Alpha"`)

	_, err = h.run(t, "export", "--format", "xml")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCLI_Delete(t *testing.T) {
	h := newHarness(t)
	id := h.add(t, "Gone")

	for i := 0; i < 2; i++ {
		out, err := h.run(t, "delete", id)
		require.NoError(t, err)
		assert.Equal(t, "deleted "+id+"\n", out)
	}
	_, err := h.run(t, "share", id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCLI_CorruptStoreFailsFast(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(h.cards), 0o755))
	require.NoError(t, os.WriteFile(h.cards, []byte("not json"), 0o644))

	_, err := h.run(t, "list")
	assert.ErrorIs(t, err, domain.ErrCorruptStore)
}

func TestImageSource(t *testing.T) {
	h := newHarness(t)

	src, err := imageSource("https://cdn.example.com/x.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/x.png", src.URL)
	assert.Nil(t, src.Upload)

	src, err = imageSource(h.png(t, "f.png"))
	require.NoError(t, err)
	require.NotNil(t, src.Upload)
	assert.Equal(t, "image/png", src.Upload.ContentType)
	assert.Equal(t, "f.png", src.Upload.Filename)

	src, err = imageSource("uploads/front_1_abc.png")
	require.NoError(t, err)
	assert.Equal(t, "uploads/front_1_abc.png", src.URL)

	src, err = imageSource("  ")
	require.NoError(t, err)
	assert.True(t, src.Empty())
}
