package handlers_test

import (
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_AuditOnAddAndDelete(t *testing.T) {
	e := newEnv(t)
	var id string
	lines := captureLogs(t, func() {
		status, body := e.upload(t, cardFields(nil), frontPNG())
		require.Equal(t, http.StatusOK, status, body)
		id = body["id"].(string)
		e.upload(t, map[string]string{"action": "delete", "card_id": id})
	})

	add, ok := findLog(lines, "card.add")
	require.True(t, ok, "card.add audit line")
	assert.True(t, add.Audit)
	assert.Equal(t, "info", add.Level)
	assert.Equal(t, id, add.Fields["id"])
	assert.NotEmpty(t, add.ReqID, "audit line carries the request id")
	assert.NotEmpty(t, add.IP)
	assert.Equal(t, "/upload", add.Path)

	del, ok := findLog(lines, "card.delete")
	require.True(t, ok)
	assert.True(t, del.Audit)
	assert.NotEmpty(t, del.ReqID)
	assert.NotEqual(t, add.ReqID, del.ReqID)

	_, ok = findLog(lines, "asset.store")
	assert.True(t, ok)
}

func TestLog_ValidationFailureIsSecurityWarn(t *testing.T) {
	e := newEnv(t)
	lines := captureLogs(t, func() {
		e.upload(t, cardFields(map[string]string{"price": "0"}), frontPNG())
	})

	l, ok := findLog(lines, "validation.fail")
	require.True(t, ok)
	assert.Equal(t, "warning", l.Level)
	assert.Equal(t, "price", l.Fields["field"])
	assert.NotEmpty(t, l.ReqID)

	_, ok = findLog(lines, "card.add")
	assert.False(t, ok, "no audit line for a rejected submission")
}

func TestLog_AssetRejectRecordsReason(t *testing.T) {
	e := newEnv(t)
	lines := captureLogs(t, func() {
		e.upload(t, cardFields(nil), filePart{field: "image_file", name: "a.gif", contentType: "image/gif", body: []byte("GIF89a")})
	})
	l, ok := findLog(lines, "validation.fail")
	require.True(t, ok)
	assert.Equal(t, "type", l.Fields["reason"])
	assert.Equal(t, "image", l.Fields["field"])
}

func TestLog_StoreFailureCarriesRequest(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(e.cfg.CardsFile, []byte("{"), 0o644))

	lines := captureLogs(t, func() {
		e.upload(t, cardFields(nil), frontPNG())
	})
	l, ok := findLog(lines, "card.add.fail")
	require.True(t, ok)
	assert.Equal(t, "error", l.Level)
	assert.NotEmpty(t, l.ReqID)
}
