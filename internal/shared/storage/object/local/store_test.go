package local

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSaveOpenRoundTrip(t *testing.T) {
	store := New(t.TempDir(), "http://localhost:8080", []byte("secret"))

	key, size, mime, err := store.Save(context.Background(), "user-1", "My Resume.pdf", bytes.NewReader([]byte("%PDF-1.4 test")))
	require.NoError(t, err)
	require.Equal(t, int64(13), size)
	require.Equal(t, "application/pdf", mime)
	require.True(t, strings.HasSuffix(key, "_My_Resume.pdf"), key)

	rc, err := store.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 test", string(data))
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := New(t.TempDir(), "", []byte("secret"))
	_, err := store.Open(context.Background(), "../etc/passwd")
	require.Error(t, err)
}

func TestSignedURLVerify(t *testing.T) {
	store := New(t.TempDir(), "http://localhost:8080/", []byte("secret"))
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	raw, err := store.SignedURL(context.Background(), "abc/file.pdf", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "/files/abc/file.pdf", u.Path)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)

	require.NoError(t, store.Verify("abc/file.pdf", token))
	require.ErrorIs(t, store.Verify("abc/other.pdf", token), ErrInvalidToken)

	now = now.Add(2 * time.Hour)
	require.ErrorIs(t, store.Verify("abc/file.pdf", token), ErrInvalidToken)
}
