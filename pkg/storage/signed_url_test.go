package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("doc-1", "ideas/idea-1/file.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	docID, key, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "doc-1", docID)
	require.Equal(t, "ideas/idea-1/file.pdf", key)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Millisecond*10)
	token, _, err := signer.Generate("doc-1", "ideas/idea-1/file.pdf")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	docID, key, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "doc-1", docID)
	require.Equal(t, "ideas/idea-1/file.pdf", key)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("doc-1", "ideas/idea-1/file.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token+"x", false)
	require.Error(t, err)

	other := NewSignedURLSigner("other-secret", time.Hour)
	_, _, _, err = other.Parse(token, false)
	require.Error(t, err)
}

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	key, err := store.Save("ideas/idea-1/file.txt", []byte("hello"))
	require.NoError(t, err)
	require.True(t, store.Exists(key))

	file, err := store.Open(key)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	require.NoError(t, store.Delete(key))
	require.False(t, store.Exists(key))

	// deleting a missing object is not an error
	require.NoError(t, store.Delete(key))
}
