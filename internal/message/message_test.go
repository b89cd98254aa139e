package message

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeKnownTypes(t *testing.T) {
	m, err := Decode([]byte(`{"type":"clipboard","content":"hello"}`))
	require.NoError(t, err)
	require.Equal(t, TypeClipboard, m.Type)
	require.Equal(t, "hello", m.Content)

	m, err = Decode([]byte(`{"type":"ping"}`))
	require.NoError(t, err)
	require.Equal(t, TypePing, m.Type)

	m, err = Decode([]byte(`{"type":"pong"}`))
	require.NoError(t, err)
	require.Equal(t, TypePong, m.Type)
}

func TestDecodeRejectsUnrecognisedType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"ack"}`))
	require.Error(t, err)

	_, err = Decode([]byte(`{"type":""}`))
	require.Error(t, err)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte(`Last login: Mon Jan  6 on ttys001`))
	require.Error(t, err)
}

func TestEncodeStaysOnOneLine(t *testing.T) {
	// Multi-line clipboard content must not break the line framing.
	content := "line one\nline two\r\nline three"
	raw, err := (&Message{Type: TypeClipboard, Content: content}).Encode()
	require.NoError(t, err)
	require.NotContains(t, string(raw), "\n")

	m, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, content, m.Content)
}

func TestEmptyContentRoundTrips(t *testing.T) {
	raw, err := (&Message{Type: TypeClipboard}).Encode()
	require.NoError(t, err)

	m, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, TypeClipboard, m.Type)
	require.Empty(t, m.Content)
}

func TestLargeContentRoundTrips(t *testing.T) {
	content := strings.Repeat("x", 100_000)
	raw, err := (&Message{Type: TypeClipboard, Content: content}).Encode()
	require.NoError(t, err)

	m, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, content, m.Content)
}
