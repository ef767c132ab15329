package observe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	opts := Options{
		SourceKind:   "file",
		SourceDetail: []byte(`{"path":"/tmp/x.log","follow":true}`),
		ParserKind:   "text",
		ParserDetail: []byte(`{}`),
	}
	buf := Encode(opts)

	decoded, n, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, "file", decoded.SourceKind)
	require.Equal(t, "text", decoded.ParserKind)
	require.JSONEq(t, `{"path":"/tmp/x.log","follow":true}`, string(decoded.SourceDetail))
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	_, _, err := Decode([]byte{0, 0})
	require.Error(t, err)
}

func TestDecodeConsumesOnlyDeclaredLength(t *testing.T) {
	opts := Options{SourceKind: "pcap", SourceDetail: []byte(`{}`), ParserKind: "someip", ParserDetail: []byte(`{}`)}
	buf := Encode(opts)
	trailing := append(buf, []byte("garbage")...)

	decoded, n, err := Decode(trailing)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, "pcap", decoded.SourceKind)
}
