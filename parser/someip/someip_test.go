package someip

import (
	"encoding/binary"
	"testing"

	"github.com/esrlabs/chipmunk-core/parser"
	"github.com/stretchr/testify/require"
)

func buildFrame(serviceMethod, requestID uint32, protoVer, ifaceVer byte, msgType MessageType, retCode byte, payload []byte) []byte {
	length := uint32(8 + len(payload))
	buf := make([]byte, 16+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], serviceMethod)
	binary.BigEndian.PutUint32(buf[4:8], length)
	binary.BigEndian.PutUint32(buf[8:12], requestID)
	buf[12] = protoVer
	buf[13] = ifaceVer
	buf[14] = byte(msgType)
	buf[15] = retCode
	copy(buf[16:], payload)
	return buf
}

func TestParseCompleteFrame(t *testing.T) {
	frame := buildFrame(0x00010002, 0xaabbccdd, 1, 1, TypeRequest, 0, []byte{1, 2, 3, 4})
	p := New(Options{})

	rest, yield, err := p.Parse(frame, nil)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.NotNil(t, yield.Message)
	require.Equal(t, "0001", yield.Message.AppID)
	require.Equal(t, "0002", yield.Message.ContextID)
	require.Equal(t, uint32(0xaabbccdd), yield.Message.SessionID)
	require.Equal(t, []byte{1, 2, 3, 4}, yield.Message.Payload.Raw)
}

func TestParseIncomplete(t *testing.T) {
	frame := buildFrame(1, 2, 1, 1, TypeRequest, 0, []byte{1, 2, 3, 4})
	p := New(Options{})

	_, _, err := p.Parse(frame[:10], nil)
	require.ErrorIs(t, err, parser.ErrIncomplete)

	_, _, err = p.Parse(frame[:len(frame)-1], nil)
	require.ErrorIs(t, err, parser.ErrIncomplete)
}
