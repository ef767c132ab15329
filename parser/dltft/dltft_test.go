package dltft

import (
	"testing"

	"github.com/esrlabs/chipmunk-core/msgrec"
	"github.com/stretchr/testify/require"
)

func strArg(s string) msgrec.Argument {
	return msgrec.Argument{Kind: msgrec.ArgString, String: s}
}

func numArg(v uint32) msgrec.Argument {
	return msgrec.Argument{Kind: msgrec.ArgUnsigned, Unsigned: uint64(v)}
}

func rawArg(b []byte) msgrec.Argument {
	return msgrec.Argument{Kind: msgrec.ArgRaw, Raw: b}
}

func ftLogMessage(args []msgrec.Argument) *msgrec.Message {
	return &msgrec.Message{
		Type:    msgrec.Type{Category: msgrec.CategoryLog, SubType: byte(msgrec.LogInfo)},
		Payload: msgrec.Payload{Kind: msgrec.PayloadVerbose, Args: args},
	}
}

// ftFileMessages splits payload into DLT-FT packets the way ft_file() in
// original_source's attachment.rs test module does, at a 10-byte chunk size.
func ftFileMessages(id uint32, name string, payload []byte) []*msgrec.Message {
	const chunkSize = 10
	var packets int
	packets = len(payload) / chunkSize
	if len(payload)%chunkSize != 0 {
		packets++
	}

	msgs := []*msgrec.Message{
		ftLogMessage([]msgrec.Argument{
			strArg(tagStart), numArg(id), strArg(name), numArg(uint32(len(payload))),
			strArg("date"), numArg(uint32(packets)), numArg(0), strArg(tagStart),
		}),
	}

	offset := 0
	for pkt := 1; pkt <= packets; pkt++ {
		left := len(payload) - offset
		n := chunkSize
		if left < n {
			n = left
		}
		chunk := payload[offset : offset+n]
		offset += n
		msgs = append(msgs, ftLogMessage([]msgrec.Argument{
			strArg(tagData), numArg(id), numArg(uint32(pkt)), rawArg(chunk), strArg(tagData),
		}))
	}

	msgs = append(msgs, ftLogMessage([]msgrec.Argument{
		strArg(tagEnd), numArg(id), strArg(tagEnd),
	}))
	return msgs
}

func TestScanSingleChunkFile(t *testing.T) {
	msgs := ftFileMessages(42, "test.txt", []byte("test"))
	require.Len(t, msgs, 3)

	s := NewFtScanner()
	var out []*msgrec.Attachment
	for _, m := range msgs {
		if a := s.Process(m); a != nil {
			out = append(out, a)
		}
	}
	require.Len(t, out, 1)
	f := out[0]
	require.Equal(t, "test.txt", f.Name)
	require.Equal(t, 4, f.Size)
	require.Equal(t, []int{0, 1, 2}, f.Messages)
	require.Equal(t, []byte("test"), f.Data)
}

func TestScanMultiChunkFile(t *testing.T) {
	payload := []byte("abcdefghijklmnopqrstuvwxyz")
	msgs := ftFileMessages(42, "test.txt", payload)
	require.Len(t, msgs, 5)

	s := NewFtScanner()
	var out []*msgrec.Attachment
	for _, m := range msgs {
		if a := s.Process(m); a != nil {
			out = append(out, a)
		}
	}
	require.Len(t, out, 1)
	f := out[0]
	require.Equal(t, 26, f.Size)
	require.Equal(t, []int{0, 1, 2, 3, 4}, f.Messages)
	require.Equal(t, payload, f.Data)
}

func TestScanInterleavedFiles(t *testing.T) {
	m1 := ftFileMessages(42, "test1.txt", []byte("test1"))
	m2 := ftFileMessages(43, "test2.txt", []byte("test22"))
	m3 := ftFileMessages(44, "test3.txt", []byte("test333"))
	require.Len(t, m1, 3)
	require.Len(t, m2, 3)
	require.Len(t, m3, 3)

	interleaved := []*msgrec.Message{
		m1[0], m2[0], m1[1], m2[1], m3[0], m3[1], m1[2], m2[2], m3[2],
	}

	s := NewFtScanner()
	var out []*msgrec.Attachment
	for _, m := range interleaved {
		if a := s.Process(m); a != nil {
			out = append(out, a)
		}
	}
	require.Len(t, out, 3)

	require.Equal(t, "test1.txt", out[0].Name)
	require.Equal(t, []int{0, 2, 6}, out[0].Messages)
	require.Equal(t, []byte("test1"), out[0].Data)

	require.Equal(t, "test2.txt", out[1].Name)
	require.Equal(t, []int{1, 3, 7}, out[1].Messages)
	require.Equal(t, []byte("test22"), out[1].Data)

	require.Equal(t, "test3.txt", out[2].Name)
	require.Equal(t, []int{4, 5, 8}, out[2].Messages)
	require.Equal(t, []byte("test333"), out[2].Data)
}

func TestNonFtMessagesIgnored(t *testing.T) {
	s := NewFtScanner()
	plain := ftLogMessage([]msgrec.Argument{strArg("hello"), numArg(1)})
	require.Nil(t, s.Process(plain))
	require.Equal(t, 1, s.index)
}
