package dlt

import (
	"testing"
	"time"

	"github.com/esrlabs/chipmunk-core/msgrec"
	"github.com/esrlabs/chipmunk-core/parser"
	"github.com/stretchr/testify/require"
)

func sampleMessage() msgrec.Message {
	return msgrec.Message{
		StorageTimestamp: time.Date(2024, 3, 4, 5, 6, 7, 8000, time.UTC),
		ECUID:            "ECU1",
		SessionID:        7,
		Counter:          3,
		Timestamp:        123456,
		AppID:            "APP1",
		ContextID:        "CTX1",
		Type:             msgrec.Type{Category: msgrec.CategoryLog, SubType: byte(msgrec.LogWarn)},
		Payload: msgrec.Payload{
			Kind: msgrec.PayloadVerbose,
			Args: []msgrec.Argument{
				{Kind: msgrec.ArgString, String: "hello", Coding: msgrec.CodingUTF8},
				{Kind: msgrec.ArgUnsigned, Unsigned: 99},
				{Kind: msgrec.ArgSignedFixedPoint, Signed: 150, Fixed: msgrec.FixedPoint{Quantization: 0.01, Offset: 0}},
			},
		},
	}
}

func TestRoundTripVerbose(t *testing.T) {
	m := sampleMessage()
	wire := AsStoredBytes(m)

	got, err := Decode(wire, Options{})
	require.NoError(t, err)

	require.Equal(t, m.ECUID, got.ECUID)
	require.Equal(t, m.SessionID, got.SessionID)
	require.Equal(t, m.Counter, got.Counter)
	require.Equal(t, m.Timestamp, got.Timestamp)
	require.Equal(t, m.AppID, got.AppID)
	require.Equal(t, m.ContextID, got.ContextID)
	require.Equal(t, m.Type, got.Type)
	require.Equal(t, m.Payload.Kind, got.Payload.Kind)
	require.Equal(t, len(m.Payload.Args), len(got.Payload.Args))
	for i := range m.Payload.Args {
		require.Equal(t, m.Payload.Args[i].Kind, got.Payload.Args[i].Kind)
	}
}

func TestParseIncompleteThenComplete(t *testing.T) {
	m := sampleMessage()
	wire := AsStoredBytes(m)
	p := New(Options{})

	// feed one byte short: must report Incomplete and not consume.
	rest, _, err := p.Parse(wire[:len(wire)-1], nil)
	require.ErrorIs(t, err, parser.ErrIncomplete)
	require.Equal(t, wire[:len(wire)-1], rest)

	// now feed the full buffer.
	rest, yield, err := p.Parse(wire, nil)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.NotNil(t, yield.Message)
}

func TestFilterOutShortCircuits(t *testing.T) {
	m := sampleMessage()
	wire := AsStoredBytes(m)

	p := New(Options{Filter: &Filter{
		AppWhitelist: map[string]struct{}{"OTHER": {}},
	}})
	rest, yield, err := p.Parse(wire, nil)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.True(t, yield.Skipped)
	require.Nil(t, yield.Message)
}

func TestControlServiceNameLookup(t *testing.T) {
	require.Equal(t, "SET_LOG_LEVEL", ControlServiceName(0x01))
	require.Equal(t, "", ControlServiceName(0xFFFF))
}
