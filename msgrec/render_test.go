package msgrec

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderColumnsAndArgSentinel(t *testing.T) {
	m := Message{
		StorageTimestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		ECUID:            "ECU1",
		AppID:            "APP",
		ContextID:        "CTX",
		Type:             Type{Category: CategoryLog, SubType: byte(LogInfo)},
		Payload: Payload{
			Kind: PayloadVerbose,
			Args: []Argument{
				{Kind: ArgString, String: "hello\nworld"},
				{Kind: ArgUnsigned, Unsigned: 42},
			},
		},
	}

	line := string(m.Render(nil, RenderOptions{}))
	require.Equal(t, 8, strings.Count(line, string(rune(ColumnSentinel))))
	require.Contains(t, line, "APP")
	require.Contains(t, line, "CTX")
	require.Contains(t, line, "INFO")
	require.NotContains(t, line, "\n")
	require.Contains(t, line, string(rune(NewlineSentinel)))
}
