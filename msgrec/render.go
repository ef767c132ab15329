package msgrec

import (
	"strconv"
	"time"
)

// Session-file sentinels (spec.md §6).
const (
	ColumnSentinel = byte(0x04)
	ArgSentinel    = byte(0x05)
)

// RenderOptions controls timestamp formatting when rendering a Message
// into its session-file line.
type RenderOptions struct {
	// Location overrides the UTC default used for StorageTimestamp
	// (spec.md §6: "RFC 3339 UTC unless a timezone override is
	// configured").
	Location *time.Location
}

// Render appends the session-file line for m to dst, following the
// column layout from spec.md §6:
//
//	<storage_header> COL <standard_header> COL <app_id> COL <ctx_id> COL <msg_type> COL <ARG><arg1><ARG><arg2>...
//
// The returned slice does not include a trailing newline; callers
// (sessionfile.Writer) append one line sentinel character.
func (m Message) Render(dst []byte, opt RenderOptions) []byte {
	loc := time.UTC
	if opt.Location != nil {
		loc = opt.Location
	}

	// storage header: timestamp COL ecu-id
	ts := m.StorageTimestamp
	if ts.IsZero() {
		ts = time.Unix(0, 0).UTC()
	}
	dst = append(dst, ts.In(loc).Format(time.RFC3339Nano)...)
	dst = append(dst, ColumnSentinel)
	dst = append(dst, m.ECUID...)
	dst = append(dst, ColumnSentinel)

	// standard header: session-id COL counter COL monotonic-timestamp
	dst = strconv.AppendUint(dst, uint64(m.SessionID), 10)
	dst = append(dst, ColumnSentinel)
	dst = strconv.AppendUint(dst, uint64(m.Counter), 10)
	dst = append(dst, ColumnSentinel)
	dst = strconv.AppendUint(dst, uint64(m.Timestamp), 10)
	dst = append(dst, ColumnSentinel)

	dst = append(dst, m.AppID...)
	dst = append(dst, ColumnSentinel)
	dst = append(dst, m.ContextID...)
	dst = append(dst, ColumnSentinel)
	dst = append(dst, m.Type.String()...)

	switch m.Payload.Kind {
	case PayloadVerbose:
		if len(m.Payload.Args) > 0 {
			dst = append(dst, ColumnSentinel)
		}
		for _, a := range m.Payload.Args {
			dst = append(dst, ArgSentinel)
			dst = a.Render(dst)
		}
	case PayloadNonVerbose:
		dst = append(dst, ColumnSentinel, ArgSentinel)
		dst = strconv.AppendUint(dst, uint64(m.Payload.MessageID), 10)
		if len(m.Payload.Args) > 0 {
			for _, a := range m.Payload.Args {
				dst = append(dst, ArgSentinel)
				dst = a.Render(dst)
			}
		} else if len(m.Payload.Raw) > 0 {
			dst = append(dst, ArgSentinel)
			dst = appendHex(dst, m.Payload.Raw)
		}
	case PayloadControl:
		dst = append(dst, ColumnSentinel, ArgSentinel)
		dst = strconv.AppendUint(dst, uint64(m.Payload.ServiceID), 10)
		if len(m.Payload.Raw) > 0 {
			dst = append(dst, ArgSentinel)
			dst = appendHex(dst, m.Payload.Raw)
		}
	}

	return dst
}
