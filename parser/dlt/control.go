package dlt

// Known control-message service ids and their command names. The table
// is a lookup only: msgrec.Message.Render writes a control message's
// numeric service id and does not consult it.
//
// The table lists the well-known AUTOSAR DLT control service ids; it is
// deliberately small since spec.md scopes exact byte-layout fidelity out
// and only needs a representative lookup.
var controlServiceNames = map[uint32]string{
	0x01: "SET_LOG_LEVEL",
	0x02: "SET_TRACE_STATUS",
	0x03: "GET_LOG_INFO",
	0x04: "GET_DEFAULT_LOG_LEVEL",
	0x05: "STORE_CONFIG",
	0x06: "RESET_TO_FACTORY_DEFAULT",
	0x0A: "SET_MESSAGE_FILTERING",
	0x0F: "SET_DEFAULT_LOG_LEVEL",
	0x11: "SET_VERBOSE_MODE",
	0x15: "SET_TIMING_PACKETS",
	0x1A: "GET_SOFTWARE_VERSION",
	0x1B: "MESSAGE_BUFFER_OVERFLOW",
}

// ControlServiceName returns the known name for id, or "" if unknown.
func ControlServiceName(id uint32) string {
	return controlServiceNames[id]
}
