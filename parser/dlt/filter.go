package dlt

import "github.com/esrlabs/chipmunk-core/msgrec"

// Filter short-circuits to FilteredOut before full decode, per spec.md
// §4.4: "A filter predicate (ECU/app/ctx/level whitelists+blacklists)".
// Whitelists, when non-empty, are the only values accepted; blacklists
// always reject.
type Filter struct {
	ECUWhitelist, ECUBlacklist         map[string]struct{}
	AppWhitelist, AppBlacklist         map[string]struct{}
	ContextWhitelist, ContextBlacklist map[string]struct{}
	MinLevel                          msgrec.LogLevel // 0 means "no level filtering"
}

func contains(set map[string]struct{}, v string) bool {
	if set == nil {
		return false
	}
	_, ok := set[v]
	return ok
}

// Allows evaluates the (ECU, app, context, log level) tuple read from the
// standard/extended headers only — before the payload is decoded.
func (f *Filter) Allows(ecu, app, ctx string, category msgrec.Category, subType byte) bool {
	if f == nil {
		return true
	}
	if contains(f.ECUBlacklist, ecu) || contains(f.AppBlacklist, app) || contains(f.ContextBlacklist, ctx) {
		return false
	}
	if len(f.ECUWhitelist) > 0 && !contains(f.ECUWhitelist, ecu) {
		return false
	}
	if len(f.AppWhitelist) > 0 && !contains(f.AppWhitelist, app) {
		return false
	}
	if len(f.ContextWhitelist) > 0 && !contains(f.ContextWhitelist, ctx) {
		return false
	}
	if f.MinLevel != 0 && category == msgrec.CategoryLog {
		// lower LogLevel value means more severe (Fatal=1 ... Verbose=6);
		// a message is allowed if it is at least as severe as MinLevel.
		if msgrec.LogLevel(subType) > f.MinLevel {
			return false
		}
	}
	return true
}
