package registry

import (
	"context"
	"fmt"

	"github.com/esrlabs/chipmunk-core/parser"
	"github.com/esrlabs/chipmunk-core/parser/dlt"
	"github.com/esrlabs/chipmunk-core/parser/dltft"
	"github.com/esrlabs/chipmunk-core/parser/someip"
	"github.com/esrlabs/chipmunk-core/parser/text"
	"github.com/esrlabs/chipmunk-core/source"
	"github.com/spf13/cast"
)

// Default builds a Registry with every source and parser kind this
// module ships wired up, then freezes it. Callers that need a custom
// component only still call New() and register it themselves.
func Default() *Registry {
	r := New()

	r.RegisterSource("file", func(ctx context.Context, detail map[string]any) (source.ByteSource, error) {
		path := cast.ToString(detail["path"])
		if path == "" {
			return nil, fmt.Errorf("registry: file source requires a path")
		}
		return source.OpenFile(path, cast.ToBool(detail["follow"]))
	})

	r.RegisterSource("pcap", func(ctx context.Context, detail map[string]any) (source.ByteSource, error) {
		path := cast.ToString(detail["path"])
		f, err := openPcapFile(path)
		if err != nil {
			return nil, err
		}
		return source.OpenPcap(f)
	})

	r.RegisterSource("serial", func(ctx context.Context, detail map[string]any) (source.ByteSource, error) {
		port := cast.ToString(detail["port"])
		if port == "" {
			return nil, fmt.Errorf("registry: serial source requires a port")
		}
		return source.OpenSerial(port, nil)
	})

	r.RegisterSource("process", func(ctx context.Context, detail map[string]any) (source.ByteSource, error) {
		name := cast.ToString(detail["command"])
		if name == "" {
			return nil, fmt.Errorf("registry: process source requires a command")
		}
		args := cast.ToStringSlice(detail["args"])
		return source.StartProcess(ctx, name, args...)
	})

	r.RegisterParser("text", func(detail map[string]any) (parser.Parser, error) {
		return text.New(), nil
	})
	r.RegisterParser("someip", func(detail map[string]any) (parser.Parser, error) {
		return someip.New(someip.Options{}), nil
	})
	r.RegisterParser("dlt", func(detail map[string]any) (parser.Parser, error) {
		return dlt.New(dlt.Options{}), nil
	})
	r.RegisterParser("dltft", func(detail map[string]any) (parser.Parser, error) {
		return dltft.New(dlt.Options{}), nil
	})

	r.Freeze()
	return r
}
