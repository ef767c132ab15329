package registry

import (
	"fmt"
	"io"
	"os"
)

func openPcapFile(path string) (io.ReadCloser, error) {
	if path == "" {
		return nil, fmt.Errorf("registry: pcap source requires a path")
	}
	return os.Open(path)
}
