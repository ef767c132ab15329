package source

import (
	"context"
	"io"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// PcapSource replays an offline classic-format pcap capture, handing each
// packet's application payload to the caller with the packet's capture
// timestamp as the ReloadInfo hint (spec.md §1: "pcap capture" source;
// §4.1 tsHint). Non-TCP/UDP frames, and frames with no payload past the
// transport header, are silently skipped and counted.
type PcapSource struct {
	buffer

	r        *pcapgo.Reader
	rClose   io.Closer
	lastTime time.Time
}

// OpenPcap opens a classic-format pcap file (.pcap). pcapng files are
// not supported: pcapgo.NewReader rejects them.
func OpenPcap(r io.ReadCloser) (*PcapSource, error) {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		r.Close()
		return nil, err
	}
	return &PcapSource{r: reader, rClose: r}, nil
}

func (s *PcapSource) Load(ctx context.Context) (ReloadInfo, error) {
	select {
	case <-ctx.Done():
		return ReloadInfo{}, ctx.Err()
	default:
	}

	skipped := 0
	for {
		data, ci, err := s.r.ReadPacketData()
		if err != nil {
			if err == io.EOF {
				return ReloadInfo{Skipped: skipped}, io.EOF
			}
			return ReloadInfo{}, err
		}
		payload := transportPayload(data)
		if len(payload) == 0 {
			skipped += len(data)
			continue
		}
		s.append(payload)
		ts := ci.Timestamp
		s.lastTime = ts
		return ReloadInfo{Loaded: len(payload), Skipped: skipped, Timestamp: &ts}, nil
	}
}

// transportPayload decodes just far enough (Ethernet/IP/TCP|UDP) to
// recover the application payload; spec.md §1 scopes exact link-layer
// decoding out, so unsupported encapsulations yield no payload.
func transportPayload(data []byte) []byte {
	pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.NoCopy)
	if app := pkt.ApplicationLayer(); app != nil {
		return app.Payload()
	}
	return nil
}

func (s *PcapSource) Close() error {
	return s.rClose.Close()
}
