package scan

import (
	"net"
	"time"

	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
)

// socketTransport is the production rawTransport: a raw IPPROTO_TCP
// socket opened via net.ListenIP. The kernel builds the IP header on
// send and includes it on receive, so ReceiveTCP strips it by its
// variable IHL length before handing the TCP segment to the caller.
type socketTransport struct {
	conn *net.IPConn
}

// NewRawSocketTransport opens the raw socket used by RunRaw in
// production. It requires root or CAP_NET_RAW.
func NewRawSocketTransport() (*socketTransport, error) {
	conn, err := net.ListenIP("ip4:tcp", &net.IPAddr{IP: net.IPv4zero})
	if err != nil {
		return nil, nelsterr.PermissionWithHint(
			"failed to open raw socket",
			"raw TCP scans require root or CAP_NET_RAW; try 'sudo' or grant the capability",
		)
	}
	return &socketTransport{conn: conn}, nil
}

func (t *socketTransport) SendTo(packet []byte, destIP net.IP) error {
	_, err := t.conn.WriteTo(packet, &net.IPAddr{IP: destIP})
	return err
}

func (t *socketTransport) ReceiveTCP(deadline time.Time) (net.IP, []byte, error) {
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, nil, err
	}
	buf := make([]byte, 4096)
	n, addr, err := t.conn.ReadFrom(buf)
	if err != nil {
		return nil, nil, err
	}
	if n < 20 {
		return nil, nil, nelsterr.Connection("short IP packet captured")
	}
	ihl := int(buf[0]&0x0f) * 4
	if ihl < 20 || n < ihl {
		return nil, nil, nelsterr.Connection("malformed IP header captured")
	}

	srcIP := net.IP(append([]byte(nil), buf[12:16]...))
	segment := append([]byte(nil), buf[ihl:n]...)

	if ipAddr, ok := addr.(*net.IPAddr); ok && ipAddr.IP != nil {
		srcIP = ipAddr.IP
	}
	return srcIP, segment, nil
}

func (t *socketTransport) Close() error {
	return t.conn.Close()
}

var _ rawTransport = (*socketTransport)(nil)
