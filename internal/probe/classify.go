package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"syscall"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// classify maps a transport error to a failure kind. Only the probe's own
// deadline yields TimedOut, and it is checked first so a DNS lookup cut off
// by it still counts as TimedOut. A resolver or dialer giving up on its own
// timer is a connection failure.
func classify(ctx context.Context, err error) domain.StatusKind {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return domain.KindTimedOut
	}
	if isConnectionFailure(err) {
		return domain.KindUnreachable
	}
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return domain.KindTimedOut
	}
	return domain.KindUnknown
}

func isConnectionFailure(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var addrErr *net.AddrError
	if errors.As(err, &addrErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		return true
	}
	return isTLSFailure(err)
}

func isTLSFailure(err error) bool {
	var (
		recordErr    tls.RecordHeaderError
		verifyErr    *tls.CertificateVerificationError
		alertErr     tls.AlertError
		unknownAuth  x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidCert  x509.CertificateInvalidError
		unknownAuthP *x509.UnknownAuthorityError
		hostnameErrP *x509.HostnameError
	)
	return errors.As(err, &recordErr) ||
		errors.As(err, &verifyErr) ||
		errors.As(err, &alertErr) ||
		errors.As(err, &unknownAuth) ||
		errors.As(err, &unknownAuthP) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &hostnameErrP) ||
		errors.As(err, &invalidCert)
}
