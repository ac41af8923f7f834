package gateway

import (
	"context"
	"errors"
	"io"
	"net"
	"regexp"
	"strings"
	"syscall"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
)

type Class string

const (
	ClassTransient Class = "transient"
	ClassPermanent Class = "permanent"
)

var transientErrnos = []error{
	syscall.ECONNREFUSED,
	syscall.ECONNRESET,
	syscall.ECONNABORTED,
	syscall.EPIPE,
	syscall.ENETUNREACH,
	syscall.EHOSTUNREACH,
	syscall.ETIMEDOUT,
}

var transientPatterns = []string{
	"no such host",
	"connection refused",
	"connection reset",
	"broken pipe",
	"network is unreachable",
	"i/o timeout",
	"unexpected eof",
	"server closed",
	"bad gateway",
	"service unavailable",
	"gateway timeout",
	"internal server error",
	"too many connections",
}

// status=503, status 502, (500) and the like.
var serverStatusPattern = regexp.MustCompile(`(?:status[=: ]\s*|\()5\d\d\b`)

type temporary interface {
	Temporary() bool
}

type statusCoder interface {
	StatusCode() int
}

// Classify decides whether err is worth retrying. Only failures positively
// recognised as infrastructure trouble are transient.
func Classify(err error) Class {
	if err == nil {
		return ClassPermanent
	}
	if contractx.IsTaxonomy(err) || errors.Is(err, context.Canceled) {
		return ClassPermanent
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ClassTransient
	}
	for _, errno := range transientErrnos {
		if errors.Is(err, errno) {
			return ClassTransient
		}
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ClassTransient
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ClassTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTransient
	}

	var tmp temporary
	if errors.As(err, &tmp) && tmp.Temporary() {
		return ClassTransient
	}
	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() >= 500 {
		return ClassTransient
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return ClassTransient
		}
	}
	if msg == "eof" || strings.HasSuffix(msg, ": eof") || serverStatusPattern.MatchString(msg) {
		return ClassTransient
	}
	return ClassPermanent
}
