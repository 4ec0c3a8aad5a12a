package middleware

import (
	"log/slog"
	"net"

	"github.com/labstack/echo/v4"
)

// TrustedProxies makes c.RealIP() honor X-Forwarded-For, but only for hops
// inside trustedCIDRs. The anonymous throttle keys on this address, so a
// client talking to the API directly cannot pick its own bucket by sending
// the header.
//
// Echo walks X-Forwarded-For from the right and returns the first address
// that is not a trusted proxy.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) {
	opts := []echo.TrustOption{
		// Only the configured ranges count, not Echo's defaults.
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trustedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy CIDR", slog.String("cidr", cidr))
			continue
		}
		opts = append(opts, echo.TrustIPRange(network))
	}
	e.IPExtractor = echo.ExtractIPFromXFFHeader(opts...)
}
