package util

import (
	"errors"
	"net"
	"net/url"
)

var ErrNoHostIP = errors.New("no non-loopback ipv4 address")

var privateIPNetworks = []net.IPNet{
	{
		IP:   net.ParseIP("10.0.0.0"),
		Mask: net.CIDRMask(8, 32),
	},
	{
		IP:   net.ParseIP("172.16.0.0"),
		Mask: net.CIDRMask(12, 32),
	},
	{
		IP:   net.ParseIP("192.168.0.0"),
		Mask: net.CIDRMask(16, 32),
	},
}

// ResolveHostIP returns the address workers use to reach this process, private networks first.
func ResolveHostIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}

	var ips []net.IP

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() || ipNet.IP.To4() == nil {
			continue
		}

		ips = append(ips, ipNet.IP)
	}

	return pickHostIP(ips)
}

func pickHostIP(ips []net.IP) (string, error) {
	for _, ip := range ips {
		if IsPrivateIP(ip) {
			return ip.String(), nil
		}
	}

	if len(ips) > 0 {
		return ips[0].String(), nil
	}

	return "", ErrNoHostIP
}

func IsPrivateIP(ip net.IP) bool {
	for _, n := range privateIPNetworks {
		if n.Contains(ip) {
			return true
		}
	}

	return false
}

// BaseAddr strips path, query and fragment from an url.
func BaseAddr(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return s
	}

	host := u.Hostname()
	if port := u.Port(); port != "" {
		host = net.JoinHostPort(host, port)
	}

	base := url.URL{
		Scheme: u.Scheme,
		Host:   host,
	}

	return base.String()
}
