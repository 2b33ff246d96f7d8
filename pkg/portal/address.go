package portal

import "net"

// advertisedHost returns the host to put in the portal URL. A wildcard bind
// address is replaced by the first non-loopback IPv4 address of the machine.
func advertisedHost(bindIP string) string {
	ip := net.ParseIP(bindIP)
	if bindIP != "" && (ip == nil || !ip.IsUnspecified()) {
		return bindIP
	}

	if lan := firstLANAddress(); lan != "" {
		return lan
	}
	return "127.0.0.1"
}

// firstLANAddress scans interfaces that are up and not loopback
func firstLANAddress() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ip4 := ipNet.IP.To4(); ip4 != nil && !ip4.IsLinkLocalUnicast() {
				return ip4.String()
			}
		}
	}
	return ""
}
