// Package network reports whether the node's network link is up.
//
// Association with the access point is handled by the operating system
// (wpa_supplicant, NetworkManager). The node only observes the result.
package network

import (
	"net"
)

// Probe checks a network interface for a usable link.
//
// A link is up when the interface is administratively up, not loopback,
// and holds at least one unicast IP address.
type Probe struct {
	iface string

	interfaces func() ([]net.Interface, error)
	addrs      func(net.Interface) ([]net.Addr, error)
}

// NewProbe returns a probe for the named interface. An empty name accepts
// any non-loopback interface.
func NewProbe(iface string) *Probe {
	return &Probe{
		iface:      iface,
		interfaces: net.Interfaces,
		addrs:      func(i net.Interface) ([]net.Addr, error) { return i.Addrs() },
	}
}

// LinkUp reports whether the link is currently usable.
func (p *Probe) LinkUp() bool {
	return p.Address() != ""
}

// Address returns the first global unicast address on a usable interface.
// Empty when the link is down.
func (p *Probe) Address() string {
	ifaces, err := p.interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if p.iface != "" && iface.Name != p.iface {
			continue
		}
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if ip := p.firstIP(iface); ip != nil {
			return ip.String()
		}
	}
	return ""
}

func (p *Probe) firstIP(iface net.Interface) net.IP {
	addrs, err := p.addrs(iface)
	if err != nil {
		return nil
	}
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip != nil && ip.IsGlobalUnicast() {
			return ip
		}
	}
	return nil
}
