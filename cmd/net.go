package main

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// splitHostPort splits an address into host and port, using defaultPort if no port is specified.
func splitHostPort(addr string, defaultPort int) (string, string, error) {
	ipaddr, port, err := net.SplitHostPort(addr)
	if err != nil {
		addr = addr + ":" + strconv.Itoa(defaultPort)
		ipaddr, port, err = net.SplitHostPort(addr)
		if err != nil {
			return "", "", err
		}
	}
	return ipaddr, port, nil
}

// parsePeers turns a comma separated list into the addresses of ranks
// 0, 1, ... in the order given.
func parsePeers(list string, defaultPort int) ([]string, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var peers []string
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			return nil, fmt.Errorf("empty address in peer list %q", list)
		}
		host, port, err := splitHostPort(entry, defaultPort)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", entry, err)
		}
		peers = append(peers, net.JoinHostPort(host, port))
	}
	return peers, nil
}
