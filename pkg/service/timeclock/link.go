//    Copyright 2017 Ewout Prangsma
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package timeclock

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
)

// LinkWaiter waits for the network link to come up.
type LinkWaiter interface {
	// WaitForLink blocks until a local IPv4 address is available
	// and returns it.
	WaitForLink(ctx context.Context) (net.IP, error)
}

type interfaceLinkWaiter struct {
	interval time.Duration
}

// NewInterfaceLinkWaiter returns a LinkWaiter that polls the
// network interfaces of the host for an IPv4 address.
func NewInterfaceLinkWaiter(interval time.Duration) LinkWaiter {
	return &interfaceLinkWaiter{interval: interval}
}

// WaitForLink blocks until a local IPv4 address is available
// and returns it.
func (w *interfaceLinkWaiter) WaitForLink(ctx context.Context) (net.IP, error) {
	for {
		ip, err := LocalIPv4()
		if err != nil {
			return nil, err
		}
		if ip != nil {
			return ip, nil
		}
		select {
		case <-time.After(w.interval):
			// Retry
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// LocalIPv4 returns the first IPv4 address of an interface that is up,
// supports broadcast and is not a loopback interface.
// Returns nil when no such address exists.
func LocalIPv4() (net.IP, error) {
	intfs, err := net.Interfaces()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to get network interfaces")
	}
	for _, intf := range intfs {
		flagMask := net.FlagUp | net.FlagBroadcast | net.FlagLoopback
		flagValue := net.FlagUp | net.FlagBroadcast
		if intf.Flags&flagMask == flagValue {
			addrs, err := intf.Addrs()
			if err != nil {
				continue
			}
			if localAddr := firstIPv4(addrs); localAddr != nil {
				return localAddr, nil
			}
		}
	}
	return nil, nil
}

func firstIPv4(addrs []net.Addr) net.IP {
	for _, x := range addrs {
		if ipn, ok := x.(*net.IPNet); ok {
			if result := ipn.IP.To4(); result != nil {
				return result
			}
		}
	}
	return nil
}
