package browser

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"sync"
)

// Port bounds for driver sessions.
const (
	DefaultPort = 9515
	MinPort     = 1024
	MaxPort     = 65535
)

// ErrNoFreePort is returned when every port in the registry's range is
// reserved or in use.
var ErrNoFreePort = errors.New("no free port")

// PortRegistry hands out distinct, currently unused TCP ports to concurrent
// sessions. A port stays reserved until Release, even after the driver has
// bound it.
type PortRegistry struct {
	mu       sync.Mutex
	reserved map[int]struct{}
	min, max int

	// available reports whether nothing is listening on port.
	available func(port int) bool
}

// NewPortRegistry returns a registry over [min, max], clamped to the
// unprivileged range.
func NewPortRegistry(min, max int) *PortRegistry {
	if min < MinPort {
		min = MinPort
	}
	if max <= 0 || max > MaxPort {
		max = MaxPort
	}
	return &PortRegistry{
		reserved:  make(map[int]struct{}),
		min:       min,
		max:       max,
		available: listenable,
	}
}

// ValidPort reports whether port may be used for a driver session.
func ValidPort(port int) bool { return port >= MinPort && port <= MaxPort }

// Reserve returns the first port at or above from that is neither reserved
// nor in use. A from outside the range starts at the range minimum.
func (r *PortRegistry) Reserve(from int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if from < r.min || from > r.max {
		from = r.min
	}
	for port := from; port <= r.max; port++ {
		if _, taken := r.reserved[port]; taken {
			continue
		}
		if !r.available(port) {
			continue
		}
		r.reserved[port] = struct{}{}
		return port, nil
	}
	return 0, fmt.Errorf("%w in %d-%d", ErrNoFreePort, from, r.max)
}

// Claim reserves exactly port, failing if it is reserved or in use.
func (r *PortRegistry) Claim(port int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !ValidPort(port) {
		return fmt.Errorf("port %d outside %d-%d", port, MinPort, MaxPort)
	}
	if _, taken := r.reserved[port]; taken {
		return fmt.Errorf("port %d already reserved", port)
	}
	if !r.available(port) {
		return fmt.Errorf("port %d is in use", port)
	}
	r.reserved[port] = struct{}{}
	return nil
}

// Release returns port to the pool. Releasing an unreserved port is a no-op.
func (r *PortRegistry) Release(port int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reserved, port)
}

// Reserved lists the reserved ports in ascending order.
func (r *PortRegistry) Reserved() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.reserved))
	for p := range r.reserved {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

func listenable(port int) bool {
	l, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = l.Close()
	return true
}
