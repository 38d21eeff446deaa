package discovery

import (
	"context"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
)

// Service is the DNS-SD service type controllers advertise.
const Service = "_sprinkler._tcp"

const (
	domain         = "local."
	defaultTimeout = 3 * time.Second
)

// Controller is one controller found on the LAN.
type Controller struct {
	Instance string
	HostName string
	Port     int
	Addrs    []net.IP
	// Text holds the TXT record as key=value pairs, e.g. version.
	Text map[string]string
}

// BaseURL returns the URL the API client should use, preferring an IPv4
// address, then IPv6, then the advertised host name.
func (c Controller) BaseURL() string {
	return "http://" + net.JoinHostPort(c.host(), strconv.Itoa(c.Port))
}

func (c Controller) host() string {
	for _, ip := range c.Addrs {
		if ip.To4() != nil {
			return ip.String()
		}
	}
	if len(c.Addrs) > 0 {
		return c.Addrs[0].String()
	}
	return strings.TrimSuffix(c.HostName, ".")
}

// Browse listens for controllers until timeout (zero means a short default)
// or ctx ends, and returns them ordered by instance name.
func Browse(ctx context.Context, timeout time.Duration, log *zap.Logger) ([]Controller, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("init mdns resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(map[string]Controller)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			// Filter-out spurious candidates
			if !strings.Contains(entry.Service, Service) {
				continue
			}
			c := fromEntry(entry)
			log.Debug("controller found",
				zap.String("instance", c.Instance),
				zap.String("url", c.BaseURL()))
			found[c.Instance] = merge(found[c.Instance], c)
		}
	}()

	if err := resolver.Browse(ctx, Service, domain, entries); err != nil {
		return nil, fmt.Errorf("browse %s: %w", Service, err)
	}
	<-ctx.Done()
	<-done

	out := make([]Controller, 0, len(found))
	for _, c := range found {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Controller) int { return strings.Compare(a.Instance, b.Instance) })
	return out, nil
}

// Advertise publishes a controller instance on all interfaces. Callers must
// Shutdown the returned server.
func Advertise(instance string, port int, text []string) (*zeroconf.Server, error) {
	server, err := zeroconf.Register(instance, Service, domain, port, text, nil)
	if err != nil {
		return nil, fmt.Errorf("advertise %s: %w", Service, err)
	}
	return server, nil
}

func fromEntry(entry *zeroconf.ServiceEntry) Controller {
	c := Controller{
		Instance: entry.Instance,
		HostName: entry.HostName,
		Port:     entry.Port,
		Text:     parseText(entry.Text),
	}
	c.Addrs = append(c.Addrs, entry.AddrIPv4...)
	c.Addrs = append(c.Addrs, entry.AddrIPv6...)
	return c
}

// merge folds repeated announcements of one instance together.
func merge(prev, next Controller) Controller {
	if prev.Instance == "" {
		return next
	}
	for _, ip := range next.Addrs {
		if !slices.ContainsFunc(prev.Addrs, ip.Equal) {
			prev.Addrs = append(prev.Addrs, ip)
		}
	}
	if next.Port != 0 {
		prev.Port = next.Port
	}
	if next.HostName != "" {
		prev.HostName = next.HostName
	}
	for k, v := range next.Text {
		if prev.Text == nil {
			prev.Text = make(map[string]string)
		}
		prev.Text[k] = v
	}
	return prev
}

func parseText(records []string) map[string]string {
	if len(records) == 0 {
		return nil
	}
	out := make(map[string]string, len(records))
	for _, r := range records {
		k, v, _ := strings.Cut(r, "=")
		if k = strings.TrimSpace(k); k != "" {
			out[k] = v
		}
	}
	return out
}
