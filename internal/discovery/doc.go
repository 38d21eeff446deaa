// Package discovery finds sprinkler controllers on the local network over
// mDNS/DNS-SD. Controllers advertise the _sprinkler._tcp service; the
// simulator can advertise itself the same way for development.
package discovery
