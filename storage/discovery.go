package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/miekg/dns"
	"github.com/ruteri/unified-ledger/interfaces"
)

// StorageTXTPrefix marks TXT records that publish a storage backend URI.
const StorageTXTPrefix = "ul-storage="

const defaultResolver = "127.0.0.53:53"

// LocationResolver discovers storage backend locations published in DNS.
type LocationResolver struct {
	// Server is the DNS server address (host:port). Empty uses the first
	// nameserver from /etc/resolv.conf.
	Server string
	Client *dns.Client
	log    *slog.Logger
}

// NewLocationResolver creates a resolver querying server.
func NewLocationResolver(server string, log *slog.Logger) *LocationResolver {
	if log == nil {
		log = slog.Default()
	}
	return &LocationResolver{
		Server: server,
		Client: new(dns.Client),
		log:    log,
	}
}

// DiscoverBackendLocations resolves TXT records of domain and returns every valid
// "ul-storage=<uri>" entry in record order. Entries with unparseable URIs are skipped.
func (r *LocationResolver) DiscoverBackendLocations(ctx context.Context, domain string) ([]interfaces.StorageBackendLocation, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(domain), dns.TypeTXT)
	m.RecursionDesired = true

	in, _, err := r.Client.ExchangeContext(ctx, m, r.server())
	if err != nil {
		return nil, fmt.Errorf("%w: TXT lookup for %s failed: %v", interfaces.ErrBackendUnavailable, domain, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("TXT lookup for %s failed: %s", domain, dns.RcodeToString[in.Rcode])
	}

	var records []string
	for _, answer := range in.Answer {
		if txt, ok := answer.(*dns.TXT); ok {
			// long records are split into 255-byte strings
			records = append(records, strings.Join(txt.Txt, ""))
		}
	}

	locations := ParseStorageTXTRecords(records, r.log)
	r.log.Debug("Discovered storage locations",
		slog.String("domain", domain),
		slog.Int("count", len(locations)))

	return locations, nil
}

func (r *LocationResolver) server() string {
	if r.Server != "" {
		return r.Server
	}
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(conf.Servers) == 0 {
		return defaultResolver
	}
	return net.JoinHostPort(conf.Servers[0], conf.Port)
}

// ParseStorageTXTRecords extracts storage locations from raw TXT strings.
func ParseStorageTXTRecords(records []string, log *slog.Logger) []interfaces.StorageBackendLocation {
	var locations []interfaces.StorageBackendLocation
	for _, record := range records {
		record = strings.TrimSpace(record)
		if !strings.HasPrefix(record, StorageTXTPrefix) {
			continue
		}
		uri := strings.TrimPrefix(record, StorageTXTPrefix)
		loc, err := interfaces.NewStorageBackendLocation(uri)
		if err != nil {
			if log != nil {
				log.Warn("Ignoring invalid storage TXT record", "err", err)
			}
			continue
		}
		locations = append(locations, loc)
	}
	return locations
}
