package services

import (
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/adamwyrzycki28-sudo/Snapped-final/internal/config"

	"github.com/oschwald/geoip2-golang"
)

// GeoIPService resolves client IPs to ISO country codes for click and user
// enrichment. Lookups degrade to empty string whenever the database is
// missing, so it is safe to run without one.
type GeoIPService struct {
	cfg    config.Config
	logger *slog.Logger
	reader *geoip2.Reader
	mu     sync.RWMutex
}

func NewGeoIPService(cfg config.Config, logger *slog.Logger) *GeoIPService {
	return &GeoIPService{
		cfg:    cfg,
		logger: logger,
	}
}

// Init opens the configured database if present. Missing databases only
// disable lookups.
func (s *GeoIPService) Init() {
	if _, err := os.Stat(s.cfg.GeoIPDBPath); err != nil {
		s.logger.Warn("GeoIP: database not found, lookups disabled", "path", s.cfg.GeoIPDBPath)
		return
	}
	s.Reload(s.cfg.GeoIPDBPath)
}

// Reload swaps in a fresh copy of the database, e.g. after geoipupdate ran.
func (s *GeoIPService) Reload(path string) {
	reader, err := geoip2.Open(path)
	if err != nil {
		s.logger.Error("GeoIP: failed to open database", "path", path, "error", err)
		return
	}

	s.mu.Lock()
	if s.reader != nil {
		s.reader.Close()
	}
	s.reader = reader
	s.mu.Unlock()

	s.logger.Info("GeoIP: loaded database", "epoch", reader.Metadata().BuildEpoch)
}

// Country returns the ISO country code for an IP, or "" when unknown.
func (s *GeoIPService) Country(ipStr string) string {
	s.mu.RLock()
	reader := s.reader
	s.mu.RUnlock()

	if reader == nil {
		return ""
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}

	record, err := reader.Country(ip)
	if err != nil {
		s.logger.Error("GeoIP: lookup error", "ip", ipStr, "error", err)
		return ""
	}
	return record.Country.IsoCode
}

func (s *GeoIPService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader != nil {
		s.reader.Close()
		s.reader = nil
	}
}
