package config

import (
	"strings"
	"unicode"
)

// StorageConfig controls where uploaded images live.
type StorageConfig struct {
	// Dir is the local directory images are written to.
	Dir string `env:"DIR" envDefault:"./data/media"`
	// MediaPrefix is the URL path images are served from.
	MediaPrefix string `env:"MEDIA_PREFIX" envDefault:"/media/"`
}

// Sanitize normalizes the media prefix to "/x/".
func (s *StorageConfig) Sanitize() {
	s.Dir = strings.TrimSpace(s.Dir)
	p := "/" + strings.Trim(strings.TrimSpace(s.MediaPrefix), "/") + "/"
	if p == "//" {
		p = "/media/"
	}
	s.MediaPrefix = p
}

// SiteConfig holds the agent's public contact details.
type SiteConfig struct {
	Name           string `env:"NAME"            envDefault:"Leco Imóveis"`
	AgentName      string `env:"AGENT_NAME"      envDefault:"Leco"`
	WhatsAppNumber string `env:"WHATSAPP_NUMBER" envDefault:"5515999999999"`
	CRECI          string `env:"CRECI"`
}

// Sanitize keeps only the digits of the WhatsApp number.
func (s *SiteConfig) Sanitize() {
	s.WhatsAppNumber = strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s.WhatsAppNumber)
	s.Name = strings.TrimSpace(s.Name)
	s.AgentName = strings.TrimSpace(s.AgentName)
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Path    string `env:"PATH"    envDefault:"/metrics"`
}
