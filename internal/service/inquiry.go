package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
)

// InquiryLinker builds WhatsApp deep links for listings.
type InquiryLinker struct {
	Phone     string // digits only, with country code
	AgentName string
}

// Link returns the wa.me URL with a prefilled message about p.
func (l InquiryLinker) Link(p *model.Property) string {
	phone := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, l.Phone)
	if p == nil {
		return "https://wa.me/" + phone
	}
	msg := fmt.Sprintf("Olá %s, estou interessado no imóvel: %s - %s no valor de %s. Gostaria de mais informações.",
		l.AgentName, p.Title, p.Ref, p.Price)
	return "https://wa.me/" + phone + "?text=" + strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
}
