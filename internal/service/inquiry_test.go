package service

import (
	"net/url"
	"testing"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInquiryLinker_Link(t *testing.T) {
	l := InquiryLinker{Phone: "+55 (11) 99186-6739", AgentName: "Leandro"}
	link := l.Link(&model.Property{Title: "Casa & Quintal", Ref: "REF000001", Price: "R$ 450.000"})

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, "/5511991866739", u.Path)
	assert.NotContains(t, link, "+")
	assert.Equal(t,
		"Olá Leandro, estou interessado no imóvel: Casa & Quintal - REF000001 no valor de R$ 450.000. Gostaria de mais informações.",
		u.Query().Get("text"))

	assert.Equal(t, "https://wa.me/5511991866739", l.Link(nil))
}
