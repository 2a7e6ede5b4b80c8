// internal/domain/models.go
package domain

import (
	"fmt"
	"time"
)

// CTe representa os dados extraídos de um CT-e (Conhecimento de Transporte
// Eletrônico). Campo vazio significa "não encontrado no documento".
type CTe struct {
	DataEmissao        string `json:"data_emissao"`
	NumeroCTe          string `json:"numero_cte"`
	Serie              string `json:"serie"`
	ChaveAcesso        string `json:"chave_acesso"`
	Transportadora     string `json:"transportadora"`
	CNPJTransportadora string `json:"cnpj_transportadora"`
	Remetente          string `json:"remetente"`
	CNPJRemetente      string `json:"cnpj_remetente"`
	CidadeOrigem       string `json:"cidade_origem"`
	UFOrigem           string `json:"uf_origem"`
	Destinatario       string `json:"destinatario"`
	CNPJDestinatario   string `json:"cnpj_destinatario"`
	CidadeDestino      string `json:"cidade_destino"`
	UFDestino          string `json:"uf_destino"`
	Produto            string `json:"produto"`
	Peso               string `json:"peso"`
	QuantidadeVolumes  string `json:"quantidade_volumes"`
	ValorTotalCarga    string `json:"valor_total_carga"`
	ValorFrete         string `json:"valor_frete"`
	ValorICMS          string `json:"valor_icms"`
	NFe                string `json:"nfe"`
	// PlacaVeiculo é reservado para preenchimento manual; a extração nunca
	// popula este campo e ele não conta para a completude.
	PlacaVeiculo string `json:"placa_veiculo"`
}

// Field é um campo extraível do CT-e com seu rótulo de exibição.
type Field struct {
	Label string
	Value func(*CTe) string
}

// Fields lista os campos extraíveis na ordem canônica do registro.
// PlacaVeiculo fica de fora: é entrada manual, não extração.
var Fields = []Field{
	{"Data de Emissão", func(c *CTe) string { return c.DataEmissao }},
	{"Número do CT-e", func(c *CTe) string { return c.NumeroCTe }},
	{"Série", func(c *CTe) string { return c.Serie }},
	{"Chave de Acesso", func(c *CTe) string { return c.ChaveAcesso }},
	{"Transportadora", func(c *CTe) string { return c.Transportadora }},
	{"CNPJ Transportadora", func(c *CTe) string { return c.CNPJTransportadora }},
	{"Remetente", func(c *CTe) string { return c.Remetente }},
	{"CNPJ Remetente", func(c *CTe) string { return c.CNPJRemetente }},
	{"Cidade de Origem", func(c *CTe) string { return c.CidadeOrigem }},
	{"UF de Origem", func(c *CTe) string { return c.UFOrigem }},
	{"Destinatário", func(c *CTe) string { return c.Destinatario }},
	{"CNPJ Destinatário", func(c *CTe) string { return c.CNPJDestinatario }},
	{"Cidade de Destino", func(c *CTe) string { return c.CidadeDestino }},
	{"UF de Destino", func(c *CTe) string { return c.UFDestino }},
	{"Produto", func(c *CTe) string { return c.Produto }},
	{"Peso", func(c *CTe) string { return c.Peso }},
	{"Volumes", func(c *CTe) string { return c.QuantidadeVolumes }},
	{"Valor da Carga", func(c *CTe) string { return c.ValorTotalCarga }},
	{"Valor do Frete", func(c *CTe) string { return c.ValorFrete }},
	{"Valor ICMS", func(c *CTe) string { return c.ValorICMS }},
	{"NF-e", func(c *CTe) string { return c.NFe }},
}

// MonthKey identifica um lote mensal de CT-es.
type MonthKey struct {
	Year  int
	Month int
}

// String devolve a chave de armazenamento no formato YYYY-MM.
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
}

// MonthKeyFromEmissao deriva a chave do mês da data de emissão (DD/MM/YYYY).
// Retorna ok=false quando a data não é parseável.
func MonthKeyFromEmissao(dataEmissao string) (MonthKey, bool) {
	t, err := time.Parse("02/01/2006", dataEmissao)
	if err != nil {
		return MonthKey{}, false
	}
	return MonthKey{Year: t.Year(), Month: int(t.Month())}, true
}

var monthNames = []string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthName devolve o nome do mês em português (1-12); vazio fora do intervalo.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}
