package extractor

import (
	"regexp"
	"strings"

	"cte-service/internal/domain"
)

// Service define a interface do motor de extração de campos do CT-e.
type Service interface {
	Extract(text string) domain.CTe
}

type service struct{}

// NewService cria uma nova instância do serviço de extração.
func NewService() Service {
	return &service{}
}

// Padrões de extração, compilados uma vez. Cada campo tem um padrão
// primário ajustado ao layout mais comum do DACTE e um ou mais fallbacks
// para layouts alternativos; o primeiro que casar vence e os demais não são
// tentados.
var (
	dataEmissaoRegex    = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})\s*[-–]\s*\d{2}:\d{2}`)
	dataEmissaoAltRegex = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})`)

	numeroSerieRegex = regexp.MustCompile(`(?i)N[ºo°]?\s*DOCUMENTO\s+CT-?E\s+S[ÉE]RIE[:\s]*(\d+)\s+(\d+)`)
	numeroRegex      = regexp.MustCompile(`(?i)N[ÚU]MERO\s*[:\s]*(\d+)`)
	numeroAltRegex   = regexp.MustCompile(`(?i)CT-?e\s*n[°ºo]?\s*[:\s]*(\d+)`)
	serieRegex       = regexp.MustCompile(`(?i)S[ÉE]RIE[:\s]*(\d+)`)

	chaveAcessoRegex = regexp.MustCompile(`(\d{4}(?:\s*\d{4}){10})`)

	transportadoraRegex    = regexp.MustCompile(`(?i)EMITENTE[^A-ZÀ-Ú]*([A-ZÀ-Ú][A-ZÀ-Ú\s]+(?:LTDA|LTDA\.|S\.?A\.?|EIRELI|ME|EPP|TRANSPORTES?))`)
	transportadoraAltRegex = regexp.MustCompile(`(?i)([A-ZÀ-Ú][A-ZÀ-Ú\s]+(?:TRANSPORTES?|LOG[ÍI]STICA)[A-ZÀ-Ú\s]*(?:LTDA|LTDA\.|S\.?A\.?))`)
	cnpjContextRegex       = regexp.MustCompile(`CNPJ[:\s]*(\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2})`)
	cnpjAnyRegex           = regexp.MustCompile(`(?i)CNPJ[:\s]*(\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2})`)

	remetenteRegex     = regexp.MustCompile(`(?i)REMETENTE[^A-ZÀ-Ú]*([A-ZÀ-Ú][A-ZÀ-Ú\s]+(?:LTDA|S\.?A\.?|EIRELI|IND[ÚU]STRIA|COM[ÉE]RCIO))`)
	cnpjRemetenteRegex = regexp.MustCompile(`(?is)REMETENTE[^0-9]*?CNPJ[:\s]*(\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2})`)

	origemDestinoRegex = regexp.MustCompile(`([A-ZÀ-Ú][A-ZÀ-Ú\s]+?)\s*-\s*([A-Z]{2})\s+([A-ZÀ-Ú][A-ZÀ-Ú\s]+?)\s*-\s*([A-Z]{2})`)
	municipioRegex     = regexp.MustCompile(`(?i)MUNIC[ÍI]PIO[:\s]*([A-ZÀ-Ú][A-ZÀ-Ú\s]+?)(?:\s*[-–]\s*|\s+)([A-Z]{2})\s`)
	destinoRegex       = regexp.MustCompile(`(?i)DESTINO[:\s]*([A-ZÀ-Ú][A-ZÀ-Ú\s]+?)(?:\s*[-–]\s*|\s+)([A-Z]{2})`)

	destinatarioRegex     = regexp.MustCompile(`(?i)DESTINAT[ÁA]RIO[^A-ZÀ-Ú]*([A-ZÀ-Ú][A-ZÀ-Ú\s]+(?:LTDA|S\.?A\.?|EIRELI))`)
	cnpjDestinatarioRegex = regexp.MustCompile(`(?is)DESTINAT[ÁA]RIO[^0-9]*?CNPJ[:\s]*(\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2})`)

	// RE2 não suporta lookahead; a palavra de fronteira entra no casamento
	// como grupo não capturado em vez de (?=...).
	produtoRegex    = regexp.MustCompile(`(?i)PRODUTO\s+PREDOMINANTE[:\s]*([A-ZÀ-Ú][A-ZÀ-Ú\s\-\d,\.]+?)\s+(?:PESO|QNT|QUANTIDADE|VALOR|COMPONENTES)`)
	produtoAltRegex = regexp.MustCompile(`(?i)PRODUTO\s+PREDOMINANTE[:\s]*([A-ZÀ-Ú][A-ZÀ-Ú\s\-\d,\.]{5,50})`)

	pesoRegex    = regexp.MustCompile(`(?i)PESO\s*(?:BRUTO|TOTAL)?[:\s]*(\d{1,3}(?:[.,]\d{3})*[.,]\d+|\d+)\s*(?:KG)?`)
	pesoAltRegex = regexp.MustCompile(`(?i)QNT\.?\s*(\d{1,3}(?:[.,]\d{3})*[.,]\d+|\d+)`)

	volumesRegex = regexp.MustCompile(`(?i)QUANTIDADE\s+(?:DE\s+)?VOLUMES[:\s]*(\d+)[.,]?(\d+)?`)

	valorCargaRegex = regexp.MustCompile(`(?i)VALOR\s+TOTAL\s+(?:DA\s+)?CARGA[:\s]*R?\$?\s*(\d+[.\d]*,\d{2})`)
	valorFreteRegex = regexp.MustCompile(`(?i)VALOR\s+TOTAL\s+(?:DA\s+)?PRESTA[ÇC][ÃA]O[:\s]*R?\$?\s*(\d+[.\d]*,\d{2})`)
	valorICMSRegex  = regexp.MustCompile(`(?i)VALOR\s+(?:DO\s+)?ICMS[:\s]*R?\$?\s*(\d+[.\d]*,\d{2})`)

	nfeRegex        = regexp.MustCompile(`(?i)NF-?e?[:\s]*(\d{3})\s*/\s*(\d+)`)
	nfeAltRegex     = regexp.MustCompile(`(?i)S[ÉE]RIE\s*/\s*N[ºo°]?\s*DOCUMENTO[^0-9]*(\d{3})\s*/\s*(\d+)`)
	notaFiscalRegex = regexp.MustCompile(`(?i)NOTA\s+FISCAL[:\s]*(\d+)`)
)

// firstMatch tenta os padrões na ordem dada e devolve o primeiro grupo do
// primeiro que casar. A cadeia de fallback é explícita: um padrão posterior
// nunca sobrepõe um anterior que já casou.
func firstMatch(text string, patterns ...*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// Extract aplica a bateria de regras ao texto normalizado e devolve o
// registro preenchido. Função pura: mesmo texto, mesmo registro. Um campo
// cujos padrões não casam fica vazio; nada aqui falha.
func (svc *service) Extract(text string) domain.CTe {
	var cte domain.CTe

	cte.DataEmissao = firstMatch(text, dataEmissaoRegex, dataEmissaoAltRegex)

	svc.extractNumeroSerie(text, &cte)
	svc.extractChaveAcesso(text, &cte)
	svc.extractTransportadora(text, &cte)
	svc.extractRemetente(text, &cte)
	svc.extractOrigemDestino(text, &cte)
	svc.extractDestinatario(text, &cte)

	cte.Produto = strings.TrimSpace(firstMatch(text, produtoRegex, produtoAltRegex))

	if peso := firstMatch(text, pesoRegex, pesoAltRegex); peso != "" {
		cte.Peso = NormalizeDecimal(peso)
	}

	// Apenas a parte inteira antes de qualquer separador decimal/milhar.
	cte.QuantidadeVolumes = firstMatch(text, volumesRegex)

	if v := firstMatch(text, valorCargaRegex); v != "" {
		cte.ValorTotalCarga = NormalizeDecimal(v)
	}
	if v := firstMatch(text, valorFreteRegex); v != "" {
		cte.ValorFrete = NormalizeDecimal(v)
	}
	if v := firstMatch(text, valorICMSRegex); v != "" {
		cte.ValorICMS = NormalizeDecimal(v)
	}

	svc.extractNFe(text, &cte)

	return cte
}

func (svc *service) extractNumeroSerie(text string, cte *domain.CTe) {
	// Primário: cabeçalho combinado "Nº DOCUMENTO CT-E SÉRIE: {numero} {serie}".
	if m := numeroSerieRegex.FindStringSubmatch(text); m != nil {
		cte.NumeroCTe = m[1]
		cte.Serie = m[2]
		return
	}
	cte.NumeroCTe = firstMatch(text, numeroRegex, numeroAltRegex)
	cte.Serie = firstMatch(text, serieRegex)
}

func (svc *service) extractChaveAcesso(text string, cte *domain.CTe) {
	// Onze grupos de 4 dígitos; os espaços saem na captura.
	if m := chaveAcessoRegex.FindStringSubmatch(text); m != nil {
		cte.ChaveAcesso = whitespaceRegex.ReplaceAllString(m[1], "")
	}
}

// extractTransportadora localiza o nome do emitente e então procura o CNPJ
// apenas no texto a partir desse casamento, para não confundir o CNPJ da
// transportadora com o de outras partes do documento.
func (svc *service) extractTransportadora(text string, cte *domain.CTe) {
	for _, re := range []*regexp.Regexp{transportadoraRegex, transportadoraAltRegex} {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		cte.Transportadora = strings.TrimSpace(text[loc[2]:loc[3]])
		if m := cnpjContextRegex.FindStringSubmatch(text[loc[0]:]); m != nil {
			cte.CNPJTransportadora = StripCNPJ(m[1])
		}
		break
	}
	// Último recurso, só para o CNPJ: primeira ocorrência rotulada no texto.
	if cte.CNPJTransportadora == "" {
		if m := cnpjAnyRegex.FindStringSubmatch(text); m != nil {
			cte.CNPJTransportadora = StripCNPJ(m[1])
		}
	}
}

func (svc *service) extractRemetente(text string, cte *domain.CTe) {
	cte.Remetente = strings.TrimSpace(firstMatch(text, remetenteRegex))
	if m := cnpjRemetenteRegex.FindStringSubmatch(text); m != nil {
		cte.CNPJRemetente = StripCNPJ(m[1])
	}
}

func (svc *service) extractOrigemDestino(text string, cte *domain.CTe) {
	// Primário: os pares "CIDADE - UF" de origem e destino impressos em
	// sequência, layout mais comum do DACTE.
	if m := origemDestinoRegex.FindStringSubmatch(text); m != nil {
		cte.CidadeOrigem = strings.TrimSpace(m[1])
		cte.UFOrigem = m[2]
		cte.CidadeDestino = strings.TrimSpace(m[3])
		cte.UFDestino = m[4]
		return
	}
	if m := municipioRegex.FindStringSubmatch(text); m != nil {
		cte.CidadeOrigem = strings.TrimSpace(m[1])
		cte.UFOrigem = m[2]
	}
	if m := destinoRegex.FindStringSubmatch(text); m != nil {
		cte.CidadeDestino = strings.TrimSpace(m[1])
		cte.UFDestino = m[2]
	}
}

func (svc *service) extractDestinatario(text string, cte *domain.CTe) {
	cte.Destinatario = strings.TrimSpace(firstMatch(text, destinatarioRegex))
	if m := cnpjDestinatarioRegex.FindStringSubmatch(text); m != nil {
		cte.CNPJDestinatario = StripCNPJ(m[1])
	}
}

func (svc *service) extractNFe(text string, cte *domain.CTe) {
	for _, re := range []*regexp.Regexp{nfeRegex, nfeAltRegex} {
		if m := re.FindStringSubmatch(text); m != nil {
			cte.NFe = m[1] + "/" + m[2]
			return
		}
	}
	cte.NFe = firstMatch(text, notaFiscalRegex)
}
