package extractor

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize junta as páginas na ordem de leitura e colapsa qualquer
// sequência de espaços em branco (incluindo as quebras entre páginas) em um
// único espaço ASCII. O leitor de PDF emite um token por glifo posicionado e
// o espaçamento entre tokens é irregular; os padrões de extração assumem
// tokens separados por espaço simples. Caixa e acentuação são preservadas.
func Normalize(pages []string) string {
	return NormalizeText(strings.Join(pages, "\n"))
}

// NormalizeText aplica a mesma normalização a um texto já concatenado.
// Idempotente: NormalizeText(NormalizeText(s)) == NormalizeText(s).
func NormalizeText(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// NormalizeDecimal converte um número em formato brasileiro para o formato
// canônico com ponto decimal. Três formas de entrada são aceitas:
// "1.234,56" -> "1234.56" (ponto é separador de milhar), "1234,56" ->
// "1234.56" e inteiro puro, devolvido como está.
func NormalizeDecimal(val string) string {
	if strings.Contains(val, ".") && strings.Contains(val, ",") {
		val = strings.ReplaceAll(val, ".", "")
		val = strings.Replace(val, ",", ".", 1)
	} else if strings.Contains(val, ",") {
		val = strings.Replace(val, ",", ".", 1)
	}
	return val
}

var cnpjSeparators = strings.NewReplacer(".", "", "/", "", "-", "")

// StripCNPJ remove a pontuação de um CNPJ, mantendo apenas os dígitos.
func StripCNPJ(cnpj string) string {
	return cnpjSeparators.Replace(cnpj)
}

// FormatCNPJ reinsere a pontuação de exibição (NN.NNN.NNN/NNNN-NN). Só é
// aplicado a entradas com exatamente 14 caracteres; qualquer outra coisa é
// devolvida sem alteração.
func FormatCNPJ(cnpj string) string {
	if len(cnpj) != 14 {
		return cnpj
	}
	return cnpj[0:2] + "." + cnpj[2:5] + "." + cnpj[5:8] + "/" + cnpj[8:12] + "-" + cnpj[12:14]
}
