package extractor

import "cte-service/internal/domain"

// CountExtractedFields conta os campos preenchidos do registro, excluindo a
// placa do veículo (entrada manual).
func CountExtractedFields(cte *domain.CTe) int {
	count := 0
	for _, f := range domain.Fields {
		if f.Value(cte) != "" {
			count++
		}
	}
	return count
}

// MissingFields devolve os rótulos dos campos vazios, na ordem canônica do
// registro. É o que o operador vê para corrigir um documento atípico.
func MissingFields(cte *domain.CTe) []string {
	var missing []string
	for _, f := range domain.Fields {
		if f.Value(cte) == "" {
			missing = append(missing, f.Label)
		}
	}
	return missing
}

// IsMinimallyValid verifica se o registro tem o mínimo para ser utilizável:
// número, chave de acesso e alguma identificação (CNPJ ou nome) de remetente
// e destinatário. O veredito é consultivo; extração e exportação nunca são
// bloqueadas por ele.
func IsMinimallyValid(cte *domain.CTe) bool {
	required := []string{
		cte.NumeroCTe,
		cte.ChaveAcesso,
		firstNonEmpty(cte.CNPJRemetente, cte.Remetente),
		firstNonEmpty(cte.CNPJDestinatario, cte.Destinatario),
	}
	for _, field := range required {
		if field == "" {
			return false
		}
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
