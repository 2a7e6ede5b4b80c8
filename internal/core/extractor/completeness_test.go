package extractor

import (
	"testing"

	"cte-service/internal/domain"
)

const totalExtractableFields = 21

func TestCompleteness_CountPlusMissingIsTotal(t *testing.T) {
	records := []domain.CTe{
		{},
		{DataEmissao: "15/03/2024"},
		{NumeroCTe: "1", ChaveAcesso: "123", Remetente: "A", Destinatario: "B"},
		{
			DataEmissao: "15/03/2024", NumeroCTe: "1234", Serie: "1",
			ChaveAcesso: "35240312345678000190570000000012341000001235",
			Transportadora: "T LTDA", CNPJTransportadora: "12345678000190",
			Remetente: "R LTDA", CNPJRemetente: "98765432000110",
			CidadeOrigem: "GOIANIA", UFOrigem: "GO",
			Destinatario: "D EIRELI", CNPJDestinatario: "11222333000144",
			CidadeDestino: "SAO PAULO", UFDestino: "SP",
			Produto: "ALIMENTOS", Peso: "1234.50", QuantidadeVolumes: "150",
			ValorTotalCarga: "45678.90", ValorFrete: "2345.67", ValorICMS: "281.48",
			NFe: "001/12345",
		},
	}

	for i, cte := range records {
		count := CountExtractedFields(&cte)
		missing := MissingFields(&cte)
		if count+len(missing) != totalExtractableFields {
			t.Errorf("record %d: count %d + missing %d != %d", i, count, len(missing), totalExtractableFields)
		}
	}
}

func TestCompleteness_PlacaVeiculoNeverCounted(t *testing.T) {
	cte := domain.CTe{PlacaVeiculo: "ABC1D23"}
	if got := CountExtractedFields(&cte); got != 0 {
		t.Errorf("CountExtractedFields = %d, want 0 (placa é entrada manual)", got)
	}
	for _, label := range MissingFields(&cte) {
		if label == "Placa Veículo" {
			t.Error("MissingFields must not report the manual-entry plate field")
		}
	}
}

func TestMissingFields_CanonicalOrder(t *testing.T) {
	cte := domain.CTe{}
	missing := MissingFields(&cte)
	if len(missing) != totalExtractableFields {
		t.Fatalf("len(missing) = %d, want %d", len(missing), totalExtractableFields)
	}
	if missing[0] != "Data de Emissão" {
		t.Errorf("missing[0] = %q, want %q", missing[0], "Data de Emissão")
	}
	if missing[len(missing)-1] != "NF-e" {
		t.Errorf("missing[last] = %q, want %q", missing[len(missing)-1], "NF-e")
	}
}

func TestIsMinimallyValid(t *testing.T) {
	tests := []struct {
		name string
		cte  domain.CTe
		want bool
	}{
		{
			name: "all identity fields present",
			cte:  domain.CTe{NumeroCTe: "1", ChaveAcesso: "x", CNPJRemetente: "1", CNPJDestinatario: "2"},
			want: true,
		},
		{
			name: "names stand in for missing tax IDs",
			cte:  domain.CTe{NumeroCTe: "1", ChaveAcesso: "x", Remetente: "R", Destinatario: "D"},
			want: true,
		},
		{
			name: "missing document number",
			cte:  domain.CTe{ChaveAcesso: "x", CNPJRemetente: "1", CNPJDestinatario: "2"},
			want: false,
		},
		{
			name: "missing access key",
			cte:  domain.CTe{NumeroCTe: "1", CNPJRemetente: "1", CNPJDestinatario: "2"},
			want: false,
		},
		{
			name: "sender entirely unknown",
			cte:  domain.CTe{NumeroCTe: "1", ChaveAcesso: "x", CNPJDestinatario: "2"},
			want: false,
		},
		{
			name: "recipient entirely unknown",
			cte:  domain.CTe{NumeroCTe: "1", ChaveAcesso: "x", CNPJRemetente: "1"},
			want: false,
		},
		{
			name: "empty record",
			cte:  domain.CTe{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMinimallyValid(&tt.cte); got != tt.want {
				t.Errorf("IsMinimallyValid = %v, want %v", got, tt.want)
			}
		})
	}
}
