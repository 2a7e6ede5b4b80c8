package exporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"cte-service/internal/domain"
)

var recordA = domain.CTe{
	DataEmissao:        "15/03/2024",
	NumeroCTe:          "1234",
	Serie:              "1",
	ChaveAcesso:        "35240312345678000190570000000012341000001235",
	Transportadora:     "TRANSPORTADORA RAPIDO SUL LTDA",
	CNPJTransportadora: "12345678000190",
	Remetente:          "INDUSTRIA DE ALIMENTOS BOA VISTA LTDA",
	CNPJRemetente:      "98765432000110",
	CidadeOrigem:       "GOIANIA",
	UFOrigem:           "GO",
	Destinatario:       "COMERCIO VAREJISTA PAULISTA EIRELI",
	CNPJDestinatario:   "11222333000144",
	CidadeDestino:      "SAO BERNARDO DO CAMPO",
	UFDestino:          "SP",
	Produto:            "ALIMENTOS INDUSTRIALIZADOS",
	Peso:               "1234.50",
	QuantidadeVolumes:  "150",
	ValorTotalCarga:    "45678.90",
	ValorFrete:         "2345.67",
	ValorICMS:          "281.48",
	NFe:                "001/12345",
}

var recordB = domain.CTe{
	DataEmissao: "02/01/2023", // mês diferente do lote, de propósito
	NumeroCTe:   "99",
	ChaveAcesso: "k2",
}

func TestGenerateXLSX_RoundTrip(t *testing.T) {
	svc := NewService()
	out, err := svc.GenerateXLSX([]domain.CTe{recordA, recordB})
	if err != nil {
		t.Fatalf("GenerateXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("reopening generated workbook: %v", err)
	}
	defer f.Close()

	if f.GetSheetList()[0] != "CT-e" {
		t.Errorf("sheet name = %q, want %q", f.GetSheetList()[0], "CT-e")
	}

	cells := []struct {
		cell string
		want string
	}{
		{"A1", "Data Emissão"},
		{"T1", "Placa Veículo"},
		{"A2", "15/03/2024"},
		{"B2", "1234"},
		{"D2", "35240312345678000190570000000012341000001235"},
		{"F2", "12.345.678/0001-90"},        // CNPJ repontuado para exibição
		{"I2", "GOIANIA - GO"},              // cidade e UF unidos
		{"L2", "SAO BERNARDO DO CAMPO - SP"},
		{"S2", "001/12345"},
		{"T2", ""},
		{"B3", "99"},
	}
	for _, tt := range cells {
		got, err := f.GetCellValue("CT-e", tt.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", tt.cell, err)
		}
		if got != tt.want {
			t.Errorf("cell %s = %q, want %q", tt.cell, got, tt.want)
		}
	}

	// Campos numéricos saem como número, não texto.
	peso, err := f.GetCellValue("CT-e", "N2")
	if err != nil {
		t.Fatalf("GetCellValue(N2): %v", err)
	}
	if peso != "1234.5" {
		t.Errorf("peso cell = %q, want numeric 1234.5", peso)
	}
}

func TestGenerateXLSX_EmptyBatchStillHasHeader(t *testing.T) {
	svc := NewService()
	out, err := svc.GenerateXLSX(nil)
	if err != nil {
		t.Fatalf("GenerateXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("reopening generated workbook: %v", err)
	}
	defer f.Close()

	got, _ := f.GetCellValue("CT-e", "A1")
	if got != "Data Emissão" {
		t.Errorf("A1 = %q, want header row", got)
	}
}

func TestGenerateCSV_Windows1252(t *testing.T) {
	svc := NewService()
	out, err := svc.GenerateCSV([]domain.CTe{recordA})
	if err != nil {
		t.Fatalf("GenerateCSV: %v", err)
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(out)
	if err != nil {
		t.Fatalf("decoding cp1252 output: %v", err)
	}
	text := string(decoded)

	if !strings.HasPrefix(text, "Data Emissão;Nº CT-e;Série;") {
		t.Errorf("unexpected CSV header: %q", strings.SplitN(text, "\n", 2)[0])
	}
	if !strings.Contains(text, "12.345.678/0001-90") {
		t.Error("CSV should carry the display-formatted CNPJ")
	}
	if !strings.Contains(text, "GOIANIA - GO") {
		t.Error("CSV should join city and UF")
	}
}

func TestFilename_SingleRecord(t *testing.T) {
	svc := NewService()

	got := svc.Filename([]domain.CTe{recordA}, 2024, 3, "xlsx")
	if got != "CTe_1234_15-03-2024.xlsx" {
		t.Errorf("Filename = %q, want %q", got, "CTe_1234_15-03-2024.xlsx")
	}

	got = svc.Filename([]domain.CTe{{}}, 2024, 3, "xlsx")
	if got != "CTe_sem-numero_sem-data.xlsx" {
		t.Errorf("Filename = %q, want %q", got, "CTe_sem-numero_sem-data.xlsx")
	}
}

// O lote mensal usa o nome do mês e o ano do lote, independente das datas dos
// registros individuais.
func TestFilename_MonthBatch(t *testing.T) {
	svc := NewService()

	got := svc.Filename([]domain.CTe{recordA, recordB}, 2024, 3, "xlsx")
	if got != "CTes_Março_2024.xlsx" {
		t.Errorf("Filename = %q, want %q", got, "CTes_Março_2024.xlsx")
	}
	if !strings.Contains(got, "Março") || !strings.Contains(got, "2024") {
		t.Errorf("Filename %q must contain month name and year", got)
	}

	got = svc.Filename([]domain.CTe{recordA, recordB}, 2025, 1, "csv")
	if got != "CTes_Janeiro_2025.csv" {
		t.Errorf("Filename = %q, want %q", got, "CTes_Janeiro_2025.csv")
	}
}
