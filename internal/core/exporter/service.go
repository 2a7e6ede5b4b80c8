package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"cte-service/internal/core/extractor"
	"cte-service/internal/domain"
)

const sheetName = "CT-e"

// Service define a interface do montador de exportação de lotes de CT-e.
type Service interface {
	GenerateXLSX(ctes []domain.CTe) ([]byte, error)
	GenerateCSV(ctes []domain.CTe) ([]byte, error)
	Filename(ctes []domain.CTe, year, month int, ext string) string
}

type service struct{}

// NewService cria uma nova instância do serviço de exportação.
func NewService() Service {
	return &service{}
}

// Layout fixo de colunas da planilha, na ordem de exibição.
var columns = []struct {
	Header string
	Width  float64
}{
	{"Data Emissão", 12},
	{"Nº CT-e", 10},
	{"Série", 8},
	{"Chave de Acesso", 48},
	{"Transportadora", 30},
	{"CNPJ Transportadora", 20},
	{"Remetente", 30},
	{"CNPJ Remetente", 20},
	{"Origem", 25},
	{"Destinatário", 30},
	{"CNPJ Destinatário", 20},
	{"Destino", 25},
	{"Produto", 35},
	{"Peso (KG)", 12},
	{"Volumes", 10},
	{"Valor Carga (R$)", 15},
	{"Valor Frete (R$)", 15},
	{"ICMS (R$)", 12},
	{"NF-e", 15},
	{"Placa Veículo", 15},
}

// rowValues monta a linha de exibição de um registro: CNPJs repontuados,
// cidade e UF unidos com " - " quando ambos presentes, campos numéricos como
// números de verdade onde o formato distingue número de texto. A última
// coluna (placa) sai sempre vazia.
func rowValues(cte domain.CTe) []interface{} {
	return []interface{}{
		cte.DataEmissao,
		cte.NumeroCTe,
		cte.Serie,
		cte.ChaveAcesso,
		cte.Transportadora,
		extractor.FormatCNPJ(cte.CNPJTransportadora),
		cte.Remetente,
		extractor.FormatCNPJ(cte.CNPJRemetente),
		joinCityUF(cte.CidadeOrigem, cte.UFOrigem),
		cte.Destinatario,
		extractor.FormatCNPJ(cte.CNPJDestinatario),
		joinCityUF(cte.CidadeDestino, cte.UFDestino),
		cte.Produto,
		asFloat(cte.Peso),
		asInt(cte.QuantidadeVolumes),
		asFloat(cte.ValorTotalCarga),
		asFloat(cte.ValorFrete),
		asFloat(cte.ValorICMS),
		cte.NFe,
		"",
	}
}

func joinCityUF(cidade, uf string) string {
	if cidade != "" && uf != "" {
		return cidade + " - " + uf
	}
	if cidade != "" {
		return cidade
	}
	return uf
}

func asFloat(val string) interface{} {
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		return f
	}
	return ""
}

func asInt(val string) interface{} {
	if n, err := strconv.Atoi(val); err == nil {
		return n
	}
	return ""
}

// GenerateXLSX produz a planilha do lote com o layout fixo de colunas.
func (svc *service) GenerateXLSX(ctes []domain.CTe) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("renomeando planilha: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col.Header
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, name, name, col.Width); err != nil {
			return nil, fmt.Errorf("definindo largura de coluna: %w", err)
		}
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("escrevendo cabeçalho: %w", err)
	}

	for i, cte := range ctes {
		row := rowValues(cte)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("escrevendo linha %d: %w", i+2, err)
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("gerando planilha: %w", err)
	}
	return buffer.Bytes(), nil
}

// GenerateCSV produz o lote como CSV separado por ponto e vírgula, codificado
// em Windows-1252 para compatibilidade com os sistemas contábeis que
// consomem os arquivos.
func (svc *service) GenerateCSV(ctes []domain.CTe) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := charmap.Windows1252.NewEncoder()
	writer := csv.NewWriter(transform.NewWriter(&buffer, encoder))
	writer.Comma = ';'

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = sanitizeForCSV(col.Header)
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, cte := range ctes {
		record := make([]string, 0, len(columns))
		for _, v := range rowValues(cte) {
			record = append(record, sanitizeForCSV(fmt.Sprint(v)))
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	return buffer.Bytes(), writer.Error()
}

// Filename deriva o nome do arquivo de saída. Lote de um registro: nome
// composto do número e da data de emissão do próprio CT-e. Lote mensal com
// vários registros: nome do mês em português e ano do lote, independente das
// datas individuais.
func (svc *service) Filename(ctes []domain.CTe, year, month int, ext string) string {
	if len(ctes) == 1 {
		numero := ctes[0].NumeroCTe
		if numero == "" {
			numero = "sem-numero"
		}
		data := "sem-data"
		if ctes[0].DataEmissao != "" {
			data = strings.ReplaceAll(ctes[0].DataEmissao, "/", "-")
		}
		return fmt.Sprintf("CTe_%s_%s.%s", numero, data, ext)
	}
	nome := domain.MonthName(month)
	if nome == "" {
		nome = fmt.Sprintf("%02d", month)
	}
	return fmt.Sprintf("CTes_%s_%d.%s", nome, year, ext)
}

// sanitizeForCSV remove caracteres de controle embutidos e apara espaços,
// para que o valor caiba em uma célula de CSV.
func sanitizeForCSV(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size

		if r == '\r' || r == '\n' || r == '\t' {
			continue
		}
		if r < 32 {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimFunc(b.String(), unicode.IsSpace)
}
