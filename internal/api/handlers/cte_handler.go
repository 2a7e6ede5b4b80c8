package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cte-service/internal/api/responses"
	"cte-service/internal/core/batch"
	"cte-service/internal/core/exporter"
	"cte-service/internal/core/extractor"
	"cte-service/internal/core/pdftext"
	"cte-service/internal/domain"
)

// MaxUploadSize é o teto de tamanho do PDF enviado (10 MiB).
const MaxUploadSize = 10 << 20

// CTeHandler lida com as requisições da API de extração e acúmulo de CT-es.
type CTeHandler struct {
	pdfReader pdftext.Reader
	extractor extractor.Service
	store     batch.Store
	exporter  exporter.Service
}

// NewCTeHandler cria um novo handler de CT-e.
func NewCTeHandler(pdfReader pdftext.Reader, extractorService extractor.Service, store batch.Store, exporterService exporter.Service) *CTeHandler {
	return &CTeHandler{
		pdfReader: pdfReader,
		extractor: extractorService,
		store:     store,
		exporter:  exporterService,
	}
}

// ExtractionResult é o corpo de resposta da extração: o registro, a
// completude para feedback ao operador e o lote mensal onde foi gravado.
type ExtractionResult struct {
	CTe             domain.CTe `json:"cte"`
	CamposExtraidos int        `json:"campos_extraidos"`
	CamposFaltantes []string   `json:"campos_faltantes"`
	Valido          bool       `json:"valido"`
	Lote            string     `json:"lote"`
}

// HandleExtract recebe um PDF de CT-e, extrai os campos e acumula o registro
// no lote do mês.
func (h *CTeHandler) HandleExtract(c *gin.Context) {
	fileHeader, err := c.FormFile("cteFile")
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Arquivo de CT-e (.pdf) não encontrado ou inválido")
		return
	}

	// Rejeitado antes de qualquer tentativa de decodificação, para dar
	// feedback específico de tamanho sem custo de processamento.
	if fileHeader.Size > MaxUploadSize {
		responses.Error(c, http.StatusRequestEntityTooLarge, "Arquivo excede o tamanho máximo de 10 MB")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".pdf" {
		responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Extensão de arquivo não suportada: %s", ext))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Não foi possível abrir o arquivo enviado")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Não foi possível ler o arquivo enviado")
		return
	}
	if len(data) > MaxUploadSize {
		responses.Error(c, http.StatusRequestEntityTooLarge, "Arquivo excede o tamanho máximo de 10 MB")
		return
	}

	if !pdftext.IsPDF(data) {
		responses.Error(c, http.StatusUnprocessableEntity, "O arquivo enviado não é um PDF válido")
		return
	}

	pages, err := h.pdfReader.ReadPages(data)
	if err != nil {
		responses.Log().Warn("Falha ao decodificar PDF", zap.String("arquivo", fileHeader.Filename), zap.Error(err))
		responses.Error(c, http.StatusUnprocessableEntity, "Não foi possível processar o PDF", err.Error())
		return
	}

	cte := h.extractor.Extract(extractor.Normalize(pages))

	key, err := h.store.Append(cte)
	if err != nil {
		responses.Log().Error("Falha ao gravar CT-e", zap.Error(err))
		responses.Error(c, http.StatusInternalServerError, "Erro ao gravar o CT-e no lote mensal", err.Error())
		return
	}

	result := ExtractionResult{
		CTe:             cte,
		CamposExtraidos: extractor.CountExtractedFields(&cte),
		CamposFaltantes: extractor.MissingFields(&cte),
		Valido:          extractor.IsMinimallyValid(&cte),
		Lote:            key.String(),
	}
	responses.Success(c, result, "CT-e processado")
}

// HandleList devolve os CT-es do lote do mês. Mês sem lote devolve lista
// vazia, não erro.
func (h *CTeHandler) HandleList(c *gin.Context) {
	year, month, ok := yearMonthParams(c)
	if !ok {
		return
	}

	ctes, err := h.store.List(year, month)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao ler o lote mensal", err.Error())
		return
	}
	responses.Success(c, ctes, "")
}

// HandleCount devolve a contagem de CT-es do lote do mês.
func (h *CTeHandler) HandleCount(c *gin.Context) {
	year, month, ok := yearMonthParams(c)
	if !ok {
		return
	}

	count, err := h.store.Count(year, month)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao contar o lote mensal", err.Error())
		return
	}
	responses.Success(c, gin.H{"count": count}, "")
}

// HandleDelete remove do lote o primeiro CT-e com a chave de acesso dada.
func (h *CTeHandler) HandleDelete(c *gin.Context) {
	year, month, ok := yearMonthParams(c)
	if !ok {
		return
	}
	chave := c.Param("chave")

	if err := h.store.Delete(chave, year, month); err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao remover o CT-e", err.Error())
		return
	}
	responses.Success(c, nil, "CT-e removido")
}

// HandleClearMonth apaga o lote inteiro do mês.
func (h *CTeHandler) HandleClearMonth(c *gin.Context) {
	year, month, ok := yearMonthParams(c)
	if !ok {
		return
	}

	if err := h.store.ClearMonth(year, month); err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao limpar o lote mensal", err.Error())
		return
	}
	responses.Success(c, nil, "Lote mensal removido")
}

// HandleExport gera a planilha do lote do mês e devolve como anexo.
func (h *CTeHandler) HandleExport(c *gin.Context) {
	year, month, ok := yearMonthParams(c)
	if !ok {
		return
	}

	ctes, err := h.store.List(year, month)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao ler o lote mensal", err.Error())
		return
	}
	if len(ctes) == 0 {
		responses.Error(c, http.StatusNotFound, "Nenhum CT-e no lote para exportar")
		return
	}

	format := c.DefaultQuery("format", "xlsx")
	var (
		output      []byte
		contentType string
	)
	switch format {
	case "xlsx":
		output, err = h.exporter.GenerateXLSX(ctes)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "csv":
		output, err = h.exporter.GenerateCSV(ctes)
		contentType = "text/csv; charset=windows-1252"
	default:
		responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Formato de exportação não suportado: %s", format))
		return
	}
	if err != nil {
		responses.Log().Error("Falha ao gerar exportação", zap.String("formato", format), zap.Error(err))
		responses.Error(c, http.StatusInternalServerError, "Erro ao gerar o arquivo de exportação", err.Error())
		return
	}

	fileName := h.exporter.Filename(ctes, year, month, format)
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, contentType, output)
}

// yearMonthParams valida os parâmetros de rota :year e :month. Em caso de
// erro a resposta já foi emitida.
func yearMonthParams(c *gin.Context) (year, month int, ok bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1 {
		responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Ano inválido: %s", c.Param("year")))
		return 0, 0, false
	}
	month, err = strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Mês inválido: %s", c.Param("month")))
		return 0, 0, false
	}
	return year, month, true
}
