// Package pdftext lê o texto de cada página de um PDF em memória. Usa a
// biblioteca ledongthuc/pdf, implementação Go pura, sem CGO.
package pdftext

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Reader define a capacidade de leitura de texto de PDF.
type Reader interface {
	// ReadPages devolve o texto de cada página, na ordem das páginas.
	ReadPages(data []byte) ([]string, error)
}

type reader struct{}

// NewReader cria um leitor de texto de PDF.
func NewReader() Reader {
	return &reader{}
}

// IsPDF verifica os bytes mágicos do formato ("%PDF-") antes de qualquer
// tentativa de decodificação.
func IsPDF(data []byte) bool {
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}

// ReadPages extrai o texto de todas as páginas. Uma página sem texto (só
// imagem, por exemplo) vira uma string vazia, sem falhar a leitura; a
// decodificação do documento em si falhando é erro.
func (r *reader) ReadPages(data []byte) ([]string, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("decodificando PDF: %w", err)
	}

	pageCount := pdfReader.NumPage()
	pages := make([]string, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}
