// cmd/cte/main.go
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"cte-service/internal/api/handlers"
	"cte-service/internal/api/responses"
	"cte-service/internal/core/batch"
	"cte-service/internal/core/exporter"
	"cte-service/internal/core/extractor"
	"cte-service/internal/core/pdftext"
)

func main() {
	fs := ff.NewFlagSet("cte-service")
	var (
		port   = fs.IntLong("port", 8084, "Porta do servidor HTTP")
		dbPath = fs.StringLong("db", "cte-service.db", "Caminho do arquivo de banco de dados")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("CTE_SERVICE")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	responses.InitLogger()

	store, err := batch.NewBoltStore(*dbPath)
	if err != nil {
		log.Fatal("Falha ao abrir o banco de dados: ", err)
	}
	defer store.Close()

	cteHandler := handlers.NewCTeHandler(pdftext.NewReader(), extractor.NewService(), store, exporter.NewService())

	router := gin.Default()

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/cte/extract", cteHandler.HandleExtract)
		apiV1.GET("/cte/:year/:month", cteHandler.HandleList)
		apiV1.GET("/cte/:year/:month/count", cteHandler.HandleCount)
		apiV1.GET("/cte/:year/:month/export", cteHandler.HandleExport)
		apiV1.DELETE("/cte/:year/:month", cteHandler.HandleClearMonth)
		apiV1.DELETE("/cte/:year/:month/:chave", cteHandler.HandleDelete)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP", "service": "cte-service"})
	})

	log.Printf("🚀 CT-e Service (Go) iniciado e escutando na porta %d", *port)
	if err := router.Run(fmt.Sprintf(":%d", *port)); err != nil {
		log.Fatal("Falha ao iniciar o servidor: ", err)
	}
}
