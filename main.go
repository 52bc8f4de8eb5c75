package main

//go:generate swag init

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/satheeshds/invoicing/cmd"
	_ "github.com/satheeshds/invoicing/docs"
)

// @title           Invoicing API
// @version         1.0.0
// @description     Drafting, submission and balance evaluation of customer invoices built from project charges.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.basic  BasicAuth

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	cmd.Execute()
}
