package main

import (
	"github.com/flipzy/transactions-backend/api"
)

var envPath string = "."

func main() {
	server := api.NewServer(envPath)
	server.Start()
}
