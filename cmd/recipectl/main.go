package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/pageza/recipeforge/backend/internal/cli"
)

func main() {
	cli.Execute()
}
