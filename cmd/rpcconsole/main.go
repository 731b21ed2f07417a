package main

import (
	"log"

	"github.com/MrSnakeDoc/rpcconsole/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ rpcconsole failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ rpcconsole stopped with error: %v", err)
	}
}
