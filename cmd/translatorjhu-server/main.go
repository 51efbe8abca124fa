package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/bootstrap"
)

func main() {
	fmt.Printf("[%s] [INFO] [Bootstrap] starting translatorjhu-server...\n", time.Now().Format("2006-01-02 15:04:05.000"))
	if err := bootstrap.Run(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "translatorjhu-server failed: %v\n", err)
		os.Exit(1)
	}
}
