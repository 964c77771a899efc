package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// loadEnvFile loads .env/.env.local next to the config file.
// Existing process environment variables are not overwritten, and the first
// file that loads wins.
func loadEnvFile(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			fmt.Fprintf(os.Stderr, "Note: %s could not be loaded: %v\n", p, err)
			continue
		}
		return
	}
}
