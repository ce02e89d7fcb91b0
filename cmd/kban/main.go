// Command kban serves a kanban board over HTTP and inspects stored boards
// from the terminal.
package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
