// Package main provides the entry point for the chatbot CLI.
package main

import (
	"fmt"
	"os"

	"github.com/DanielPonttes/Chatbot-generico/cmd/chatbot/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
