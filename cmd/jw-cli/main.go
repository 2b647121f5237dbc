package main

import (
	"jwassist-backend/cmd/jw-cli/cmd"
)

func main() {
	cmd.Execute()
}
