// cmd/rpa-assistant/main.go
package main

import "rpa-assistant/internal/cmd"

func main() {
	cmd.Execute()
}
