package main

import "github.com/hameedsk381/voice-task-ai/services/intake/cli"

func main() {
	cli.Execute()
}
