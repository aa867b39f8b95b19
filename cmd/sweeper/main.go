package main

import "github.com/hameedsk381/voice-task-ai/services/sweeper/cli"

func main() {
	cli.Execute()
}
