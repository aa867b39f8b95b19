package main

import "github.com/hameedsk381/voice-task-ai/services/notifier/cli"

func main() {
	cli.Execute()
}
