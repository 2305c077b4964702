package main

import "github.com/llama-chat/llama-chat/cmd"

func main() {
	cmd.Execute()
}
