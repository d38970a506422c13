package main

import "jobchat/cmd/cli/command"

func main() {
	command.Execute()
}
