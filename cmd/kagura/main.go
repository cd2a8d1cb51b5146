package main

import "github.com/shizukutanaka/Kagura/cmd/kagura/commands"

func main() {
	commands.Execute()
}
