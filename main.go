package main

import (
	"github.com/sharebite/sharebite-bot/cmd"
)

func main() {
	cmd.Execute()
}
