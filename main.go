package main

import "github.com/mselser95/drops-miner/cmd"

func main() {
	cmd.Execute()
}
