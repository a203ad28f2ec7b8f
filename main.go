package main

import "github.com/ziadkadry99/healthviz/cmd"

func main() {
	cmd.Execute()
}
