package main

import "github.com/khrees2412/devapply/cmd"

func main() {
	cmd.Execute()
}
