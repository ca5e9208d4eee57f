package main

import "github.com/rkirkendall/prompt-perfect/internal/cmd"

func main() {
	cmd.Execute()
}
