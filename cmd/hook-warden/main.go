package main

import "github.com/hookwarden/hookwarden/cmd/hook-warden/cmd"

func main() {
	cmd.Execute()
}
