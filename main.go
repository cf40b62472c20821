package main

import "github.com/ValentinKolb/zKV/cmd"

func main() {
	cmd.Execute()
}
