package main

import "github.com/qu-security/guardforce/cmd"

func main() {
	cmd.Execute()
}
