package main

import "hrpayroll/internal/app/server"

func main() {
	server.Run()
}
