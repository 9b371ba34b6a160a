package main

import "bheem-chat/config"

func main() {
	config.RunServer()
}
