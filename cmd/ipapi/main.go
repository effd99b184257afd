package main

import (
	"log"
)

func main() {
	if err := newCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}
