package main

import (
	"github.com/outofforest/proton"
	"github.com/outofforest/rendezvous/wire"
)

//go:generate go run .

func main() {
	proton.Generate("../types.proton.go",
		proton.Message[wire.Register](),
		proton.Message[wire.RequestConnection](),
		proton.Message[wire.Join](),
		proton.Message[wire.Leave](),
		proton.Message[wire.Signal](),
		proton.Message[wire.Auth](),
		proton.Message[wire.IncomingRequest](),
	)
}
