// Package main (cmd/proofctl) creates, stores and checks proofs against a proof
// store server.
//
//	proofctl keygen --scheme ed25519 > key.json
//	proofctl sign --key key.json --subject-file doc.pdf --payload approved > proof.json
//	proofctl put --verify proof.json
//	proofctl get --verify <id>
//	proofctl verify proof.json
//	proofctl id proof.json
package main

import (
	"log"
	"os"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

