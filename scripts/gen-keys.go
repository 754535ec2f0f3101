// Small helper to generate dev secp256k1 keys for the root chain and print
// - private key (hex), accepted by test-app --operator-key
// - Ethereum address, usable as rootchain.operator / ROOTCHAIN_OPERATOR
package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

func gen(label string) {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	priv := fmt.Sprintf("%x", crypto.FromECDSA(key))
	addr := crypto.PubkeyToAddress(key.PublicKey).Hex()
	fmt.Printf("%s_PRIV=%s\n%s_ADDR=%s\n\n", label, priv, label, addr)
}

func main() {
	gen("OPERATOR")
	gen("ALICE")
	gen("BOB")
}
