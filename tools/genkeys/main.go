// Package main generates device key pairs for bridge authentication. The
// private key is what iotlab-device signs its JWTs with; the public half is
// what gets uploaded to the device registry.
package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	algorithm := flag.String("algorithm", "RS256", "key type to generate (RS256, ES256)")
	bits := flag.Int("bits", 2048, "RSA key size in bits")
	out := flag.String("out", "rsa_private.pem", "private key output path")
	pubOut := flag.String("pubout", "", "public key output path (empty skips it)")
	flag.Parse()

	if err := writeKeyPair(*algorithm, *bits, *out, *pubOut); err != nil {
		log.Fatalf("generating key pair: %v", err)
	}

	fmt.Printf("private key written to %s\n", *out)
	if *pubOut != "" {
		fmt.Printf("public key written to %s\n", *pubOut)
	}
}

func writeKeyPair(algorithm string, bits int, privPath, pubPath string) error {
	var (
		privBlock pem.Block
		public    any
	)

	switch algorithm {
	case "RS256":
		key, err := rsa.GenerateKey(rand.Reader, bits)
		if err != nil {
			return fmt.Errorf("generating RSA key: %w", err)
		}
		privBlock = pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(key),
		}
		public = &key.PublicKey
	case "ES256":
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return fmt.Errorf("generating EC key: %w", err)
		}
		der, err := x509.MarshalECPrivateKey(key)
		if err != nil {
			return fmt.Errorf("marshaling EC key: %w", err)
		}
		privBlock = pem.Block{Type: "EC PRIVATE KEY", Bytes: der}
		public = &key.PublicKey
	default:
		return fmt.Errorf("unsupported algorithm %q", algorithm)
	}

	if err := os.WriteFile(privPath, pem.EncodeToMemory(&privBlock), 0o600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}

	if pubPath == "" {
		return nil
	}

	pubDER, err := x509.MarshalPKIXPublicKey(public)
	if err != nil {
		return fmt.Errorf("marshaling public key: %w", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}
	return nil
}
