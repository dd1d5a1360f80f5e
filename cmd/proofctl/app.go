package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ruteri/unified-ledger/api/clients"
	"github.com/ruteri/unified-ledger/cmd/flags"
	"github.com/ruteri/unified-ledger/common"
	"github.com/ruteri/unified-ledger/interfaces"
	"github.com/ruteri/unified-ledger/proofs"
	"github.com/urfave/cli/v2"
)

// KeyFile is the on-disk form of a signing key written by keygen.
type KeyFile struct {
	Scheme     interfaces.ProofScheme `json:"scheme"`
	PrivateKey string                 `json:"private_key"`
	PublicKey  string                 `json:"public_key"`
}

var errInvalid = errors.New("proof does not verify")

var (
	schemeFlag = &cli.StringFlag{
		Name:  "scheme",
		Value: string(interfaces.SchemeEd25519),
		Usage: "proof scheme: secp256k1, ed25519 or dilithium3",
	}
	verifyFlag = &cli.BoolFlag{
		Name:  "verify",
		Usage: "have the server verify the proof",
	}
)

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "proofctl",
		Usage:   "Create, store and verify Unified Ledger proofs",
		Version: common.Version,
		Writer:  out,
		Flags:   []cli.Flag{flags.ServerURLFlag},
		Commands: []*cli.Command{
			{
				Name:   "keygen",
				Usage:  "generate a signing key",
				Flags:  []cli.Flag{schemeFlag},
				Action: keygenCmd,
			},
			{
				Name:      "sign",
				Usage:     "sign a proof about a subject",
				ArgsUsage: " ",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "key", Required: true, Usage: "key file written by keygen"},
					&cli.StringFlag{Name: "subject", Usage: "subject content id (64 hex chars)"},
					&cli.StringFlag{Name: "subject-file", Usage: "file whose sha256 is the subject"},
					&cli.StringFlag{Name: "payload", Usage: "statement bytes included in the proof"},
					&cli.StringFlag{Name: "hash", Value: string(interfaces.HashSHA256), Usage: "digest: sha256, sha512, sha3-256 or keccak256"},
				},
				Action: signCmd,
			},
			{
				Name:      "put",
				Usage:     "store a proof under its content address",
				ArgsUsage: "<proof.json|->",
				Flags:     []cli.Flag{verifyFlag},
				Action:    putCmd,
			},
			{
				Name:      "set",
				Usage:     "store a proof under an explicit id",
				ArgsUsage: "<id> <proof.json|->",
				Flags:     []cli.Flag{verifyFlag},
				Action:    setCmd,
			},
			{
				Name:      "get",
				Usage:     "fetch a stored proof",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{verifyFlag},
				Action:    getCmd,
			},
			{
				Name:      "verify",
				Usage:     "verify a proof",
				ArgsUsage: "<proof.json|->",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "local", Usage: "verify in-process instead of asking the server"},
				},
				Action: verifyCmd,
			},
			{
				Name:      "id",
				Usage:     "print the content-addressed id of a proof",
				ArgsUsage: "<proof.json|->",
				Action:    idCmd,
			},
		},
	}
}

func client(cCtx *cli.Context) *clients.ProofStoreClient {
	return clients.NewProofStoreClient(cCtx.String(flags.ServerURLFlag.Name), nil)
}

func keygenCmd(cCtx *cli.Context) error {
	scheme := interfaces.ProofScheme(cCtx.String(schemeFlag.Name))
	signer, err := proofs.GenerateSigner(scheme, rand.Reader)
	if err != nil {
		return err
	}
	return writeJSON(cCtx.App.Writer, KeyFile{
		Scheme:     scheme,
		PrivateKey: hex.EncodeToString(signer.MarshalPrivateKey()),
		PublicKey:  hex.EncodeToString(signer.PublicKey()),
	})
}

func loadSigner(path string) (proofs.Signer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read key file: %w", err)
	}
	var kf KeyFile
	if err := json.Unmarshal(raw, &kf); err != nil {
		return nil, fmt.Errorf("could not parse key file: %w", err)
	}
	priv, err := hex.DecodeString(kf.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: private key is not hex", interfaces.ErrInvalidArgument)
	}
	return proofs.ParseSigner(kf.Scheme, priv)
}

func signCmd(cCtx *cli.Context) error {
	signer, err := loadSigner(cCtx.String("key"))
	if err != nil {
		return err
	}

	var subject interfaces.ContentID
	switch {
	case cCtx.IsSet("subject") && cCtx.IsSet("subject-file"):
		return errors.New("--subject and --subject-file are mutually exclusive")
	case cCtx.IsSet("subject"):
		subject, err = interfaces.NewContentIDFromHex(cCtx.String("subject"))
		if err != nil {
			return err
		}
	case cCtx.IsSet("subject-file"):
		content, err := os.ReadFile(cCtx.String("subject-file"))
		if err != nil {
			return err
		}
		subject = interfaces.ComputeID(content)
	default:
		return errors.New("one of --subject or --subject-file is required")
	}

	var payload []byte
	if cCtx.IsSet("payload") {
		payload = []byte(cCtx.String("payload"))
	}

	proof, err := signer.Sign(proofs.NewProof(subject, payload, interfaces.HashAlg(cCtx.String("hash"))))
	if err != nil {
		return err
	}
	return writeJSON(cCtx.App.Writer, proof)
}

func putCmd(cCtx *cli.Context) error {
	proof, err := readProof(cCtx.Args().First(), cCtx.App.Reader)
	if err != nil {
		return err
	}

	c := client(cCtx)
	id := interfaces.ComputeProofID(proof)
	if cCtx.Bool(verifyFlag.Name) {
		err = c.SetVerified(cCtx.Context, id, proof)
	} else {
		id, err = c.Put(cCtx.Context, proof)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cCtx.App.Writer, id.String())
	return nil
}

func setCmd(cCtx *cli.Context) error {
	if cCtx.NArg() != 2 {
		return errors.New("usage: proofctl set <id> <proof.json|->")
	}
	id, err := interfaces.NewProofIDFromHex(cCtx.Args().Get(0))
	if err != nil {
		return err
	}
	proof, err := readProof(cCtx.Args().Get(1), cCtx.App.Reader)
	if err != nil {
		return err
	}

	c := client(cCtx)
	if cCtx.Bool(verifyFlag.Name) {
		return c.SetVerified(cCtx.Context, id, proof)
	}
	return c.Set(cCtx.Context, id, proof)
}

func getCmd(cCtx *cli.Context) error {
	id, err := interfaces.NewProofIDFromHex(cCtx.Args().First())
	if err != nil {
		return err
	}

	c := client(cCtx)
	var (
		proof interfaces.Proof
		ok    bool
	)
	if cCtx.Bool(verifyFlag.Name) {
		proof, ok, err = c.GetVerified(cCtx.Context, id)
	} else {
		proof, ok, err = c.Get(cCtx.Context, id)
	}
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: proof %s", interfaces.ErrContentNotFound, id)
	}
	return writeJSON(cCtx.App.Writer, proof)
}

func verifyCmd(cCtx *cli.Context) error {
	proof, err := readProof(cCtx.Args().First(), cCtx.App.Reader)
	if err != nil {
		return err
	}

	var verifier interfaces.ProofVerifier = client(cCtx)
	if cCtx.Bool("local") {
		verifier = proofs.NewDefaultVerifier(common.SetupLogger(&common.LoggingOpts{Service: "proofctl"}))
	}

	valid, err := verifier.Verify(cCtx.Context, proof)
	if err != nil {
		return err
	}
	if !valid {
		fmt.Fprintln(cCtx.App.Writer, "invalid")
		return errInvalid
	}
	fmt.Fprintln(cCtx.App.Writer, "valid")
	return nil
}

func idCmd(cCtx *cli.Context) error {
	proof, err := readProof(cCtx.Args().First(), cCtx.App.Reader)
	if err != nil {
		return err
	}
	fmt.Fprintln(cCtx.App.Writer, interfaces.ComputeProofID(proof).String())
	return nil
}

// readProof decodes a proof from path, or from stdin when path is "-" or empty.
func readProof(path string, stdin io.Reader) (interfaces.Proof, error) {
	var (
		raw []byte
		err error
	)
	if path == "" || path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return interfaces.Proof{}, fmt.Errorf("could not read proof: %w", err)
	}

	var proof interfaces.Proof
	if err := json.Unmarshal(raw, &proof); err != nil {
		return interfaces.Proof{}, fmt.Errorf("%w: could not parse proof: %v", interfaces.ErrInvalidArgument, err)
	}
	return proof, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
