package proofs

import (
	"bytes"
	"context"
	"fmt"

	tdx_abi "github.com/google/go-tdx-guest/abi"
	tdx_pb "github.com/google/go-tdx-guest/proto/tdx"
	"github.com/google/go-tdx-guest/verify"
	"github.com/ruteri/unified-ledger/interfaces"
)

// TDXVerifier checks Intel TDX DCAP quotes. A proof is valid when the quote verifies,
// its report data is the proof digest padded with zeroes to 64 bytes, and its MRTD
// equals PublicKey.
type TDXVerifier struct {
	parseQuote  func([]byte) (any, error)
	verifyQuote func(any) error
}

// NewTDXVerifier verifies quotes with go-tdx-guest default options.
func NewTDXVerifier() *TDXVerifier {
	return &TDXVerifier{
		parseQuote: tdx_abi.QuoteToProto,
		verifyQuote: func(quote any) error {
			return verify.TdxQuote(quote, verify.DefaultOptions())
		},
	}
}

func (*TDXVerifier) Scheme() interfaces.ProofScheme { return interfaces.SchemeTDXDCAP }

func (v *TDXVerifier) VerifyDigest(_ context.Context, proof interfaces.Proof, digest []byte) (bool, error) {
	reportData, err := ReportDataForDigest(digest)
	if err != nil {
		return false, err
	}

	protoQuote, err := v.parseQuote(proof.Signature)
	if err != nil {
		return false, fmt.Errorf("%w: could not parse quote: %v", interfaces.ErrInvalidProof, err)
	}

	v4Quote, ok := protoQuote.(*tdx_pb.QuoteV4)
	if !ok {
		return false, fmt.Errorf("%w: unsupported quote type: %T", interfaces.ErrInvalidProof, protoQuote)
	}
	if v4Quote.GetTdQuoteBody() == nil {
		return false, fmt.Errorf("%w: quote has no TD body", interfaces.ErrInvalidProof)
	}

	if err := v.verifyQuote(protoQuote); err != nil {
		return false, nil
	}

	body := v4Quote.GetTdQuoteBody()
	if !bytes.Equal(body.GetReportData(), reportData[:]) {
		return false, nil
	}
	return bytes.Equal(body.GetMrTd(), proof.PublicKey), nil
}

// ReportDataForDigest places digest at the start of a zeroed 64-byte report data field.
func ReportDataForDigest(digest []byte) ([64]byte, error) {
	var reportData [64]byte
	if len(digest) > len(reportData) {
		return reportData, fmt.Errorf("%w: digest longer than report data", interfaces.ErrInvalidProof)
	}
	copy(reportData[:], digest)
	return reportData, nil
}
