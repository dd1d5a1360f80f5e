package proofs

import (
	"fmt"

	tdx_client "github.com/google/go-tdx-guest/client"
	tdx_pb "github.com/google/go-tdx-guest/proto/tdx"
	"github.com/ruteri/unified-ledger/interfaces"
)

// QuoteProvider produces a raw TDX quote binding reportData.
type QuoteProvider interface {
	GetRawQuote(reportData [64]byte) ([]byte, error)
}

// DeviceQuoteProvider reads quotes from configfs-tsm, falling back to the TDX guest device.
type DeviceQuoteProvider struct{}

func (DeviceQuoteProvider) GetRawQuote(reportData [64]byte) ([]byte, error) {
	qp := &tdx_client.LinuxConfigFsQuoteProvider{}
	if qp.IsSupported() == nil {
		return qp.GetRawQuote(reportData)
	}

	qd, err := tdx_client.OpenDevice()
	if err != nil {
		return nil, err
	}
	defer qd.Close()

	return tdx_client.GetRawQuote(qd, reportData)
}

// TDXSigner attests proofs from inside a TD. PublicKey is the MRTD of the quote,
// known only after the first signature.
type TDXSigner struct {
	Provider QuoteProvider

	parseQuote func([]byte) (any, error)
	mrTd       []byte
}

// NewTDXSigner creates a signer using provider, or the local TDX device when nil.
func NewTDXSigner(provider QuoteProvider) *TDXSigner {
	if provider == nil {
		provider = DeviceQuoteProvider{}
	}
	return &TDXSigner{
		Provider:   provider,
		parseQuote: NewTDXVerifier().parseQuote,
	}
}

func (*TDXSigner) Scheme() interfaces.ProofScheme { return interfaces.SchemeTDXDCAP }

func (s *TDXSigner) PublicKey() []byte { return s.mrTd }

func (s *TDXSigner) Sign(proof interfaces.Proof) (interfaces.Proof, error) {
	proof.Scheme = s.Scheme()
	digest, err := ProofDigest(proof)
	if err != nil {
		return interfaces.Proof{}, err
	}
	reportData, err := ReportDataForDigest(digest)
	if err != nil {
		return interfaces.Proof{}, err
	}

	quote, err := s.Provider.GetRawQuote(reportData)
	if err != nil {
		return interfaces.Proof{}, fmt.Errorf("getting quote: %w", err)
	}

	parsed, err := s.parseQuote(quote)
	if err != nil {
		return interfaces.Proof{}, fmt.Errorf("could not parse own quote: %w", err)
	}
	v4Quote, ok := parsed.(*tdx_pb.QuoteV4)
	if !ok || v4Quote.GetTdQuoteBody() == nil {
		return interfaces.Proof{}, fmt.Errorf("unsupported quote type: %T", parsed)
	}

	s.mrTd = v4Quote.GetTdQuoteBody().GetMrTd()
	proof.PublicKey = s.mrTd
	proof.Signature = quote
	return proof, nil
}
