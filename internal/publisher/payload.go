package publisher

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"claimbridge/internal/attestation"
	"claimbridge/internal/chain"
	"claimbridge/internal/claimrequest/models"
	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
)

// ClaimPayload is the argument set of identity.addClaim for one approved request.
type ClaimPayload struct {
	RequestID id.RequestID
	Topic     id.ClaimTopic
	Scheme    uint64
	Issuer    id.Address
	Signature []byte
	Data      []byte
	URI       string
}

var claimDataArgs = func() abi.Arguments {
	stringType, err := abi.NewType("string", "", nil)
	if err != nil {
		panic(err)
	}
	uintType, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Name: "message", Type: stringType}, {Name: "issuerSignedMessage", Type: stringType}, {Name: "reviewedAt", Type: uintType}}
}()

// BuildPayload derives the addClaim arguments from an approved request.
// uriBase prefixes the document file id; requests without a document get an empty uri.
func BuildPayload(req *models.ClaimRequest, uriBase string) (*ClaimPayload, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "claim request not found")
	}
	if !req.IsPublishable() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "only approved claim requests can be published")
	}
	signature, err := attestation.DecodeSignature(req.IssuerSignature)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidState, "stored issuer signature is malformed")
	}
	data, err := claimDataArgs.Pack(req.Message, req.IssuerSignedMessage, big.NewInt(req.ReviewedAt.Unix()))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode claim data")
	}

	uri := ""
	if req.Document != nil && req.Document.FileID != "" {
		uri = strings.TrimRight(uriBase, "/") + "/" + req.Document.FileID
	}
	return &ClaimPayload{
		RequestID: req.ID,
		Topic:     req.ClaimTopic,
		Scheme:    chain.SchemeECDSA,
		Issuer:    req.IssuerAddress,
		Signature: signature,
		Data:      data,
		URI:       uri,
	}, nil
}

// Calldata returns the ABI-encoded addClaim call.
func (p *ClaimPayload) Calldata() ([]byte, error) {
	return chain.PackAddClaim(chain.AddClaimInput{
		Topic:     p.Topic,
		Scheme:    p.Scheme,
		Issuer:    p.Issuer,
		Signature: p.Signature,
		Data:      p.Data,
		URI:       p.URI,
	})
}

// DecodeClaimData reverses the data field packing.
func DecodeClaimData(data []byte) (message, issuerSignedMessage string, reviewedAt int64, err error) {
	out, err := claimDataArgs.Unpack(data)
	if err != nil {
		return "", "", 0, err
	}
	return out[0].(string), out[1].(string), out[2].(*big.Int).Int64(), nil
}
