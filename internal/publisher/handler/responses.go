package handler

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"claimbridge/internal/publisher"
)

type PayloadResponse struct {
	RequestID string `json:"requestId"`
	Topic     uint64 `json:"topic"`
	Scheme    uint64 `json:"scheme"`
	Issuer    string `json:"issuer"`
	Signature string `json:"signature"`
	Data      string `json:"data"`
	URI       string `json:"uri"`
	Calldata  string `json:"calldata"`
}

type ReceiptResponse struct {
	RequestID    string `json:"requestId"`
	Identity     string `json:"identityAddress"`
	TxHash       string `json:"txHash"`
	BlockNumber  uint64 `json:"blockNumber"`
	ClaimID      string `json:"claimId"`
	Confirmation string `json:"confirmation"`
}

func toPayloadResponse(p *publisher.ClaimPayload, calldata []byte) PayloadResponse {
	return PayloadResponse{
		RequestID: p.RequestID.String(),
		Topic:     p.Topic.Uint64(),
		Scheme:    p.Scheme,
		Issuer:    p.Issuer.String(),
		Signature: hexutil.Encode(p.Signature),
		Data:      hexutil.Encode(p.Data),
		URI:       p.URI,
		Calldata:  hexutil.Encode(calldata),
	}
}

func toReceiptResponse(r *publisher.PublishReceipt) ReceiptResponse {
	return ReceiptResponse{
		RequestID:    r.RequestID.String(),
		Identity:     r.Identity.String(),
		TxHash:       r.TxHash.Hex(),
		BlockNumber:  r.BlockNumber,
		ClaimID:      r.ClaimID.Hex(),
		Confirmation: string(r.Confirmation),
	}
}
