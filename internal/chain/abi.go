package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// identityABIJSON is the ERC-734/735 subset of the identity contract used here.
const identityABIJSON = `[
  {"type":"function","name":"addClaim","stateMutability":"nonpayable",
   "inputs":[{"name":"_topic","type":"uint256"},{"name":"_scheme","type":"uint256"},{"name":"_issuer","type":"address"},
             {"name":"_signature","type":"bytes"},{"name":"_data","type":"bytes"},{"name":"_uri","type":"string"}],
   "outputs":[{"name":"","type":"bytes32"}]},
  {"type":"function","name":"getClaim","stateMutability":"view",
   "inputs":[{"name":"_topic","type":"uint256"},{"name":"_issuer","type":"address"}],
   "outputs":[{"name":"topic","type":"uint256"},{"name":"scheme","type":"uint256"},{"name":"issuer","type":"address"},
              {"name":"signature","type":"bytes"},{"name":"data","type":"bytes"},{"name":"uri","type":"string"}]},
  {"type":"function","name":"claimExists","stateMutability":"view",
   "inputs":[{"name":"_topic","type":"uint256"},{"name":"_issuer","type":"address"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"getClaimIssuersForTopic","stateMutability":"view",
   "inputs":[{"name":"_topic","type":"uint256"}],
   "outputs":[{"name":"","type":"address[]"}]},
  {"type":"event","name":"ClaimAdded","anonymous":false,
   "inputs":[{"name":"claimId","type":"bytes32","indexed":true},{"name":"topic","type":"uint256","indexed":true},
             {"name":"scheme","type":"uint256","indexed":false},{"name":"issuer","type":"address","indexed":true},
             {"name":"signature","type":"bytes","indexed":false},{"name":"data","type":"bytes","indexed":false},
             {"name":"uri","type":"string","indexed":false}]},
  {"type":"event","name":"ClaimChanged","anonymous":false,
   "inputs":[{"name":"claimId","type":"bytes32","indexed":true},{"name":"topic","type":"uint256","indexed":true},
             {"name":"scheme","type":"uint256","indexed":false},{"name":"issuer","type":"address","indexed":true},
             {"name":"signature","type":"bytes","indexed":false},{"name":"data","type":"bytes","indexed":false},
             {"name":"uri","type":"string","indexed":false}]}
]`

const trustedIssuersABIJSON = `[
  {"type":"function","name":"isTrustedIssuer","stateMutability":"view",
   "inputs":[{"name":"_issuer","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"hasClaimTopic","stateMutability":"view",
   "inputs":[{"name":"_issuer","type":"address"},{"name":"_claimTopic","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"getTrustedIssuers","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"address[]"}]},
  {"type":"function","name":"getIssuerClaimTopics","stateMutability":"view",
   "inputs":[{"name":"_issuer","type":"address"}],"outputs":[{"name":"","type":"uint256[]"}]}
]`

const identityRegistryABIJSON = `[
  {"type":"function","name":"getIdentity","stateMutability":"view",
   "inputs":[{"name":"_userAddress","type":"address"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"isRegistered","stateMutability":"view",
   "inputs":[{"name":"_userAddress","type":"address"}],"outputs":[{"name":"","type":"bool"}]}
]`

var (
	IdentityABI         = mustParseABI(identityABIJSON)
	TrustedIssuersABI   = mustParseABI(trustedIssuersABIJSON)
	IdentityRegistryABI = mustParseABI(identityRegistryABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("chain: invalid ABI: " + err.Error())
	}
	return parsed
}
