package distributor

import (
	"fmt"
	"math/big"

	"github.com/lmittmann/w3"
)

const (
	FacetName = "DistributorFacet"

	// StakeDenominator is the total both beneficiary stakes must add up to.
	StakeDenominator = 100
)

var (
	funcBeneficiary1Stake = w3.MustNewFunc(
		"getBeneficiary1Stake()", "uint256",
	)
	funcBeneficiary2Stake = w3.MustNewFunc(
		"getBeneficiary2Stake()", "uint256",
	)
	funcReceiveAndDistributePayment = w3.MustNewFunc(
		"receiveAndDistributePayment()", "",
	)
)

func EncodeBeneficiary1Stake() ([]byte, error) {
	return funcBeneficiary1Stake.EncodeArgs()
}

func EncodeBeneficiary2Stake() ([]byte, error) {
	return funcBeneficiary2Stake.EncodeArgs()
}

func DecodeStake(output []byte) (*big.Int, error) {
	stake := new(big.Int)
	if err := funcBeneficiary1Stake.DecodeReturns(output, &stake); err != nil {
		return nil, fmt.Errorf("decode stake: %w", err)
	}
	return stake, nil
}

func EncodeReceiveAndDistributePayment() ([]byte, error) {
	return funcReceiveAndDistributePayment.EncodeArgs()
}

// ExpectedShares splits value by the two stakes out of StakeDenominator.
// Integer division truncates, so dust stays in the diamond.
func ExpectedShares(value, stake1, stake2 *big.Int) (*big.Int, *big.Int) {
	denom := big.NewInt(StakeDenominator)
	share1 := new(big.Int).Mul(value, stake1)
	share1.Quo(share1, denom)
	share2 := new(big.Int).Mul(value, stake2)
	share2.Quo(share2, denom)
	return share1, share2
}
