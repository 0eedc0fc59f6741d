package pipeline

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cosmo-local-credit/diamond/publish"
	"github.com/cosmo-local-credit/diamond/publish/contracts/distributor"
)

// Distribute reads both stakes through the diamond, pays value into
// receiveAndDistributePayment and reports each beneficiary's final balance.
// A zero value skips the payment. A balance change that does not match the
// stake share is logged as a warning.
func Distribute(ctx context.Context, env Env, addr common.Address, value *big.Int, beneficiary1, beneficiary2 common.Address) (*Payment, error) {
	lg := env.logger()
	if value == nil {
		value = new(big.Int)
	}

	stake1, err := readStake(ctx, env, addr, distributor.EncodeBeneficiary1Stake)
	if err != nil {
		return nil, fmt.Errorf("read stake1: %w", err)
	}
	stake2, err := readStake(ctx, env, addr, distributor.EncodeBeneficiary2Stake)
	if err != nil {
		return nil, fmt.Errorf("read stake2: %w", err)
	}
	env.printf("Stake1 is %s", stake1)
	env.printf("Stake2 is %s", stake2)

	beneficiaries := []common.Address{beneficiary1, beneficiary2}
	before := make([]*big.Int, len(beneficiaries))
	for i, b := range beneficiaries {
		if before[i], err = env.Chain.BalanceAt(ctx, b); err != nil {
			return nil, err
		}
	}

	payment := &Payment{Value: publish.FormatEther(value)}
	if value.Sign() > 0 {
		data, err := distributor.EncodeReceiveAndDistributePayment()
		if err != nil {
			return nil, err
		}
		txHash, err := env.Chain.SendCall(ctx, addr, data, value, env.GasLimit)
		if err != nil {
			return nil, fmt.Errorf("send payment: %w", err)
		}
		if _, err := waitMined(ctx, env, "payment", txHash); err != nil {
			return nil, err
		}
		payment.TxHash = txHash
		lg.Info("Distributed payment", "diamond", addr, "value", payment.Value, "tx", txHash)
	} else {
		lg.Info("Skipping payment", "diamond", addr)
	}

	expected1, expected2 := distributor.ExpectedShares(value, stake1, stake2)
	expected := []*big.Int{expected1, expected2}
	stakes := []*big.Int{stake1, stake2}
	for i, b := range beneficiaries {
		after, err := env.Chain.BalanceAt(ctx, b)
		if err != nil {
			return nil, err
		}
		received := new(big.Int).Sub(after, before[i])
		if received.Cmp(expected[i]) != 0 {
			lg.Warn("Beneficiary balance change does not match its stake",
				"beneficiary", b, "expected", publish.FormatEther(expected[i]), "received", publish.FormatEther(received))
		}
		balance := publish.FormatEther(after)
		env.printf("Partner%d final balance is %s", i+1, balance)
		payment.Beneficiaries = append(payment.Beneficiaries, Beneficiary{
			Address:  b,
			Stake:    stakes[i],
			Expected: expected[i],
			Received: received,
			Balance:  balance,
		})
	}
	return payment, nil
}

func readStake(ctx context.Context, env Env, addr common.Address, encode func() ([]byte, error)) (*big.Int, error) {
	input, err := encode()
	if err != nil {
		return nil, err
	}
	output, err := env.Chain.Call(ctx, addr, input)
	if err != nil {
		return nil, err
	}
	return distributor.DecodeStake(output)
}
