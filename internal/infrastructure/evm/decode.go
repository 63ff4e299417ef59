package evm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/core/types"
	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/shopspring/decimal"
)

type placedData struct {
	Side  uint8
	Size  *big.Int
	Price *big.Int
}

type filledData struct {
	FilledSize *big.Int
}

// Decimals are the fixed-point scales of on-chain integer amounts.
type Decimals struct {
	Price int32
	Size  int32
}

func (d Decimals) price(v *big.Int) decimal.Decimal {
	return toDecimal(v, d.Price)
}

func (d Decimals) size(v *big.Int) decimal.Decimal {
	return toDecimal(v, d.Size)
}

func toDecimal(v *big.Int, scale int32) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -scale)
}

func sideFromUint8(v uint8) orderbookv1.Side {
	switch v {
	case 0:
		return orderbookv1.SideBuy
	case 1:
		return orderbookv1.SideSell
	}
	return ""
}

// decodeLog turns one contract log into a RawEvent of the given kind.
func decodeLog(contractABI abi.ABI, decimals Decimals, kind orderbookv1.EventKind, log types.Log) (orderbookv1.RawEvent, error) {
	event := orderbookv1.RawEvent{
		Kind:     kind,
		Sequence: orderbookv1.Sequence{Block: log.BlockNumber, Index: uint64(log.Index)},
		TxHash:   log.TxHash.Hex(),
	}

	wantTopics := map[orderbookv1.EventKind]int{
		orderbookv1.EventPlaced:    4,
		orderbookv1.EventFilled:    3,
		orderbookv1.EventCancelled: 2,
	}[kind]
	if len(log.Topics) != wantTopics {
		return event, errors.NewErrorDetails(
			fmt.Sprintf("expected %d topics, got %d", wantTopics, len(log.Topics)),
			string(errors.EventDecodeError), "topics",
		)
	}
	event.OrderID = log.Topics[1].Hex()

	switch kind {
	case orderbookv1.EventPlaced:
		var data placedData
		if err := contractABI.UnpackIntoInterface(&data, eventPlaced, log.Data); err != nil {
			return event, errors.NewTracer(string(errors.EventDecodeError)).Wrap(err)
		}
		event.MarketID = log.Topics[2].Hex()
		event.Side = sideFromUint8(data.Side)
		event.Size = decimals.size(data.Size)
		event.Price = decimals.price(data.Price)
	case orderbookv1.EventFilled:
		var data filledData
		if err := contractABI.UnpackIntoInterface(&data, eventFilled, log.Data); err != nil {
			return event, errors.NewTracer(string(errors.EventDecodeError)).Wrap(err)
		}
		event.MarketID = log.Topics[2].Hex()
		event.FilledSize = decimals.size(data.FilledSize)
	}

	return event, nil
}
