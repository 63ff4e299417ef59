package evm

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
)

// OrderBookABI is the subset of the exchange contract interface read by this package.
const OrderBookABI = `[
  {"type":"event","name":"OrderPlaced","anonymous":false,"inputs":[
    {"name":"orderId","type":"bytes32","indexed":true},
    {"name":"marketId","type":"bytes32","indexed":true},
    {"name":"trader","type":"address","indexed":true},
    {"name":"side","type":"uint8","indexed":false},
    {"name":"size","type":"uint256","indexed":false},
    {"name":"price","type":"uint256","indexed":false}]},
  {"type":"event","name":"OrderFilled","anonymous":false,"inputs":[
    {"name":"orderId","type":"bytes32","indexed":true},
    {"name":"marketId","type":"bytes32","indexed":true},
    {"name":"filledSize","type":"uint256","indexed":false}]},
  {"type":"event","name":"OrderCancelled","anonymous":false,"inputs":[
    {"name":"orderId","type":"bytes32","indexed":true}]},
  {"type":"function","name":"getOrderBook","stateMutability":"view","inputs":[
    {"name":"marketId","type":"bytes32"},
    {"name":"depth","type":"uint256"}],"outputs":[
    {"name":"bidPrices","type":"uint256[]"},
    {"name":"bidSizes","type":"uint256[]"},
    {"name":"askPrices","type":"uint256[]"},
    {"name":"askSizes","type":"uint256[]"}]},
  {"type":"function","name":"getAllMarkets","stateMutability":"view","inputs":[],"outputs":[
    {"name":"ids","type":"bytes32[]"},
    {"name":"symbols","type":"string[]"}]}
]`

const (
	eventPlaced    = "OrderPlaced"
	eventFilled    = "OrderFilled"
	eventCancelled = "OrderCancelled"

	methodGetOrderBook  = "getOrderBook"
	methodGetAllMarkets = "getAllMarkets"
)

var eventNames = map[orderbookv1.EventKind]string{
	orderbookv1.EventPlaced:    eventPlaced,
	orderbookv1.EventFilled:    eventFilled,
	orderbookv1.EventCancelled: eventCancelled,
}

// ParseABI parses OrderBookABI.
func ParseABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(OrderBookABI))
}

// eventTopic returns the topic0 hash of the event emitted for kind.
func eventTopic(contractABI abi.ABI, kind orderbookv1.EventKind) (common.Hash, bool) {
	name, ok := eventNames[kind]
	if !ok {
		return common.Hash{}, false
	}
	event, ok := contractABI.Events[name]
	if !ok {
		return common.Hash{}, false
	}
	return event.ID, true
}
