package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
)

// generator emits a plausible order event stream for one market. Placed orders
// are later filled, partially or in full, or cancelled.
type generator struct {
	rng         *rand.Rand
	marketID    string
	symbol      string
	basePrice   decimal.Decimal
	priceSpread decimal.Decimal

	block    uint64
	logIndex uint64
	open     []openOrder
}

type openOrder struct {
	id        string
	remaining decimal.Decimal
}

func (g *generator) next() orderbookv1.OrderEventMessage {
	g.logIndex++
	if g.rng.Intn(4) == 0 {
		g.block++
		g.logIndex = 0
	}

	msg := orderbookv1.OrderEventMessage{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		MarketID:  g.marketID,
		Symbol:    g.symbol,
		Block:     g.block,
		LogIndex:  g.logIndex,
		TxHash:    "0x" + strings.ReplaceAll(uuid.NewString(), "-", ""),
	}

	// 60% placements, the rest split between fills and cancels.
	roll := g.rng.Float64()
	if len(g.open) == 0 || roll < 0.6 {
		return g.place(msg)
	}

	i := g.rng.Intn(len(g.open))
	order := g.open[i]
	msg.OrderID = order.id

	if roll < 0.85 {
		msg.EventType = orderbookv1.MessageOrderFilled
		fill := order.remaining
		if g.rng.Intn(2) == 0 {
			fill = fill.Div(decimal.NewFromInt(2)).Round(3)
		}
		if !fill.IsPositive() {
			fill = order.remaining
		}
		msg.FilledSize = fill.String()

		g.open[i].remaining = order.remaining.Sub(fill)
		if g.open[i].remaining.IsPositive() {
			return msg
		}
	} else {
		// Cancellations carry the order id only.
		msg.EventType = orderbookv1.MessageOrderCancelled
		msg.MarketID = ""
		msg.Symbol = ""
	}

	g.open = append(g.open[:i], g.open[i+1:]...)
	return msg
}

func (g *generator) place(msg orderbookv1.OrderEventMessage) orderbookv1.OrderEventMessage {
	isBid := g.rng.Intn(2) == 0
	offset := g.priceSpread.Mul(decimal.NewFromFloat(g.rng.Float64() * 0.8))

	price := g.basePrice.Add(offset)
	msg.Side = string(orderbookv1.SideSell)
	if isBid {
		price = g.basePrice.Sub(offset)
		msg.Side = string(orderbookv1.SideBuy)
	}
	price = price.Round(1)
	if !price.IsPositive() {
		price = g.basePrice
	}

	size := decimal.NewFromFloat(0.01 + g.rng.Float64()*9.99).Round(3)

	msg.EventType = orderbookv1.MessageOrderPlaced
	msg.OrderID = "0x" + strings.ReplaceAll(uuid.NewString(), "-", "")
	msg.Size = size.String()
	msg.Price = price.String()

	g.open = append(g.open, openOrder{id: msg.OrderID, remaining: size})
	return msg
}

func main() {
	var (
		brokers     = flag.String("brokers", "localhost:9092", "Kafka broker addresses (comma-separated)")
		topic       = flag.String("topic", "order-events", "Kafka topic name")
		file        = flag.String("file", "", "JSON file with order events (optional, generates events if not provided)")
		delay       = flag.Duration("delay", 100*time.Millisecond, "Delay between sending events")
		count       = flag.Int("count", 1000, "Number of events to generate")
		marketID    = flag.String("market-id", "0x01", "Market id carried by generated events")
		symbol      = flag.String("symbol", "ETH-USDC", "Market symbol carried by generated events")
		basePrice   = flag.Float64("base-price", 3945.5, "Base price for orders")
		priceSpread = flag.Float64("price-spread", 200.0, "Price spread range")
	)
	flag.Parse()

	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:        *topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	ctx := context.Background()

	var events []orderbookv1.OrderEventMessage
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Failed to read file %s: %v", *file, err)
		}
		if err := json.Unmarshal(data, &events); err != nil {
			log.Fatalf("Failed to parse JSON from file: %v", err)
		}
		log.Printf("Loaded %d events from file: %s", len(events), *file)
	} else {
		g := &generator{
			rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
			marketID:    *marketID,
			symbol:      *symbol,
			basePrice:   decimal.NewFromFloat(*basePrice),
			priceSpread: decimal.NewFromFloat(*priceSpread),
			block:       1,
		}
		for i := 0; i < *count; i++ {
			events = append(events, g.next())
		}
		log.Printf("Generated %d events", len(events))
	}

	log.Printf("Sending events to Kafka broker: %s, topic: %s", *brokers, *topic)

	counts := make(map[string]int)
	for i, event := range events {
		value, err := json.Marshal(event)
		if err != nil {
			log.Printf("Failed to marshal event %d: %v", i+1, err)
			continue
		}

		// Keyed by order id so every event of an order lands on one partition.
		msg := kafka.Message{
			Key:   []byte(event.OrderID),
			Value: value,
			Time:  event.Timestamp,
		}
		if err := writer.WriteMessages(ctx, msg); err != nil {
			log.Printf("Failed to send event %d (%s): %v", i+1, event.OrderID, err)
			continue
		}
		counts[event.EventType]++

		if (i+1)%100 == 0 || i == len(events)-1 {
			log.Printf("Sent event %d/%d: %s %s", i+1, len(events), event.EventType, event.OrderID)
		}
		if i < len(events)-1 {
			time.Sleep(*delay)
		}
	}

	log.Printf("--- Summary ---")
	log.Printf("Placed: %d", counts[orderbookv1.MessageOrderPlaced])
	log.Printf("Filled: %d", counts[orderbookv1.MessageOrderFilled])
	log.Printf("Cancelled: %d", counts[orderbookv1.MessageOrderCancelled])
}
