// Package processor dispatches the four pool operations, holding the
// Trade netting algebra and the Collect payout math.
package processor

import (
	"encoding/binary"

	"github.com/klingon-exchange/duopool/internal/config"
	"github.com/klingon-exchange/duopool/internal/errors"
)

// Kind identifies which of the four operations an Instruction carries.
type Kind byte

const (
	KindInitialize Kind = config.TagInitialize
	KindTrade      Kind = config.TagTrade
	KindSettle     Kind = config.TagSettle
	KindCollect    Kind = config.TagCollect
)

func (k Kind) String() string {
	switch k {
	case KindInitialize:
		return "Initialize"
	case KindTrade:
		return "Trade"
	case KindSettle:
		return "Settle"
	case KindCollect:
		return "Collect"
	default:
		return "Unknown"
	}
}

// TradeArgs carries Trade's three little-endian uint64 parameters.
type TradeArgs struct {
	Size      uint64
	BuyPrice  uint64
	SellPrice uint64
}

// Instruction is the decoded tagged-union transaction payload.
type Instruction struct {
	Kind  Kind
	Trade TradeArgs
}

// tradeArgsSize is the encoded byte length of the three Trade arguments.
const tradeArgsSize = 8 * 3

// Decode parses the tagged-union wire format described for the instruction
// envelope: a one-byte tag followed by the variant's little-endian fields.
func Decode(data []byte) (Instruction, error) {
	if len(data) < 1 {
		return Instruction{}, errors.New(errors.InvalidInstruction)
	}

	switch Kind(data[0]) {
	case KindInitialize:
		if len(data) != 1 {
			return Instruction{}, errors.New(errors.InvalidInstruction)
		}
		return Instruction{Kind: KindInitialize}, nil

	case KindTrade:
		if len(data) != 1+tradeArgsSize {
			return Instruction{}, errors.New(errors.InvalidInstruction)
		}
		body := data[1:]
		return Instruction{
			Kind: KindTrade,
			Trade: TradeArgs{
				Size:      binary.LittleEndian.Uint64(body[0:8]),
				BuyPrice:  binary.LittleEndian.Uint64(body[8:16]),
				SellPrice: binary.LittleEndian.Uint64(body[16:24]),
			},
		}, nil

	case KindSettle:
		if len(data) != 1 {
			return Instruction{}, errors.New(errors.InvalidInstruction)
		}
		return Instruction{Kind: KindSettle}, nil

	case KindCollect:
		if len(data) != 1 {
			return Instruction{}, errors.New(errors.InvalidInstruction)
		}
		return Instruction{Kind: KindCollect}, nil

	default:
		return Instruction{}, errors.New(errors.InvalidInstruction)
	}
}

// Encode renders an Instruction back to its wire format.
func (i Instruction) Encode() []byte {
	switch i.Kind {
	case KindTrade:
		buf := make([]byte, 1+tradeArgsSize)
		buf[0] = byte(KindTrade)
		binary.LittleEndian.PutUint64(buf[1:9], i.Trade.Size)
		binary.LittleEndian.PutUint64(buf[9:17], i.Trade.BuyPrice)
		binary.LittleEndian.PutUint64(buf[17:25], i.Trade.SellPrice)
		return buf
	default:
		return []byte{byte(i.Kind)}
	}
}
