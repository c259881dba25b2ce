package poolstate

import (
	"encoding/binary"

	"github.com/klingon-exchange/duopool/internal/config"
	"github.com/klingon-exchange/duopool/internal/errors"
	"github.com/klingon-exchange/duopool/internal/identity"
)

// Size is the fixed on-account byte length of an encoded Pool: an 8-byte
// little-endian circulation count, a 1-byte settled flag, and seven
// 32-byte identities.
const Size = config.PoolRecordSize

const (
	offCirculation = 0
	offSettled     = 8
	offWinningSide = 9
	offLongEMint   = offWinningSide + 32
	offShortEMint  = offLongEMint + 32
	offLongEAcct   = offShortEMint + 32
	offShortEAcct  = offLongEAcct + 32
	offLongMint    = offShortEAcct + 32
	offShortMint   = offLongMint + 32
)

// Marshal encodes p into the fixed Size-byte account layout.
func (p *Pool) Marshal() []byte {
	buf := make([]byte, Size)
	binary.LittleEndian.PutUint64(buf[offCirculation:], p.Circulation)
	if p.Settled {
		buf[offSettled] = 1
	}
	copy(buf[offWinningSide:], p.WinningSide.Bytes())
	copy(buf[offLongEMint:], p.LongEscrowMint.Bytes())
	copy(buf[offShortEMint:], p.ShortEscrowMint.Bytes())
	copy(buf[offLongEAcct:], p.LongEscrowAccount.Bytes())
	copy(buf[offShortEAcct:], p.ShortEscrowAccount.Bytes())
	copy(buf[offLongMint:], p.LongMint.Bytes())
	copy(buf[offShortMint:], p.ShortMint.Bytes())
	return buf
}

// Unmarshal decodes a Pool from data, requiring exactly Size bytes and a
// settled flag byte of 0 or 1.
func Unmarshal(data []byte) (*Pool, error) {
	if len(data) != Size {
		return nil, errors.Newf(errors.InvalidAccountData, "pool record must be %d bytes, got %d", Size, len(data))
	}
	if data[offSettled] > 1 {
		return nil, errors.New(errors.InvalidAccountData)
	}

	p := &Pool{
		Circulation: binary.LittleEndian.Uint64(data[offCirculation:]),
		Settled:     data[offSettled] == 1,
	}

	fields := []struct {
		dst *identity.Address
		off int
	}{
		{&p.WinningSide, offWinningSide},
		{&p.LongEscrowMint, offLongEMint},
		{&p.ShortEscrowMint, offShortEMint},
		{&p.LongEscrowAccount, offLongEAcct},
		{&p.ShortEscrowAccount, offShortEAcct},
		{&p.LongMint, offLongMint},
		{&p.ShortMint, offShortMint},
	}
	for _, f := range fields {
		addr, err := identity.FromBytes(data[f.off : f.off+32])
		if err != nil {
			return nil, errors.New(errors.InvalidAccountData)
		}
		*f.dst = addr
	}

	return p, nil
}
