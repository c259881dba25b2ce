package poolstate

import (
	"testing"

	"github.com/klingon-exchange/duopool/internal/errors"
)

func TestIncrementSupply(t *testing.T) {
	tests := []struct {
		name    string
		start   uint64
		delta   uint64
		want    uint64
		wantErr errors.Code
		hasErr  bool
	}{
		{name: "simple increment", start: 0, delta: 100, want: 100},
		{name: "accumulates", start: 100, delta: 50, want: 150},
		{name: "overflow", start: ^uint64(0), delta: 1, hasErr: true, wantErr: errors.InvalidSupply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Pool{Circulation: tt.start}
			err := p.IncrementSupply(tt.delta)
			if tt.hasErr {
				if code, ok := errors.CodeOf(err); !ok || code != tt.wantErr {
					t.Fatalf("err = %v, want code %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Circulation != tt.want {
				t.Errorf("Circulation = %d, want %d", p.Circulation, tt.want)
			}
		})
	}
}

func TestDecrementSupply(t *testing.T) {
	tests := []struct {
		name    string
		start   uint64
		delta   uint64
		want    uint64
		wantErr errors.Code
		hasErr  bool
	}{
		{name: "simple decrement", start: 100, delta: 40, want: 60},
		{name: "decrement to zero", start: 100, delta: 100, want: 0},
		{name: "underflow", start: 10, delta: 11, hasErr: true, wantErr: errors.InvalidSupply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Pool{Circulation: tt.start}
			err := p.DecrementSupply(tt.delta)
			if tt.hasErr {
				if code, ok := errors.CodeOf(err); !ok || code != tt.wantErr {
					t.Fatalf("err = %v, want code %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Circulation != tt.want {
				t.Errorf("Circulation = %d, want %d", p.Circulation, tt.want)
			}
		})
	}
}

func TestIsWinner(t *testing.T) {
	p := &Pool{}
	mint := addrFromByte(7)

	if p.IsWinner(mint) {
		t.Error("unsettled pool must not report a winner")
	}

	p.Settled = true
	p.WinningSide = mint
	if !p.IsWinner(mint) {
		t.Error("settled pool with matching mint must report a winner")
	}
	if p.IsWinner(addrFromByte(8)) {
		t.Error("settled pool must not report a winner for a non-matching mint")
	}
}
