// Package rpc is the HTTP and WebSocket front end over the host simulator:
// a convenience wrapper for driving and observing pools from outside the
// process. It never bypasses the processor's validation — every endpoint
// is a thin decode-then-Submit call.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/klingon-exchange/duopool/internal/derive"
	"github.com/klingon-exchange/duopool/internal/errors"
	"github.com/klingon-exchange/duopool/internal/host"
	"github.com/klingon-exchange/duopool/internal/identity"
	"github.com/klingon-exchange/duopool/internal/poolstate"
	"github.com/klingon-exchange/duopool/internal/processor"
	"github.com/klingon-exchange/duopool/pkg/logging"
)

// Config holds the deployment-wide constants the server stamps onto every
// instruction it builds on a caller's behalf.
type Config struct {
	ProgramID     identity.Address
	TokenModuleID identity.Address
}

// Server exposes POST /pools/{address}/initialize|trade|settle|collect and
// GET /ws over a Host.
type Server struct {
	host *host.Host
	cfg  Config
	log  *logging.Logger

	wsHub    *WSHub
	server   *http.Server
	listener net.Listener
}

// NewServer returns a Server driving h, stamping cfg's ProgramID and
// TokenModuleID onto every instruction it submits.
func NewServer(h *host.Host, cfg Config) *Server {
	return &Server{
		host: h,
		cfg:  cfg,
		log:  logging.GetDefault().Component("rpc"),
	}
}

// Start begins serving on addr and starts the WebSocket broadcast pump
// that republishes every host.PoolUpdate as a pool_updated event.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("rpc: listen on %s: %w", addr, err)
	}
	s.listener = listener

	s.wsHub = NewWSHub()
	go s.wsHub.Run()
	go s.pumpHostUpdates()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /pools/{address}/initialize", s.handleInitialize)
	mux.HandleFunc("POST /pools/{address}/trade", s.handleTrade)
	mux.HandleFunc("POST /pools/{address}/settle", s.handleSettle)
	mux.HandleFunc("POST /pools/{address}/collect", s.handleCollect)
	mux.HandleFunc("GET /pools/{address}", s.handleGetPool)
	mux.HandleFunc("GET /ws", s.handleWS)

	s.server = &http.Server{
		Handler:      corsMiddleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("rpc server error", "error", err)
		}
	}()

	s.log.Info("rpc server started", "addr", addr, "ws", "ws://"+addr+"/ws")
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// WSHub returns the WebSocket hub, for tests that want to inspect client counts.
func (s *Server) WSHub() *WSHub {
	return s.wsHub
}

func (s *Server) pumpHostUpdates() {
	for update := range s.host.Subscribe() {
		if s.wsHub != nil {
			s.wsHub.Broadcast(EventPoolUpdated, update)
		}
	}
}

// poolAddressFromPath parses the {address} path value as a base58 identity.
func poolAddressFromPath(r *http.Request) (identity.Address, error) {
	return identity.Parse(r.PathValue("address"))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorResponse is the JSON shape of a failed instruction: the stable
// numeric code plus its symbolic name and any free-form context.
type errorResponse struct {
	Code    uint16 `json:"code"`
	Name    string `json:"name"`
	Context string `json:"context,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code, ok := errors.CodeOf(err)
	if !ok {
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Name: "Internal", Context: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Code: uint16(code), Name: code.String(), Context: err.Error()})
}

// decodeBody is a small helper shared by every POST handler.
func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

type initializeRequest struct {
	LongEscrowMint     identity.Address `json:"long_escrow_mint"`
	ShortEscrowMint    identity.Address `json:"short_escrow_mint"`
	LongEscrowAccount  identity.Address `json:"long_escrow_account"`
	ShortEscrowAccount identity.Address `json:"short_escrow_account"`
	LongMint           identity.Address `json:"long_mint"`
	ShortMint          identity.Address `json:"short_mint"`
	MintAuthority      identity.Address `json:"mint_authority"`
	UpdateAuthority    identity.Address `json:"update_authority"`
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	poolAddr, err := poolAddressFromPath(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Name: "InvalidPoolAddress", Context: err.Error()})
		return
	}
	var req initializeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Name: "InvalidRequestBody", Context: err.Error()})
		return
	}

	pool, err := s.host.SubmitInitialize(poolAddr, processor.InitializeAccounts{
		Pool:               poolAddr,
		ProgramID:          s.cfg.ProgramID,
		TokenModuleID:      s.cfg.TokenModuleID,
		LongEscrowMint:     req.LongEscrowMint,
		ShortEscrowMint:    req.ShortEscrowMint,
		LongEscrowAccount:  req.LongEscrowAccount,
		ShortEscrowAccount: req.ShortEscrowAccount,
		LongMint:           req.LongMint,
		ShortMint:          req.ShortMint,
		MintAuthority:      processor.AccountInfo{Key: req.MintAuthority, Signer: true},
		UpdateAuthority:    processor.AccountInfo{Key: req.UpdateAuthority, Signer: true},
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pool)
}

type tradePartyRequest struct {
	Owner           identity.Address `json:"owner"`
	LongToken       identity.Address `json:"long_token"`
	ShortToken      identity.Address `json:"short_token"`
	LongCollateral  identity.Address `json:"long_collateral"`
	ShortCollateral identity.Address `json:"short_collateral"`
}

func (p tradePartyRequest) toParty() processor.TradeParty {
	return processor.TradeParty{
		Owner:           p.Owner,
		LongToken:       p.LongToken,
		ShortToken:      p.ShortToken,
		LongCollateral:  p.LongCollateral,
		ShortCollateral: p.ShortCollateral,
	}
}

type tradeRequest struct {
	Buyer     tradePartyRequest `json:"buyer"`
	Seller    tradePartyRequest `json:"seller"`
	Size      uint64            `json:"size"`
	BuyPrice  uint64            `json:"buy_price"`
	SellPrice uint64            `json:"sell_price"`
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	poolAddr, err := poolAddressFromPath(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Name: "InvalidPoolAddress", Context: err.Error()})
		return
	}
	pool, ok := s.host.Pool(poolAddr)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Name: "PoolNotFound"})
		return
	}
	var req tradeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Name: "InvalidRequestBody", Context: err.Error()})
		return
	}

	escrowAuthority, bump, err := s.deriveEscrowAuthority(pool)
	if err != nil {
		s.writeError(w, err)
		return
	}

	updated, err := s.host.SubmitTrade(poolAddr, processor.TradeAccounts{
		Pool:               poolAddr,
		ProgramID:          s.cfg.ProgramID,
		TokenModuleID:      s.cfg.TokenModuleID,
		LongMint:           pool.LongMint,
		ShortMint:          pool.ShortMint,
		LongEscrowMint:     pool.LongEscrowMint,
		ShortEscrowMint:    pool.ShortEscrowMint,
		LongEscrowAccount:  pool.LongEscrowAccount,
		ShortEscrowAccount: pool.ShortEscrowAccount,
		EscrowAuthority:    escrowAuthority,
		EscrowBump:         bump,
		Buyer:              req.Buyer.toParty(),
		Seller:             req.Seller.toParty(),
	}, processor.TradeArgs{Size: req.Size, BuyPrice: req.BuyPrice, SellPrice: req.SellPrice})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

type settleRequest struct {
	WinningMint     identity.Address `json:"winning_mint"`
	UpdateAuthority identity.Address `json:"update_authority"`
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	poolAddr, err := poolAddressFromPath(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Name: "InvalidPoolAddress", Context: err.Error()})
		return
	}
	var req settleRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Name: "InvalidRequestBody", Context: err.Error()})
		return
	}

	pool, err := s.host.SubmitSettle(poolAddr, processor.SettleAccounts{
		WinningMint:     req.WinningMint,
		UpdateAuthority: processor.AccountInfo{Key: req.UpdateAuthority, Signer: true},
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pool)
}

type collectRequest struct {
	Collector                identity.Address `json:"collector"`
	CollectorLongToken       identity.Address `json:"collector_long_token"`
	CollectorShortToken      identity.Address `json:"collector_short_token"`
	CollectorLongCollateral  identity.Address `json:"collector_long_collateral"`
	CollectorShortCollateral identity.Address `json:"collector_short_collateral"`
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	poolAddr, err := poolAddressFromPath(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Name: "InvalidPoolAddress", Context: err.Error()})
		return
	}
	pool, ok := s.host.Pool(poolAddr)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Name: "PoolNotFound"})
		return
	}
	var req collectRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Name: "InvalidRequestBody", Context: err.Error()})
		return
	}

	escrowAuthority, bump, err := s.deriveEscrowAuthority(pool)
	if err != nil {
		s.writeError(w, err)
		return
	}

	updated, err := s.host.SubmitCollect(poolAddr, processor.CollectAccounts{
		ProgramID:                s.cfg.ProgramID,
		TokenModuleID:            s.cfg.TokenModuleID,
		Collector:                req.Collector,
		CollectorLongToken:       req.CollectorLongToken,
		CollectorShortToken:      req.CollectorShortToken,
		CollectorLongCollateral:  req.CollectorLongCollateral,
		CollectorShortCollateral: req.CollectorShortCollateral,
		LongEscrowAccount:        pool.LongEscrowAccount,
		ShortEscrowAccount:       pool.ShortEscrowAccount,
		EscrowAuthority:          escrowAuthority,
		EscrowBump:               bump,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	poolAddr, err := poolAddressFromPath(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Name: "InvalidPoolAddress", Context: err.Error()})
		return
	}
	pool, ok := s.host.Pool(poolAddr)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Name: "PoolNotFound"})
		return
	}
	s.writeJSON(w, http.StatusOK, pool)
}

// deriveEscrowAuthority recomputes the escrow-authority address the
// processor will itself re-derive and check, so the server never has to
// trust a caller-supplied authority or bump.
func (s *Server) deriveEscrowAuthority(pool *poolstate.Pool) (identity.Address, byte, error) {
	result, err := derive.Address(s.cfg.ProgramID, derive.EscrowAuthoritySeeds(pool.LongMint, pool.ShortMint, s.cfg.TokenModuleID)...)
	if err != nil {
		return identity.Address{}, 0, err
	}
	return result.Address, result.Bump, nil
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
