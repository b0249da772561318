package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"commune/internal/audit"
	"commune/internal/bank"
	cataloghandler "commune/internal/catalog/handler"
	catalogservice "commune/internal/catalog/service"
	catalogstore "commune/internal/catalog/store"
	"commune/internal/jwttoken"
	markethandler "commune/internal/market/handler"
	marketservice "commune/internal/market/service"
	marketstore "commune/internal/market/store"
	membershiphandler "commune/internal/membership/handler"
	membershipservice "commune/internal/membership/service"
	membershipstore "commune/internal/membership/store"
	"commune/internal/platform/logger"
	proposalhandler "commune/internal/proposal/handler"
	proposalservice "commune/internal/proposal/service"
	proposalstore "commune/internal/proposal/store"
	id "commune/pkg/domain"
	"commune/pkg/platform/tx"
)

// =============================================================================
// Router Test Suite
// =============================================================================
// Exercises the full HTTP stack over the in-memory deployment: middleware,
// bearer auth, routing, and the JSON error contract.

type RouterSuite struct {
	suite.Suite
	server *httptest.Server
	tokens *jwttoken.Service
	ledger *bank.InMemory
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	log := logger.New()
	storeTx := tx.NewInMemory()
	s.ledger = bank.NewInMemory()
	auditor := audit.NewInMemoryRecorder()

	markets := marketstore.NewInMemory()
	marketSvc := marketservice.New(markets, storeTx, marketservice.WithAuditPublisher(auditor))
	membershipSvc := membershipservice.New(membershipstore.NewInMemory(), markets, s.ledger, storeTx,
		membershipservice.WithAuditPublisher(auditor))
	catalogSvc := catalogservice.New(catalogstore.NewInMemory(), marketSvc, membershipSvc, s.ledger, storeTx,
		catalogservice.WithAuditPublisher(auditor))
	proposalSvc := proposalservice.New(proposalstore.NewInMemory(), marketSvc, membershipSvc, s.ledger, storeTx,
		proposalservice.WithAuditPublisher(auditor))

	s.tokens = jwttoken.NewService("router-test-key", "commune")

	router := NewRouter(RouterConfig{
		Logger:         log,
		TokenValidator: s.tokens,
		Handlers: []Registrar{
			markethandler.New(marketSvc, log),
			membershiphandler.New(membershipSvc, log),
			cataloghandler.New(catalogSvc, log),
			proposalhandler.New(proposalSvc, log),
		},
	})
	s.server = httptest.NewServer(router)
	s.T().Cleanup(s.server.Close)
}

func (s *RouterSuite) request(token, method, path string, body any) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *RouterSuite) decode(resp *http.Response, into any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(into))
}

// fundedMember mints an identity, funds it, and returns its bearer token.
func (s *RouterSuite) fundedMember(balance uint64) (id.MemberID, string) {
	member := id.MemberID(uuid.New())
	s.Require().NoError(s.ledger.Deposit(s.T().Context(), member, balance))
	token, err := s.tokens.GenerateMemberToken(member, time.Hour)
	s.Require().NoError(err)
	return member, token
}

func (s *RouterSuite) TestAuth() {
	s.Run("missing bearer token is rejected", func() {
		resp := s.request("", http.MethodGet, "/market", nil)
		resp.Body.Close()
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	s.Run("garbage token is rejected", func() {
		resp := s.request("not-a-jwt", http.MethodGet, "/market", nil)
		resp.Body.Close()
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	s.Run("healthz needs no token", func() {
		resp := s.request("", http.MethodGet, "/healthz", nil)
		resp.Body.Close()
		s.Equal(http.StatusOK, resp.StatusCode)
	})

	s.Run("metrics needs no token", func() {
		resp := s.request("", http.MethodGet, "/metrics", nil)
		resp.Body.Close()
		s.Equal(http.StatusOK, resp.StatusCode)
	})
}

func (s *RouterSuite) TestMarketLifecycle() {
	_, token := s.fundedMember(0)

	resp := s.request(token, http.MethodGet, "/market", nil)
	resp.Body.Close()
	s.Equal(http.StatusNotFound, resp.StatusCode)

	resp = s.request(token, http.MethodPost, "/market/initialize", nil)
	s.Equal(http.StatusCreated, resp.StatusCode)
	var market struct {
		FeeRate uint64 `json:"fee_rate"`
		TaxRate uint64 `json:"tax_rate"`
	}
	s.decode(resp, &market)
	s.Equal(uint64(10_000_000), market.FeeRate)
	s.Equal(uint64(3), market.TaxRate)

	resp = s.request(token, http.MethodPost, "/market/initialize", nil)
	resp.Body.Close()
	s.Equal(http.StatusConflict, resp.StatusCode)
}

func (s *RouterSuite) TestMarketplaceFlow() {
	_, adminToken := s.fundedMember(0)
	resp := s.request(adminToken, http.MethodPost, "/market/initialize", nil)
	resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	sellerBudget := id.DefaultFeeRate + id.TaxAmount(10, id.DefaultTaxRate)
	seller, sellerToken := s.fundedMember(sellerBudget)

	s.Run("joining twice conflicts", func() {
		resp := s.request(sellerToken, http.MethodPost, "/commune/join", nil)
		resp.Body.Close()
		s.Equal(http.StatusCreated, resp.StatusCode)

		resp = s.request(sellerToken, http.MethodPost, "/commune/join", nil)
		resp.Body.Close()
		s.Equal(http.StatusConflict, resp.StatusCode)
	})

	s.Run("listing stores the tax-inclusive price", func() {
		resp := s.request(sellerToken, http.MethodPost, "/items", map[string]any{
			"id":          0,
			"title":       "woven basket",
			"description": "willow, 40cm",
			"price":       10,
		})
		s.Equal(http.StatusCreated, resp.StatusCode)
		var item struct {
			ID    uint64 `json:"id"`
			Price uint64 `json:"price"`
		}
		s.decode(resp, &item)
		s.Equal(uint64(0), item.ID)
		s.Equal(uint64(10_300_000_000), item.Price)
	})

	s.Run("purchase pays the seller and marks the item sold", func() {
		price := uint64(10_300_000_000)
		buyer, buyerToken := s.fundedMember(id.DefaultFeeRate + price)
		resp := s.request(buyerToken, http.MethodPost, "/commune/join", nil)
		resp.Body.Close()
		s.Require().Equal(http.StatusCreated, resp.StatusCode)

		resp = s.request(buyerToken, http.MethodPost, "/items/0/purchase", map[string]any{
			"recipient": seller.String(),
		})
		s.Equal(http.StatusOK, resp.StatusCode)
		var item struct {
			Sold  bool   `json:"sold"`
			Buyer string `json:"buyer"`
		}
		s.decode(resp, &item)
		s.True(item.Sold)
		s.Equal(buyer.String(), item.Buyer)

		resp = s.request(buyerToken, http.MethodPost, "/items/0/purchase", map[string]any{
			"recipient": seller.String(),
		})
		resp.Body.Close()
		s.Equal(http.StatusConflict, resp.StatusCode)
	})

	s.Run("governance round trip", func() {
		resp := s.request(sellerToken, http.MethodPost, "/proposals", map[string]any{
			"id":          0,
			"title":       "build a tool shed",
			"description": "shared storage for garden tools",
			"amount":      id.BaseUnit,
			"quorum":      1,
			"expires_at":  time.Now().Add(time.Hour).Format(time.RFC3339),
		})
		s.Equal(http.StatusCreated, resp.StatusCode)
		resp.Body.Close()

		resp = s.request(sellerToken, http.MethodPost, "/proposals/0/votes", map[string]any{
			"choice": true,
		})
		s.Equal(http.StatusOK, resp.StatusCode)
		var proposal struct {
			VoteYes uint64 `json:"vote_yes"`
			VoteNo  uint64 `json:"vote_no"`
		}
		s.decode(resp, &proposal)
		s.Equal(uint64(1), proposal.VoteYes)
		s.Equal(uint64(0), proposal.VoteNo)

		resp = s.request(sellerToken, http.MethodPost, "/proposals/0/votes", map[string]any{
			"choice": false,
		})
		resp.Body.Close()
		s.Equal(http.StatusConflict, resp.StatusCode)

		resp = s.request(sellerToken, http.MethodGet, "/proposals/0", nil)
		s.Equal(http.StatusOK, resp.StatusCode)
		s.decode(resp, &proposal)
		s.Equal(uint64(1), proposal.VoteYes)
	})

	s.Run("outsiders get 403 on ledger writes", func() {
		_, outsiderToken := s.fundedMember(0)
		resp := s.request(outsiderToken, http.MethodPost, "/items", map[string]any{
			"id": 1, "title": "x", "description": "y", "price": 1,
		})
		resp.Body.Close()
		s.Equal(http.StatusForbidden, resp.StatusCode)
	})
}
