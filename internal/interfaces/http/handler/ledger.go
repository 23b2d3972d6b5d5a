package handler

import (
	accountingapp "github.com/erp/muhasebe/internal/application/accounting"
	"github.com/gin-gonic/gin"
)

// LedgerHandler handles the chart of accounts and ledger entries
type LedgerHandler struct {
	BaseHandler
	ledgerService *accountingapp.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *accountingapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// CreateAccount handles POST /accounts
func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	var req accountingapp.CreateAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	account, err := h.ledgerService.CreateAccount(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// ListAccounts handles GET /accounts
func (h *LedgerHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.ledgerService.ListAccounts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, accounts)
}

// PostEntry handles POST /ledger/entries. Exactly one of debit and credit
// must be positive.
func (h *LedgerHandler) PostEntry(c *gin.Context) {
	var req accountingapp.PostEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	entry, err := h.ledgerService.PostEntry(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// ListEntries handles GET /ledger/entries
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	var filter accountingapp.LedgerListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	var ok bool
	if filter.AccountID, ok = h.QueryUUID(c, "account_id"); !ok {
		return
	}

	entries, total, err := h.ledgerService.ListEntries(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, entries, total, filter.Page, filter.PageSize)
}
