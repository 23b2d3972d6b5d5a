package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	accountingapp "github.com/erp/muhasebe/internal/application/accounting"
	"github.com/erp/muhasebe/internal/infrastructure/export"
	"github.com/gin-gonic/gin"
)

// ReportHandler serves the financial statements and the KDV declaration
type ReportHandler struct {
	BaseHandler
	reportService *accountingapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *accountingapp.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// formatQuery selects the response body: the JSON envelope (default) or
// an XLSX download
type formatQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=json xlsx"`
}

func (q formatQuery) xlsx() bool { return q.Format == "xlsx" }

type balanceSheetQuery struct {
	formatQuery
	AsOf *time.Time `form:"as_of" time_format:"2006-01-02"`
}

type periodQuery struct {
	formatQuery
	Start time.Time `form:"start" time_format:"2006-01-02" binding:"required"`
	End   time.Time `form:"end" time_format:"2006-01-02" binding:"required"`
}

type vatDeclarationQuery struct {
	formatQuery
	Year  int `form:"year" binding:"required,min=2000,max=2100"`
	Month int `form:"month" binding:"required,min=1,max=12"`
}

// attachment renders the workbook into memory first so a rendering error
// still gets the JSON error envelope
func (h *ReportHandler) attachment(c *gin.Context, filename string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}

// BalanceSheet handles GET /reports/balance-sheet?as_of=YYYY-MM-DD. Without
// as_of the statement is taken as of today. format=xlsx downloads it.
func (h *ReportHandler) BalanceSheet(c *gin.Context) {
	var q balanceSheetQuery
	if !h.BindQuery(c, &q) {
		return
	}
	asOf := time.Now()
	if q.AsOf != nil {
		asOf = *q.AsOf
	}

	sheet, err := h.reportService.BalanceSheet(c.Request.Context(), asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if q.xlsx() {
		h.attachment(c, "bilanco-"+asOf.Format("2006-01-02")+".xlsx", func(w io.Writer) error {
			return export.WriteBalanceSheet(w, sheet)
		})
		return
	}
	h.Success(c, sheet)
}

// IncomeStatement handles GET /reports/income-statement?start=&end=
func (h *ReportHandler) IncomeStatement(c *gin.Context) {
	var q periodQuery
	if !h.BindQuery(c, &q) {
		return
	}

	statement, err := h.reportService.IncomeStatement(c.Request.Context(), q.Start, q.End)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if q.xlsx() {
		name := fmt.Sprintf("gelir-tablosu-%s-%s.xlsx", q.Start.Format("2006-01-02"), q.End.Format("2006-01-02"))
		h.attachment(c, name, func(w io.Writer) error {
			return export.WriteIncomeStatement(w, statement)
		})
		return
	}
	h.Success(c, statement)
}

// VATDeclaration handles GET /reports/vat-declaration?year=&month=
func (h *ReportHandler) VATDeclaration(c *gin.Context) {
	var q vatDeclarationQuery
	if !h.BindQuery(c, &q) {
		return
	}

	declaration, err := h.reportService.VATDeclaration(c.Request.Context(), q.Year, q.Month)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if q.xlsx() {
		h.attachment(c, fmt.Sprintf("kdv-%d-%02d.xlsx", q.Year, q.Month), func(w io.Writer) error {
			return export.WriteVATDeclaration(w, &declaration.VATDeclaration)
		})
		return
	}
	h.Success(c, declaration)
}
