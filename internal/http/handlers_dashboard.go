package http

import (
	"errors"
	"net/http"
	"strconv"

	"moneybuddy/internal/core"
	"moneybuddy/internal/importer"
	applog "moneybuddy/internal/log"
	"moneybuddy/internal/services"
)

type transactionView struct {
	ID       string
	Date     string
	Category string
	Type     string
	Amount   string
	Income   bool
}

type summaryView struct {
	TotalIncome  string
	TotalExpense string
	Balance      string
	Negative     bool
}

type dashboardData struct {
	Page              string
	Summary           summaryView
	Transactions      []transactionView
	IncomeCategories  []string
	ExpenseCategories []string
	SheetImport       bool
}

func newSummaryView(t core.Totals) summaryView {
	return summaryView{
		TotalIncome:  formatMoney(t.TotalIncome),
		TotalExpense: formatMoney(t.TotalExpense),
		Balance:      formatMoney(t.Balance),
		Negative:     t.Balance.IsNegative(),
	}
}

func newTransactionViews(txs []core.Transaction) []transactionView {
	out := make([]transactionView, len(txs))
	for i, tx := range txs {
		out[i] = transactionView{
			ID:       tx.ID,
			Date:     tx.Date.String(),
			Category: tx.Category,
			Type:     tx.Type.String(),
			Amount:   formatMoney(tx.Amount),
			Income:   tx.Type == core.Income,
		}
	}
	return out
}

func (s *Server) dashboard() dashboardData {
	return dashboardData{
		Page:              "dashboard",
		Summary:           newSummaryView(s.svc.Summary()),
		Transactions:      newTransactionViews(s.svc.Transactions()),
		IncomeCategories:  core.Categories(core.Income),
		ExpenseCategories: core.Categories(core.Expense),
		SheetImport:       s.svc.SheetImportEnabled(),
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		Failure(http.StatusNotFound, "Page not found").Write(w)
		return
	}
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}
	s.writePage(w, r, "dashboard.html", s.dashboard())
}

// handleSummary renders the totals partial.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}
	s.writePartial(w, r, "summary", newSummaryView(s.svc.Summary()), nil)
}

// handleTransactionList renders the history partial.
func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}
	s.writePartial(w, r, "transaction_list", s.dashboard(), nil)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}

	form := ParseTransactionForm(r.Form)
	tx, err := s.svc.AddTransaction(r.Context(), form.Amount, form.Category, form.Type)
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpCreate, "Could not save the transaction")
		return
	}

	s.events.LogTransactionAdded(r.Context(), tx.ID, tx.Amount.String(), tx.Category, tx.Type.String())
	s.writePartial(w, r, "ledger", s.dashboard(), NewHTMXResponse().
		LedgerChanged(1).
		ResetForm().
		Notify(NoticeSuccess, "Transaction added"))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireDeleteOrPOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	p, errResp := ParseBodyOrFail(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	id := p.Get("id")
	deleted, err := s.svc.DeleteTransaction(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpDelete, "Could not delete the transaction")
		return
	}

	resp := NewHTMXResponse()
	if deleted {
		applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction deleted", applog.FieldTransactionID, id)
		resp.LedgerChanged(1).Notify(NoticeSuccess, "Transaction deleted")
	} else {
		resp.Notify(NoticeInfo, "Transaction not found")
	}
	s.writePartial(w, r, "ledger", s.dashboard(), resp)
}

// handleImportFile merges an uploaded .xlsx or .csv file.
func (s *Server) handleImportFile(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}

	if s.importMaxBytes > 0 {
		// Leave room for multipart framing around the file part.
		r.Body = http.MaxBytesReader(w, r.Body, s.importMaxBytes+64<<10)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Failure(http.StatusUnprocessableEntity, "File exceeds the import size limit").Write(w)
			return
		}
		Failure(http.StatusBadRequest, "Expected a multipart upload").Write(w)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		Failure(http.StatusBadRequest, "Choose a file to import").Write(w)
		return
	}
	defer file.Close()

	n, err := s.svc.ImportFile(r.Context(), header.Filename, file)
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpImport, "Import failed")
		return
	}
	s.events.LogImportCompleted(r.Context(), header.Filename, n)
	s.writeImportResult(w, r, n)
}

// handleImportSheet merges the configured Google Sheet range.
func (s *Server) handleImportSheet(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	n, err := s.svc.ImportSheet(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpImport, "Sheet import failed")
		return
	}
	s.events.LogImportCompleted(r.Context(), importer.FormatSheets, n)
	s.writeImportResult(w, r, n)
}

func (s *Server) writeImportResult(w http.ResponseWriter, r *http.Request, n int) {
	resp := NewHTMXResponse()
	switch n {
	case 0:
		resp.Notify(NoticeInfo, "No rows to import")
	case 1:
		resp.LedgerChanged(n).Notify(NoticeSuccess, "Imported 1 transaction")
	default:
		resp.LedgerChanged(n).Notify(NoticeSuccess, "Imported " + strconv.Itoa(n) + " transactions")
	}
	s.writePartial(w, r, "ledger", s.dashboard(), resp)
}

type transactionsResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Totals       core.Totals        `json:"totals"`
}

func (s *Server) handleTransactionsAPI(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}
	txs := s.svc.Transactions()
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactionsResponse{Transactions: txs, Totals: s.svc.Summary()})
}

// writeServiceError maps typed errors to 4xx notices and everything else to a 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, op, fallback string) {
	logger := applog.FromContext(r.Context())
	switch {
	case core.IsValidationError(err):
		Failure(http.StatusUnprocessableEntity, err.Error()).Write(w)
	case importer.IsDecodeError(err):
		msg := "Could not read the file: " + err.Error()
		logger.WarnContext(r.Context(), "Import rejected", applog.FieldError, err)
		Failure(http.StatusUnprocessableEntity, msg).Write(w)
	case errors.Is(err, services.ErrSheetNotConfigured):
		Failure(http.StatusNotImplemented, err.Error()).Write(w)
	default:
		s.events.LogError(r.Context(), fallback, err, op,
			applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", "", ""))
		Failure(http.StatusInternalServerError, fallback).Write(w)
	}
}

// writePartial renders a named fragment and sends it through the builder.
func (s *Server) writePartial(w http.ResponseWriter, r *http.Request, name string, data any, resp *HTMXResponseBuilder) {
	body, err := s.render(name, data)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Partial render failed", "template", name, applog.FieldError, err)
		Failure(http.StatusInternalServerError, "Could not render view").Write(w)
		return
	}
	if resp == nil {
		resp = NewHTMXResponse()
	}
	resp.HTML(body).Write(w)
}
