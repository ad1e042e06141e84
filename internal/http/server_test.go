package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"kakeibo/internal/holiday"
	"kakeibo/internal/services"
	"kakeibo/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "kakeibo.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	s := NewServer(":0", Deps{
		Transactions:   services.NewTransactionService(repo, nil),
		Budgets:        services.NewBudgetService(repo),
		Categories:     services.NewCategoryService(repo),
		PaymentMethods: services.NewPaymentMethodService(repo),
		Ready:          repo,
	})
	ts := httptest.NewServer(s.Handler)
	t.Cleanup(func() {
		ts.Close()
		s.limiter.Stop()
	})
	return ts
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type formDataResponse struct {
	Categories []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"categories"`
	PaymentMethods []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"paymentMethods"`
	ActiveBudgets []struct {
		ID int64 `json:"id"`
	} `json:"activeBudgets"`
}

// seededRefs pulls an expense category and a payment method from the seed
// data via the form-data endpoint.
func seededRefs(t *testing.T, ts *httptest.Server) (mainCategoryID, paymentMethodID int64) {
	t.Helper()

	var form formDataResponse
	if status := doRequest(t, ts, http.MethodGet, "/api/v1/form-data", nil, &form); status != http.StatusOK {
		t.Fatalf("GET form-data status = %d", status)
	}
	for _, c := range form.Categories {
		if c.Type == "expense" {
			mainCategoryID = c.ID
			break
		}
	}
	if mainCategoryID == 0 || len(form.PaymentMethods) == 0 {
		t.Fatal("seed data missing from form-data response")
	}
	return mainCategoryID, form.PaymentMethods[0].ID
}

func TestTransactionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	catID, methodID := seededRefs(t, ts)

	var created transactionJSON
	status := doRequest(t, ts, http.MethodPost, "/api/v1/transactions", createTransactionRequest{
		Amount:          1200,
		Type:            "expense",
		Date:            "2024-03-15",
		MainCategoryID:  catID,
		PaymentMethodID: methodID,
		Description:     "ランチ",
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("POST transactions status = %d", status)
	}
	if created.ID == 0 || created.MainCategoryName == "" {
		t.Errorf("created = %+v, want id and joined category name", created)
	}

	var got transactionJSON
	path := fmt.Sprintf("/api/v1/transactions/%d", created.ID)
	if status := doRequest(t, ts, http.MethodGet, path, nil, &got); status != http.StatusOK {
		t.Fatalf("GET transaction status = %d", status)
	}
	if got.Amount != 1200 || got.Date != "2024-03-15" {
		t.Errorf("got = %+v", got)
	}

	var updated transactionJSON
	newAmount := int64(1500)
	if status := doRequest(t, ts, http.MethodPut, path, updateTransactionRequest{Amount: &newAmount}, &updated); status != http.StatusOK {
		t.Fatalf("PUT transaction status = %d", status)
	}
	if updated.Amount != 1500 {
		t.Errorf("updated amount = %d, want 1500", updated.Amount)
	}

	var summary struct {
		DailySummaries []struct {
			Date    int   `json:"date"`
			Expense int64 `json:"expense"`
		} `json:"dailySummaries"`
		MonthlyTotal struct {
			TotalExpense int64 `json:"totalExpense"`
		} `json:"monthlyTotal"`
	}
	if status := doRequest(t, ts, http.MethodGet, "/api/v1/summary/monthly?year=2024&month=3", nil, &summary); status != http.StatusOK {
		t.Fatalf("GET summary/monthly status = %d", status)
	}
	if len(summary.DailySummaries) != 31 {
		t.Fatalf("dailySummaries = %d entries, want 31", len(summary.DailySummaries))
	}
	if summary.DailySummaries[14].Expense != 1500 {
		t.Errorf("day 15 expense = %d, want 1500", summary.DailySummaries[14].Expense)
	}
	if summary.MonthlyTotal.TotalExpense != 1500 {
		t.Errorf("monthly expense = %d, want 1500", summary.MonthlyTotal.TotalExpense)
	}

	var detail dayDetailJSON
	if status := doRequest(t, ts, http.MethodGet, "/api/v1/summary/daily?year=2024&month=3&day=15", nil, &detail); status != http.StatusOK {
		t.Fatalf("GET summary/daily status = %d", status)
	}
	if len(detail.Expense.Transactions) != 1 || detail.Expense.TotalAmount != 1500 {
		t.Errorf("day detail = %+v, want one 1500 expense", detail)
	}

	if status := doRequest(t, ts, http.MethodDelete, path, nil, nil); status != http.StatusNoContent {
		t.Fatalf("DELETE transaction status = %d", status)
	}
	if status := doRequest(t, ts, http.MethodGet, path, nil, nil); status != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want 404", status)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	ts := newTestServer(t)
	catID, methodID := seededRefs(t, ts)

	// Unknown main category: 422.
	status := doRequest(t, ts, http.MethodPost, "/api/v1/transactions", createTransactionRequest{
		Amount: 100, Type: "expense", Date: "2024-01-01",
		MainCategoryID: 999999, PaymentMethodID: methodID,
	}, nil)
	if status != http.StatusUnprocessableEntity {
		t.Errorf("invalid reference status = %d, want 422", status)
	}

	// Negative amount: 422.
	status = doRequest(t, ts, http.MethodPost, "/api/v1/transactions", createTransactionRequest{
		Amount: -5, Type: "expense", Date: "2024-01-01",
		MainCategoryID: catID, PaymentMethodID: methodID,
	}, nil)
	if status != http.StatusUnprocessableEntity {
		t.Errorf("negative amount status = %d, want 422", status)
	}

	// Malformed body: 400.
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/transactions", bytes.NewReader([]byte("{{")))
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("POST malformed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", resp.StatusCode)
	}

	// Missing transaction: 404.
	if status := doRequest(t, ts, http.MethodGet, "/api/v1/transactions/424242", nil, nil); status != http.StatusNotFound {
		t.Errorf("missing transaction status = %d, want 404", status)
	}

	// Month 13: 422.
	if status := doRequest(t, ts, http.MethodGet, "/api/v1/summary/monthly?year=2024&month=13", nil, nil); status != http.StatusUnprocessableEntity {
		t.Errorf("month 13 status = %d, want 422", status)
	}

	// Same-name overlapping budget: 409.
	budget := createBudgetRequest{Name: "Trip", TotalAmount: 50000, StartDate: "2024-03-01", EndDate: "2024-03-05"}
	if status := doRequest(t, ts, http.MethodPost, "/api/v1/budgets", budget, nil); status != http.StatusCreated {
		t.Fatalf("POST budget status = %d", status)
	}
	overlap := createBudgetRequest{Name: "Trip", TotalAmount: 10000, StartDate: "2024-03-04", EndDate: "2024-03-10"}
	if status := doRequest(t, ts, http.MethodPost, "/api/v1/budgets", overlap, nil); status != http.StatusConflict {
		t.Errorf("overlapping budget status = %d, want 409", status)
	}

	// Referenced category delete: 412.
	status = doRequest(t, ts, http.MethodPost, "/api/v1/transactions", createTransactionRequest{
		Amount: 100, Type: "expense", Date: "2024-01-01",
		MainCategoryID: catID, PaymentMethodID: methodID,
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("POST transaction status = %d", status)
	}
	path := fmt.Sprintf("/api/v1/categories/%d", catID)
	if status := doRequest(t, ts, http.MethodDelete, path, nil, nil); status != http.StatusPreconditionFailed {
		t.Errorf("referenced category delete status = %d, want 412", status)
	}
}

func TestBudgetProgressEndpoint(t *testing.T) {
	ts := newTestServer(t)
	catID, methodID := seededRefs(t, ts)

	var budget budgetJSON
	status := doRequest(t, ts, http.MethodPost, "/api/v1/budgets", createBudgetRequest{
		Name: "March", TotalAmount: 100000, StartDate: "2024-03-01", EndDate: "2024-03-31",
	}, &budget)
	if status != http.StatusCreated {
		t.Fatalf("POST budget status = %d", status)
	}

	status = doRequest(t, ts, http.MethodPost, "/api/v1/transactions", createTransactionRequest{
		Amount: 33333, Type: "expense", Date: "2024-03-10",
		MainCategoryID: catID, PaymentMethodID: methodID,
		BudgetID: &budget.ID,
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("POST transaction status = %d", status)
	}

	var progress struct {
		UsedAmount        int64 `json:"usedAmount"`
		RemainingAmount   int64 `json:"remainingAmount"`
		UsagePercentage   int   `json:"usagePercentage"`
		CategoryBreakdown []struct {
			CategoryName string `json:"categoryName"`
			Percentage   int    `json:"percentage"`
		} `json:"categoryBreakdown"`
	}
	path := fmt.Sprintf("/api/v1/budgets/%d/progress?groupByCategory=true&refDate=2024-03-10", budget.ID)
	if status := doRequest(t, ts, http.MethodGet, path, nil, &progress); status != http.StatusOK {
		t.Fatalf("GET progress status = %d", status)
	}
	if progress.UsedAmount != 33333 || progress.UsagePercentage != 33 {
		t.Errorf("progress = %+v, want 33333 used at 33%%", progress)
	}
	if len(progress.CategoryBreakdown) != 1 || progress.CategoryBreakdown[0].Percentage != 100 {
		t.Errorf("breakdown = %+v, want single 100%% category", progress.CategoryBreakdown)
	}

	var active struct {
		Budgets []struct {
			Budget   budgetJSON `json:"budget"`
			Progress *struct {
				UsedAmount int64 `json:"usedAmount"`
			} `json:"progress"`
		} `json:"budgets"`
	}
	if status := doRequest(t, ts, http.MethodGet, "/api/v1/budgets/active?date=2024-03-15&includeProgress=true", nil, &active); status != http.StatusOK {
		t.Fatalf("GET budgets/active status = %d", status)
	}
	if len(active.Budgets) != 1 || active.Budgets[0].Progress == nil || active.Budgets[0].Progress.UsedAmount != 33333 {
		t.Errorf("active = %+v, want March with progress", active)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", resp.StatusCode)
	}

	resp, err = ts.Client().Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET readyz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("readyz status = %d, want 200", resp.StatusCode)
	}
}

func TestHolidaysEndpoint(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"2024-01-01":"元日"}`))
	}))
	defer upstream.Close()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "kakeibo.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	defer repo.Close()

	s := NewServer(":0", Deps{
		Transactions:   services.NewTransactionService(repo, nil),
		Budgets:        services.NewBudgetService(repo),
		Categories:     services.NewCategoryService(repo),
		PaymentMethods: services.NewPaymentMethodService(repo),
		Holidays:       holiday.NewClient(upstream.URL, 0),
		Ready:          repo,
	})
	ts := httptest.NewServer(s.Handler)
	defer ts.Close()
	defer s.limiter.Stop()

	var out struct {
		Year     int `json:"year"`
		Holidays []struct {
			Date string `json:"date"`
			Name string `json:"name"`
		} `json:"holidays"`
	}
	if status := doRequest(t, ts, http.MethodGet, "/api/v1/holidays?year=2024", nil, &out); status != http.StatusOK {
		t.Fatalf("GET holidays status = %d", status)
	}
	if out.Year != 2024 || len(out.Holidays) != 1 || out.Holidays[0].Name != "元日" {
		t.Errorf("holidays = %+v", out)
	}
}
