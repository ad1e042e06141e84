package http

import (
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"kakeibo/internal/core"
	"kakeibo/internal/holiday"
	"kakeibo/internal/services"
)

// handleFormData joins everything the transaction entry form needs in one
// response. The three reads are independent and run concurrently.
func (s *Server) handleFormData(w http.ResponseWriter, r *http.Request) {
	var (
		categories []core.MainCategory
		methods    []core.PaymentMethod
		active     []services.BudgetWithProgress
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		categories, err = s.categories.ListMain(ctx, nil)
		return err
	})
	g.Go(func() error {
		var err error
		methods, err = s.paymentMethods.List(ctx, nil)
		return err
	})
	g.Go(func() error {
		var err error
		active, err = s.budgets.Active(ctx, time.Now().UTC(), false)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	catsJSON := make([]mainCategoryJSON, 0, len(categories))
	for _, c := range categories {
		catsJSON = append(catsJSON, toMainCategoryJSON(c))
	}
	methodsJSON := make([]paymentMethodJSON, 0, len(methods))
	for _, m := range methods {
		methodsJSON = append(methodsJSON, toPaymentMethodJSON(m))
	}
	budgetsJSON := make([]budgetJSON, 0, len(active))
	for _, a := range active {
		budgetsJSON = append(budgetsJSON, toBudgetJSON(a.Budget))
	}

	writeJSON(w, http.StatusOK, struct {
		Categories     []mainCategoryJSON  `json:"categories"`
		PaymentMethods []paymentMethodJSON `json:"paymentMethods"`
		ActiveBudgets  []budgetJSON        `json:"activeBudgets"`
	}{catsJSON, methodsJSON, budgetsJSON})
}

func (s *Server) handleHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r.URL.Query(), "year", time.Now().UTC().Year())
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	holidays := []holiday.Holiday{}
	if s.holidays != nil {
		holidays, err = s.holidays.Year(r.Context(), year)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, struct {
		Year     int               `json:"year"`
		Holidays []holiday.Holiday `json:"holidays"`
	}{year, holidays})
}
