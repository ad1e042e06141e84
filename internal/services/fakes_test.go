package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

// fakeStore is an in-memory stand-in for the SQLite repository. Soft-delete
// is modelled by removing rows; the deleted_at mechanics are covered by the
// storage tests.
type fakeStore struct {
	mu     sync.Mutex
	nextID int64

	transactions map[int64]core.Transaction
	mains        map[int64]core.MainCategory
	subs         map[int64]core.SubCategory
	methods      map[int64]core.PaymentMethod
	budgets      map[int64]core.Budget

	// failWith makes every call fail, for error-path tests.
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		transactions: map[int64]core.Transaction{},
		mains:        map[int64]core.MainCategory{},
		subs:         map[int64]core.SubCategory{},
		methods:      map[int64]core.PaymentMethod{},
		budgets:      map[int64]core.Budget{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) addMain(name string, typ core.TransactionType) core.MainCategory {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := core.MainCategory{ID: f.id(), Name: name, Type: typ, SubCategories: []core.SubCategory{}}
	f.mains[c.ID] = c
	return c
}

func (f *fakeStore) addSub(mainID int64, name string) core.SubCategory {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := core.SubCategory{ID: f.id(), MainCategoryID: mainID, Name: name}
	f.subs[s.ID] = s
	return s
}

func (f *fakeStore) addMethod(name string, typ core.PaymentMethodType) core.PaymentMethod {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := core.PaymentMethod{ID: f.id(), Name: name, Type: typ}
	f.methods[p.ID] = p
	return p
}

func (f *fakeStore) addBudget(b core.Budget) core.Budget {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = f.id()
	f.budgets[b.ID] = b
	return b
}

func (f *fakeStore) addTransaction(t core.Transaction) core.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = f.id()
	f.transactions[t.ID] = t
	return t
}

func (f *fakeStore) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if f.failWith != nil {
		return core.Transaction{}, f.failWith
	}
	return f.addTransaction(t), nil
}

func (f *fakeStore) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	if f.failWith != nil {
		return core.Transaction{}, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.transactions[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) ListTransactions(ctx context.Context, filter storage.TransactionFilter) ([]core.Transaction, int64, error) {
	if f.failWith != nil {
		return nil, 0, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	matched := []core.Transaction{}
	for _, t := range f.transactions {
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		if filter.BudgetID != nil && (t.BudgetID == nil || *t.BudgetID != *filter.BudgetID) {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []core.Transaction{}, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (f *fakeStore) ListTransactionsByRange(ctx context.Context, from, to time.Time) ([]core.Transaction, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	matched := []core.Transaction{}
	for _, t := range f.transactions {
		if t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date.Equal(matched[j].Date) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].Date.Before(matched[j].Date)
	})
	return matched, nil
}

func (f *fakeStore) UpdateTransaction(ctx context.Context, id int64, p core.TransactionPatch) (core.Transaction, error) {
	if f.failWith != nil {
		return core.Transaction{}, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.transactions[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	t = applyTransactionPatch(t, p)
	f.transactions[id] = t
	return t, nil
}

func (f *fakeStore) SoftDeleteTransaction(ctx context.Context, id int64) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.transactions[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.transactions, id)
	return nil
}

func (f *fakeStore) BudgetUsage(ctx context.Context, budgetID int64) (int64, int64, error) {
	if f.failWith != nil {
		return 0, 0, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var used, count int64
	for _, t := range f.transactions {
		if t.BudgetID != nil && *t.BudgetID == budgetID && t.Type == core.Expense {
			used += t.Amount.Yen
			count++
		}
	}
	return used, count, nil
}

func (f *fakeStore) BudgetCategoryStats(ctx context.Context, budgetID int64) ([]core.CategoryStat, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	byCat := map[int64]*core.CategoryStat{}
	for _, t := range f.transactions {
		if t.BudgetID == nil || *t.BudgetID != budgetID || t.Type != core.Expense {
			continue
		}
		s, ok := byCat[t.MainCategoryID]
		if !ok {
			s = &core.CategoryStat{MainCategoryID: t.MainCategoryID, CategoryName: t.MainCategoryName}
			byCat[t.MainCategoryID] = s
		}
		s.Amount += t.Amount.Yen
		s.TransactionCount++
	}
	stats := []core.CategoryStat{}
	for _, s := range byCat {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Amount > stats[j].Amount })
	return stats, nil
}

func (f *fakeStore) DetachBudget(ctx context.Context, budgetID int64) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, t := range f.transactions {
		if t.BudgetID != nil && *t.BudgetID == budgetID {
			t.BudgetID = nil
			f.transactions[id] = t
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) countTransactions(match func(core.Transaction) bool) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, t := range f.transactions {
		if match(t) {
			n++
		}
	}
	return n
}

func (f *fakeStore) CountTransactionsByMainCategory(ctx context.Context, id int64) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	return f.countTransactions(func(t core.Transaction) bool { return t.MainCategoryID == id }), nil
}

func (f *fakeStore) CountTransactionsBySubCategory(ctx context.Context, id int64) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	return f.countTransactions(func(t core.Transaction) bool { return t.SubCategoryID != nil && *t.SubCategoryID == id }), nil
}

func (f *fakeStore) CountTransactionsByPaymentMethod(ctx context.Context, id int64) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	return f.countTransactions(func(t core.Transaction) bool { return t.PaymentMethodID == id }), nil
}

func (f *fakeStore) ListMainCategories(ctx context.Context, typ *core.TransactionType) ([]core.MainCategory, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cats := []core.MainCategory{}
	for _, c := range f.mains {
		if typ != nil && c.Type != *typ {
			continue
		}
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].ID < cats[j].ID })
	return cats, nil
}

func (f *fakeStore) GetMainCategory(ctx context.Context, id int64) (core.MainCategory, error) {
	if f.failWith != nil {
		return core.MainCategory{}, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.mains[id]
	if !ok {
		return core.MainCategory{}, core.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) MainCategoryExists(ctx context.Context, name string, typ core.TransactionType, excludeID int64) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.mains {
		if c.ID != excludeID && c.Name == name && c.Type == typ {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateMainCategory(ctx context.Context, c core.MainCategory) (core.MainCategory, error) {
	if f.failWith != nil {
		return core.MainCategory{}, f.failWith
	}
	return f.addMain(c.Name, c.Type), nil
}

func (f *fakeStore) UpdateMainCategory(ctx context.Context, id int64, p core.MainCategoryPatch) (core.MainCategory, error) {
	if f.failWith != nil {
		return core.MainCategory{}, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.mains[id]
	if !ok {
		return core.MainCategory{}, core.ErrNotFound
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	f.mains[id] = c
	return c, nil
}

func (f *fakeStore) SoftDeleteMainCategory(ctx context.Context, id int64) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.mains[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.mains, id)
	for sid, s := range f.subs {
		if s.MainCategoryID == id {
			delete(f.subs, sid)
		}
	}
	return nil
}

func (f *fakeStore) GetSubCategory(ctx context.Context, id int64) (core.SubCategory, error) {
	if f.failWith != nil {
		return core.SubCategory{}, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[id]
	if !ok {
		return core.SubCategory{}, core.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) SubCategoryExists(ctx context.Context, mainCategoryID int64, name string, excludeID int64) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if s.ID != excludeID && s.MainCategoryID == mainCategoryID && s.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateSubCategory(ctx context.Context, s core.SubCategory) (core.SubCategory, error) {
	if f.failWith != nil {
		return core.SubCategory{}, f.failWith
	}
	return f.addSub(s.MainCategoryID, s.Name), nil
}

func (f *fakeStore) UpdateSubCategory(ctx context.Context, id int64, p core.SubCategoryPatch) (core.SubCategory, error) {
	if f.failWith != nil {
		return core.SubCategory{}, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[id]
	if !ok {
		return core.SubCategory{}, core.ErrNotFound
	}
	if p.Name != nil {
		s.Name = *p.Name
	}
	f.subs[id] = s
	return s, nil
}

func (f *fakeStore) SoftDeleteSubCategory(ctx context.Context, id int64) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.subs, id)
	return nil
}

func (f *fakeStore) ListPaymentMethods(ctx context.Context, typ *core.PaymentMethodType) ([]core.PaymentMethod, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	methods := []core.PaymentMethod{}
	for _, p := range f.methods {
		if typ != nil && p.Type != *typ {
			continue
		}
		methods = append(methods, p)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i].ID < methods[j].ID })
	return methods, nil
}

func (f *fakeStore) GetPaymentMethod(ctx context.Context, id int64) (core.PaymentMethod, error) {
	if f.failWith != nil {
		return core.PaymentMethod{}, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.methods[id]
	if !ok {
		return core.PaymentMethod{}, core.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) PaymentMethodExists(ctx context.Context, name string, typ core.PaymentMethodType, excludeID int64) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.methods {
		if p.ID != excludeID && p.Name == name && p.Type == typ {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreatePaymentMethod(ctx context.Context, p core.PaymentMethod) (core.PaymentMethod, error) {
	if f.failWith != nil {
		return core.PaymentMethod{}, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.id()
	f.methods[p.ID] = p
	return p, nil
}

func (f *fakeStore) UpdatePaymentMethod(ctx context.Context, id int64, patch core.PaymentMethodPatch) (core.PaymentMethod, error) {
	if f.failWith != nil {
		return core.PaymentMethod{}, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.methods[id]
	if !ok {
		return core.PaymentMethod{}, core.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Type != nil {
		p.Type = *patch.Type
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	f.methods[id] = p
	return p, nil
}

func (f *fakeStore) SoftDeletePaymentMethod(ctx context.Context, id int64) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.methods[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.methods, id)
	return nil
}

func (f *fakeStore) ListBudgets(ctx context.Context, filter storage.BudgetFilter) ([]core.Budget, int64, error) {
	if f.failWith != nil {
		return nil, 0, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []core.Budget{}
	for _, b := range f.budgets {
		if filter.ActiveAt != nil && !b.ActiveAt(*filter.ActiveAt) {
			continue
		}
		matched = append(matched, b)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []core.Budget{}, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (f *fakeStore) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	if f.failWith != nil {
		return core.Budget{}, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.budgets[id]
	if !ok {
		return core.Budget{}, core.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) ListBudgetsByName(ctx context.Context, name string) ([]core.Budget, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []core.Budget{}
	for _, b := range f.budgets {
		if b.Name == name {
			matched = append(matched, b)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched, nil
}

func (f *fakeStore) ListActiveBudgets(ctx context.Context, ref time.Time) ([]core.Budget, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []core.Budget{}
	for _, b := range f.budgets {
		if b.ActiveAt(ref) {
			matched = append(matched, b)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched, nil
}

func (f *fakeStore) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if f.failWith != nil {
		return core.Budget{}, f.failWith
	}
	return f.addBudget(b), nil
}

func (f *fakeStore) UpdateBudget(ctx context.Context, id int64, p core.BudgetPatch) (core.Budget, error) {
	if f.failWith != nil {
		return core.Budget{}, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.budgets[id]
	if !ok {
		return core.Budget{}, core.ErrNotFound
	}
	b = applyBudgetPatch(b, p)
	f.budgets[id] = b
	return b, nil
}

func (f *fakeStore) SoftDeleteBudget(ctx context.Context, id int64) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.budgets[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.budgets, id)
	return nil
}

// fakePublisher records published events and can be told to fail.
type fakePublisher struct {
	mu      sync.Mutex
	synced  []int64
	deleted []int64
	err     error
}

func (p *fakePublisher) PublishTransactionSync(ctx context.Context, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.synced = append(p.synced, id)
	return nil
}

func (p *fakePublisher) PublishTransactionDelete(ctx context.Context, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.deleted = append(p.deleted, id)
	return nil
}
