package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgomo-bms/kgomo-bms/internal/crm/customers"
	"github.com/kgomo-bms/kgomo-bms/internal/sales/quotations"
	"github.com/kgomo-bms/kgomo-bms/internal/shared"
)

type mockRepository struct {
	invoices      map[int64]*Invoice
	items         map[int64][]InvoiceItem
	receipts      map[int64][]Receipt
	quotations    map[int64]*QuotationSnapshot
	invoiceSeq    int64
	receiptSeq    int64
	nextID        int64
	nextItemID    int64
	nextReceiptID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		invoices:      make(map[int64]*Invoice),
		items:         make(map[int64][]InvoiceItem),
		receipts:      make(map[int64][]Receipt),
		quotations:    make(map[int64]*QuotationSnapshot),
		nextID:        1,
		nextItemID:    1,
		nextReceiptID: 1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &mockTxRepository{m})
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *inv
	copied.Items = append([]InvoiceItem(nil), m.items[id]...)
	copied.Receipts = append([]Receipt(nil), m.receipts[id]...)
	copied.PaidAmount = 0
	for _, rc := range copied.Receipts {
		copied.PaidAmount += rc.Amount
	}
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, req ListRequest) ([]Invoice, int, error) {
	var result []Invoice
	for _, inv := range m.invoices {
		if req.Status != nil && inv.Status != *req.Status {
			continue
		}
		result = append(result, *inv)
	}
	return result, len(result), nil
}

type mockTxRepository struct {
	m *mockRepository
}

func (t *mockTxRepository) NextNumber(ctx context.Context) (string, error) {
	t.m.invoiceSeq++
	return shared.InvoiceNumbers.Format(t.m.invoiceSeq), nil
}

func (t *mockTxRepository) NextReceiptNumber(ctx context.Context) (string, error) {
	t.m.receiptSeq++
	return shared.ReceiptNumbers.Format(t.m.receiptSeq), nil
}

func (t *mockTxRepository) Insert(ctx context.Context, inv Invoice) (int64, error) {
	inv.ID = t.m.nextID
	t.m.nextID++
	t.m.invoices[inv.ID] = &inv
	return inv.ID, nil
}

func (t *mockTxRepository) InsertItem(ctx context.Context, item InvoiceItem) (int64, error) {
	item.ID = t.m.nextItemID
	t.m.nextItemID++
	t.m.items[item.InvoiceID] = append(t.m.items[item.InvoiceID], item)
	return item.ID, nil
}

func (t *mockTxRepository) DeleteItem(ctx context.Context, invoiceID, itemID int64) error {
	items := t.m.items[invoiceID]
	for i, item := range items {
		if item.ID == itemID {
			t.m.items[invoiceID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

func (t *mockTxRepository) GetForUpdate(ctx context.Context, id int64) (*Invoice, error) {
	inv, ok := t.m.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *inv
	return &copied, nil
}

func (t *mockTxRepository) SetStatus(ctx context.Context, id int64, status InvoiceStatus) error {
	t.m.invoices[id].Status = status
	return nil
}

func (t *mockTxRepository) RecalcTotal(ctx context.Context, id int64) error {
	total := 0.0
	for _, item := range t.m.items[id] {
		total += shared.LineTotal(item.Quantity, item.UnitPrice)
	}
	t.m.invoices[id].TotalAmount = total
	return nil
}

func (t *mockTxRepository) InsertReceipt(ctx context.Context, rc Receipt) (int64, error) {
	rc.ID = t.m.nextReceiptID
	t.m.nextReceiptID++
	t.m.receipts[rc.InvoiceID] = append(t.m.receipts[rc.InvoiceID], rc)
	return rc.ID, nil
}

func (t *mockTxRepository) DeleteReceipt(ctx context.Context, invoiceID, receiptID int64) error {
	receipts := t.m.receipts[invoiceID]
	for i, rc := range receipts {
		if rc.ID == receiptID {
			t.m.receipts[invoiceID] = append(receipts[:i], receipts[i+1:]...)
			return nil
		}
	}
	return ErrReceiptNotFound
}

func (t *mockTxRepository) SumReceipts(ctx context.Context, invoiceID int64) (float64, error) {
	paid := 0.0
	for _, rc := range t.m.receipts[invoiceID] {
		paid += rc.Amount
	}
	return paid, nil
}

func (t *mockTxRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := t.m.invoices[id]; !ok {
		return ErrNotFound
	}
	delete(t.m.invoices, id)
	delete(t.m.items, id)
	delete(t.m.receipts, id)
	return nil
}

func (t *mockTxRepository) LockQuotation(ctx context.Context, quotationID int64) (*QuotationSnapshot, error) {
	snap, ok := t.m.quotations[quotationID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *snap
	return &copied, nil
}

func (t *mockTxRepository) FindByQuotation(ctx context.Context, quotationID int64) (int64, error) {
	for id, inv := range t.m.invoices {
		if inv.QuotationID != nil && *inv.QuotationID == quotationID {
			return id, nil
		}
	}
	return 0, ErrNotFound
}

type mockCustomerRepo struct {
	known map[int64]bool
}

func (m *mockCustomerRepo) Get(ctx context.Context, id int64) (*customers.Customer, error) {
	if !m.known[id] {
		return nil, customers.ErrNotFound
	}
	return &customers.Customer{ID: id, Name: "Customer"}, nil
}

func (m *mockCustomerRepo) List(ctx context.Context, req customers.ListRequest) ([]customers.Customer, int, error) {
	return nil, 0, nil
}

func (m *mockCustomerRepo) Create(ctx context.Context, c customers.Customer) (int64, error) {
	return 0, nil
}

func (m *mockCustomerRepo) Update(ctx context.Context, id int64, updates map[string]any) error {
	return nil
}

func (m *mockCustomerRepo) Delete(ctx context.Context, id int64) error {
	return nil
}

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	return NewService(repo, &mockCustomerRepo{known: map[int64]bool{1: true}}), repo
}

func productRef(id int64) *int64 {
	return &id
}

func newTestInvoice(t *testing.T, svc *Service) *Invoice {
	t.Helper()
	inv, err := svc.Create(context.Background(), CreateInput{
		CustomerID: 1,
		Items: []ItemInput{
			{ProductID: 10, Quantity: 4, UnitPrice: 120},
			{ProductID: 11, Quantity: 1, UnitPrice: 520},
		},
	})
	require.NoError(t, err)
	return inv
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, StatusUnpaid, DeriveStatus(1000, 0))
	assert.Equal(t, StatusUnpaid, DeriveStatus(1000, -50))
	assert.Equal(t, StatusPartiallyPaid, DeriveStatus(1000, 400))
	assert.Equal(t, StatusPaid, DeriveStatus(1000, 1000))
	assert.Equal(t, StatusPaid, DeriveStatus(1000, 1200))
}

func TestCreateInvoice(t *testing.T) {
	svc, _ := newTestService()

	inv := newTestInvoice(t, svc)
	assert.Equal(t, StatusUnpaid, inv.Status)
	assert.Equal(t, "INV-0001", inv.Number)
	assert.Equal(t, 4*120.0+520.0, inv.TotalAmount)
	assert.Equal(t, inv.TotalAmount, inv.Balance())
}

func TestCreateInvoiceWithoutItems(t *testing.T) {
	svc, _ := newTestService()

	inv, err := svc.Create(context.Background(), CreateInput{CustomerID: 1})
	require.NoError(t, err)
	assert.Equal(t, StatusUnpaid, inv.Status)
	assert.Equal(t, "INV-0001", inv.Number)
	assert.Zero(t, inv.TotalAmount)
	assert.Empty(t, inv.Items)

	after, err := svc.AddItem(context.Background(), inv.ID, ItemInput{ProductID: 10, Quantity: 2, UnitPrice: 45})
	require.NoError(t, err)
	assert.Equal(t, 90.0, after.TotalAmount)
}

func TestCreateInvoiceUnknownCustomer(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{
		CustomerID: 9,
		Items:      []ItemInput{{ProductID: 10, Quantity: 1, UnitPrice: 10}},
	})
	assert.ErrorIs(t, err, customers.ErrNotFound)
}

func TestAddReceiptDerivesStatus(t *testing.T) {
	svc, _ := newTestService()
	inv := newTestInvoice(t, svc)

	partial, err := svc.AddReceipt(context.Background(), inv.ID, ReceiptInput{Amount: 300, Method: MethodCash})
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyPaid, partial.Status)
	assert.Equal(t, 300.0, partial.PaidAmount)
	assert.Equal(t, inv.TotalAmount-300, partial.Balance())
	require.Len(t, partial.Receipts, 1)
	assert.Equal(t, "RC-0001", partial.Receipts[0].Number)

	paid, err := svc.AddReceipt(context.Background(), inv.ID, ReceiptInput{Amount: inv.TotalAmount - 300, Method: MethodMobileMoney})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	assert.Equal(t, 0.0, paid.Balance())
}

func TestAddReceiptRejectsBadMethod(t *testing.T) {
	svc, _ := newTestService()
	inv := newTestInvoice(t, svc)

	_, err := svc.AddReceipt(context.Background(), inv.ID, ReceiptInput{Amount: 100, Method: "Cheque"})
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestAddReceiptRejectsZeroAmount(t *testing.T) {
	svc, _ := newTestService()
	inv := newTestInvoice(t, svc)

	_, err := svc.AddReceipt(context.Background(), inv.ID, ReceiptInput{Amount: 0, Method: MethodCash})
	assert.Error(t, err)
}

func TestDeleteReceiptRevertsStatus(t *testing.T) {
	svc, _ := newTestService()
	inv := newTestInvoice(t, svc)

	paid, err := svc.AddReceipt(context.Background(), inv.ID, ReceiptInput{Amount: inv.TotalAmount, Method: MethodCard})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, paid.Status)

	after, err := svc.DeleteReceipt(context.Background(), inv.ID, paid.Receipts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, StatusUnpaid, after.Status)
	assert.Equal(t, 0.0, after.PaidAmount)
}

func TestCancelledStatusSticks(t *testing.T) {
	svc, _ := newTestService()
	inv := newTestInvoice(t, svc)

	rc, err := svc.AddReceipt(context.Background(), inv.ID, ReceiptInput{Amount: 100, Method: MethodCash})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, err = svc.AddReceipt(context.Background(), inv.ID, ReceiptInput{Amount: 100, Method: MethodCash})
	assert.ErrorIs(t, err, ErrCancelled)

	after, err := svc.DeleteReceipt(context.Background(), inv.ID, rc.Receipts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, after.Status, "cancelled never re-derives")

	_, err = svc.Cancel(context.Background(), inv.ID)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestItemEditsOnlyWhileUnpaid(t *testing.T) {
	svc, _ := newTestService()
	inv := newTestInvoice(t, svc)

	after, err := svc.AddItem(context.Background(), inv.ID, ItemInput{ProductID: 12, Quantity: 2, UnitPrice: 40})
	require.NoError(t, err)
	assert.Equal(t, inv.TotalAmount+80, after.TotalAmount)

	_, err = svc.AddReceipt(context.Background(), inv.ID, ReceiptInput{Amount: 50, Method: MethodCash})
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), inv.ID, ItemInput{ProductID: 13, Quantity: 1, UnitPrice: 10})
	assert.ErrorIs(t, err, ErrNotEditable)
	_, err = svc.RemoveItem(context.Background(), inv.ID, after.Items[0].ID)
	assert.ErrorIs(t, err, ErrNotEditable)
}

func TestDeleteInvoiceWithReceiptsBlocked(t *testing.T) {
	svc, _ := newTestService()
	inv := newTestInvoice(t, svc)

	_, err := svc.AddReceipt(context.Background(), inv.ID, ReceiptInput{Amount: 50, Method: MethodCash})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), inv.ID), ErrHasReceipts)
}

func TestConvertQuotation(t *testing.T) {
	svc, repo := newTestService()
	repo.quotations[5] = &QuotationSnapshot{
		ID:         5,
		Number:     "Q-0005",
		CustomerID: 1,
		Status:     string(quotations.StatusAccepted),
		Items: []SnapshotItem{
			{ProductID: productRef(10), Quantity: 2, UnitPrice: 150},
			{ProductID: productRef(11), Quantity: 3, UnitPrice: 60},
		},
	}

	due := time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)
	inv, err := svc.CreateFromQuotation(context.Background(), 5, &due)
	require.NoError(t, err)
	assert.Equal(t, StatusUnpaid, inv.Status)
	assert.Equal(t, "INV-0001", inv.Number)
	require.NotNil(t, inv.QuotationID)
	assert.Equal(t, int64(5), *inv.QuotationID)
	assert.Equal(t, 2*150.0+3*60.0, inv.TotalAmount)
	assert.Len(t, inv.Items, 2)
	require.NotNil(t, inv.DueDate)
	assert.Equal(t, due, *inv.DueDate)
}

func TestConvertQuotationTwiceBlocked(t *testing.T) {
	svc, repo := newTestService()
	repo.quotations[5] = &QuotationSnapshot{
		ID:         5,
		CustomerID: 1,
		Status:     string(quotations.StatusAccepted),
		Items:      []SnapshotItem{{ProductID: productRef(10), Quantity: 1, UnitPrice: 100}},
	}

	_, err := svc.CreateFromQuotation(context.Background(), 5, nil)
	require.NoError(t, err)

	_, err = svc.CreateFromQuotation(context.Background(), 5, nil)
	assert.ErrorIs(t, err, ErrAlreadyConverted)
}

func TestConvertDraftQuotation(t *testing.T) {
	svc, repo := newTestService()
	repo.quotations[6] = &QuotationSnapshot{
		ID:         6,
		CustomerID: 1,
		Status:     string(quotations.StatusDraft),
		Items:      []SnapshotItem{{ProductID: productRef(10), Quantity: 1, UnitPrice: 100}},
	}

	inv, err := svc.CreateFromQuotation(context.Background(), 6, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusUnpaid, inv.Status)
	assert.Equal(t, 100.0, inv.TotalAmount)
}

func TestConvertCarriesDeletedProductLines(t *testing.T) {
	svc, repo := newTestService()
	repo.quotations[7] = &QuotationSnapshot{
		ID:         7,
		CustomerID: 1,
		Status:     string(quotations.StatusAccepted),
		Items: []SnapshotItem{
			{ProductID: productRef(10), Quantity: 1, UnitPrice: 100},
			{ProductID: nil, Quantity: 2, UnitPrice: 30},
		},
	}

	inv, err := svc.CreateFromQuotation(context.Background(), 7, nil)
	require.NoError(t, err)
	require.Len(t, inv.Items, 2)
	assert.Nil(t, inv.Items[1].ProductID)
	assert.Equal(t, 160.0, inv.TotalAmount)
}
