package terminal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"restro-pos/internal/invoice"
	"restro-pos/internal/logger"
	"restro-pos/internal/models"
	"restro-pos/internal/pos/checkout"
	"restro-pos/internal/pos/gateway"
)

type fakeBackend struct {
	menu     []models.MenuItem
	tables   []models.Table
	orders   []models.Order
	payments []models.Payment

	created []*models.CreateOrderRequest
	booked  []string
}

func (f *fakeBackend) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	return append([]models.MenuItem(nil), f.menu...), nil
}

func (f *fakeBackend) ListTables(ctx context.Context) ([]models.Table, error) {
	return append([]models.Table(nil), f.tables...), nil
}

func (f *fakeBackend) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if status == "" || o.OrderStatus == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeBackend) ListPayments(ctx context.Context) ([]models.Payment, error) {
	return f.payments, nil
}

func (f *fakeBackend) CreateOrder(ctx context.Context, req *models.CreateOrderRequest, key string) (*models.Order, error) {
	f.created = append(f.created, req)
	return &models.Order{
		ID:              "order-0001",
		CustomerDetails: req.CustomerDetails,
		OrderStatus:     models.StatusInProgress,
		OrderDate:       time.Now(),
		Bills:           req.Bills,
		Items:           req.Items,
		TableID:         req.TableID,
		PaymentMethod:   req.PaymentMethod,
		PaymentData:     req.PaymentData,
	}, nil
}

func (f *fakeBackend) UpdateTable(ctx context.Context, tableID string, req *models.UpdateTableRequest) (*models.Table, error) {
	f.booked = append(f.booked, tableID)
	return &models.Table{ID: tableID, Status: req.Status}, nil
}

func (f *fakeBackend) CreatePaymentOrder(ctx context.Context, amount decimal.Decimal) (*models.GatewayOrder, error) {
	return &models.GatewayOrder{ID: "gw_1", Amount: amount.Shift(2).IntPart(), Currency: "INR"}, nil
}

func (f *fakeBackend) VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest) (*models.VerifyPaymentResponse, error) {
	return &models.VerifyPaymentResponse{Success: req.GatewaySignature == "good-sig"}, nil
}

func newBackend() *fakeBackend {
	return &fakeBackend{
		menu: []models.MenuItem{
			{ID: "m-tea", Name: "Tea", Category: "Beverages", Price: decimal.NewFromInt(20), IsAvailable: true},
			{ID: "m-soup", Name: "Soup", Category: "Starters", Price: decimal.NewFromInt(90), IsAvailable: false},
		},
		tables: []models.Table{
			{ID: "t-5", TableNo: 5, Seats: 4, Status: models.TableAvailable},
			{ID: "t-6", TableNo: 6, Seats: 2, Status: models.TableBooked},
		},
	}
}

// runScript feeds script to a fully wired terminal and returns what it printed
func runScript(t *testing.T, backend *fakeBackend, script string) (string, *checkout.Store) {
	t.Helper()
	var out bytes.Buffer
	log := logger.Discard()
	store := checkout.NewStore()

	term := New(strings.NewReader(script), &out, Deps{
		Store:     store,
		Backend:   backend,
		Formatter: invoice.NewFormatter(language.English),
		Logger:    log,
		Symbol:    "Rs ",
	})
	term.Submitter = checkout.NewSubmitter(store, backend,
		checkout.NewTableSync(backend, nil, log, time.Second), log,
		checkout.Options{Authorizer: gateway.New(backend, term.Widget(), log), Timeout: time.Second})

	require.NoError(t, term.Run(context.Background()))
	return out.String(), store
}

func TestCashOrderFlow(t *testing.T) {
	backend := newBackend()
	out, store := runScript(t, backend, strings.Join([]string{
		"new 2 Asha",
		"phone 999",
		"menu",
		"table 5",
		"add 1 2",
		"bill",
		"place cash",
		"quit",
	}, "\n"))

	assert.Contains(t, out, "Started order for Asha (2 guests)")
	assert.Contains(t, out, "Table 5 selected.")
	assert.Contains(t, out, "Added Tea x2")
	assert.Contains(t, out, "ORDER INVOICE")
	assert.Contains(t, out, "Rs 42.10")

	require.Len(t, backend.created, 1)
	assert.Equal(t, "999", backend.created[0].CustomerDetails.Phone)
	assert.Equal(t, models.PaymentCash, backend.created[0].PaymentMethod)
	assert.Equal(t, []string{"t-5"}, backend.booked)
	assert.Empty(t, store.Lines())
}

func TestPlaceWithoutTableShowsTables(t *testing.T) {
	backend := newBackend()
	out, store := runScript(t, backend, "new 1\nadd m-tea\nplace Card\n")

	assert.Contains(t, out, "select a table first")
	assert.Contains(t, out, "Table 5")
	assert.Empty(t, backend.created)
	assert.Len(t, store.Lines(), 1)
}

func TestOnlinePayment(t *testing.T) {
	backend := newBackend()
	out, _ := runScript(t, backend, "new 1 Ravi\ntable t-5\nadd 1\nplace online\npay_123\ngood-sig\n")

	assert.Contains(t, out, "Payment for Table 5")
	assert.Contains(t, out, "Ref      : pay_123")
	require.Len(t, backend.created, 1)
	require.NotNil(t, backend.created[0].PaymentData)
	assert.Equal(t, "gw_1", backend.created[0].PaymentData.GatewayOrderID)
}

func TestOnlinePaymentCancelled(t *testing.T) {
	backend := newBackend()
	out, store := runScript(t, backend, "new 1\ntable 5\nadd 1\nplace online\ncancel\n")

	assert.Contains(t, out, "Payment cancelled")
	assert.Empty(t, backend.created)
	assert.Len(t, store.Lines(), 1)
}

func TestRejectedInput(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		wantOut string
	}{
		{"unknown command", "dance\n", `unknown command "dance"`},
		{"add before new", "add 1\n", "no order in progress"},
		{"zero guests", "new 0\n", "guest count must be at least 1"},
		{"booked table", "new 1\ntable 6\n", "table 6 is already booked"},
		{"unavailable item", "new 1\nmenu\nadd 2\n", "Soup is not available"},
		{"zero quantity", "new 1\nadd 1 0\n", "quantity"},
		{"no payment method", "new 1\ntable 5\nadd 1\nplace\n", "select payment method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newBackend()
			out, _ := runScript(t, backend, tt.script)
			assert.Contains(t, out, tt.wantOut)
			assert.Empty(t, backend.created)
		})
	}
}

func TestItemNumbersIgnoreBackendOrder(t *testing.T) {
	unsorted := []models.MenuItem{
		{ID: "m-soup", Name: "Soup", Category: "Starters", Price: decimal.NewFromInt(90), IsAvailable: true},
		{ID: "m-lassi", Name: "Lassi", Category: "Beverages", Price: decimal.NewFromInt(40), IsAvailable: true},
		{ID: "m-tea", Name: "Tea", Category: "Beverages", Price: decimal.NewFromInt(20), IsAvailable: true},
	}

	tests := []struct {
		name     string
		commands []string
	}{
		{"without printing the menu", []string{"new 1", "add 1", "add 3"}},
		{"after printing the menu", []string{"new 1", "menu", "add 1", "add 3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newBackend()
			backend.menu = unsorted
			var out bytes.Buffer
			store := checkout.NewStore()
			term := New(strings.NewReader(""), &out, Deps{Store: store, Backend: backend})

			for _, cmd := range tt.commands {
				require.NoError(t, term.Execute(context.Background(), cmd))
			}
			lines := store.Lines()
			require.Len(t, lines, 2)
			assert.Equal(t, "Lassi", lines[0].Name)
			assert.Equal(t, "Soup", lines[1].Name)
		})
	}
}

func TestNotesAndRemove(t *testing.T) {
	backend := newBackend()
	var out bytes.Buffer
	store := checkout.NewStore()
	term := New(strings.NewReader(""), &out, Deps{Store: store, Backend: backend})
	ctx := context.Background()

	require.NoError(t, term.Execute(ctx, "new 1"))
	require.NoError(t, term.Execute(ctx, "add m-tea 1"))
	lines := store.Lines()
	require.Len(t, lines, 1)

	short := shortID(lines[0].LineID)
	require.NoError(t, term.Execute(ctx, "note "+short+" no sugar"))
	assert.Equal(t, "no sugar", store.Lines()[0].Notes)

	require.NoError(t, term.Execute(ctx, "remove "+short))
	assert.Empty(t, store.Lines())
}

func TestExportAndMetrics(t *testing.T) {
	backend := newBackend()
	backend.orders = []models.Order{{
		ID:              "o-1",
		OrderDate:       time.Now(),
		OrderStatus:     models.StatusReady,
		CustomerDetails: models.CustomerDetails{Name: "Asha", Phone: "1", Guests: 1},
		Bills:           models.Bills{TotalWithTax: decimal.RequireFromString("42.10")},
	}}
	backend.payments = []models.Payment{{ID: "p-1", Amount: decimal.NewFromInt(10), Status: models.PaymentCaptured, CreatedAt: time.Now()}}

	path := filepath.Join(t.TempDir(), "orders.csv")
	out, _ := runScript(t, backend, "metrics\npayments captured today\nexport "+path+"\n")

	assert.Contains(t, out, "1 total, 0 in progress, 1 ready")
	assert.Contains(t, out, "Total Rs 10.00: 1 captured")
	assert.Contains(t, out, "Exported 1 orders")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "o-1")
}
