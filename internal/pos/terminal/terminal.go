// Package terminal is the line-oriented point-of-sale front end.
// It owns no order state itself; everything goes through the checkout store.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"restro-pos/internal/dashboard"
	"restro-pos/internal/invoice"
	"restro-pos/internal/logger"
	"restro-pos/internal/models"
	"restro-pos/internal/pos/checkout"
	"restro-pos/internal/pos/session"
)

// Backend is the read side of the REST API the terminal browses
type Backend interface {
	ListMenuItems(ctx context.Context) ([]models.MenuItem, error)
	ListTables(ctx context.Context) ([]models.Table, error)
	ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	ListPayments(ctx context.Context) ([]models.Payment, error)
}

// Deps wires a terminal
type Deps struct {
	Store     *checkout.Store
	Submitter *checkout.Submitter
	Backend   Backend
	Formatter *invoice.Formatter
	Logger    *logger.Logger
	// Symbol prefixes amounts on screen and on invoices
	Symbol string
	Now    func() time.Time
}

// Terminal reads commands from in and writes to out
type Terminal struct {
	Deps
	prompt *prompter
	menu   []models.MenuItem
	tables []models.Table
}

type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// ask prints label and reads one line; ok is false at end of input
func (p *prompter) ask(label string) (string, bool) {
	fmt.Fprint(p.out, label)
	if !p.in.Scan() {
		return "", false
	}
	return p.in.Text(), true
}

// New creates a terminal over in and out
func New(in io.Reader, out io.Writer, deps Deps) *Terminal {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}
	return &Terminal{
		Deps:   deps,
		prompt: &prompter{in: bufio.NewScanner(in), out: out},
	}
}

// Widget returns the payment widget bound to this terminal's input
func (t *Terminal) Widget() *PromptWidget {
	return &PromptWidget{prompt: t.prompt}
}

var errQuit = errors.New("quit")

// Run reads commands until quit, end of input or ctx is done
func (t *Terminal) Run(ctx context.Context) error {
	t.printf("restro-pos terminal. Type help for commands.\n")
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, ok := t.prompt.ask(t.promptLabel())
		if !ok {
			return nil
		}
		err := t.Execute(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			t.printf("error: %v\n", err)
		}
	}
}

func (t *Terminal) promptLabel() string {
	s := t.Store.Session()
	switch {
	case s.Table != nil:
		return fmt.Sprintf("[%s @ T%d] > ", s.CustomerName, s.Table.TableNo)
	case s.SessionID != "":
		return fmt.Sprintf("[%s] > ", s.CustomerName)
	}
	return "> "
}

func (t *Terminal) printf(format string, args ...interface{}) {
	fmt.Fprintf(t.prompt.out, format, args...)
}

// Execute runs a single command line
func (t *Terminal) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help":
		t.help()
		return nil
	case "quit", "exit":
		return errQuit
	case "menu":
		return t.showMenu(ctx)
	case "tables":
		return t.showTables(ctx)
	case "new":
		return t.newOrder(args)
	case "phone":
		return t.setPhone(args)
	case "name":
		return t.setName(args)
	case "table":
		return t.selectTable(ctx, args)
	case "add":
		return t.addItem(ctx, args)
	case "note":
		return t.addNote(args)
	case "remove":
		return t.removeLine(args)
	case "cart":
		t.showCart()
		return nil
	case "bill":
		t.showBill()
		return nil
	case "place":
		return t.placeOrder(ctx, args)
	case "cancel":
		t.Store.Cancel()
		t.printf("Order cancelled.\n")
		return nil
	case "orders":
		return t.showOrders(ctx, args)
	case "metrics":
		return t.showMetrics(ctx)
	case "payments":
		return t.showPayments(ctx, args)
	case "export":
		return t.export(ctx, args)
	}
	return fmt.Errorf("unknown command %q, type help", cmd)
}

func (t *Terminal) help() {
	t.printf(`Commands:
  menu                      list menu items
  tables                    list tables
  new <guests> [name...]    start an order
  name <name...>            set customer name
  phone <number>            set customer phone
  table <no|id>             select a table
  add <item> [qty]          add a menu item by number or id
  note <line> <text...>     attach a note to a cart line
  remove <line>             remove a cart line
  cart                      show the cart
  bill                      show the bill
  place <Cash|Card|Online>  place the order
  cancel                    drop the current order
  orders [status]           list orders
  metrics                   dashboard metrics
  payments [filter] [range] payment summary
  export <file.csv>         export orders to CSV
  quit                      leave
`)
}

func (t *Terminal) showMenu(ctx context.Context) error {
	if err := t.loadMenu(ctx); err != nil {
		return err
	}

	category := ""
	for i, item := range t.menu {
		if item.Category != category {
			category = item.Category
			t.printf("%s\n", strings.ToUpper(category))
		}
		status := ""
		if !item.IsAvailable {
			status = " (unavailable)"
		}
		t.printf("  %2d. %-24s %s%s\n", i+1, item.Name, t.money(item.Price), status)
	}
	return nil
}

func (t *Terminal) showTables(ctx context.Context) error {
	tables, err := t.Backend.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tables: %w", err)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].TableNo < tables[j].TableNo })
	t.tables = tables

	for _, tb := range tables {
		t.printf("  Table %-3d seats %-2d %s\n", tb.TableNo, tb.Seats, tb.Status)
	}
	return nil
}

func (t *Terminal) newOrder(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: new <guests> [name...]")
	}
	guests, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("guests must be a number: %q", args[0])
	}
	err = t.Store.StartSession(session.NewOrder{
		Name:   strings.Join(args[1:], " "),
		Guests: guests,
	})
	if err != nil {
		return err
	}
	s := t.Store.Session()
	t.printf("Started order for %s (%d guests). Pick a table next.\n", s.CustomerName, s.GuestCount)
	return nil
}

func (t *Terminal) requireSession() error {
	if t.Store.Session().SessionID == "" {
		return errors.New("no order in progress, use new first")
	}
	return nil
}

func (t *Terminal) setPhone(args []string) error {
	if err := t.requireSession(); err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.New("usage: phone <number>")
	}
	t.Store.SetCustomerPhone(args[0])
	return nil
}

func (t *Terminal) setName(args []string) error {
	if err := t.requireSession(); err != nil {
		return err
	}
	if len(args) == 0 {
		return errors.New("usage: name <name...>")
	}
	t.Store.SetCustomerName(strings.Join(args, " "))
	return nil
}

func (t *Terminal) selectTable(ctx context.Context, args []string) error {
	if err := t.requireSession(); err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.New("usage: table <no|id>")
	}
	if t.tables == nil {
		tables, err := t.Backend.ListTables(ctx)
		if err != nil {
			return fmt.Errorf("failed to load tables: %w", err)
		}
		t.tables = tables
	}

	for _, tb := range t.tables {
		if tb.ID != args[0] && strconv.Itoa(tb.TableNo) != args[0] {
			continue
		}
		if tb.Status == models.TableBooked {
			return fmt.Errorf("table %d is already booked", tb.TableNo)
		}
		t.Store.BindTable(session.TableRef{TableID: tb.ID, TableNo: tb.TableNo})
		t.printf("Table %d selected.\n", tb.TableNo)
		return nil
	}
	return fmt.Errorf("no table %q", args[0])
}

func (t *Terminal) addItem(ctx context.Context, args []string) error {
	if err := t.requireSession(); err != nil {
		return err
	}
	if len(args) == 0 || len(args) > 2 {
		return errors.New("usage: add <item> [qty]")
	}
	qty := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("quantity must be a number: %q", args[1])
		}
		qty = n
	}

	if t.menu == nil {
		if err := t.loadMenu(ctx); err != nil {
			return err
		}
	}
	item, err := t.findItem(args[0])
	if err != nil {
		return err
	}
	if !item.IsAvailable {
		return fmt.Errorf("%s is not available", item.Name)
	}

	line, err := t.Store.AddLine(item, qty)
	if err != nil {
		return err
	}
	t.printf("Added %s x%d (line %s).\n", line.Name, line.Quantity, shortID(line.LineID))
	return nil
}

// loadMenu caches the menu in display order, so item numbers mean the same
// thing whether or not the menu was printed first
func (t *Terminal) loadMenu(ctx context.Context) error {
	items, err := t.Backend.ListMenuItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to load menu: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return items[i].Name < items[j].Name
	})
	t.menu = items
	return nil
}

func (t *Terminal) findItem(ref string) (models.MenuItem, error) {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(t.menu) {
		return t.menu[n-1], nil
	}
	for _, item := range t.menu {
		if item.ID == ref {
			return item, nil
		}
	}
	return models.MenuItem{}, fmt.Errorf("no menu item %q", ref)
}

// resolveLine accepts a full line id or the short prefix printed by cart
func (t *Terminal) resolveLine(ref string) (string, error) {
	for _, l := range t.Store.Lines() {
		if l.LineID == ref || shortID(l.LineID) == ref {
			return l.LineID, nil
		}
	}
	return "", fmt.Errorf("no cart line %q", ref)
}

func (t *Terminal) addNote(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: note <line> <text...>")
	}
	id, err := t.resolveLine(args[0])
	if err != nil {
		return err
	}
	return t.Store.SetNotes(id, strings.Join(args[1:], " "))
}

func (t *Terminal) removeLine(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: remove <line>")
	}
	id, err := t.resolveLine(args[0])
	if err != nil {
		return err
	}
	t.Store.RemoveLine(id)
	return nil
}

func (t *Terminal) showCart() {
	lines := t.Store.Lines()
	if len(lines) == 0 {
		t.printf("Cart is empty.\n")
		return
	}
	for _, l := range lines {
		t.printf("  %s  %-20s x%-2d %s\n", shortID(l.LineID), l.Name, l.Quantity, t.money(l.LineTotal))
		if l.Notes != "" {
			t.printf("            (%s)\n", l.Notes)
		}
	}
}

func (t *Terminal) showBill() {
	b := t.Store.Bill()
	t.printf("  Subtotal      %s\n", t.money(b.Subtotal))
	t.printf("  Tax (%s%%)  %s\n", b.TaxRate.String(), t.money(b.TaxAmount))
	t.printf("  Total         %s\n", t.money(b.GrandTotal))
}

func (t *Terminal) placeOrder(ctx context.Context, args []string) error {
	var method models.PaymentMethod
	if len(args) > 0 {
		method = parseMethod(args[0])
	}
	tableNo := 0
	if s := t.Store.Session(); s.Table != nil {
		tableNo = s.Table.TableNo
	}

	res, err := t.Submitter.PlaceOrder(ctx, method)

	var verr *checkout.ValidationError
	switch {
	case errors.Is(err, checkout.ErrPaymentCancelled):
		t.printf("Payment cancelled. The cart is unchanged.\n")
		return nil
	case errors.As(err, &verr):
		if verr.Redirect == checkout.RedirectTables {
			t.printf("%s\n", verr.Message)
			return t.showTables(ctx)
		}
		return errors.New(verr.Message)
	case err != nil:
		return err
	}

	if werr := invoice.Write(t.prompt.out, invoice.Receipt{
		Order:   res.Order,
		Bill:    res.Bill,
		TableNo: tableNo,
		Symbol:  t.Symbol,
	}, t.Formatter); werr != nil {
		return werr
	}
	if res.TableSyncErr != nil {
		t.printf("warning: order placed but the table was not marked booked; it will be retried.\n")
	}
	t.tables = nil
	return nil
}

func parseMethod(s string) models.PaymentMethod {
	for _, m := range []models.PaymentMethod{models.PaymentCash, models.PaymentCard, models.PaymentOnline} {
		if strings.EqualFold(s, string(m)) {
			return m
		}
	}
	return models.PaymentMethod(s)
}

func (t *Terminal) showOrders(ctx context.Context, args []string) error {
	status := models.OrderStatus(strings.Join(args, " "))
	if status != "" && !status.IsValid() {
		return fmt.Errorf("unknown status %q", status)
	}
	orders, err := t.Backend.ListOrders(ctx, status)
	if err != nil {
		return fmt.Errorf("failed to load orders: %w", err)
	}
	if len(orders) == 0 {
		t.printf("No orders.\n")
		return nil
	}
	for _, o := range orders {
		t.printf("  %s  %-12s %-16s %s  %s\n",
			shortID(o.ID), o.OrderStatus, o.CustomerDetails.Name, t.money(o.Bills.TotalWithTax),
			o.OrderDate.Local().Format("02 Jan 15:04"))
	}
	return nil
}

func (t *Terminal) showMetrics(ctx context.Context) error {
	orders, err := t.Backend.ListOrders(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to load orders: %w", err)
	}
	tables, err := t.Backend.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tables: %w", err)
	}

	m := dashboard.Compute(orders, tables, t.Now())
	t.printf("Revenue   today %s  week %s  month %s  total %s  (%s)\n",
		t.money(m.Revenue.Today), t.money(m.Revenue.Week), t.money(m.Revenue.Month), t.money(m.Revenue.Total),
		change(m.Percentages.Revenue))
	t.printf("Orders    %d total, %d in progress, %d ready, %d completed  (%s)\n",
		m.Orders.Total, m.Orders.InProgress, m.Orders.Ready, m.Orders.Completed, change(m.Percentages.Orders))
	t.printf("Customers today %d  week %d  month %d  total %d  (%s)\n",
		m.Customers.Today, m.Customers.Week, m.Customers.Month, m.Customers.Total, change(m.Percentages.Customers))
	t.printf("Tables    %d total, %d booked, %d available\n", m.Tables.Total, m.Tables.Booked, m.Tables.Available)
	t.printf("Active orders last hour  (%s)\n", change(m.Percentages.ActiveOrders))
	return nil
}

func change(c dashboard.Change) string {
	sign := "+"
	if !c.IsIncrease {
		sign = "-"
	}
	return sign + c.Value.String() + "%"
}

func (t *Terminal) showPayments(ctx context.Context, args []string) error {
	var filterArg, rangeArg string
	if len(args) > 0 {
		filterArg = args[0]
	}
	if len(args) > 1 {
		rangeArg = args[1]
	}
	filter, err := dashboard.ParseStatusFilter(filterArg)
	if err != nil {
		return err
	}
	dateRange, err := dashboard.ParseDateRange(rangeArg)
	if err != nil {
		return err
	}

	payments, err := t.Backend.ListPayments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load payments: %w", err)
	}
	s := dashboard.SummarizePayments(payments, filter, dateRange, t.Now())
	for _, p := range s.Payments {
		t.printf("  %-24s %-9s %s  %s\n", p.ID, p.Status, t.money(p.Amount), p.CreatedAt.Local().Format("02 Jan 15:04"))
	}
	t.printf("Total %s: %d captured, %d failed, %d pending\n", t.money(s.TotalAmount), s.Successful, s.Failed, s.Pending)
	return nil
}

func (t *Terminal) export(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: export <file.csv>")
	}
	orders, err := t.Backend.ListOrders(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to load orders: %w", err)
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", args[0], err)
	}
	defer f.Close()

	if err := dashboard.WriteOrdersCSV(f, orders); err != nil {
		return err
	}
	t.Logger.Info("orders_exported", "Orders exported to CSV", logger.GenerateRequestID(), map[string]interface{}{
		"file":   args[0],
		"orders": len(orders),
	})
	t.printf("Exported %d orders to %s.\n", len(orders), args[0])
	return nil
}

func (t *Terminal) money(d decimal.Decimal) string {
	return t.Symbol + d.StringFixed(2)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
