package session

import (
	"strings"
	"testing"
)

func TestStart(t *testing.T) {
	tests := []struct {
		name          string
		req           NewOrder
		wantErr       bool
		wantAnonymous bool
		wantName      string
	}{
		{name: "named party", req: NewOrder{Name: "Asha", Phone: "98450 00000", Guests: 3}, wantName: "Asha"},
		{name: "anonymous party", req: NewOrder{Guests: 2}, wantAnonymous: true},
		{name: "guest prefixed name", req: NewOrder{Name: "Guest 7", Guests: 1}, wantAnonymous: true, wantName: "Guest 7"},
		{name: "no guests", req: NewOrder{Name: "Asha"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			err := s.Start(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Start() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if s.Active() {
					t.Fatal("failed start must leave the session empty")
				}
				return
			}

			ctx := s.Snapshot()
			if ctx.SessionID == "" {
				t.Error("expected a session id")
			}
			if ctx.Anonymous != tt.wantAnonymous {
				t.Errorf("Anonymous = %v, want %v", ctx.Anonymous, tt.wantAnonymous)
			}
			if tt.wantName != "" && ctx.CustomerName != tt.wantName {
				t.Errorf("CustomerName = %q, want %q", ctx.CustomerName, tt.wantName)
			}
			if tt.wantAnonymous && !strings.HasPrefix(ctx.CustomerName, "Guest ") {
				t.Errorf("anonymous name %q should be a guest label", ctx.CustomerName)
			}
		})
	}
}

func TestBindTableAndReset(t *testing.T) {
	s := New()
	if err := s.Start(NewOrder{Guests: 2}); err != nil {
		t.Fatal(err)
	}
	if s.HasTable() {
		t.Fatal("no table bound yet")
	}

	s.BindTable(TableRef{TableID: "t-4", TableNo: 4})
	snap := s.Snapshot()
	if !s.HasTable() || snap.Table.TableNo != 4 {
		t.Fatalf("table not bound: %+v", snap.Table)
	}

	snap.Table.TableNo = 99
	if s.Snapshot().Table.TableNo != 4 {
		t.Error("snapshot must not alias session state")
	}

	s.Reset()
	if s.Active() || s.HasTable() {
		t.Error("reset must empty the session")
	}
}

func TestSetCustomerName(t *testing.T) {
	s := New()
	_ = s.Start(NewOrder{Guests: 1})
	s.SetCustomerName("  Ravi ")
	s.SetCustomerPhone(" 12345 ")

	ctx := s.Snapshot()
	if ctx.Anonymous || ctx.CustomerName != "Ravi" || ctx.CustomerPhone != "12345" {
		t.Errorf("unexpected context %+v", ctx)
	}
}

func TestCustomerDetailsDefaults(t *testing.T) {
	s := New()
	s.guestName = func() string { return "Guest 42" }

	details := s.CustomerDetails()
	if details.Name != "Guest 42" || details.Guests != 1 || details.Phone != "" {
		t.Errorf("unexpected defaults %+v", details)
	}

	_ = s.Start(NewOrder{Name: "Meera", Phone: "555", Guests: 4})
	details = s.CustomerDetails()
	if details.Name != "Meera" || details.Guests != 4 || details.Phone != "555" {
		t.Errorf("unexpected details %+v", details)
	}
}
