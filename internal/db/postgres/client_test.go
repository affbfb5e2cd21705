package postgres

import "testing"

func TestNewStore_RequiresDSN(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}

func TestNewStore_Lazy(t *testing.T) {
	// Opening must not contact the server.
	s, err := NewStore(Config{DSN: "host=127.0.0.1 port=1 user=x dbname=x sslmode=disable", MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	if s.DB() == nil {
		t.Fatal("expected non-nil gorm handle")
	}
}

func TestOpenDryRun(t *testing.T) {
	gdb, err := OpenDryRun()
	if err != nil {
		t.Fatalf("OpenDryRun: %v", err)
	}
	if !gdb.DryRun {
		t.Error("expected DryRun session")
	}
}
