package telemetry

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialStream(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitClients(t *testing.T, s *Stream, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", s.Clients(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readReport(t *testing.T, conn *websocket.Conn) DayReport {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var r DayReport
	if err := conn.ReadJSON(&r); err != nil {
		t.Fatalf("read: %v", err)
	}
	return r
}

func TestStream_Broadcast(t *testing.T) {
	s := NewStream(16)
	srv := httptest.NewServer(s)
	defer srv.Close()
	defer s.Close()

	a := dialStream(t, srv)
	defer a.Close()
	b := dialStream(t, srv)
	defer b.Close()
	waitClients(t, s, 2)

	_ = s.Report(context.Background(), DayReport{Day: 1, Prey: 19, Predators: 3, Transitioned: true})

	for _, conn := range []*websocket.Conn{a, b} {
		r := readReport(t, conn)
		if r.Day != 1 || r.Prey != 19 || r.Predators != 3 || !r.Transitioned {
			t.Errorf("received %+v", r)
		}
	}
}

func TestStream_LateJoinerGetsLatest(t *testing.T) {
	s := NewStream(16)
	srv := httptest.NewServer(s)
	defer srv.Close()
	defer s.Close()

	first := dialStream(t, srv)
	defer first.Close()
	waitClients(t, s, 1)

	_ = s.Report(context.Background(), DayReport{Day: 5, Prey: 15, Predators: 3})
	readReport(t, first) // the hub has processed day 5

	late := dialStream(t, srv)
	defer late.Close()
	if r := readReport(t, late); r.Day != 5 {
		t.Errorf("late joiner got day %d, want 5", r.Day)
	}
}

func TestStream_ClientDisconnect(t *testing.T) {
	s := NewStream(16)
	srv := httptest.NewServer(s)
	defer srv.Close()
	defer s.Close()

	conn := dialStream(t, srv)
	waitClients(t, s, 1)
	conn.Close()
	waitClients(t, s, 0)
}

func TestStream_ReportAfterClose(t *testing.T) {
	s := NewStream(1)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	// Must neither block nor panic.
	for i := 0; i < 5; i++ {
		if err := s.Report(context.Background(), DayReport{Day: i}); err != nil {
			t.Fatal(err)
		}
	}
}
