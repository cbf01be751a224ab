package mem

import (
	"context"
	"errors"
	"testing"

	"github.com/ScorpioXKiller/client-backup-app/pkg/transport"
)

func TestDialAndAccept(t *testing.T) {
	tr := New()
	l, err := tr.Listen("srv")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()

	d := tr.Dialer()
	if d.Kind() != transport.KindMem {
		t.Fatalf("kind = %v", d.Kind())
	}

	conn, err := d.Dial(context.Background(), "srv")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	srv, err := l.Accept(context.Background())
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	defer srv.Close()

	go srv.Write([]byte("pong"))
	got, err := conn.RecvExact(4)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if string(got) != "pong" {
		t.Fatalf("got %q", got)
	}
}

func TestDialUnknownListener(t *testing.T) {
	tr := New()
	if _, err := tr.Dialer().Dial(context.Background(), "nope"); !errors.Is(err, transport.ErrDial) {
		t.Fatalf("err = %v, want ErrDial", err)
	}
}
