package workerpool

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSubmitRunsHandlerAndRepliesWithSameID(t *testing.T) {
	p := New(4)
	defer p.Terminate()

	reply := p.Submit(context.Background(), "req-1", 21, func(ctx context.Context, payload any) (any, error) {
		return payload.(int) * 2, nil
	})

	select {
	case resp := <-reply:
		if resp.ID != "req-1" || resp.Err != nil || resp.Result.(int) != 42 {
			t.Fatalf("unexpected response: %+v", resp)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for response")
	}
}

func TestSubmitPropagatesHandlerError(t *testing.T) {
	p := New(1)
	defer p.Terminate()

	wantErr := errors.New("boom")
	reply := p.Submit(context.Background(), "req-2", nil, func(ctx context.Context, payload any) (any, error) {
		return nil, wantErr
	})

	resp := <-reply
	if resp.Err != wantErr {
		t.Fatalf("resp.Err = %v, want %v", resp.Err, wantErr)
	}
}

func TestRequestsServiceInSubmissionOrder(t *testing.T) {
	p := New(8)
	defer p.Terminate()

	var order []int
	done := make(chan struct{})
	n := 5
	replies := make([]<-chan Response, n)
	for i := 0; i < n; i++ {
		i := i
		replies[i] = p.Submit(context.Background(), "", i, func(ctx context.Context, payload any) (any, error) {
			order = append(order, payload.(int))
			if payload.(int) == n-1 {
				close(done)
			}
			return nil, nil
		})
	}
	for _, r := range replies {
		<-r
	}
	<-done

	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want sequential 0..%d", order, n-1)
		}
	}
}

func TestTerminateRejectsFutureSubmits(t *testing.T) {
	p := New(1)
	p.Terminate()

	reply := p.Submit(context.Background(), "late", nil, func(ctx context.Context, payload any) (any, error) {
		t.Fatal("handler must not run after Terminate")
		return nil, nil
	})
	resp := <-reply
	if resp.Err != ErrPoolTerminated {
		t.Fatalf("resp.Err = %v, want ErrPoolTerminated", resp.Err)
	}
}

func TestTerminateIsIdempotent(t *testing.T) {
	p := New(1)
	p.Terminate()
	p.Terminate()
}
