package chat

import (
	"context"
	"testing"
	"time"
)

// settle 给事件循环留出处理通道积压的时间
func settle() {
	time.Sleep(20 * time.Millisecond)
}

func recvPayload(t *testing.T, conn *ClientConn) []byte {
	t.Helper()
	select {
	case payload := <-conn.SendBack:
		return payload
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for delivery")
		return nil
	}
}

func assertNoDelivery(t *testing.T, conn *ClientConn) {
	t.Helper()
	select {
	case payload := <-conn.SendBack:
		t.Fatalf("unexpected delivery: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChannelBrokerDeliversToSubscribers(t *testing.T) {
	broker := NewChannelBroker()
	go broker.Start()
	defer broker.Close()

	viewer := NewClientConn(nil, "sock-viewer", 2, "user")
	outsider := NewClientConn(nil, "sock-outsider", 3, "user")
	broker.Register(viewer)
	broker.Register(outsider)
	broker.Subscribe(viewer, convTopic(100))
	settle()

	if err := broker.Publish(context.Background(), &Event{
		Topic:   convTopic(100),
		Payload: []byte(`{"operation":"sendMessage"}`),
	}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	if got := recvPayload(t, viewer); string(got) != `{"operation":"sendMessage"}` {
		t.Errorf("unexpected payload: %s", got)
	}
	assertNoDelivery(t, outsider)
}

func TestChannelBrokerExcludesOriginSocket(t *testing.T) {
	broker := NewChannelBroker()
	go broker.Start()
	defer broker.Close()

	origin := NewClientConn(nil, "sock-origin", 1, "user")
	other := NewClientConn(nil, "sock-other", 1, "user")
	broker.Register(origin)
	broker.Register(other)
	broker.Subscribe(origin, convTopic(100))
	broker.Subscribe(other, convTopic(100))
	settle()

	if err := broker.Publish(context.Background(), &Event{
		Topic:   convTopic(100),
		Exclude: "sock-origin",
		Payload: []byte(`x`),
	}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	recvPayload(t, other)
	assertNoDelivery(t, origin)
}

func TestChannelBrokerUnsubscribeStopsDelivery(t *testing.T) {
	broker := NewChannelBroker()
	go broker.Start()
	defer broker.Close()

	conn := NewClientConn(nil, "sock-a", 1, "user")
	broker.Register(conn)
	broker.Subscribe(conn, convTopic(100))
	settle()
	broker.Unsubscribe(conn, convTopic(100))
	settle()

	if err := broker.Publish(context.Background(), &Event{
		Topic:   convTopic(100),
		Payload: []byte(`x`),
	}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	assertNoDelivery(t, conn)
}

func TestChannelBrokerUnregisterCleansAllSubscriptions(t *testing.T) {
	broker := NewChannelBroker()
	go broker.Start()
	defer broker.Close()

	conn := NewClientConn(nil, "sock-a", 1, "user")
	broker.Register(conn)
	broker.Subscribe(conn, convTopic(100))
	broker.Subscribe(conn, presenceTopic(2))
	settle()
	broker.Unregister(conn)
	settle()

	for _, topic := range []string{convTopic(100), presenceTopic(2)} {
		if err := broker.Publish(context.Background(), &Event{Topic: topic, Payload: []byte(`x`)}); err != nil {
			t.Fatalf("Publish returned error: %v", err)
		}
	}
	assertNoDelivery(t, conn)
}

func TestChannelBrokerPublishAfterClose(t *testing.T) {
	broker := NewChannelBroker()
	go broker.Start()
	broker.Close()
	settle()

	err := broker.Publish(context.Background(), &Event{Topic: convTopic(1), Payload: []byte(`x`)})
	if err == nil {
		t.Error("Publish after Close should fail")
	}
}
