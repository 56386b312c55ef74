package kafka

import (
	"context"
	"reflect"
	"testing"
)

func TestParseBrokers(t *testing.T) {
	got := ParseBrokers(" a:9092, ,b:9092,")
	want := []string{"a:9092", "b:9092"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if len(ParseBrokers("")) != 0 {
		t.Fatal("empty input should give no brokers")
	}
}

func TestWaitForBrokerRequiresBrokers(t *testing.T) {
	if err := WaitForBroker(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
	if err := EnsureTopic(context.Background(), nil, DefaultMatchTopic); err == nil {
		t.Fatal("expected error")
	}
}
