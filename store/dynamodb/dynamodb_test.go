package dynamodb

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/clinton1719/cloud-circuit-breaker/circuitbreaker"
	"github.com/clinton1719/cloud-circuit-breaker/store/storetest"
)

// fakeClient implements API with the same conditional-write semantics
// the real table enforces.
type fakeClient struct {
	mu           sync.Mutex
	items        map[string]map[string]types.AttributeValue
	updateInputs []*awsdynamodb.UpdateItemInput
	getErr       error
	updateErr    error
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeClient) GetItem(_ context.Context, in *awsdynamodb.GetItemInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	id := in.Key[attrID].(*types.AttributeValueMemberS).Value
	item, ok := f.items[id]
	if !ok {
		return &awsdynamodb.GetItemOutput{}, nil
	}
	return &awsdynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeClient) UpdateItem(_ context.Context, in *awsdynamodb.UpdateItemInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updateInputs = append(f.updateInputs, in)

	id := in.Key[attrID].(*types.AttributeValueMemberS).Value
	incoming := numValue(in.ExpressionAttributeValues[":lastFailureTime"])
	if cur, ok := f.items[id]; ok && numValue(cur[attrLastFailureTime]) > incoming {
		return nil, &types.ConditionalCheckFailedException{
			Message: aws.String("The conditional request failed"),
		}
	}

	f.items[id] = map[string]types.AttributeValue{
		attrID:              &types.AttributeValueMemberS{Value: id},
		attrStatus:          in.ExpressionAttributeValues[":status"],
		attrFailureCount:    in.ExpressionAttributeValues[":failureCount"],
		attrLastFailureTime: in.ExpressionAttributeValues[":lastFailureTime"],
	}
	return &awsdynamodb.UpdateItemOutput{}, nil
}

func numValue(av types.AttributeValue) int64 {
	n, _ := strconv.ParseInt(av.(*types.AttributeValueMemberN).Value, 10, 64)
	return n
}

func newTestStore(t *testing.T) (*Store, *fakeClient) {
	t.Helper()
	f := newFakeClient()
	s, err := New(f, "breakers")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s, f
}

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) circuitbreaker.Store {
		s, _ := newTestStore(t)
		return s
	})
}

func TestStore_Save_Expressions(t *testing.T) {
	s, f := newTestStore(t)
	err := s.Save(context.Background(), "orders:create", circuitbreaker.State{
		Status:          circuitbreaker.StatusOpen,
		FailureCount:    5,
		LastFailureTime: time.Unix(1700000000, 0),
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if len(f.updateInputs) != 1 {
		t.Fatalf("expected 1 UpdateItem call, got %d", len(f.updateInputs))
	}

	in := f.updateInputs[0]
	if got := aws.ToString(in.TableName); got != "breakers" {
		t.Errorf("expected table 'breakers', got %q", got)
	}
	wantCond := "attribute_not_exists(id) OR lastFailureTime <= :lastFailureTime"
	if got := aws.ToString(in.ConditionExpression); got != wantCond {
		t.Errorf("expected condition %q, got %q", wantCond, got)
	}
	wantUpdate := "SET #status = :status, failureCount = :failureCount, lastFailureTime = :lastFailureTime"
	if got := aws.ToString(in.UpdateExpression); got != wantUpdate {
		t.Errorf("expected update %q, got %q", wantUpdate, got)
	}
	if got := in.ExpressionAttributeNames["#status"]; got != "status" {
		t.Errorf("expected #status alias to 'status', got %q", got)
	}
	if got := in.ExpressionAttributeValues[":lastFailureTime"].(*types.AttributeValueMemberN).Value; got != "1700000000" {
		t.Errorf("expected epoch-second timestamp, got %q", got)
	}
}

func TestStore_Save_ConflictDropped(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	newer := circuitbreaker.State{
		Status:          circuitbreaker.StatusOpen,
		FailureCount:    5,
		LastFailureTime: time.Unix(1700000100, 0),
	}
	if err := s.Save(ctx, "orders:create", newer); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	stale := circuitbreaker.State{
		Status:          circuitbreaker.StatusClosed,
		FailureCount:    1,
		LastFailureTime: time.Unix(1700000000, 0),
	}
	if err := s.Save(ctx, "orders:create", stale); err != nil {
		t.Fatalf("expected conflict to be swallowed, got %v", err)
	}

	got, err := s.Get(ctx, "orders:create")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != circuitbreaker.StatusOpen || got.FailureCount != 5 {
		t.Errorf("stale write overwrote the record: %+v", got)
	}
}

func TestStore_Save_BackendError(t *testing.T) {
	s, f := newTestStore(t)
	f.updateErr = errors.New("throughput exceeded")

	err := s.Save(context.Background(), "orders:create", circuitbreaker.State{
		Status:          circuitbreaker.StatusClosed,
		FailureCount:    1,
		LastFailureTime: time.Unix(1700000000, 0),
	})
	if err == nil {
		t.Fatal("expected error from backend failure")
	}
	var serr *circuitbreaker.StoreError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *StoreError, got %T", err)
	}
	if serr.Op != "save" {
		t.Errorf("expected op 'save', got %q", serr.Op)
	}
	if !errors.Is(err, f.updateErr) {
		t.Error("expected the backend cause to be unwrappable")
	}
}

func TestStore_Get_BackendError(t *testing.T) {
	s, f := newTestStore(t)
	f.getErr = errors.New("connection reset")

	_, err := s.Get(context.Background(), "orders:create")
	var serr *circuitbreaker.StoreError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *StoreError, got %T", err)
	}
	if serr.Op != "get" {
		t.Errorf("expected op 'get', got %q", serr.Op)
	}
}

func TestStore_Get_MalformedItem(t *testing.T) {
	s, f := newTestStore(t)
	f.items["orders:create"] = map[string]types.AttributeValue{
		attrID:              &types.AttributeValueMemberS{Value: "orders:create"},
		attrStatus:          &types.AttributeValueMemberN{Value: "1"},
		attrFailureCount:    &types.AttributeValueMemberN{Value: "1"},
		attrLastFailureTime: &types.AttributeValueMemberN{Value: "1700000000"},
	}

	_, err := s.Get(context.Background(), "orders:create")
	if err == nil {
		t.Fatal("expected error for malformed item")
	}
	var serr *circuitbreaker.StoreError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *StoreError, got %T", err)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, "breakers"); err == nil {
		t.Error("expected error for nil client")
	}
	if _, err := New(newFakeClient(), ""); err == nil {
		t.Error("expected error for empty table")
	}
}
