// Package dynamodb provides a DynamoDB-backed circuit breaker store.
//
// The table uses a string partition key "id" holding the breaker key,
// with attributes "status" (S), "failureCount" (N) and
// "lastFailureTime" (N, epoch seconds). The conditional write rides on
// a ConditionExpression against the stored lastFailureTime, so a stale
// writer loses without a read-modify-write cycle.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/clinton1719/cloud-circuit-breaker/circuitbreaker"
	"github.com/clinton1719/cloud-circuit-breaker/logger"
	"github.com/clinton1719/cloud-circuit-breaker/store"
)

// Item attribute names.
const (
	attrID              = "id"
	attrStatus          = "status"
	attrFailureCount    = "failureCount"
	attrLastFailureTime = "lastFailureTime"
)

func init() {
	store.Register(store.ProviderDynamoDB, func(ctx context.Context, cfg store.Config, log *logger.Logger) (circuitbreaker.Store, error) {
		return NewFromConfig(ctx, cfg, log)
	})
}

// API is the subset of the DynamoDB client the store uses. Production
// code passes *awsdynamodb.Client; tests substitute a fake.
type API interface {
	GetItem(ctx context.Context, params *awsdynamodb.GetItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *awsdynamodb.UpdateItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.UpdateItemOutput, error)
}

// Store persists breaker records in a DynamoDB table.
type Store struct {
	client API
	table  string
	log    *logger.Logger

	// Now is the time source for Reset stamps.
	Now func() time.Time
}

var _ circuitbreaker.Store = (*Store)(nil)

// Option customizes a Store.
type Option func(*Store)

// WithLogger wires a logger. The default discards everything.
func WithLogger(log *logger.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a store over an existing DynamoDB client. The table must
// already exist with a string partition key named "id".
func New(client API, table string, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("store: dynamodb client is required")
	}
	if table == "" {
		return nil, fmt.Errorf("store: dynamodb table is required")
	}
	s := &Store{
		client: client,
		table:  table,
		log:    logger.Nop(),
		Now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("store.dynamodb")
	return s, nil
}

// NewFromConfig builds a DynamoDB-backed store from store configuration,
// wiring region, optional static credentials and an optional custom
// endpoint (e.g. DynamoDB Local).
func NewFromConfig(ctx context.Context, cfg store.Config, log *logger.Logger) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("store: load aws config: %w", err)
	}

	var ddbOpts []func(*awsdynamodb.Options)
	if cfg.Endpoint != "" {
		ddbOpts = append(ddbOpts, func(o *awsdynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	client := awsdynamodb.NewFromConfig(awsCfg, ddbOpts...)
	return New(client, cfg.Table, WithLogger(log))
}

// Get returns the snapshot stored for key, or (nil, nil) if none exists.
func (s *Store) Get(ctx context.Context, key string) (*circuitbreaker.State, error) {
	out, err := s.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			attrID: &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, &circuitbreaker.StoreError{Op: "get", Key: key, Err: err}
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	state, err := parseItem(key, out.Item)
	if err != nil {
		return nil, &circuitbreaker.StoreError{Op: "get", Key: key, Err: err}
	}
	return state, nil
}

// Save persists state under key unless a strictly newer record exists,
// in which case the write is logged and dropped. The condition runs
// server-side, so concurrent writers race safely.
func (s *Store) Save(ctx context.Context, key string, state circuitbreaker.State) error {
	epoch := strconv.FormatInt(state.LastFailureTime.Unix(), 10)
	_, err := s.client.UpdateItem(ctx, &awsdynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			attrID: &types.AttributeValueMemberS{Value: key},
		},
		UpdateExpression:    aws.String("SET #status = :status, failureCount = :failureCount, lastFailureTime = :lastFailureTime"),
		ConditionExpression: aws.String("attribute_not_exists(id) OR lastFailureTime <= :lastFailureTime"),
		ExpressionAttributeNames: map[string]string{
			"#status": attrStatus,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":          &types.AttributeValueMemberS{Value: string(state.Status)},
			":failureCount":    &types.AttributeValueMemberN{Value: strconv.Itoa(state.FailureCount)},
			":lastFailureTime": &types.AttributeValueMemberN{Value: epoch},
		},
	})
	if err != nil {
		var conflict *types.ConditionalCheckFailedException
		if errors.As(err, &conflict) {
			s.log.Warn("skipped outdated breaker update", logger.Fields(logger.FieldKey, key))
			return nil
		}
		return &circuitbreaker.StoreError{Op: "save", Key: key, Err: err}
	}
	return nil
}

// Reset overwrites key with a closed, zero-count record stamped now.
func (s *Store) Reset(ctx context.Context, key string) error {
	return s.Save(ctx, key, circuitbreaker.State{
		Key:             key,
		Status:          circuitbreaker.StatusClosed,
		FailureCount:    0,
		LastFailureTime: s.Now(),
	})
}

func parseItem(key string, item map[string]types.AttributeValue) (*circuitbreaker.State, error) {
	statusAttr, ok := item[attrStatus].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("attribute %q missing or not a string", attrStatus)
	}
	countAttr, ok := item[attrFailureCount].(*types.AttributeValueMemberN)
	if !ok {
		return nil, fmt.Errorf("attribute %q missing or not a number", attrFailureCount)
	}
	count, err := strconv.Atoi(countAttr.Value)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", attrFailureCount, err)
	}
	tsAttr, ok := item[attrLastFailureTime].(*types.AttributeValueMemberN)
	if !ok {
		return nil, fmt.Errorf("attribute %q missing or not a number", attrLastFailureTime)
	}
	epoch, err := strconv.ParseInt(tsAttr.Value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", attrLastFailureTime, err)
	}

	return &circuitbreaker.State{
		Key:             key,
		Status:          circuitbreaker.Status(statusAttr.Value),
		FailureCount:    count,
		LastFailureTime: time.Unix(epoch, 0),
	}, nil
}
