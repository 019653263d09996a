package provider

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("resource not found")

// SubscriptionContext is the handle returned by SelectContext. It is passed explicitly to
// every lookup and action so no call depends on a previously selected subscription.
type SubscriptionContext interface {
	SubscriptionID() string
}

// Resource is a resolved live resource.
type Resource struct {
	ID            string
	Name          string
	ResourceGroup string
	Type          string
}

// Ack is the provider's answer to a non-blocking stop request.
type Ack struct {
	Accepted bool
	// Code is the HTTP status of the initial response, when known.
	Code int
}

type JobState string

const (
	JobRunning   JobState = "Running"
	JobSucceeded JobState = "Succeeded"
	JobFailed    JobState = "Failed"
)

type PoolMode string

const (
	PoolModeSystem PoolMode = "System"
	PoolModeUser   PoolMode = "User"
)

const BackingScaleSet = "VirtualMachineScaleSets"

// Pool describes one node pool of a managed cluster.
type Pool struct {
	Name        string
	Mode        PoolMode
	BackingType string
	Count       int32
}

// Provider is the capability surface the dispatcher needs from a cloud.
type Provider interface {
	SelectContext(ctx context.Context, subscriptionID string) (SubscriptionContext, error)
	// Resolve returns ErrNotFound when the resource does not exist.
	Resolve(ctx context.Context, sc SubscriptionContext, resourceID string) (*Resource, error)
	StopVM(ctx context.Context, sc SubscriptionContext, res *Resource) (Ack, error)
	StopScaleSet(ctx context.Context, sc SubscriptionContext, res *Resource) (JobState, error)
	ClusterPools(ctx context.Context, sc SubscriptionContext, res *Resource) ([]Pool, error)
	StopCluster(ctx context.Context, sc SubscriptionContext, res *Resource) error
}
