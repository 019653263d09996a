package azure

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v4"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
)

const applicationID = "fleet-stop"

type VirtualMachinesAPI interface {
	Get(ctx context.Context, resourceGroupName string, vmName string, options *armcompute.VirtualMachinesClientGetOptions) (armcompute.VirtualMachinesClientGetResponse, error)
	BeginDeallocate(ctx context.Context, resourceGroupName string, vmName string, options *armcompute.VirtualMachinesClientBeginDeallocateOptions) (*runtime.Poller[armcompute.VirtualMachinesClientDeallocateResponse], error)
}

type ScaleSetsAPI interface {
	Get(ctx context.Context, resourceGroupName string, vmScaleSetName string, options *armcompute.VirtualMachineScaleSetsClientGetOptions) (armcompute.VirtualMachineScaleSetsClientGetResponse, error)
	BeginDeallocate(ctx context.Context, resourceGroupName string, vmScaleSetName string, options *armcompute.VirtualMachineScaleSetsClientBeginDeallocateOptions) (*runtime.Poller[armcompute.VirtualMachineScaleSetsClientDeallocateResponse], error)
}

type ManagedClustersAPI interface {
	Get(ctx context.Context, resourceGroupName string, resourceName string, options *armcontainerservice.ManagedClustersClientGetOptions) (armcontainerservice.ManagedClustersClientGetResponse, error)
	BeginStop(ctx context.Context, resourceGroupName string, resourceName string, options *armcontainerservice.ManagedClustersClientBeginStopOptions) (*runtime.Poller[armcontainerservice.ManagedClustersClientStopResponse], error)
}

// ResourcesAPI looks up resources of any type by ID.
type ResourcesAPI interface {
	GetByID(ctx context.Context, resourceID string, apiVersion string, options *armresources.ClientGetByIDOptions) (armresources.ClientGetByIDResponse, error)
}

// ProvidersAPI lists the API versions of a resource provider namespace.
type ProvidersAPI interface {
	Get(ctx context.Context, resourceProviderNamespace string, options *armresources.ProvidersClientGetOptions) (armresources.ProvidersClientGetResponse, error)
}

// Clients is the set of ARM clients bound to one subscription. It is the
// provider.SubscriptionContext handed back by SelectContext.
type Clients struct {
	Subscription    string
	VirtualMachines VirtualMachinesAPI
	ScaleSets       ScaleSetsAPI
	ManagedClusters ManagedClustersAPI
	Resources       ResourcesAPI
	Providers       ProvidersAPI
}

func (c *Clients) SubscriptionID() string {
	return c.Subscription
}

// ClientsFactory builds the clients for a subscription.
type ClientsFactory func(subscriptionID string) (*Clients, error)

// NewClientsFactory returns a factory creating real ARM clients with cred and opts.
func NewClientsFactory(cred azcore.TokenCredential, opts *arm.ClientOptions) ClientsFactory {
	return func(subscriptionID string) (*Clients, error) {
		vms, err := armcompute.NewVirtualMachinesClient(subscriptionID, cred, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create virtual machines client: %w", err)
		}
		scaleSets, err := armcompute.NewVirtualMachineScaleSetsClient(subscriptionID, cred, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create scale sets client: %w", err)
		}
		clusters, err := armcontainerservice.NewManagedClustersClient(subscriptionID, cred, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create managed clusters client: %w", err)
		}
		resources, err := armresources.NewClient(subscriptionID, cred, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create resources client: %w", err)
		}
		providers, err := armresources.NewProvidersClient(subscriptionID, cred, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create providers client: %w", err)
		}
		return &Clients{
			Subscription:    subscriptionID,
			VirtualMachines: vms,
			ScaleSets:       scaleSets,
			ManagedClusters: clusters,
			Resources:       resources,
			Providers:       providers,
		}, nil
	}
}

// ClientOptions tags every ARM request with the run's correlation ID.
func ClientOptions(correlationID string) *arm.ClientOptions {
	opt := new(arm.ClientOptions)
	opt.Telemetry.ApplicationID = applicationID
	if correlationID != "" {
		opt.PerCallPolicies = append(opt.PerCallPolicies,
			PolicySetHeaders{
				"x-ms-correlation-request-id": []string{correlationID},
			},
		)
	}
	return opt
}

// PolicySetHeaders sets http header
type PolicySetHeaders http.Header

func (p PolicySetHeaders) Do(req *policy.Request) (*http.Response, error) {
	header := req.Raw().Header
	for k, v := range p {
		header[k] = v
	}
	return req.Next()
}
