package azure

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	sdkerrors "github.com/Azure/azure-sdk-for-go-extensions/pkg/errors"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v4"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/de-tools/fleet-stop/pkg/services/provider"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	typeVirtualMachines = "Microsoft.Compute/virtualMachines"
	typeScaleSets       = "Microsoft.Compute/virtualMachineScaleSets"
	typeManagedClusters = "Microsoft.ContainerService/managedClusters"
)

// Provider implements provider.Provider on top of the ARM SDK.
type Provider struct {
	newClients  ClientsFactory
	clients     *cache.Cache
	apiVersions *cache.Cache
}

var _ provider.Provider = (*Provider)(nil)

func NewProvider(newClients ClientsFactory) *Provider {
	return &Provider{
		newClients:  newClients,
		clients:     cache.New(cache.NoExpiration, 0),
		apiVersions: cache.New(cache.NoExpiration, 0),
	}
}

// SelectContext returns the clients for a subscription, creating them on first use.
func (p *Provider) SelectContext(ctx context.Context, subscriptionID string) (provider.SubscriptionContext, error) {
	subscriptionID = strings.TrimSpace(subscriptionID)
	if subscriptionID == "" {
		return nil, fmt.Errorf("subscription ID is empty")
	}

	key := strings.ToLower(subscriptionID)
	if c, ok := p.clients.Get(key); ok {
		return c.(*Clients), nil
	}

	clients, err := p.newClients(subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to select subscription %s: %w", subscriptionID, err)
	}
	p.clients.Set(key, clients, cache.NoExpiration)

	zerolog.Ctx(ctx).Debug().Str("subscription_id", subscriptionID).Msg("subscription context selected")
	return clients, nil
}

// Resolve looks the resource up in ARM. Types without a typed client go through the generic
// resources API so that an existing resource of any type resolves.
func (p *Provider) Resolve(ctx context.Context, sc provider.SubscriptionContext, resourceID string) (*provider.Resource, error) {
	clients, err := asClients(sc)
	if err != nil {
		return nil, err
	}

	id, err := arm.ParseResourceID(strings.TrimSpace(resourceID))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid resource id %q: %v", provider.ErrNotFound, resourceID, err)
	}
	if !strings.EqualFold(id.SubscriptionID, clients.Subscription) {
		return nil, fmt.Errorf("%w: resource belongs to subscription %s, context is %s",
			provider.ErrNotFound, id.SubscriptionID, clients.Subscription)
	}

	var name, resID, rsType *string
	switch resourceType := id.ResourceType.String(); {
	case strings.EqualFold(resourceType, typeVirtualMachines):
		resp, err := clients.VirtualMachines.Get(ctx, id.ResourceGroupName, id.Name, nil)
		if err != nil {
			return nil, lookupError(resourceID, err)
		}
		name, resID, rsType = resp.Name, resp.ID, resp.Type
	case strings.EqualFold(resourceType, typeScaleSets):
		resp, err := clients.ScaleSets.Get(ctx, id.ResourceGroupName, id.Name, nil)
		if err != nil {
			return nil, lookupError(resourceID, err)
		}
		name, resID, rsType = resp.Name, resp.ID, resp.Type
	case strings.EqualFold(resourceType, typeManagedClusters):
		resp, err := clients.ManagedClusters.Get(ctx, id.ResourceGroupName, id.Name, nil)
		if err != nil {
			return nil, lookupError(resourceID, err)
		}
		name, resID, rsType = resp.Name, resp.ID, resp.Type
	default:
		apiVersion, err := p.apiVersion(ctx, clients, id.ResourceType)
		if err != nil {
			return nil, err
		}
		resp, err := clients.Resources.GetByID(ctx, id.String(), apiVersion, nil)
		if err != nil {
			return nil, lookupError(resourceID, err)
		}
		name, resID, rsType = resp.Name, resp.ID, resp.Type
	}

	if resID == nil {
		return nil, fmt.Errorf("%w: %s", provider.ErrNotFound, resourceID)
	}

	return &provider.Resource{
		ID:            lo.FromPtr(resID),
		Name:          lo.FromPtrOr(name, id.Name),
		ResourceGroup: id.ResourceGroupName,
		Type:          lo.FromPtrOr(rsType, id.ResourceType.String()),
	}, nil
}

// StopVM deallocates a VM without waiting for it to stop. The request counts as accepted
// when ARM answered with 200 or 202.
func (p *Provider) StopVM(ctx context.Context, sc provider.SubscriptionContext, res *provider.Resource) (provider.Ack, error) {
	clients, err := asClients(sc)
	if err != nil {
		return provider.Ack{}, err
	}

	var initial *http.Response
	poller, err := clients.VirtualMachines.BeginDeallocate(runtime.WithCaptureResponse(ctx, &initial), res.ResourceGroup, res.Name, nil)
	if err != nil {
		return provider.Ack{}, fmt.Errorf("failed to deallocate vm %s: %w", res.Name, err)
	}
	return ackFromResponse(poller != nil, initial), nil
}

// StopScaleSet deallocates a scale set and reports the state of the operation right after
// submission.
func (p *Provider) StopScaleSet(ctx context.Context, sc provider.SubscriptionContext, res *provider.Resource) (provider.JobState, error) {
	clients, err := asClients(sc)
	if err != nil {
		return "", err
	}

	poller, err := clients.ScaleSets.BeginDeallocate(ctx, res.ResourceGroup, res.Name, nil)
	if err != nil {
		return "", fmt.Errorf("failed to deallocate scale set %s: %w", res.Name, err)
	}
	if poller == nil {
		return provider.JobFailed, nil
	}
	if !poller.Done() {
		return provider.JobRunning, nil
	}
	if _, err := poller.Result(ctx); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("resource", res.ID).Msg("scale set deallocation failed")
		return provider.JobFailed, nil
	}
	return provider.JobSucceeded, nil
}

// ClusterPools reads the agent pools of a managed cluster.
func (p *Provider) ClusterPools(ctx context.Context, sc provider.SubscriptionContext, res *provider.Resource) ([]provider.Pool, error) {
	clients, err := asClients(sc)
	if err != nil {
		return nil, err
	}

	resp, err := clients.ManagedClusters.Get(ctx, res.ResourceGroup, res.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get managed cluster %s: %w", res.Name, err)
	}
	return poolsFromCluster(resp.ManagedCluster), nil
}

// StopCluster requests a managed cluster stop without waiting for it.
func (p *Provider) StopCluster(ctx context.Context, sc provider.SubscriptionContext, res *provider.Resource) error {
	clients, err := asClients(sc)
	if err != nil {
		return err
	}

	if _, err := clients.ManagedClusters.BeginStop(ctx, res.ResourceGroup, res.Name, nil); err != nil {
		return fmt.Errorf("failed to stop managed cluster %s: %w", res.Name, err)
	}
	return nil
}

// apiVersion picks the first stable API version ARM lists for a resource type, or the first
// listed version when only previews exist. Versions are cached per type.
func (p *Provider) apiVersion(ctx context.Context, clients *Clients, rt arm.ResourceType) (string, error) {
	key := strings.ToLower(rt.String())
	if v, ok := p.apiVersions.Get(key); ok {
		return v.(string), nil
	}

	resp, err := clients.Providers.Get(ctx, rt.Namespace, nil)
	if err != nil {
		return "", lookupError(rt.Namespace, err)
	}

	typeName := strings.Join(rt.Types, "/")
	found, ok := lo.Find(resp.ResourceTypes, func(t *armresources.ProviderResourceType) bool {
		return t != nil && strings.EqualFold(lo.FromPtr(t.ResourceType), typeName)
	})
	if !ok {
		return "", fmt.Errorf("%w: resource type %s is not registered", provider.ErrNotFound, rt.String())
	}

	versions := lo.Map(lo.Filter(found.APIVersions, func(v *string, _ int) bool { return v != nil }),
		func(v *string, _ int) string { return *v })
	if len(versions) == 0 {
		return "", fmt.Errorf("no API version published for %s", rt.String())
	}
	version, ok := lo.Find(versions, func(v string) bool { return !strings.Contains(v, "preview") })
	if !ok {
		version = versions[0]
	}

	p.apiVersions.Set(key, version, cache.NoExpiration)
	return version, nil
}

func asClients(sc provider.SubscriptionContext) (*Clients, error) {
	clients, ok := sc.(*Clients)
	if !ok || clients == nil {
		return nil, fmt.Errorf("subscription context %T was not created by the azure provider", sc)
	}
	return clients, nil
}

func lookupError(resourceID string, err error) error {
	if sdkerrors.IsNotFoundErr(err) {
		return fmt.Errorf("%w: %s", provider.ErrNotFound, resourceID)
	}
	if respErr := sdkerrors.IsResponseError(err); respErr != nil {
		return fmt.Errorf("lookup of %s failed with %s: %w", resourceID, respErr.ErrorCode, err)
	}
	return fmt.Errorf("lookup of %s failed: %w", resourceID, err)
}

func ackFromResponse(started bool, initial *http.Response) provider.Ack {
	if !started {
		return provider.Ack{}
	}
	if initial == nil {
		return provider.Ack{Accepted: true}
	}
	code := initial.StatusCode
	return provider.Ack{
		Accepted: code == http.StatusAccepted || code == http.StatusOK,
		Code:     code,
	}
}

func poolsFromCluster(cluster armcontainerservice.ManagedCluster) []provider.Pool {
	if cluster.Properties == nil {
		return nil
	}
	profiles := lo.Filter(cluster.Properties.AgentPoolProfiles, func(ap *armcontainerservice.ManagedClusterAgentPoolProfile, _ int) bool {
		return ap != nil
	})
	return lo.Map(profiles, func(ap *armcontainerservice.ManagedClusterAgentPoolProfile, _ int) provider.Pool {
		return provider.Pool{
			Name:        lo.FromPtr(ap.Name),
			Mode:        provider.PoolMode(lo.FromPtr(ap.Mode)),
			BackingType: string(lo.FromPtr(ap.Type)),
			Count:       lo.FromPtr(ap.Count),
		}
	})
}
