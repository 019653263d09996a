package dispatcher

import (
	"context"
	"fmt"

	"github.com/de-tools/fleet-stop/pkg/models/domain"
	"github.com/de-tools/fleet-stop/pkg/services/provider"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// ClusterAdvice is attached to managed clusters that have no stop capability.
const ClusterAdvice = "cluster is not backed by scale sets and cannot be stopped; " +
	"scale user pools to 0 and the system pool to 1 to reduce cost"

type LiveOptions struct {
	// StopManagedClusters issues the stop call for scale-set backed clusters instead of
	// recording them as Skipped.
	StopManagedClusters bool
}

// Live performs real deactivations through a provider.
type Live struct {
	provider provider.Provider
	opts     LiveOptions
}

func NewLive(p provider.Provider, opts LiveOptions) *Live {
	return &Live{provider: p, opts: opts}
}

// Deactivate runs one pass of the per-kind state machine for rec. It never retries.
func (l *Live) Deactivate(ctx context.Context, rec *domain.ResourceRecord) domain.Outcome {
	sc, err := l.provider.SelectContext(ctx, rec.SubscriptionID)
	if err != nil {
		return domain.Outcome{Status: domain.StatusErrorNotFound, Err: err}
	}

	res, err := l.provider.Resolve(ctx, sc, rec.ID)
	if err != nil || res == nil {
		if err == nil {
			err = provider.ErrNotFound
		}
		return domain.Outcome{Status: domain.StatusNotFound, Err: err}
	}

	switch rec.Kind {
	case domain.KindVM:
		return l.stopVM(ctx, sc, res)
	case domain.KindScaleSet:
		return l.stopScaleSet(ctx, sc, res)
	case domain.KindManagedCluster:
		return l.stopCluster(ctx, sc, res)
	default:
		return domain.Outcome{Status: domain.StatusUnsupportedObject, Information: rec.RawType}
	}
}

func (l *Live) stopVM(ctx context.Context, sc provider.SubscriptionContext, res *provider.Resource) domain.Outcome {
	ack, err := l.provider.StopVM(ctx, sc, res)
	if err != nil {
		return domain.Outcome{Status: domain.StatusErrorDuringStopAction, Err: err}
	}
	if !ack.Accepted {
		return domain.Outcome{
			Status:      domain.StatusErrorStopping,
			Information: fmt.Sprintf("stop request not accepted (status %d)", ack.Code),
		}
	}
	return domain.Outcome{Status: domain.StatusSuccess}
}

func (l *Live) stopScaleSet(ctx context.Context, sc provider.SubscriptionContext, res *provider.Resource) domain.Outcome {
	state, err := l.provider.StopScaleSet(ctx, sc, res)
	if err != nil {
		return domain.Outcome{Status: domain.StatusErrorDuringStopAction, Err: err}
	}
	if state == provider.JobFailed {
		return domain.Outcome{Status: domain.StatusErrorStopping, Information: string(state)}
	}
	return domain.Outcome{Status: domain.StatusSuccess, Information: string(state)}
}

func (l *Live) stopCluster(ctx context.Context, sc provider.SubscriptionContext, res *provider.Resource) domain.Outcome {
	pools, err := l.provider.ClusterPools(ctx, sc, res)
	if err != nil {
		return domain.Outcome{Status: domain.StatusErrorDuringStopAction, Err: err}
	}

	if system, ok := systemPool(pools); ok && system.Count == 0 {
		return domain.Outcome{Status: domain.StatusSuccess, Information: domain.InfoAlreadyStopped}
	}

	if !scaleSetBacked(pools) {
		zerolog.Ctx(ctx).Warn().Str("resource_id", res.ID).Msg(ClusterAdvice)
		return domain.Outcome{Status: domain.StatusCannotBeStopped, Information: ClusterAdvice}
	}

	if !l.opts.StopManagedClusters {
		return domain.Outcome{Status: domain.StatusSuccess, Information: domain.InfoSkipped}
	}
	if err := l.provider.StopCluster(ctx, sc, res); err != nil {
		return domain.Outcome{Status: domain.StatusErrorDuringStopAction, Err: err}
	}
	return domain.Outcome{Status: domain.StatusSuccess, Information: domain.InfoStopRequested}
}

func systemPool(pools []provider.Pool) (provider.Pool, bool) {
	return lo.Find(pools, func(p provider.Pool) bool {
		return p.Mode == provider.PoolModeSystem
	})
}

// scaleSetBacked reports whether every pool runs on a VM scale set.
func scaleSetBacked(pools []provider.Pool) bool {
	return len(pools) > 0 && lo.EveryBy(pools, func(p provider.Pool) bool {
		return p.BackingType == provider.BackingScaleSet
	})
}
