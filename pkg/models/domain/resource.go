package domain

import (
	"fmt"
	"strings"
)

type ResourceKind int

const (
	KindUnknown ResourceKind = iota
	KindVM
	KindScaleSet
	KindManagedCluster
)

// kindAliases maps lower-cased inventory type strings to a kind.
var kindAliases = map[string]ResourceKind{
	"microsoft.compute/virtualmachines":          KindVM,
	"virtualmachines":                            KindVM,
	"vm":                                         KindVM,
	"microsoft.compute/virtualmachinescalesets":  KindScaleSet,
	"virtualmachinescalesets":                    KindScaleSet,
	"vmss":                                       KindScaleSet,
	"scaleset":                                   KindScaleSet,
	"microsoft.containerservice/managedclusters": KindManagedCluster,
	"managedclusters":                            KindManagedCluster,
	"managedcluster":                             KindManagedCluster,
	"aks":                                        KindManagedCluster,
}

// ParseKind never fails: anything it does not recognise is KindUnknown.
func ParseKind(raw string) ResourceKind {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return k
	}
	return KindUnknown
}

// KindAliases returns the recognised type strings grouped by kind.
func KindAliases() map[ResourceKind][]string {
	out := make(map[ResourceKind][]string)
	for alias, k := range kindAliases {
		out[k] = append(out[k], alias)
	}
	return out
}

func (k ResourceKind) String() string {
	switch k {
	case KindVM:
		return "VM"
	case KindScaleSet:
		return "ScaleSet"
	case KindManagedCluster:
		return "ManagedCluster"
	default:
		return "Unknown"
	}
}

type ActionStatus int

const (
	StatusUnprocessedInitial ActionStatus = iota
	StatusSuccess
	StatusErrorStopping
	StatusErrorDuringStopAction
	StatusErrorNotFound
	StatusNotFound
	StatusCannotBeStopped
	StatusUnsupportedObject
)

var statusNames = map[ActionStatus]string{
	StatusUnprocessedInitial:    "UnprocessedInitial",
	StatusSuccess:               "Success",
	StatusErrorStopping:         "ErrorStopping",
	StatusErrorDuringStopAction: "ErrorDuringStopAction",
	StatusErrorNotFound:         "ErrorNotFound",
	StatusNotFound:              "NotFound",
	StatusCannotBeStopped:       "CannotBeStopped",
	StatusUnsupportedObject:     "UnsupportedObject",
}

func (s ActionStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ActionStatus(%d)", int(s))
}

func (s ActionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Information values written by the dispatcher.
const (
	InfoAlreadyStopped = "AlreadyStopped"
	InfoSkipped        = "Skipped"
	InfoStopRequested  = "StopRequested"
	InfoSimulated      = "Simulated"
)

// InventoryRow is one row of the inventory file, as read.
type InventoryRow struct {
	Subscription   string
	SubscriptionID string
	ResourceType   string
	ResourceName   string
	ResourceID     string
}

// Outcome is the terminal result of processing one record.
type Outcome struct {
	Status      ActionStatus
	Information string
	Err         error
}

type ResourceRecord struct {
	Subscription   string       `json:"subscription"`
	SubscriptionID string       `json:"subscriptionId"`
	Kind           ResourceKind `json:"-"`
	RawType        string       `json:"type"`
	Name           string       `json:"name"`
	ID             string       `json:"id"`
	Exempt         bool         `json:"exempt"`
	Status         ActionStatus `json:"status"`
	Information    string       `json:"information,omitempty"`

	completed bool
}

func NewResourceRecord(row InventoryRow, exempt bool) *ResourceRecord {
	return &ResourceRecord{
		Subscription:   row.Subscription,
		SubscriptionID: row.SubscriptionID,
		Kind:           ParseKind(row.ResourceType),
		RawType:        row.ResourceType,
		Name:           row.ResourceName,
		ID:             row.ResourceID,
		Exempt:         exempt,
		Status:         StatusUnprocessedInitial,
	}
}

// Complete assigns the terminal status. A record can only be completed once.
func (r *ResourceRecord) Complete(o Outcome) error {
	if r.completed {
		return fmt.Errorf("record %s already completed with status %s", r.ID, r.Status)
	}
	r.Status = o.Status
	r.Information = o.Information
	if o.Err != nil {
		if r.Information != "" {
			r.Information = fmt.Sprintf("%s: %v", r.Information, o.Err)
		} else {
			r.Information = o.Err.Error()
		}
	}
	r.completed = true
	return nil
}

func (r *ResourceRecord) Completed() bool {
	return r.completed
}

// ExemptionSet holds protected subscription IDs. Lookups ignore case.
type ExemptionSet struct {
	ids map[string]struct{}
}

func NewExemptionSet(ids ...string) ExemptionSet {
	set := ExemptionSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		set.ids[strings.ToLower(id)] = struct{}{}
	}
	return set
}

func (s ExemptionSet) Contains(subscriptionID string) bool {
	_, ok := s.ids[strings.ToLower(strings.TrimSpace(subscriptionID))]
	return ok
}

func (s ExemptionSet) Len() int {
	return len(s.ids)
}

// RunCounters tallies actionable records per kind.
type RunCounters struct {
	VM             int
	ScaleSet       int
	ManagedCluster int
	Unknown        int
}

func (c *RunCounters) Add(kind ResourceKind) {
	switch kind {
	case KindVM:
		c.VM++
	case KindScaleSet:
		c.ScaleSet++
	case KindManagedCluster:
		c.ManagedCluster++
	default:
		c.Unknown++
	}
}

func (c RunCounters) Total() int {
	return c.VM + c.ScaleSet + c.ManagedCluster + c.Unknown
}
