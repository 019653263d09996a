package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/de-tools/fleet-stop/pkg/models/domain"
	"github.com/spf13/cobra"
)

type KindsCmd struct {
	session *Session
}

func NewKindsCmd(session *Session) *cobra.Command {
	kc := &KindsCmd{session: session}
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the resource type strings recognized in the inventory",
		Args:  cobra.NoArgs,
		RunE:  kc.run,
	}
}

func (kc *KindsCmd) run(_ *cobra.Command, _ []string) error {
	out := kc.session.output()
	for _, kind := range []domain.ResourceKind{domain.KindVM, domain.KindScaleSet, domain.KindManagedCluster} {
		aliases := domain.KindAliases()[kind]
		sort.Strings(aliases)
		if _, err := fmt.Fprintf(out, "%-15s %s\n", kind.String(), strings.Join(aliases, ", ")); err != nil {
			return err
		}
	}
	return nil
}
