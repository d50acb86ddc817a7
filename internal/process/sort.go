package process

import (
	"sort"

	"github.com/opmodel/tk/internal/manifest"
)

// Kinds sort in this order; lower weights come first. Unknown kinds share
// weightDefault.
const (
	weightCRD         = -100
	weightNamespace   = 0
	weightClusterRBAC = 5
	weightIdentity    = 10
	weightConfig      = 15
	weightStorage     = 20
	weightService     = 50
	weightWorkload    = 100
	weightBatch       = 110
	weightNetwork     = 150
	weightPolicy      = 200
	weightWebhook     = 500
	weightDefault     = 1000
)

var kindWeights = map[string]int{
	"CustomResourceDefinition":       weightCRD,
	"Namespace":                      weightNamespace,
	"ClusterRole":                    weightClusterRBAC,
	"ClusterRoleBinding":             weightClusterRBAC,
	"ServiceAccount":                 weightIdentity,
	"Role":                           weightIdentity,
	"RoleBinding":                    weightIdentity,
	"Secret":                         weightConfig,
	"ConfigMap":                      weightConfig,
	"StorageClass":                   weightStorage,
	"PersistentVolume":               weightStorage,
	"PersistentVolumeClaim":          weightStorage,
	"Service":                        weightService,
	"Deployment":                     weightWorkload,
	"StatefulSet":                    weightWorkload,
	"DaemonSet":                      weightWorkload,
	"ReplicaSet":                     weightWorkload,
	"Job":                            weightBatch,
	"CronJob":                        weightBatch,
	"Ingress":                        weightNetwork,
	"NetworkPolicy":                  weightNetwork,
	"HorizontalPodAutoscaler":        weightPolicy,
	"PodDisruptionBudget":            weightPolicy,
	"ValidatingWebhookConfiguration": weightWebhook,
	"MutatingWebhookConfiguration":   weightWebhook,
}

// Weight returns the sort weight of a manifest's kind.
func Weight(m manifest.Manifest) int {
	if w, ok := kindWeights[m.Kind()]; ok {
		return w
	}
	return weightDefault
}

// Sort orders manifests by kind weight, then namespace, kind and name.
func Sort(list manifest.List) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if wa, wb := Weight(a), Weight(b); wa != wb {
			return wa < wb
		}
		if na, nb := a.Namespace(), b.Namespace(); na != nb {
			return na < nb
		}
		if a.Kind() != b.Kind() {
			return a.Kind() < b.Kind()
		}
		return a.Name() < b.Name()
	})
}
