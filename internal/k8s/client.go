// Package k8s provides access to FlinkDeployment custom resources through
// the Kubernetes dynamic client.
package k8s

import (
	"context"
	"errors"
	"fmt"
	"sync"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

const (
	// Group is the API group of the Flink Kubernetes operator CRD.
	Group = "flink.apache.org"
	// Plural is the resource plural of the FlinkDeployment CRD.
	Plural = "flinkdeployments"
)

// Versions lists candidate API versions in probe order. Which version is
// served depends on the operator release installed in the cluster.
var Versions = []string{"v1beta1", "v1"}

// ErrNoServedVersion indicates that every candidate API version was rejected
// with a 400 or 404, i.e. the CRD is not served in any known version.
var ErrNoServedVersion = errors.New("no served FlinkDeployment version available")

// allNamespaceSentinels trigger a cluster-scoped list instead of a
// namespace-scoped one.
var allNamespaceSentinels = map[string]struct{}{
	"*": {}, "_all_": {}, "ALL": {}, "all": {},
}

// Client lists FlinkDeployment custom resources. The underlying dynamic
// client is established lazily on first use and reused afterwards; it is safe
// for concurrent use.
type Client struct {
	mu      sync.Mutex
	dyn     dynamic.Interface
	connect func() (dynamic.Interface, error)
}

// NewClient returns a Client that connects on first use, preferring
// in-cluster service-account credentials and falling back to the local
// kubeconfig.
func NewClient() *Client {
	return &Client{connect: connectDynamic}
}

// NewClientWithDynamic returns a Client backed by an already-built dynamic
// client. Used in tests to inject fakes.
func NewClientWithDynamic(dyn dynamic.Interface) *Client {
	return &Client{dyn: dyn}
}

func connectDynamic() (dynamic.Interface, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
		cfg, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
			loadingRules,
			&clientcmd.ConfigOverrides{},
		).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("building kubernetes config: %w", err)
		}
	}

	dyn, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating dynamic client: %w", err)
	}
	return dyn, nil
}

// ensure establishes the dynamic client once. The handle is stored only after
// successful establishment so a failed or cancelled attempt is retried on the
// next call.
func (c *Client) ensure() (dynamic.Interface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dyn != nil {
		return c.dyn, nil
	}
	dyn, err := c.connect()
	if err != nil {
		return nil, err
	}
	c.dyn = dyn
	return dyn, nil
}

// Find lists FlinkDeployment resources in the given namespace, or across the
// whole cluster when namespace is one of the all-namespace sentinels. An
// empty labelSelector means unfiltered.
//
// Candidate API versions are probed in order; a 400 or 404 response means the
// version is not served and the next candidate is tried. Any other error
// aborts immediately. When every candidate is rejected, the returned error
// matches ErrNoServedVersion.
func (c *Client) Find(ctx context.Context, namespace, labelSelector string) ([]unstructured.Unstructured, error) {
	dyn, err := c.ensure()
	if err != nil {
		return nil, err
	}

	opts := metav1.ListOptions{LabelSelector: labelSelector}
	_, clusterScoped := allNamespaceSentinels[namespace]

	var lastErr error
	for _, version := range Versions {
		gvr := schema.GroupVersionResource{Group: Group, Version: version, Resource: Plural}

		var list *unstructured.UnstructuredList
		if clusterScoped {
			list, err = dyn.Resource(gvr).List(ctx, opts)
		} else {
			list, err = dyn.Resource(gvr).Namespace(namespace).List(ctx, opts)
		}
		if err != nil {
			if apierrors.IsNotFound(err) || apierrors.IsBadRequest(err) {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("listing %s/%s: %w", Group, version, err)
		}
		return list.Items, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoServedVersion, lastErr)
	}
	return nil, ErrNoServedVersion
}
