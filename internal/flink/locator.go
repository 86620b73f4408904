package flink

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/flinkview/flinkview/internal/config"
	"github.com/flinkview/flinkview/internal/metrics"
)

// JobLocator is the lookup capability consumed by the HTTP layer. Only the
// Kubernetes-operator strategy exists today; the interface leaves room for
// other scheduler backends.
type JobLocator interface {
	FindAll(ctx context.Context) ([]Job, error)
}

// DeploymentLister abstracts the resource client so locator tests can run
// against canned documents.
type DeploymentLister interface {
	Find(ctx context.Context, namespace, labelSelector string) ([]unstructured.Unstructured, error)
}

// NewLocator selects a locator strategy from configuration.
func NewLocator(cfg config.Config, lister DeploymentLister, logger *zap.Logger) JobLocator {
	if cfg.JobLocator.K8sOperator.Enabled {
		return NewK8sOperatorLocator(cfg, lister, logger)
	}
	return noopLocator{}
}

// K8sOperatorLocator finds jobs by listing FlinkDeployment custom resources
// managed by the Flink Kubernetes operator.
type K8sOperatorLocator struct {
	namespace string
	selector  string
	debug     bool
	lister    DeploymentLister
	logger    *zap.Logger
}

// NewK8sOperatorLocator builds the operator-backed strategy.
func NewK8sOperatorLocator(cfg config.Config, lister DeploymentLister, logger *zap.Logger) *K8sOperatorLocator {
	return &K8sOperatorLocator{
		namespace: cfg.JobLocator.K8sOperator.NamespaceToWatch,
		selector:  cfg.JobLocator.K8sOperator.LabelSelector,
		debug:     cfg.Debug,
		lister:    lister,
		logger:    logger,
	}
}

// FindAll lists the watched namespace and normalizes every returned document,
// preserving the order the API server returned them in. Listing errors are
// logged and propagated; malformed documents are not errors.
func (l *K8sOperatorLocator) FindAll(ctx context.Context) ([]Job, error) {
	deployments, err := l.lister.Find(ctx, l.namespace, l.selector)
	if err != nil {
		metrics.ObserveJobListError()
		l.logger.Error("listing FlinkDeployments failed",
			zap.String("namespace", l.namespace),
			zap.String("labelSelector", l.selector),
			zap.Error(err),
		)
		return nil, fmt.Errorf("listing FlinkDeployments in namespace %q: %w", l.namespace, err)
	}

	jobs := make([]Job, 0, len(deployments))
	for i := range deployments {
		jobs = append(jobs, Normalize(&deployments[i]))
	}

	metrics.ObserveJobsFound(len(deployments))
	if l.debug {
		l.logger.Info("found FlinkDeployments",
			zap.Int("count", len(deployments)),
			zap.String("namespace", l.namespace),
		)
	}
	return jobs, nil
}

type noopLocator struct{}

func (noopLocator) FindAll(context.Context) ([]Job, error) {
	return []Job{}, nil
}
