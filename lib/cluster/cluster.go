// Package cluster queries the Kubernetes cluster hosting the workspaces.
package cluster

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
)

// PodSummary is the subset of pod state the pipeline reads
type PodSummary struct {
	Name      string
	Namespace string
	Phase     string
	Labels    map[string]string
}

// PodLister lists pods matching field and label selectors
type PodLister interface {
	ListPods(ctx context.Context, namespace, fieldSelector, labelSelector string) ([]PodSummary, error)
}

// Client implements PodLister on top of a Kubernetes clientset
type Client struct {
	clientset kubernetes.Interface
}

// NewClient wraps an existing clientset
func NewClient(clientset kubernetes.Interface) *Client {
	return &Client{clientset: clientset}
}

// NewFromKubeconfig builds a client from a kubeconfig path. An empty path
// uses the default loading rules (KUBECONFIG, ~/.kube/config, in-cluster).
func NewFromKubeconfig(path string) (*Client, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if path != "" {
		rules.ExplicitPath = path
	}

	restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("load kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("create clientset: %w", err)
	}
	return NewClient(clientset), nil
}

func (c *Client) ListPods(ctx context.Context, namespace, fieldSelector, labelSelector string) ([]PodSummary, error) {
	pods, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		FieldSelector: fieldSelector,
		LabelSelector: labelSelector,
	})
	if err != nil {
		return nil, fmt.Errorf("list pods in %s: %w", namespace, err)
	}

	out := make([]PodSummary, 0, len(pods.Items))
	for _, pod := range pods.Items {
		out = append(out, PodSummary{
			Name:      pod.Name,
			Namespace: pod.Namespace,
			Phase:     string(pod.Status.Phase),
			Labels:    pod.Labels,
		})
	}
	return out, nil
}
