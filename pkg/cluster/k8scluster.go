package cluster

import (
	"context"

	log "github.com/sirupsen/logrus"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

type k8sCluster struct {
	client kubernetes.Interface
	cfg    *Config

	log *log.Entry
}

func NewK8sCluster(client kubernetes.Interface, cfg *Config) (Cluster, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	cfg = cfg.withDefaults()

	return &k8sCluster{
		client: client,
		cfg:    cfg,

		log: log.WithFields(map[string]interface{}{
			"service":   "cluster",
			"namespace": cfg.Namespace,
		}),
	}, nil
}

func (k *k8sCluster) CreateVolume(ctx context.Context, workerID int) (*Descriptor, error) {
	pv, err := newVolume(k.cfg, workerID)
	if err != nil {
		return nil, err
	}

	created, err := k.client.CoreV1().PersistentVolumes().Create(ctx, pv, metav1.CreateOptions{})
	if err != nil {
		return nil, err
	}

	return &Descriptor{Name: created.Name, Labels: created.Labels}, nil
}

func (k *k8sCluster) CreateVolumeClaim(ctx context.Context, workerID int) (*Descriptor, error) {
	pvc, err := newVolumeClaim(k.cfg, workerID)
	if err != nil {
		return nil, err
	}

	created, err := k.client.CoreV1().PersistentVolumeClaims(k.cfg.Namespace).Create(ctx, pvc, metav1.CreateOptions{})
	if err != nil {
		return nil, err
	}

	return &Descriptor{Name: created.Name, Labels: created.Labels}, nil
}

func (k *k8sCluster) CreateService(ctx context.Context, workerID int) (*Descriptor, error) {
	created, err := k.client.CoreV1().Services(k.cfg.Namespace).Create(ctx, newService(k.cfg, workerID), metav1.CreateOptions{})
	if err != nil {
		return nil, err
	}

	return &Descriptor{Name: created.Name, Labels: created.Labels, ClusterIP: created.Spec.ClusterIP}, nil
}

func (k *k8sCluster) CreateDeployment(ctx context.Context, workerID int, clusterIP, masterAddr string) (*Descriptor, error) {
	deployment := newDeployment(k.cfg, workerID, clusterIP, masterAddr)

	created, err := k.client.AppsV1().Deployments(k.cfg.Namespace).Create(ctx, deployment, metav1.CreateOptions{})
	if err != nil {
		return nil, err
	}

	return &Descriptor{Name: created.Name, Labels: created.Labels}, nil
}

func (k *k8sCluster) DeleteDeployment(ctx context.Context, workerID int) error {
	propagation := metav1.DeletePropagationForeground

	return k.client.AppsV1().Deployments(k.cfg.Namespace).Delete(ctx, WorkerName(workerID), metav1.DeleteOptions{
		PropagationPolicy: &propagation,
	})
}

func (k *k8sCluster) DeleteService(ctx context.Context, workerID int) error {
	return k.client.CoreV1().Services(k.cfg.Namespace).Delete(ctx, WorkerName(workerID), metav1.DeleteOptions{})
}

func (k *k8sCluster) DeleteVolume(ctx context.Context, workerID int) error {
	return k.client.CoreV1().PersistentVolumes().Delete(ctx, VolumeName(workerID), metav1.DeleteOptions{})
}

func (k *k8sCluster) DeleteVolumeClaim(ctx context.Context, workerID int) error {
	return k.client.CoreV1().PersistentVolumeClaims(k.cfg.Namespace).Delete(ctx, VolumeClaimName(workerID), metav1.DeleteOptions{})
}

func (k *k8sCluster) ListDeployments(ctx context.Context, selector string) ([]*Descriptor, error) {
	deployments, err := k.client.AppsV1().Deployments(k.cfg.Namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return nil, err
	}

	descriptors := make([]*Descriptor, 0, len(deployments.Items))
	for _, d := range deployments.Items {
		descriptors = append(descriptors, &Descriptor{
			Name:   d.Name,
			Labels: d.Labels,
		})
	}

	k.log.Debugf("listed deployments, selector=%s len=%d", selector, len(descriptors))

	return descriptors, nil
}

func (k *k8sCluster) ListServices(ctx context.Context, selector string) ([]*Descriptor, error) {
	services, err := k.client.CoreV1().Services(k.cfg.Namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return nil, err
	}

	descriptors := make([]*Descriptor, 0, len(services.Items))
	for _, s := range services.Items {
		descriptors = append(descriptors, &Descriptor{
			Name:      s.Name,
			Labels:    s.Labels,
			ClusterIP: s.Spec.ClusterIP,
		})
	}

	k.log.Debugf("listed services, selector=%s len=%d", selector, len(descriptors))

	return descriptors, nil
}
