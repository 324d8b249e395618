package cluster

import (
	"path"
	"strconv"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

const (
	portNameInstance = "instance"
	portNameData     = "data"
	volumeNameData   = "worker-data"
)

func podLabels(workerID int) map[string]string {
	return map[string]string{
		LabelApp:      WorkerName(workerID),
		LabelWorkerID: strconv.Itoa(workerID),
	}
}

func newVolume(cfg *Config, workerID int) (*corev1.PersistentVolume, error) {
	size, err := resource.ParseQuantity(cfg.VolumeSize)
	if err != nil {
		return nil, err
	}

	return &corev1.PersistentVolume{
		ObjectMeta: metav1.ObjectMeta{
			Name:   VolumeName(workerID),
			Labels: podLabels(workerID),
		},
		Spec: corev1.PersistentVolumeSpec{
			StorageClassName: DefaultStorageClass,
			Capacity: corev1.ResourceList{
				corev1.ResourceStorage: size,
			},
			AccessModes:                   []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			PersistentVolumeReclaimPolicy: corev1.PersistentVolumeReclaimDelete,
			PersistentVolumeSource: corev1.PersistentVolumeSource{
				HostPath: &corev1.HostPathVolumeSource{
					Path: path.Join(cfg.HostPathRoot, strconv.Itoa(workerID)),
				},
			},
		},
	}, nil
}

func newVolumeClaim(cfg *Config, workerID int) (*corev1.PersistentVolumeClaim, error) {
	size, err := resource.ParseQuantity(cfg.VolumeSize)
	if err != nil {
		return nil, err
	}

	storageClass := DefaultStorageClass

	return &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      VolumeClaimName(workerID),
			Namespace: cfg.Namespace,
			Labels:    podLabels(workerID),
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			StorageClassName: &storageClass,
			AccessModes:      []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.ResourceRequirements{
				Requests: corev1.ResourceList{
					corev1.ResourceStorage: size,
				},
			},
			VolumeName: VolumeName(workerID),
		},
	}, nil
}

func newService(cfg *Config, workerID int) *corev1.Service {
	labels := map[string]string{
		LabelService:  AppLabel,
		LabelWorkerID: strconv.Itoa(workerID),
	}

	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      WorkerName(workerID),
			Namespace: cfg.Namespace,
			Labels:    labels,
		},
		Spec: corev1.ServiceSpec{
			Type: corev1.ServiceTypeClusterIP,
			Selector: map[string]string{
				LabelApp: WorkerName(workerID),
			},
			Ports: []corev1.ServicePort{
				{
					Name:       portNameInstance,
					Port:       int32(cfg.InstancePort),
					TargetPort: intstr.FromInt(cfg.InstancePort),
				},
				{
					Name:       portNameData,
					Port:       int32(cfg.InstanceDataPort),
					TargetPort: intstr.FromInt(cfg.InstanceDataPort),
				},
			},
		},
	}
}

func newDeployment(cfg *Config, workerID int, clusterIP, masterAddr string) *appsv1.Deployment {
	replicas := int32(1)
	id := strconv.Itoa(workerID)

	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      WorkerName(workerID),
			Namespace: cfg.Namespace,
			Labels: map[string]string{
				LabelDeployment: AppLabel,
				LabelWorkerID:   id,
			},
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{
				MatchLabels: podLabels(workerID),
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: podLabels(workerID),
				},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name:            WorkerName(workerID),
							Image:           cfg.Image,
							ImagePullPolicy: corev1.PullIfNotPresent,
							Env: []corev1.EnvVar{
								{Name: "WORKER_ID", Value: id},
								{Name: "MASTER_HOST", Value: masterAddr},
								{Name: "HOST_NAME", Value: clusterIP},
								{Name: "SERVER_PORT", Value: strconv.Itoa(cfg.InstancePort)},
								{Name: "SERVER_DATA_PORT", Value: strconv.Itoa(cfg.InstanceDataPort)},
							},
							Ports: []corev1.ContainerPort{
								{Name: portNameInstance, ContainerPort: int32(cfg.InstancePort)},
								{Name: portNameData, ContainerPort: int32(cfg.InstanceDataPort)},
							},
							VolumeMounts: []corev1.VolumeMount{
								{Name: volumeNameData, MountPath: DefaultDataMountPath},
							},
						},
					},
					Volumes: []corev1.Volume{
						{
							Name: volumeNameData,
							VolumeSource: corev1.VolumeSource{
								PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
									ClaimName: VolumeClaimName(workerID),
								},
							},
						},
					},
				},
			},
		},
	}
}
